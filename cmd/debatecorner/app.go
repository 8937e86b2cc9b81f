package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ForgottenHistory/Debate-Corner/internal/config"
	"github.com/ForgottenHistory/Debate-Corner/internal/debate"
	"github.com/ForgottenHistory/Debate-Corner/internal/ledger"
	"github.com/ForgottenHistory/Debate-Corner/internal/personality"
	"github.com/ForgottenHistory/Debate-Corner/internal/provider"
)

// app bundles the long-lived pieces built from the configuration.
type app struct {
	service *debate.Service
	ledger  ledger.Ledger
}

func (a *app) Close() error {
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}

// newLogger builds the slog logger for the configured level and format.
// debug forces the debug level.
func newLogger(w io.Writer, cfg config.LoggingConfig, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// openLedger opens the call ledger, or returns nil when it is disabled.
func openLedger(cfg *config.Config) (ledger.Ledger, error) {
	if !cfg.Ledger.Enabled {
		return nil, nil
	}

	store, err := ledger.NewSQLiteLedger(cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// newApp wires providers, personalities and the ledger from cfg.
func newApp(cfg *config.Config) (*app, error) {
	store, err := openLedger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	var opts []provider.Option
	if store != nil {
		opts = append(opts, provider.WithRecorder(ledger.NewRecorder(store)))
	}

	registry, err := cfg.CreateRegistry(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("failed to initialize provider registry: %w", err)
	}

	debaters, err := personality.LoadDebaters(cfg.Personalities.DebaterDir)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("failed to load debater personalities: %w", err)
	}
	judges, err := personality.LoadJudges(cfg.Personalities.JudgeDir)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("failed to load judge personalities: %w", err)
	}

	settings := debate.DefaultSettings()
	settings.Provider = cfg.Defaults.Provider
	settings.Length = cfg.Defaults.ResponseLength
	if cfg.Defaults.Personality != "" {
		settings.Personality = cfg.Defaults.Personality
	}
	settings.JudgeTemperature = cfg.Judging.Temperature
	settings.JudgeMaxTokens = cfg.Judging.MaxTokens

	slog.Debug("Application initialized",
		"providers", registry.Names(),
		"debaters", debaters.Len(),
		"judges", judges.Len(),
		"ledger", cfg.Ledger.Enabled,
	)

	return &app{
		service: debate.New(registry, debaters, judges, settings),
		ledger:  store,
	}, nil
}
