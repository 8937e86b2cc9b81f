// Package debate runs debater turns and judge evaluations against the
// configured completion providers.
package debate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
	"github.com/ForgottenHistory/Debate-Corner/internal/personality"
	"github.com/ForgottenHistory/Debate-Corner/internal/prompt"
	"github.com/ForgottenHistory/Debate-Corner/internal/provider"
	"github.com/ForgottenHistory/Debate-Corner/internal/stream"
	"github.com/ForgottenHistory/Debate-Corner/internal/verdict"
)

// ErrInvalidInput is returned for requests that are rejected before any
// upstream call is made.
var ErrInvalidInput = errors.New("invalid input")

// IsInvalid reports whether err was caused by bad caller input.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, prompt.ErrInvalidRequest) ||
		errors.Is(err, core.ErrInvalidTranscript)
}

// Settings holds the defaults applied to incoming requests.
type Settings struct {
	Provider           string
	Length             core.LengthTier
	Personality        string
	DebaterTemperature float64
	DebaterMaxTokens   int
	JudgeTemperature   float64
	JudgeMaxTokens     int
}

// DefaultSettings returns the built-in request defaults.
func DefaultSettings() Settings {
	return Settings{
		Provider:           string(provider.Featherless),
		Length:             core.LengthMedium,
		Personality:        personality.FallbackID,
		DebaterTemperature: 0.8,
		DebaterMaxTokens:   800,
		JudgeTemperature:   0.7,
		JudgeMaxTokens:     400,
	}
}

// Service generates debate turns and judge verdicts.
type Service struct {
	providers *provider.Registry
	debaters  *personality.Registry
	judges    *personality.Registry
	settings  Settings
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used to stamp turns.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a new debate service.
func New(providers *provider.Registry, debaters, judges *personality.Registry, settings Settings, opts ...Option) *Service {
	s := &Service{
		providers: providers,
		debaters:  debaters,
		judges:    judges,
		settings:  settings,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Debaters returns the debater personality registry.
func (s *Service) Debaters() *personality.Registry { return s.debaters }

// Judges returns the judge personality registry.
func (s *Service) Judges() *personality.Registry { return s.judges }

// Providers returns the provider registry.
func (s *Service) Providers() *provider.Registry { return s.providers }

// Settings returns the request defaults.
func (s *Service) Settings() Settings { return s.settings }

// resolveProvider returns the named provider, or the default one when name
// is empty.
func (s *Service) resolveProvider(name string) (provider.Provider, error) {
	if name == "" {
		name = s.settings.Provider
	}
	if _, err := provider.ParseKind(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p, err := s.providers.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: provider %s is not enabled", ErrInvalidInput, name)
	}
	return p, nil
}

// prepare validates a turn request and builds the upstream call for it.
func (s *Service) prepare(req core.GenerationRequest) (provider.Provider, provider.Request, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, provider.Request{}, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, provider.Request{}, fmt.Errorf("%w: model is required", ErrInvalidInput)
	}
	if req.TurnKind == core.TurnOpening {
		req.Round = 0
	}
	if err := core.ValidateTurn(core.DebateTurn{Side: req.Side, Kind: req.TurnKind, Round: req.Round}); err != nil {
		return nil, provider.Request{}, err
	}
	if err := core.ValidateTranscript(req.PriorTurns); err != nil {
		return nil, provider.Request{}, err
	}

	p, err := s.resolveProvider(req.Provider)
	if err != nil {
		return nil, provider.Request{}, err
	}

	if req.Length == "" {
		req.Length = s.settings.Length
	}
	if req.PersonalityID == "" {
		req.PersonalityID = s.settings.Personality
	}

	messages, err := prompt.ComposeDebater(req, s.debaters)
	if err != nil {
		return nil, provider.Request{}, err
	}

	return p, provider.Request{
		Model:    req.Model,
		Messages: messages,
		Sampling: req.Sampling.WithDefaults(s.settings.DebaterTemperature, s.settings.DebaterMaxTokens),
	}, nil
}

// GenerateTurn produces one complete debater turn.
func (s *Service) GenerateTurn(ctx context.Context, req core.GenerationRequest) (string, error) {
	p, call, err := s.prepare(req)
	if err != nil {
		return "", err
	}

	slog.Debug("Generating turn", "provider", p.Name(), "model", req.Model, "position", req.Side, "type", req.TurnKind, "round", req.Round)
	text, err := p.Generate(ctx, call)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s turn: %w", req.Side, err)
	}
	return text, nil
}

// StreamTurn starts one debater turn and returns its fragments as they
// arrive. The caller must close the returned Closer.
func (s *Service) StreamTurn(ctx context.Context, req core.GenerationRequest) (*stream.Transcoder, io.Closer, error) {
	p, call, err := s.prepare(req)
	if err != nil {
		return nil, nil, err
	}

	slog.Debug("Streaming turn", "provider", p.Name(), "model", req.Model, "position", req.Side, "type", req.TurnKind, "round", req.Round)
	body, err := p.GenerateStream(ctx, call)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stream %s turn: %w", req.Side, err)
	}
	return stream.NewTranscoder(body), body, nil
}

// JudgeRequest asks one judge to evaluate a transcript.
type JudgeRequest struct {
	Provider          string
	Model             string
	Topic             string
	Transcript        []core.DebateTurn
	UsedPersonalities []string
	Sampling          core.SamplingParams
	JudgeIndex        int
}

// Judge evaluates a transcript with a judge personality not listed in
// UsedPersonalities.
func (s *Service) Judge(ctx context.Context, req JudgeRequest) (core.JudgeVerdict, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return core.JudgeVerdict{}, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Model) == "" {
		return core.JudgeVerdict{}, fmt.Errorf("%w: model is required", ErrInvalidInput)
	}
	if len(req.Transcript) == 0 {
		return core.JudgeVerdict{}, fmt.Errorf("%w: debate history is required", ErrInvalidInput)
	}
	if err := core.ValidateTranscript(req.Transcript); err != nil {
		return core.JudgeVerdict{}, err
	}

	p, err := s.resolveProvider(req.Provider)
	if err != nil {
		return core.JudgeVerdict{}, err
	}

	id := s.judges.PickUnused(req.UsedPersonalities)
	judge, _ := s.judges.Get(id)

	messages, err := prompt.ComposeJudge(req.Topic, req.Transcript, judge.Style)
	if err != nil {
		return core.JudgeVerdict{}, err
	}

	slog.Debug("Judging debate", "provider", p.Name(), "model", req.Model, "judge", req.JudgeIndex, "personality", id)
	raw, err := p.Generate(ctx, provider.Request{
		Model:    req.Model,
		Messages: messages,
		Sampling: req.Sampling.WithDefaults(s.settings.JudgeTemperature, s.settings.JudgeMaxTokens),
	})
	if err != nil {
		return core.JudgeVerdict{}, fmt.Errorf("failed to get verdict: %w", err)
	}

	result := verdict.Parse(raw)
	return core.JudgeVerdict{
		JudgeIndex:    req.JudgeIndex,
		Winner:        result.Winner,
		Reasoning:     result.Reasoning,
		Personality:   judge.Name,
		PersonalityID: id,
	}, nil
}

// ListModels returns the model catalog of the named provider, or of the
// default provider when name is empty.
func (s *Service) ListModels(ctx context.Context, name string) ([]provider.Model, error) {
	p, err := s.resolveProvider(name)
	if err != nil {
		return nil, err
	}
	return p.ListModels(ctx), nil
}
