package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
	"github.com/ForgottenHistory/Debate-Corner/internal/provider"
)

// envKeys lists every variable ApplyEnvOverrides understands.
var envKeys = []string{
	"FEATHERLESS_API_KEY",
	"OPENROUTER_API_KEY",
	"DEFAULT_PROVIDER",
	"DEFAULT_RESPONSE_LENGTH",
	"SERVER_PORT",
	"PROVIDER_TIMEOUT",
	"PROVIDER_FEATHERLESS_ENABLED",
	"PROVIDER_OPENROUTER_ENABLED",
	"LEDGER_ENABLED",
	"LEDGER_PATH",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"DEBATER_PERSONALITIES_DIR",
	"JUDGE_PERSONALITIES_DIR",
}

// LoadEnv reads a .env file and returns a map of key-value pairs.
func LoadEnv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// ProcessEnv returns the known variables set in the process environment.
func ProcessEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range envKeys {
		if val, ok := os.LookupEnv(key); ok {
			env[key] = val
		}
	}
	return env
}

// MergeEnv combines env maps; later maps win.
func MergeEnv(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	// Server
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	// Defaults
	if val, ok := env["DEFAULT_PROVIDER"]; ok {
		cfg.Defaults.Provider = val
	}
	if val, ok := env["DEFAULT_RESPONSE_LENGTH"]; ok {
		cfg.Defaults.ResponseLength = core.LengthTier(val)
	}

	// Providers
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for _, kind := range provider.Kinds() {
		name := string(kind)
		pc := cfg.Providers[name]
		ep, _ := provider.DefaultEndpoint(kind)

		if val, ok := env[ep.APIKeyEnv]; ok {
			pc.APIKey = val
		}

		envKey := fmt.Sprintf("PROVIDER_%s_ENABLED", strings.ToUpper(name))
		if val, ok := env[envKey]; ok {
			if boolVal, err := strconv.ParseBool(val); err == nil {
				pc.Enabled = boolVal
			}
		}

		if val, ok := env["PROVIDER_TIMEOUT"]; ok {
			if seconds, err := strconv.Atoi(val); err == nil {
				pc.Timeout = time.Duration(seconds) * time.Second
			} else if duration, err := time.ParseDuration(val); err == nil {
				pc.Timeout = duration
			}
		}

		cfg.Providers[name] = pc
	}

	// Ledger
	if val, ok := env["LEDGER_ENABLED"]; ok {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			cfg.Ledger.Enabled = boolVal
		}
	}
	if val, ok := env["LEDGER_PATH"]; ok {
		cfg.Ledger.Path = val
	}

	// Logging
	if val, ok := env["LOG_LEVEL"]; ok {
		cfg.Logging.Level = val
	}
	if val, ok := env["LOG_FORMAT"]; ok {
		cfg.Logging.Format = val
	}

	// Personalities
	if val, ok := env["DEBATER_PERSONALITIES_DIR"]; ok {
		cfg.Personalities.DebaterDir = val
	}
	if val, ok := env["JUDGE_PERSONALITIES_DIR"]; ok {
		cfg.Personalities.JudgeDir = val
	}
}
