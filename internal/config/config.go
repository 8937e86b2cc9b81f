// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
	"github.com/ForgottenHistory/Debate-Corner/internal/provider"
)

// Config represents the application configuration.
type Config struct {
	Defaults      DefaultsConfig            `yaml:"defaults"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Judging       JudgingConfig             `yaml:"judging"`
	Personalities PersonalitiesConfig       `yaml:"personalities,omitempty"`
	Server        ServerConfig              `yaml:"server,omitempty"`
	Ledger        LedgerConfig              `yaml:"ledger"`
	Logging       LoggingConfig             `yaml:"logging"`
}

// DefaultsConfig holds default settings for debater turns.
type DefaultsConfig struct {
	Provider       string          `yaml:"provider"`
	ResponseLength core.LengthTier `yaml:"response_length"`
	Personality    string          `yaml:"personality"`
}

// ProviderConfig holds provider-specific settings.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
	// Timeout bounds a whole call, or only the wait for headers when streaming.
	Timeout time.Duration     `yaml:"timeout,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Enabled bool              `yaml:"enabled"`
}

// UnmarshalYAML decodes a provider section. A section without an enabled
// key leaves the provider enabled.
func (p *ProviderConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain ProviderConfig
	raw := plain{Enabled: true}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = ProviderConfig(raw)
	return nil
}

// JudgingConfig holds the sampling used for judge calls.
type JudgingConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// PersonalitiesConfig points at directories replacing the built-in sets.
type PersonalitiesConfig struct {
	DebaterDir string `yaml:"debater_dir,omitempty"`
	JudgeDir   string `yaml:"judge_dir,omitempty"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LedgerConfig controls the upstream call ledger.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	providers := make(map[string]ProviderConfig)
	for _, kind := range provider.Kinds() {
		ep, _ := provider.DefaultEndpoint(kind)
		providers[string(kind)] = ProviderConfig{
			BaseURL: ep.BaseURL,
			Timeout: 2 * time.Minute,
			Headers: ep.Headers,
			Enabled: true,
		}
	}

	return &Config{
		Defaults: DefaultsConfig{
			Provider:       string(provider.Featherless),
			ResponseLength: core.LengthMedium,
			Personality:    "honest",
		},
		Providers: providers,
		Judging: JudgingConfig{
			Temperature: 0.7,
			MaxTokens:   400,
		},
		Server: ServerConfig{
			Port: 8182,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    filepath.Join(configDir(), "ledger.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path, then applies
// overrides from ./.env and the process environment.
func LoadFrom(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	env, err := LoadEnv(".env")
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	ApplyEnvOverrides(cfg, MergeEnv(env, ProcessEnv()))

	cfg.Ledger.Path = expandHome(cfg.Ledger.Path)
	cfg.Personalities.DebaterDir = expandHome(cfg.Personalities.DebaterDir)
	cfg.Personalities.JudgeDir = expandHome(cfg.Personalities.JudgeDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Fill in anything a partial providers section left out.
	defaultCfg := Default()
	if cfg.Providers == nil {
		cfg.Providers = defaultCfg.Providers
	}
	for name, def := range defaultCfg.Providers {
		pc, exists := cfg.Providers[name]
		if !exists {
			cfg.Providers[name] = def
			continue
		}
		if pc.BaseURL == "" {
			pc.BaseURL = def.BaseURL
		}
		if pc.Timeout == 0 {
			pc.Timeout = def.Timeout
		}
		if pc.Headers == nil {
			pc.Headers = def.Headers
		}
		cfg.Providers[name] = pc
	}
	return cfg, nil
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	if _, err := provider.ParseKind(c.Defaults.Provider); err != nil {
		return fmt.Errorf("defaults.provider: %w", err)
	}
	for name := range c.Providers {
		if _, err := provider.ParseKind(name); err != nil {
			return fmt.Errorf("providers: %w", err)
		}
	}
	if pc, ok := c.Providers[c.Defaults.Provider]; ok && !pc.Enabled {
		return fmt.Errorf("defaults.provider: provider %s is disabled", c.Defaults.Provider)
	}
	if !c.Defaults.ResponseLength.Valid() {
		return fmt.Errorf("defaults.response_length: unknown tier %q", c.Defaults.ResponseLength)
	}
	if c.Judging.MaxTokens <= 0 {
		return fmt.Errorf("judging.max_tokens must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path. API keys are never
// written; they belong in the environment.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for name, pc := range c.Providers {
		pc.APIKey = ""
		out.Providers[name] = pc
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetProvider returns the configuration for a provider.
func (c *Config) GetProvider(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}

// ToProviderConfig converts a ProviderConfig to provider.Config.
func (p ProviderConfig) ToProviderConfig(kind provider.Kind) provider.Config {
	return provider.Config{
		Kind:    kind,
		BaseURL: p.BaseURL,
		APIKey:  p.APIKey,
		Timeout: p.Timeout,
		Headers: p.Headers,
	}
}

// CreateRegistry creates a provider registry from this configuration.
func (c *Config) CreateRegistry(opts ...provider.Option) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	for name, provCfg := range c.Providers {
		if !provCfg.Enabled {
			continue
		}
		kind, err := provider.ParseKind(name)
		if err != nil {
			return nil, err
		}

		p, err := provider.New(provCfg.ToProviderConfig(kind), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider %s: %w", name, err)
		}
		registry.Register(p)
	}

	return registry, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".debate-corner"
	}
	return filepath.Join(home, ".debate-corner")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	example := `# Debate Corner configuration file
# Place this file at ~/.debate-corner/config.yaml
# API keys are read from FEATHERLESS_API_KEY / OPENROUTER_API_KEY (or .env).

defaults:
  provider: featherless     # featherless or openrouter
  response_length: medium   # short, medium, long
  personality: honest       # debater personality used when none is given

providers:
  featherless:
    base_url: https://api.featherless.ai/v1
    timeout: 2m               # whole call, or time to first byte when streaming
    enabled: true

  openrouter:
    base_url: https://openrouter.ai/api/v1
    timeout: 2m
    enabled: true
    headers:
      HTTP-Referer: http://localhost:8182
      X-Title: Debate Corner

judging:
  temperature: 0.7
  max_tokens: 400

# Replace the built-in personalities with your own YAML files (optional)
personalities:
  debater_dir: ""
  judge_dir: ""

server:
  port: 8182

ledger:
  enabled: true
  path: ~/.debate-corner/ledger.db

logging:
  level: info               # debug, info, warn, error
  format: json              # json or text
`
	return example
}
