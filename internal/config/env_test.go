package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

func TestLoadEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")

	content := `
# Comment
KEY1=value1
KEY2="value 2"
KEY3='value 3'
KEY4=value4 # inline comment
EMPTY=
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0644))

	env, err := LoadEnv(envFile)
	require.NoError(t, err)

	tests := []struct {
		key      string
		expected string
	}{
		{"KEY1", "value1"},
		{"KEY2", "value 2"},
		{"KEY3", "value 3"},
		{"KEY4", "value4"},
		{"EMPTY", ""},
	}
	for _, tt := range tests {
		got, ok := env[tt.key]
		assert.True(t, ok, "%s missing", tt.key)
		assert.Equal(t, tt.expected, got, tt.key)
	}
}

func TestLoadEnvMissing(t *testing.T) {
	_, err := LoadEnv(filepath.Join(t.TempDir(), ".env"))
	assert.True(t, os.IsNotExist(err), "expected not-exist error, got %v", err)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	ApplyEnvOverrides(cfg, map[string]string{
		"DEFAULT_PROVIDER":             "openrouter",
		"DEFAULT_RESPONSE_LENGTH":      "short",
		"FEATHERLESS_API_KEY":          "fl-key",
		"OPENROUTER_API_KEY":           "or-key",
		"PROVIDER_FEATHERLESS_ENABLED": "false",
		"PROVIDER_TIMEOUT":             "60",
		"SERVER_PORT":                  "9090",
		"LEDGER_ENABLED":               "false",
		"LOG_LEVEL":                    "debug",
	})

	assert.Equal(t, "openrouter", cfg.Defaults.Provider)
	assert.Equal(t, core.LengthShort, cfg.Defaults.ResponseLength)
	assert.Equal(t, "fl-key", cfg.Providers["featherless"].APIKey)
	assert.Equal(t, "or-key", cfg.Providers["openrouter"].APIKey)
	assert.False(t, cfg.Providers["featherless"].Enabled)
	assert.True(t, cfg.Providers["openrouter"].Enabled)
	assert.Equal(t, 60*time.Second, cfg.Providers["openrouter"].Timeout)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Ledger.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvOverridesDurationTimeout(t *testing.T) {
	cfg := Default()
	ApplyEnvOverrides(cfg, map[string]string{"PROVIDER_TIMEOUT": "90s"})
	assert.Equal(t, 90*time.Second, cfg.Providers["featherless"].Timeout)
}

func TestApplyEnvOverridesDisablesDefaultProvider(t *testing.T) {
	cfg := Default()
	ApplyEnvOverrides(cfg, map[string]string{"PROVIDER_FEATHERLESS_ENABLED": "false"})
	assert.Error(t, cfg.Validate())
}

func TestMergeEnv(t *testing.T) {
	got := MergeEnv(map[string]string{"A": "1", "B": "1"}, map[string]string{"B": "2"})
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, got)
}
