package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearLLMEnv blanks every variable applyEnvOverrides reads so the host
// environment cannot leak into assertions.
func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "GEMINI_API_KEY", "LLM_API_KEY",
		"SHOULDIBUY_PROVIDER", "SHOULDIBUY_MODEL", "SHOULDIBUY_LLM_BASE_URL",
		"SHOULDIBUY_ADDR", "SHOULDIBUY_BASE_PATH", "SHOULDIBUY_DB",
		"SHOULDIBUY_LOG_LEVEL", "SHOULDIBUY_OTEL_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
	// Numeric and boolean variables fail to parse when blank, so unset them
	// after registering the restore.
	for _, key := range []string{"PORT", "SHOULDIBUY_OTEL_ENABLED"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 100, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.8, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, ":8787", cfg.Server.Addr)
	assert.Equal(t, "*", cfg.Server.AllowedOrigin)
	assert.Equal(t, time.Second, cfg.Pile.GetExitDuration())
	assert.Equal(t, 250*time.Millisecond, cfg.Pile.GetEnterDuration())
	assert.True(t, cfg.Store.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearLLMEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = ProviderGemini
	cfg.LLM.APIKey = "g-test"
	cfg.Server.BasePath = "/ShouldIBuyIt"
	cfg.Pile.LogBase = 4

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: gpt-4o-mini\npile:\n  pool_limit: 12\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 100, cfg.LLM.MaxTokens)
	assert.Equal(t, 12, cfg.Pile.PoolLimit)
	assert.Equal(t, 300, cfg.Pile.MaxTarget)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not, a, map"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "sk-test"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }, "API key not configured"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "zai" }, "invalid LLM provider"},
		{"compat needs base url", func(c *Config) { c.LLM.Provider = ProviderCompat }, "base_url is required"},
		{"bad max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "max_tokens"},
		{"bad timeout", func(c *Config) { c.LLM.Timeout = "soon" }, "invalid llm.timeout"},
		{"bad log base", func(c *Config) { c.Pile.LogBase = 0.5 }, "log_base"},
		{"bad exit duration", func(c *Config) { c.Pile.ExitDuration = "x" }, "pile.exit_duration"},
		{"negative connections", func(c *Config) { c.Server.MaxConnections = -1 }, "max_connections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizedBasePath(t *testing.T) {
	for in, want := range map[string]string{
		"":               "",
		"/":              "",
		"ShouldIBuyIt":   "/ShouldIBuyIt",
		"/ShouldIBuyIt/": "/ShouldIBuyIt",
		" /a/b/ ":        "/a/b",
	} {
		assert.Equal(t, want, ServerConfig{BasePath: in}.NormalizedBasePath(), "input %q", in)
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "garbage"
	cfg.Server.ShutdownTimeout = ""
	assert.Equal(t, 30*time.Second, cfg.LLM.GetTimeout())
	assert.Equal(t, 10*time.Second, cfg.Server.GetShutdownTimeout())
}
