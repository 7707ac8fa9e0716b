package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists every environment variable Load honours.
type envOverrides struct {
	OpenAIKey string `env:"OPENAI_API_KEY"`
	GeminiKey string `env:"GEMINI_API_KEY"`
	CompatKey string `env:"LLM_API_KEY"`

	Provider string `env:"SHOULDIBUY_PROVIDER"`
	Model    string `env:"SHOULDIBUY_MODEL"`
	BaseURL  string `env:"SHOULDIBUY_LLM_BASE_URL"`

	Addr     string `env:"SHOULDIBUY_ADDR"`
	Port     int    `env:"PORT"`
	BasePath string `env:"SHOULDIBUY_BASE_PATH"`

	StorePath string `env:"SHOULDIBUY_DB"`
	LogLevel  string `env:"SHOULDIBUY_LOG_LEVEL"`

	OTelEnabled  *bool  `env:"SHOULDIBUY_OTEL_ENABLED"`
	OTelEndpoint string `env:"SHOULDIBUY_OTEL_ENDPOINT"`
}

func (e envOverrides) keyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return e.OpenAIKey
	case ProviderGemini:
		return e.GeminiKey
	case ProviderCompat:
		return e.CompatKey
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides.
// Key precedence: GEMINI_API_KEY > OPENAI_API_KEY > LLM_API_KEY, unless
// SHOULDIBUY_PROVIDER pins the provider.
func (c *Config) applyEnvOverrides() error {
	var e envOverrides
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if e.CompatKey != "" {
		c.LLM.APIKey = e.CompatKey
		if c.LLM.Provider == "" {
			c.LLM.Provider = ProviderCompat
		}
	}
	if e.OpenAIKey != "" {
		c.LLM.APIKey = e.OpenAIKey
		c.LLM.Provider = ProviderOpenAI
	}
	if e.GeminiKey != "" {
		c.LLM.APIKey = e.GeminiKey
		c.LLM.Provider = ProviderGemini
	}
	if e.Provider != "" {
		c.LLM.Provider = e.Provider
		if key := e.keyFor(e.Provider); key != "" {
			c.LLM.APIKey = key
		}
	}
	if e.Model != "" {
		c.LLM.Model = e.Model
	}
	if e.BaseURL != "" {
		c.LLM.BaseURL = e.BaseURL
	}

	if e.Port != 0 {
		c.Server.Addr = fmt.Sprintf(":%d", e.Port)
	}
	if e.Addr != "" {
		c.Server.Addr = e.Addr
	}
	if e.BasePath != "" {
		c.Server.BasePath = e.BasePath
	}

	if e.StorePath != "" {
		c.Store.Path = e.StorePath
	}
	if e.LogLevel != "" {
		c.Logging.Level = e.LogLevel
	}

	if e.OTelEndpoint != "" {
		c.Telemetry.Endpoint = e.OTelEndpoint
		c.Telemetry.Enabled = true
	}
	if e.OTelEnabled != nil {
		c.Telemetry.Enabled = *e.OTelEnabled
	}
	return nil
}
