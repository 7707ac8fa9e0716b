package config

import (
	"fmt"
	"time"
)

// Supported advice providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderCompat = "compat" // any OpenAI-compatible endpoint
)

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{ProviderOpenAI, ProviderGemini, ProviderCompat}

// LLMConfig configures the advice oracle.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`    // empty = provider default
	BaseURL     string  `yaml:"base_url"` // empty = provider default
	Timeout     string  `yaml:"timeout"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// PromptTemplate replaces the built-in advisor prompt. It is a
	// text/template with .MonthlyIncome, .ItemName and .ItemPrice.
	PromptTemplate string `yaml:"prompt_template,omitempty"`
}

// GetTimeout returns the request timeout. Zero disables it.
func (c LLMConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// Validate checks the provider selection.
func (c LLMConfig) Validate() error {
	valid := false
	for _, p := range ValidProviders {
		if c.Provider == p {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.Provider, ValidProviders)
	}
	if c.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY, GEMINI_API_KEY or LLM_API_KEY)")
	}
	if c.Provider == ProviderCompat && c.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required for the %s provider", ProviderCompat)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}
	return nil
}
