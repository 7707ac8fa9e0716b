package advice

import (
	"context"
	"fmt"

	"shouldibuy/internal/config"
	"shouldibuy/internal/logging"
)

// SettingsFromConfig maps the llm config section onto client settings.
func SettingsFromConfig(cfg config.LLMConfig) Settings {
	return Settings{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.GetTimeout(),
	}
}

// NewClientFromConfig creates the provider client named by cfg.Provider.
func NewClientFromConfig(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindConfig, cfg.Provider, err)
	}
	s := SettingsFromConfig(cfg)

	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client = NewOpenAIClient(s)
	case config.ProviderGemini:
		client, err = NewGeminiClient(ctx, s)
	case config.ProviderCompat:
		client, err = NewCompatClient(s)
	default:
		err = newError(KindConfig, cfg.Provider, fmt.Errorf("unsupported provider: %s", cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	logging.Boot("advice provider: %s (model=%s)", cfg.Provider, modelOf(client))
	return client, nil
}

func modelOf(c Client) string {
	if mg, ok := c.(modelGetter); ok {
		return mg.GetModel()
	}
	return ""
}

func providerOf(c Client) string {
	if pn, ok := c.(providerNamer); ok {
		return pn.ProviderName()
	}
	return ""
}
