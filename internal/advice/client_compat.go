package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shouldibuy/internal/config"
	"shouldibuy/internal/logging"

	openai "github.com/sashabaranov/go-openai"
)

// CompatClient talks to any OpenAI-compatible endpoint (local model
// servers, gateways) through go-openai.
type CompatClient struct {
	client   *openai.Client
	settings Settings
}

// NewCompatClient requires BaseURL and Model; the SDK has no sensible
// defaults for third-party endpoints.
func NewCompatClient(s Settings) (*CompatClient, error) {
	if s.BaseURL == "" {
		return nil, newError(KindConfig, config.ProviderCompat, fmt.Errorf("base URL is required"))
	}
	if s.Model == "" {
		s.Model = DefaultOpenAIModel
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 100
	}
	cfg := openai.DefaultConfig(s.APIKey)
	cfg.BaseURL = strings.TrimRight(s.BaseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: s.Timeout}
	return &CompatClient{client: openai.NewClientWithConfig(cfg), settings: s}, nil
}

// GetModel returns the configured model.
func (c *CompatClient) GetModel() string { return c.settings.Model }

// ProviderName returns config.ProviderCompat.
func (c *CompatClient) ProviderName() string { return config.ProviderCompat }

// Complete sends prompt as a single user message.
func (c *CompatClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withDeadline(ctx, c.settings.Timeout)
	defer cancel()

	start := time.Now()
	logging.APIDebug("[Compat] Complete: model=%s prompt_len=%d", c.settings.Model, len(prompt))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.settings.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.settings.MaxTokens,
		Temperature: float32(c.settings.Temperature),
	})
	if err != nil {
		logging.APIError("[Compat] Complete: failed after %v: %v", time.Since(start), err)
		return "", classifyCompatError(err)
	}
	if len(resp.Choices) == 0 {
		return "", newError(KindMalformed, config.ProviderCompat, fmt.Errorf("no completion returned"))
	}
	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	if response == "" {
		return "", newError(KindMalformed, config.ProviderCompat, fmt.Errorf("empty completion"))
	}
	logging.API("[Compat] Complete: completed in %v response_len=%d", time.Since(start), len(response))
	return response, nil
}

func classifyCompatError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindStatus, Provider: config.ProviderCompat, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: KindStatus, Provider: config.ProviderCompat, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return newError(KindMalformed, config.ProviderCompat, err)
	}
	return newError(KindTransport, config.ProviderCompat, err)
}
