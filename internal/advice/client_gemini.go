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

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements Client with the Google GenAI SDK.
type GeminiClient struct {
	client   *genai.Client
	settings Settings
}

// NewGeminiClient creates a Gemini client. BaseURL is only needed to point
// at a proxy or a test server.
func NewGeminiClient(ctx context.Context, s Settings) (*GeminiClient, error) {
	if s.APIKey == "" {
		return nil, newError(KindConfig, config.ProviderGemini, fmt.Errorf("GenAI API key is required"))
	}
	if s.Model == "" {
		s.Model = DefaultGeminiModel
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 100
	}

	cc := &genai.ClientConfig{
		APIKey:     s.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: s.Timeout},
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, newError(KindConfig, config.ProviderGemini, fmt.Errorf("failed to create GenAI client: %w", err))
	}
	return &GeminiClient{client: client, settings: s}, nil
}

// GetModel returns the configured model.
func (c *GeminiClient) GetModel() string { return c.settings.Model }

// ProviderName returns config.ProviderGemini.
func (c *GeminiClient) ProviderName() string { return config.ProviderGemini }

// Complete generates a single response for prompt.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withDeadline(ctx, c.settings.Timeout)
	defer cancel()

	start := time.Now()
	logging.APIDebug("[Gemini] Complete: model=%s prompt_len=%d", c.settings.Model, len(prompt))

	result, err := c.client.Models.GenerateContent(ctx,
		c.settings.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(c.settings.MaxTokens),
			Temperature:     genai.Ptr(float32(c.settings.Temperature)),
		},
	)
	if err != nil {
		logging.APIError("[Gemini] Complete: failed after %v: %v", time.Since(start), err)
		return "", classifyGeminiError(err)
	}

	response := strings.TrimSpace(result.Text())
	if response == "" {
		return "", newError(KindMalformed, config.ProviderGemini, fmt.Errorf("no completion returned"))
	}
	logging.API("[Gemini] Complete: completed in %v response_len=%d", time.Since(start), len(response))
	return response, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindStatus, Provider: config.ProviderGemini, StatusCode: apiErr.Code, Err: err}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return newError(KindMalformed, config.ProviderGemini, err)
	}
	return newError(KindTransport, config.ProviderGemini, err)
}
