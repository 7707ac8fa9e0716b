package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shouldibuy/internal/config"
	"shouldibuy/internal/logging"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-3.5-turbo"
)

// OpenAIClient implements Client against the OpenAI chat completions API.
type OpenAIClient struct {
	settings   Settings
	httpClient *http.Client
}

// DefaultOpenAISettings returns the settings the advisor was tuned with.
func DefaultOpenAISettings(apiKey string) Settings {
	return Settings{
		APIKey:      apiKey,
		BaseURL:     DefaultOpenAIBaseURL,
		Model:       DefaultOpenAIModel,
		MaxTokens:   100,
		Temperature: 0.8,
		Timeout:     30 * time.Second,
	}
}

// NewOpenAIClient creates a client with custom settings. Empty fields fall
// back to DefaultOpenAISettings.
func NewOpenAIClient(s Settings) *OpenAIClient {
	def := DefaultOpenAISettings(s.APIKey)
	if s.BaseURL == "" {
		s.BaseURL = def.BaseURL
	}
	if s.Model == "" {
		s.Model = def.Model
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = def.MaxTokens
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	return &OpenAIClient{
		settings:   s,
		httpClient: &http.Client{Timeout: s.Timeout},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// GetModel returns the configured model.
func (c *OpenAIClient) GetModel() string { return c.settings.Model }

// ProviderName returns config.ProviderOpenAI.
func (c *OpenAIClient) ProviderName() string { return config.ProviderOpenAI }

// Complete sends prompt as a single user message. There is exactly one
// attempt; failures are returned as *Error.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withDeadline(ctx, c.settings.Timeout)
	defer cancel()

	startTime := time.Now()
	logging.APIDebug("[OpenAI] Complete: model=%s prompt_len=%d", c.settings.Model, len(prompt))

	if c.settings.APIKey == "" {
		return "", newError(KindConfig, config.ProviderOpenAI, fmt.Errorf("API key not configured"))
	}

	jsonData, err := json.Marshal(openAIRequest{
		Model:       c.settings.Model,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.settings.MaxTokens,
		Temperature: c.settings.Temperature,
	})
	if err != nil {
		return "", newError(KindConfig, config.ProviderOpenAI, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", newError(KindConfig, config.ProviderOpenAI, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("[OpenAI] Complete: request failed after %v: %v", time.Since(startTime), err)
		return "", newError(KindTransport, config.ProviderOpenAI, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindTransport, config.ProviderOpenAI, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.APIError("[OpenAI] Complete: status %d", resp.StatusCode)
		return "", statusError(config.ProviderOpenAI, resp.StatusCode, string(body))
	}

	var openaiResp openAIResponse
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		logging.APIWarn("[OpenAI] Complete: unparseable response (%d bytes)", len(body))
		return "", newError(KindMalformed, config.ProviderOpenAI, fmt.Errorf("failed to parse response: %w", err))
	}
	if openaiResp.Error != nil {
		return "", newError(KindMalformed, config.ProviderOpenAI, fmt.Errorf("API error: %s", openaiResp.Error.Message))
	}
	if len(openaiResp.Choices) == 0 {
		return "", newError(KindMalformed, config.ProviderOpenAI, fmt.Errorf("no completion returned"))
	}

	response := strings.TrimSpace(openaiResp.Choices[0].Message.Content)
	if response == "" {
		return "", newError(KindMalformed, config.ProviderOpenAI, fmt.Errorf("empty completion"))
	}
	logging.API("[OpenAI] Complete: completed in %v response_len=%d", time.Since(startTime), len(response))
	return response, nil
}
