// Package advice turns a purchase question into a snarky one-liner from a
// large language model.
//
// Providers implement Client. NewClientFromConfig picks one from config, and
// TracingClient records every exchange. Advisor ties a Client to a Prompt.
package advice

import (
	"context"
	"time"
)

// Client is a single-shot text completion endpoint.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// modelGetter is implemented by clients that know their model.
type modelGetter interface {
	GetModel() string
}

// providerNamer is implemented by clients that know their provider.
type providerNamer interface {
	ProviderName() string
}

// Settings are the completion parameters shared by all providers.
type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // 0 disables
}

// withDeadline applies timeout when ctx has no deadline yet.
func withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
