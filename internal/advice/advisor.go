package advice

import (
	"context"
	"fmt"

	"shouldibuy/internal/logging"
)

// Advisor answers purchase questions.
type Advisor struct {
	client Client
	prompt *Prompt
}

// NewAdvisor pairs a client with a prompt. A nil prompt uses the default.
func NewAdvisor(client Client, prompt *Prompt) *Advisor {
	if prompt == nil {
		prompt = MustPrompt("")
	}
	return &Advisor{client: client, prompt: prompt}
}

// Model reports the model behind the advisor, if known.
func (a *Advisor) Model() string { return modelOf(a.client) }

// Provider reports the provider behind the advisor, if known.
func (a *Advisor) Provider() string { return providerOf(a.client) }

// Advise renders the prompt for req and returns the model's message.
// Failures are *Error values; there is no retry.
func (a *Advisor) Advise(ctx context.Context, req Request) (string, error) {
	if a.client == nil {
		return "", newError(KindConfig, "", fmt.Errorf("no advice client configured"))
	}
	prompt, err := a.prompt.Render(req)
	if err != nil {
		logging.AdviceError("prompt render failed: %v", err)
		return "", err
	}

	timer := logging.StartTimer(logging.CategoryAdvice, "advise")
	msg, err := a.client.Complete(ContextWithRequest(ctx, req), prompt)
	timer.Stop()
	if err != nil {
		if KindOf(err) == KindUnknown {
			err = newError(KindTransport, providerOf(a.client), err)
		}
		logging.AdviceWarn("advice for %q failed: %v", req.ItemName, err)
		return "", err
	}
	logging.AdviceDebug("advice for %q: %d chars", req.ItemName, len(msg))
	return msg, nil
}
