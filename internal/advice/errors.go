package advice

import (
	"errors"
	"fmt"
)

// Kind classifies why an advice request failed.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport covers network failures, timeouts and cancellation.
	KindTransport
	// KindStatus is a non-2xx answer from the provider.
	KindStatus
	// KindMalformed is a 2xx answer without usable text.
	KindMalformed
	// KindConfig is a local problem: missing key, bad template, bad input.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// UserMessage is what people see for any failure. Details go to the logs.
const UserMessage = "Failed to get advice. Please try again."

// Error is a classified advice failure.
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int // set for KindStatus
	Err        error
}

func (e *Error) Error() string {
	prefix := e.Provider
	if prefix == "" {
		prefix = "advice"
	}
	if e.Kind == KindStatus && e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (HTTP %d): %v", prefix, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", prefix, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

func statusError(provider string, code int, body string) *Error {
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return &Error{
		Kind:       KindStatus,
		Provider:   provider,
		StatusCode: code,
		Err:        fmt.Errorf("API request failed with status %d: %s", code, body),
	}
}
