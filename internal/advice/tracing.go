package advice

import (
	"context"
	"time"

	"shouldibuy/internal/logging"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "shouldibuy/internal/advice"

// Exchange captures one prompt/response round trip.
type Exchange struct {
	ID            string    `json:"id"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model,omitempty"`
	MonthlyIncome string    `json:"monthly_income"`
	ItemName      string    `json:"item_name"`
	ItemPrice     string    `json:"item_price"`
	Prompt        string    `json:"prompt"`
	Response      string    `json:"response"`
	DurationMs    int64     `json:"duration_ms"`
	Success       bool      `json:"success"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ExchangeRecorder persists exchanges.
type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, ex *Exchange) error
}

type requestKey struct{}

// ContextWithRequest attaches the request being answered so TracingClient
// can attribute the exchange.
func ContextWithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

func requestFrom(ctx context.Context) (Request, bool) {
	req, ok := ctx.Value(requestKey{}).(Request)
	return req, ok
}

// TracingClient wraps any Client, opens a span per call and records the
// exchange.
type TracingClient struct {
	underlying Client
	recorder   ExchangeRecorder
	tracer     trace.Tracer
}

// NewTracingClient creates a tracing wrapper. recorder may be nil.
func NewTracingClient(underlying Client, recorder ExchangeRecorder) *TracingClient {
	return &TracingClient{
		underlying: underlying,
		recorder:   recorder,
		tracer:     otel.Tracer(tracerName),
	}
}

// GetModel forwards to the wrapped client.
func (tc *TracingClient) GetModel() string { return modelOf(tc.underlying) }

// ProviderName forwards to the wrapped client.
func (tc *TracingClient) ProviderName() string { return providerOf(tc.underlying) }

// Complete implements Client with tracing.
func (tc *TracingClient) Complete(ctx context.Context, prompt string) (string, error) {
	provider := providerOf(tc.underlying)
	model := modelOf(tc.underlying)

	ctx, span := tc.tracer.Start(ctx, "advice.complete", trace.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
		attribute.Int("llm.prompt_len", len(prompt)),
	))
	defer span.End()

	start := time.Now()
	logging.API("LLM call started: provider=%s prompt_len=%d", provider, len(prompt))

	response, err := tc.underlying.Complete(ctx, prompt)

	duration := time.Since(start)
	if err != nil {
		logging.API("LLM call failed: provider=%s duration=%v error=%s", provider, duration, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
	} else {
		logging.API("LLM call completed: provider=%s duration=%v response_len=%d", provider, duration, len(response))
		span.SetAttributes(attribute.Int("llm.response_len", len(response)))
	}

	ex := &Exchange{
		ID:         uuid.NewString(),
		Provider:   provider,
		Model:      model,
		Prompt:     prompt,
		Response:   response,
		DurationMs: duration.Milliseconds(),
		Success:    err == nil,
		Timestamp:  start.UTC(),
	}
	if req, ok := requestFrom(ctx); ok {
		ex.MonthlyIncome = req.MonthlyIncome.Raw
		ex.ItemName = req.ItemName
		ex.ItemPrice = req.ItemPrice.Raw
	}
	if err != nil {
		ex.ErrorKind = KindOf(err).String()
		ex.ErrorMessage = err.Error()
	}
	span.SetAttributes(attribute.String("advice.exchange_id", ex.ID))

	if tc.recorder != nil {
		// The caller's context may already be cancelled; the record should
		// still land.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if recErr := tc.recorder.RecordExchange(recordCtx, ex); recErr != nil {
			logging.AdviceWarn("failed to record exchange %s: %v", ex.ID, recErr)
		}
		cancel()
	}

	return response, err
}
