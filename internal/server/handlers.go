package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/logging"
	"shouldibuy/internal/pile"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgMethodNotAllowed = "Method not allowed"
	msgProcessFailed    = "Failed to process request"
	msgInvalidBody      = "Invalid request body"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

type targetBody struct {
	Target int `json:"target"`
	// Seq echoes the caller's request number so clients can drop stale
	// responses.
	Seq uint64 `json:"seq,omitempty"`
}

func (s *Server) setCORS(w http.ResponseWriter) {
	origin := s.cfg.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ServerDebug("failed to write response: %v", err)
	}
}

// handleAdvice proxies one question to the advisor.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, messageBody{Message: msgMethodNotAllowed})
		return
	}

	rl := logging.WithRequestID(logging.CategoryServer, requestID(r))

	var req advice.Request
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		rl.Warn("invalid advice body: %v", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalidBody})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := s.tracer.Start(ctx, "POST /api/getAdvice", trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("advice.item", req.ItemName)))
	defer span.End()

	advisor := s.advisor.Load()
	if advisor == nil {
		rl.Error("no advisor configured")
		span.SetStatus(codes.Error, "no advisor")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgProcessFailed})
		return
	}

	msg, err := advisor.Advise(ctx, req)
	if err != nil {
		rl.WithField("kind", advice.KindOf(err).String()).Error("advice failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, advice.KindOf(err).String())
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgProcessFailed})
		return
	}

	rl.WithField("item", req.ItemName).Info("advice served (%d chars)", len(msg))
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}

// handleTarget reports how many bags the inputs are worth.
func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w)
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, messageBody{Message: msgMethodNotAllowed})
		return
	}

	q := r.URL.Query()
	curve := *s.curve.Load()
	target := curve.Target(pile.ParseAmount(q.Get("income")), pile.ParseAmount(q.Get("price")))
	body := targetBody{Target: target}
	if seq, err := strconv.ParseUint(q.Get("seq"), 10, 64); err == nil {
		body.Seq = seq
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		logging.ServerError("embedded page missing: %v", err)
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(page)))
	_, _ = w.Write(page)
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// withRequestLogging tags each request with an id and logs its outcome.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		r.Header.Set("X-Request-ID", id)
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		rl := logging.WithRequestID(logging.CategoryServer, id).
			WithField("status", rec.status).
			WithField("duration_ms", time.Since(start).Milliseconds())
		if rec.status >= 500 {
			rl.Warn("%s %s", r.Method, r.URL.Path)
		} else {
			rl.Debug("%s %s", r.Method, r.URL.Path)
		}
	})
}
