// Package server exposes the advice proxy and bag calculator over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"shouldibuy/internal/advice"
	"shouldibuy/internal/config"
	"shouldibuy/internal/logging"
	"shouldibuy/internal/pile"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
)

//go:embed static/index.html
var staticFS embed.FS

// maxBodyBytes bounds request bodies; real requests are a few dozen bytes.
const maxBodyBytes = 64 << 10

// Server hosts the HTTP API. The advisor and curve can be swapped while
// serving, e.g. after a config reload.
type Server struct {
	cfg        config.ServerConfig
	basePath   string
	advisor    atomic.Pointer[advice.Advisor]
	curve      atomic.Pointer[pile.Curve]
	tracer     trace.Tracer
	httpServer *http.Server

	mu   sync.Mutex
	addr net.Addr
}

// New builds a server. advisor may be nil, in which case advice requests
// fail with 500 until SetAdvisor is called.
func New(cfg config.ServerConfig, advisor *advice.Advisor, curve pile.Curve) *Server {
	s := &Server{
		cfg:      cfg,
		basePath: cfg.NormalizedBasePath(),
		tracer:   otel.Tracer("shouldibuy/internal/server"),
	}
	s.SetAdvisor(advisor)
	s.SetCurve(curve)
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.GetReadTimeout(),
	}
	return s
}

// SetAdvisor replaces the advisor used by new requests.
func (s *Server) SetAdvisor(a *advice.Advisor) {
	s.advisor.Store(a)
}

// SetCurve replaces the target curve used by new requests.
func (s *Server) SetCurve(c pile.Curve) {
	s.curve.Store(&c)
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	base := s.basePath

	mux.HandleFunc(base+"/api/getAdvice", s.handleAdvice)
	mux.HandleFunc(base+"/api/target", s.handleTarget)
	mux.HandleFunc("GET "+base+"/{$}", s.handleIndex)
	if base != "" {
		mux.Handle("GET "+base, http.RedirectHandler(base+"/", http.StatusMovedPermanently))
	}
	return withRequestLogging(mux)
}

// Addr returns the bound address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	logging.Server("listening on %s (base path %q)", ln.Addr(), s.basePath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.GetShutdownTimeout())
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logging.ServerWarn("graceful shutdown incomplete: %v", err)
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logging.Server("server stopped")
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.ServerError("server exited: %v", err)
		return err
	}
	return nil
}
