// Package debugsrv serves an optional local HTTP endpoint exposing liveness
// and Prometheus metrics for long-running lvshell subcommands (watch loops,
// daemonized connections).
package debugsrv

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arterrin/lvrpc/internal/logger"
)

// Server is a minimal debug HTTP server: /healthz for liveness, /metrics
// for the process-wide Prometheus registry every package registers its
// collectors into.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// New builds a debug server bound to addr (host:port). It does not start
// listening until Start is called.
func New(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{Handler: r},
		listener:   ln,
	}, nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("debugsrv: listening", "addr", s.Addr())
	if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		logger.Error("debugsrv: serve failed", "error", err)
	}
}
