// Package server exposes the query service over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/garyellow/courseai-go/internal/config"
	"github.com/garyellow/courseai-go/internal/logger"
	"github.com/garyellow/courseai-go/internal/query"
)

// Counter reports the warehouse size for readiness.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// HTTPRecorder receives HTTP observations.
type HTTPRecorder interface {
	ObserveHTTPRequest(route, code string, duration time.Duration)
	RecordHTTPError(errorType, route string)
}

// Options wires a Server. Service, Warehouse and Logger are required.
type Options struct {
	Addr      string
	Service   *query.Service
	Warehouse Counter
	Logger    *logger.Logger
	Metrics   HTTPRecorder
	Registry  *prometheus.Registry

	CORSOrigins     []string
	MetricsUsername string
	MetricsPassword string
	SentryEnabled   bool

	// RequestTimeout bounds each API request; zero means no bound.
	RequestTimeout time.Duration
	// DefaultUseLLM applies when a query body omits use_llm.
	DefaultUseLLM bool
}

// Server is the HTTP front end.
type Server struct {
	opts   Options
	log    *logger.Logger
	router *gin.Engine
	http   *http.Server
}

// New builds the router and the underlying http.Server.
func New(opts Options) *Server {
	s := &Server{opts: opts, log: opts.Logger.WithModule("server")}

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.SentryEnabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	if len(opts.CORSOrigins) > 0 {
		router.Use(corsMiddleware(opts.CORSOrigins))
	}
	router.Use(loggingMiddleware(s.log, opts.Metrics))

	router.GET("/healthz", s.health)
	router.HEAD("/healthz", s.health)
	router.GET("/ready", s.ready)
	router.HEAD("/ready", s.ready)

	api := router.Group("/api")
	api.POST("/query", s.handleQuery)
	api.POST("/rank", s.handleRank)
	api.GET("/details", s.handleDetails)

	if opts.Registry != nil {
		router.GET("/metrics",
			metricsAuthMiddleware(opts.MetricsUsername, opts.MetricsPassword),
			gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	s.router = router
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then drains in-flight requests within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.InfoContext(gctx, "HTTP server listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		s.log.InfoContext(shutdownCtx, "Stopping HTTP server...")
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
