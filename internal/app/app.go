// Package app wires configuration, observability, the warehouse, the
// parsers and the query service, and runs the HTTP front end.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garyellow/courseai-go/internal/buildinfo"
	"github.com/garyellow/courseai-go/internal/config"
	"github.com/garyellow/courseai-go/internal/genai"
	"github.com/garyellow/courseai-go/internal/intent"
	"github.com/garyellow/courseai-go/internal/logger"
	"github.com/garyellow/courseai-go/internal/metrics"
	"github.com/garyellow/courseai-go/internal/query"
	"github.com/garyellow/courseai-go/internal/ratelimit"
	"github.com/garyellow/courseai-go/internal/sentry"
	"github.com/garyellow/courseai-go/internal/server"
	"github.com/garyellow/courseai-go/internal/snapshot"
	"github.com/garyellow/courseai-go/internal/warehouse"
)

// Options adjusts Initialize for the calling front end.
type Options struct {
	// LogWriter receives JSON logs. Defaults to os.Stdout.
	LogWriter io.Writer
	// LogLevel overrides cfg.LogLevel when set.
	LogLevel string
	// SkipSnapshot leaves the local warehouse file alone at startup.
	SkipSnapshot bool
}

// Application holds the wired dependencies.
type Application struct {
	cfg      *config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry

	engine    *warehouse.Engine
	parser    *genai.ModelParser
	limiter   *ratelimit.KeyedLimiter
	service   *query.Service
	snapshots *snapshot.Manager

	sentryEnabled  bool
	shutdownLogger func(context.Context) error
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log, shutdownLogger := logger.Setup(logger.Options{
		Level:               level,
		Writer:              opts.LogWriter,
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log = log.WithField("service", "courseai-go")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...", "version", buildinfo.String())
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	sentryEnabled, err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	})
	if err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentryEnabled {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	a := &Application{
		cfg:            cfg,
		logger:         log,
		metrics:        m,
		registry:       registry,
		sentryEnabled:  sentryEnabled,
		shutdownLogger: shutdownLogger,
	}

	if cfg.HasR2() {
		store, err := snapshot.NewR2Store(ctx, snapshot.R2Config{
			Endpoint:    cfg.R2Endpoint,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
		})
		if err != nil {
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		a.snapshots = snapshot.NewManager(store, cfg.R2SnapshotKey, m)
	}
	if a.snapshots != nil && cfg.WarehouseDSN == "" && !opts.SkipSnapshot {
		a.bootstrapWarehouse(ctx)
	}

	source := warehouse.NewSource(cfg.WarehousePath, cfg.WarehouseDSN)
	a.engine = warehouse.New(source, warehouse.Config{
		MinEnrollment: cfg.Ranking.MinEnrollment,
		RecencyYears:  cfg.Ranking.RecencyYears,
		DefaultTopN:   cfg.Ranking.DefaultTopN,
		MaxTopN:       cfg.Ranking.MaxTopN,
	}, warehouse.WithMetrics(m))
	log.WithField("source", source.Describe()).Info("Warehouse configured")

	if cfg.HasLLMProvider() {
		completer, err := genai.NewCompleter(ctx, genai.Config{
			Providers: buildProviders(cfg),
			Retry:     genai.DefaultRetryConfig(),
		}, m)
		if err != nil {
			log.WithError(err).Warn("LLM initialization failed, using the rule parser only")
		} else if completer != nil {
			a.parser = genai.NewModelParser(completer, "")
			log.WithField("providers", cfg.LLMProviders).Info("LLM parsing enabled")
		}
	}

	a.limiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "llm",
		Burst:         cfg.LLMRateBurst,
		RefillPerHour: cfg.LLMRateRefill,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	qcfg := query.Config{
		Rules:            intent.NewRuleParser(),
		Warehouse:        a.engine,
		Limiter:          a.limiter,
		Metrics:          m,
		ParseTimeout:     cfg.LLMTimeout,
		MaxMessageLength: config.MaxMessageLength,
	}
	// A nil *ModelParser must not become a non-nil interface.
	if a.parser != nil {
		qcfg.Model = a.parser
	}
	a.service, err = query.NewService(qcfg)
	if err != nil {
		a.limiter.Stop()
		return nil, fmt.Errorf("query service: %w", err)
	}

	log.Info("Initialization complete")
	return a, nil
}

// bootstrapWarehouse downloads the snapshot when no local file exists.
// Failure is logged and the service starts against a missing warehouse.
func (a *Application) bootstrapWarehouse(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, config.SnapshotDownload)
	defer cancel()

	start := time.Now()
	downloaded, err := a.snapshots.EnsureLocal(ctx, a.cfg.WarehousePath)
	entry := a.logger.WithField("key", a.snapshots.Key()).
		WithField("path", a.cfg.WarehousePath).
		WithField("duration_ms", time.Since(start).Milliseconds())
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		entry.Warn("No warehouse snapshot in R2; queries return empty results until one is pushed")
	case err != nil:
		entry.WithError(err).Error("Warehouse snapshot download failed")
	case downloaded:
		entry.Info("Warehouse snapshot downloaded")
	default:
		entry.Debug("Local warehouse present, snapshot skipped")
	}
}

// buildProviders lists providers in the configured priority order.
func buildProviders(cfg *config.Config) []genai.ProviderConfig {
	providers := make([]genai.ProviderConfig, 0, len(cfg.LLMProviders))
	for _, name := range cfg.LLMProviders {
		p := genai.Provider(name)
		switch p {
		case genai.ProviderOpenAI, genai.ProviderGemini, genai.ProviderGroq, genai.ProviderCerebras:
		default:
			slog.Warn("ignoring unknown provider", "name", name)
			continue
		}
		pc := genai.ProviderConfig{
			Provider: p,
			APIKey:   cfg.APIKeyFor(name),
			Model:    cfg.ModelFor(name),
		}
		if p == genai.ProviderOpenAI {
			pc.BaseURL = cfg.OpenAIBaseURL
		}
		providers = append(providers, pc)
	}
	return providers
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Service returns the query service shared by every front end.
func (a *Application) Service() *query.Service { return a.service }

// Logger returns the process logger.
func (a *Application) Logger() *logger.Logger { return a.logger }

// Snapshots returns the snapshot manager, or nil when R2 is not configured.
func (a *Application) Snapshots() *snapshot.Manager { return a.snapshots }

// NewServer builds the HTTP front end over the wired service.
func (a *Application) NewServer() *server.Server {
	if a.cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return server.New(server.Options{
		Addr:            ":" + a.cfg.Port,
		Service:         a.service,
		Warehouse:       a.engine,
		Logger:          a.logger,
		Metrics:         a.metrics,
		Registry:        a.registry,
		CORSOrigins:     a.cfg.CORSOrigins,
		MetricsUsername: a.cfg.MetricsUsername,
		MetricsPassword: a.cfg.MetricsPassword,
		SentryEnabled:   a.sentryEnabled,
		RequestTimeout:  config.RequestProcessing,
		DefaultUseLLM:   true,
	})
}

// Run serves HTTP until ctx is canceled, then releases resources.
func (a *Application) Run(ctx context.Context) error {
	srv := a.NewServer()
	err := srv.Run(ctx, a.cfg.ShutdownTimeout)
	if closeErr := a.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Close releases resources in dependency order: the limiter sweeper, the
// model clients, buffered error events, then remote log shipping.
func (a *Application) Close(ctx context.Context) error {
	a.logger.Info("Shutting down...")
	a.limiter.Stop()

	var errs []error
	if a.parser != nil {
		if err := a.parser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close parser: %w", err))
		}
	}
	if a.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.shutdownLogger(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush logs: %w", err))
	}
	return errors.Join(errs...)
}
