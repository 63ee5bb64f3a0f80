package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/smartfarm/internal/adapters/http/api"
	"github.com/okian/smartfarm/internal/adapters/http/site"
	"github.com/okian/smartfarm/internal/adapters/http/swagger"
	"github.com/okian/smartfarm/internal/adapters/upstream"
	service "github.com/okian/smartfarm/internal/app"
	"github.com/okian/smartfarm/internal/config"
	"github.com/okian/smartfarm/internal/domain/model"
	"github.com/okian/smartfarm/pkg/logger"
	"github.com/okian/smartfarm/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	// writeSlack leaves room past the upstream timeout to write the response.
	writeSlack                = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Initialize logging; the configured format is applied once config is loaded.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (.env -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Get().Error(ctx, "failed to load config", logger.Error(err))
		stop()
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		logger.Get().Warn(ctx, "invalid log_format; keeping text", logger.String("log_format", cfg.LogFormat))
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	defer func() { _ = logger.Sync() }()

	metrics.SetEnabled(cfg.MetricsEnabled)

	svc, err := buildService(ctx, cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		stop()
		os.Exit(1)
	}
	defer svc.Stop()

	if cfg.MetricsEnabled {
		go startSystemMetricsUpdater(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.UpstreamTimeout() + writeSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("upstream", cfg.UpstreamURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
		loggerInstance.Info(ctx, "shutting down server...")
	case err := <-serveErr:
		loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// buildService wires the upstream client into a started relay service.
func buildService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	client, err := upstream.New(cfg.UpstreamURL,
		model.Credentials{User: cfg.UpstreamUser, Pass: cfg.UpstreamPass, DB: cfg.UpstreamDB},
		upstream.WithTimeout(cfg.UpstreamTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("upstream client: %w", err)
	}

	svc := service.New(
		service.WithFetcher(client),
		service.WithTables(cfg.Tables...),
		service.WithLogger(logger.Named("service")),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// buildMux registers docs, API and dashboard routes. The dashboard owns "/"
// so it must not shadow the more specific API patterns.
func buildMux(ctx context.Context, cfg *config.Config, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, api.WithCORSOrigin(cfg.CORSOrigin))
	apiServer.Register(ctx, mux)

	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
