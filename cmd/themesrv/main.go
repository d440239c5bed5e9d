// Package main is the entry point for the theme validation server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pitabwire/obsthemes/internal/catalog"
	"github.com/pitabwire/obsthemes/internal/config"
	"github.com/pitabwire/obsthemes/internal/observability"
	"github.com/pitabwire/obsthemes/internal/theme"
	"github.com/pitabwire/obsthemes/internal/transport"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Parse CLI flags.
	configPath := flag.String("config", "", "path to configuration file (defaults only when empty)")
	flag.Parse()

	// Step 2: Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, tracer, metrics).
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "obsthemes", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.InitMetrics(prometheus.DefaultRegisterer)
	}

	// Step 4: Build the validator with the configured limits.
	validator := theme.NewValidator(
		theme.WithMaxVariables(cfg.Themes.MaxVariables),
		theme.WithMaxValueLength(cfg.Themes.MaxValueLength),
	)

	// Step 5: Build the catalog (loader, cached lister, store, aggregator).
	loader := catalog.NewLoader(cfg.Themes.Extensions...)

	listerOpts := []catalog.ListerOption{catalog.WithLogger(logger.Named("catalog"))}
	aggOpts := []catalog.AggregatorOption{catalog.WithAggregatorLogger(logger.Named("catalog"))}
	if metrics != nil {
		listerOpts = append(listerOpts, catalog.WithListingObserver(metrics))
		aggOpts = append(aggOpts, catalog.WithValidationObserver(metrics))
	}

	lister := catalog.NewLister(loader, cfg.Themes.Directory, cfg.Themes.ListingTTL, listerOpts...)
	store := catalog.NewStore(loader, cfg.Themes.Directory, validator, lister, logger.Named("store"))
	aggregator := catalog.NewAggregator(loader, validator, cfg.Themes.Parallelism, aggOpts...)

	if err := lister.HealthCheck(ctx); err != nil {
		// Not fatal: readiness reports it until the directory appears.
		logger.Warn("theme directory not readable", zap.String("dir", cfg.Themes.Directory), zap.Error(err))
	}

	// Step 6: Build HTTP router.
	deps := transport.Dependencies{
		Config:        cfg,
		Logger:        logger,
		Lister:        lister,
		Store:         store,
		Aggregator:    aggregator,
		Validator:     validator,
		HealthHandler: observability.HandleHealth(),
		ReadyHandler: observability.HandleReady(observability.ReadinessChecks{
			ThemeDirectory: lister,
		}),
		MetricsHandler: observability.Handler(),
	}
	if metrics != nil {
		deps.Metrics = metrics
		deps.ValidationObserver = metrics
	}
	router := transport.NewRouter(deps)

	// Wrap router with tracing middleware.
	var handler http.Handler = router
	if cfg.Observability.Tracing.Enabled {
		handler = observability.TracingMiddleware(router)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Step 7: Start HTTP server.
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("theme_dir", cfg.Themes.Directory),
		zap.Strings("extensions", loader.Extensions()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err, ok := <-errCh:
		if ok {
			logger.Error("server error", zap.Error(err))
			return 1
		}
	}

	// Graceful shutdown sequence.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Flush telemetry.
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}
