package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/edgeresize/internal/api"
	"github.com/dunamismax/edgeresize/internal/app"
	"github.com/dunamismax/edgeresize/internal/config"
	"github.com/dunamismax/edgeresize/internal/logging"
	"github.com/dunamismax/edgeresize/internal/pipeline"
	"github.com/dunamismax/edgeresize/internal/telemetry"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "resizer: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config(cfg.Log), "resizer")
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:    "edgeresize",
		ServiceVersion: version,
		Exporter:       cfg.Trace.Exporter,
		OTLPEndpoint:   cfg.Trace.OTLPEndpoint,
		OTLPInsecure:   cfg.Trace.OTLPInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	if err := pipeline.Startup(); err != nil {
		return fmt.Errorf("start image engine: %w", err)
	}
	defer pipeline.Shutdown()

	metrics := api.NewMetrics()
	a, err := app.Build(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Options{
		Logger:      logger,
		Resize:      a.Resize,
		Readiness:   a.Gateway,
		RateLimiter: a.RateLimiter,
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}

	servers := []*http.Server{{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	logger.Infow("starting resizer",
		"version", version,
		"addr", cfg.Server.Addr,
		"metrics_addr", cfg.Server.MetricsAddr,
		"backend", cfg.Storage.Backend,
		"bucket", cfg.Storage.Bucket,
		"allowed_widths", cfg.Resize.AllowedWidths.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Infow("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Infow("shutting down")
		return shutdown(servers, a, shutdownTracing, logger)
	})

	return g.Wait()
}

func shutdown(servers []*http.Server, a *app.App, shutdownTracing telemetry.ShutdownFunc, logger *zap.SugaredLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	for _, srv := range servers {
		err = multierr.Append(err, srv.Shutdown(ctx))
	}
	err = multierr.Append(err, a.Close())
	err = multierr.Append(err, shutdownTracing(ctx))
	if err != nil {
		logger.Errorw("graceful shutdown incomplete", "error", err)
	}
	return err
}
