// Package app wires configuration into the components both entrypoints share.
package app

import (
	"context"
	"fmt"

	"github.com/dunamismax/edgeresize/internal/api"
	"github.com/dunamismax/edgeresize/internal/config"
	"github.com/dunamismax/edgeresize/internal/pipeline"
	"github.com/dunamismax/edgeresize/internal/ratelimit"
	"github.com/dunamismax/edgeresize/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type App struct {
	Gateway     storage.Gateway
	Resize      *api.ResizeHandler
	RateLimiter api.RateLimiter
	Metrics     *api.Metrics

	closers []func() error
}

type buildOptions struct {
	skipRateLimit bool
}

type Option func(*buildOptions)

// WithoutRateLimit skips the limiter and its Redis client even when the
// configuration enables them.
func WithoutRateLimit() Option {
	return func(o *buildOptions) { o.skipRateLimit = true }
}

// Build constructs the gateway, processor and resize handler. A nil metrics
// disables instrumentation.
func Build(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger, metrics *api.Metrics, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	gateway, err := OpenGateway(ctx, cfg.Storage, cfg.Resize.MaxSourceBytes)
	if err != nil {
		return nil, err
	}

	processor, err := pipeline.NewProcessor(gateway, pipeline.Limits{MaxSourcePixels: cfg.Resize.MaxSourcePixels})
	if err != nil {
		return nil, fmt.Errorf("build processor: %w", err)
	}

	resize, err := api.NewResizeHandler(
		pipeline.NewInterpreter(cfg.Resize.AllowedWidths),
		processor,
		api.NewTranslator(cfg.Resize.CacheMaxAge),
		logger,
		metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("build resize handler: %w", err)
	}

	a := &App{Gateway: gateway, Resize: resize, Metrics: metrics}

	if cfg.RateLimit.Enabled() && !bo.skipRateLimit {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		a.closers = append(a.closers, client.Close)

		limiter, err := ratelimit.NewRedisTokenBucket(client, ratelimit.Config{
			Capacity: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		})
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("build rate limiter: %w", err), a.Close())
		}
		a.RateLimiter = limiter
		logger.Infow("rate limiting enabled",
			"redis", cfg.RateLimit.RedisAddr,
			"requests", cfg.RateLimit.Requests,
			"window", cfg.RateLimit.Window.String(),
		)
	}

	return a, nil
}

// Close releases the connections Build opened.
func (a *App) Close() error {
	var err error
	for _, closeFn := range a.closers {
		err = multierr.Append(err, closeFn())
	}
	a.closers = nil
	return err
}

func OpenGateway(ctx context.Context, cfg config.StorageConfig, maxBytes int64) (storage.Gateway, error) {
	switch cfg.Backend {
	case config.BackendS3:
		gw, err := storage.NewS3Gateway(ctx, storage.S3Config{
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
			Bucket:   cfg.Bucket,
			MaxBytes: maxBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 gateway: %w", err)
		}
		return gw, nil
	case config.BackendMinio:
		gw, err := storage.NewMinioGateway(storage.MinioConfig{
			Endpoint: cfg.MinioEndpoint,
			Access:   cfg.MinioAccessKey,
			Secret:   cfg.MinioSecretKey,
			Bucket:   cfg.Bucket,
			UseSSL:   cfg.MinioUseSSL,
			MaxBytes: maxBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("open minio gateway: %w", err)
		}
		return gw, nil
	case config.BackendFile:
		gw, err := storage.NewFileGateway(cfg.Bucket, maxBytes)
		if err != nil {
			return nil, fmt.Errorf("open file gateway: %w", err)
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
