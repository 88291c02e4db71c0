package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dunamismax/edgeresize/internal/api"
	"github.com/dunamismax/edgeresize/internal/app"
	"github.com/dunamismax/edgeresize/internal/config"
	"github.com/dunamismax/edgeresize/internal/logging"
	"github.com/dunamismax/edgeresize/internal/pipeline"
)

func main() {
	handler, err := setup(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "resizer lambda: %v\n", err)
		os.Exit(1)
	}
	lambda.Start(handler.Handle)
}

// setup runs once per execution environment; the gateway's connection pool is
// reused across invocations.
func setup(ctx context.Context) (*api.LambdaHandler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config(cfg.Log), "resizer-lambda")
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	if err := pipeline.Startup(); err != nil {
		return nil, fmt.Errorf("start image engine: %w", err)
	}

	// No scrape endpoint and no limiter: Function URLs are throttled by
	// reserved concurrency.
	a, err := app.Build(ctx, cfg, logger, nil, app.WithoutRateLimit())
	if err != nil {
		return nil, err
	}
	return api.NewLambdaHandler(a.Resize, logger)
}
