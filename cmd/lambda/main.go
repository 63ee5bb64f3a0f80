package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/okian/smartfarm/internal/adapters/upstream"
	service "github.com/okian/smartfarm/internal/app"
	"github.com/okian/smartfarm/internal/config"
	"github.com/okian/smartfarm/internal/domain/model"
	"github.com/okian/smartfarm/pkg/logger"
	"github.com/okian/smartfarm/pkg/payload"
)

var errMissingTable = errors.New("missing table")

// tableFetcher is the slice of the relay service the handler needs.
type tableFetcher interface {
	FetchTable(ctx context.Context, table string) (json.RawMessage, error)
}

// newHandler returns the Lambda handler. The upstream JSON is returned as-is;
// the runtime serializes json.RawMessage without re-encoding.
func newHandler(svc tableFetcher) func(context.Context, payload.TableRequest) (json.RawMessage, error) {
	return func(ctx context.Context, req payload.TableRequest) (json.RawMessage, error) {
		req = req.Normalized()
		if req.Table == "" {
			return nil, errMissingTable
		}
		return svc.FetchTable(ctx, req.Table)
	}
}

func main() {
	ctx := context.Background()

	if err := logger.Init(logger.WithFormat("json")); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal(ctx, "failed to load config", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
	}

	svc, err := buildService(ctx, cfg)
	if err != nil {
		log.Fatal(ctx, "failed to start relay", logger.Error(err))
	}

	lambda.Start(newHandler(svc))
}

func buildService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	client, err := upstream.New(cfg.UpstreamURL,
		model.Credentials{User: cfg.UpstreamUser, Pass: cfg.UpstreamPass, DB: cfg.UpstreamDB},
		upstream.WithTimeout(cfg.UpstreamTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("upstream client: %w", err)
	}
	svc := service.New(service.WithFetcher(client), service.WithTables(cfg.Tables...))
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
