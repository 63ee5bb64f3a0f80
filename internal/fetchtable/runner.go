// Package fetchtable implements the command-line client that reads sensor
// tables through a running relay.
package fetchtable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/smartfarm/pkg/logger"
)

// Run fetches the configured table once, or repeatedly with Watch until ctx ends.
// In watch mode a failed poll is logged and the next tick retries.
func Run(ctx context.Context, config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	log := logger.Named("fetch-table")
	log.Info(ctx, "starting table fetch",
		logger.String("baseURL", config.BaseURL),
		logger.String("table", config.Table),
		logger.String("format", config.Format),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("watch", config.Watch))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	if err := fetchOnce(ctx, client, config); err != nil {
		if !config.Watch {
			return err
		}
		log.Warn(ctx, "poll failed", logger.Error(err))
	}
	if !config.Watch {
		return nil
	}

	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "watch stopped")
			return nil
		case <-ticker.C:
			if err := fetchOnce(ctx, client, config); err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					return nil
				}
				log.Warn(ctx, "poll failed", logger.Error(err))
			}
		}
	}
}

func fetchOnce(ctx context.Context, client *HTTPClient, config *Config) error {
	v, err := client.FetchTable(ctx, config.Table)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", config.Table, err)
	}
	if err := Render(config.Out, config.Format, LastN(v, config.Last)); err != nil {
		return fmt.Errorf("render %s: %w", config.Table, err)
	}
	return nil
}
