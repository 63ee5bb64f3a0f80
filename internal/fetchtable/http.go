package fetchtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/smartfarm/pkg/logger"
)

// HTTPClient reads tables from a running relay.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a relay client with the given timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchTable performs GET <base>/api/<table> and decodes the JSON body.
// The /api/ route serves built-in and configured tables alike.
func (c *HTTPClient) FetchTable(ctx context.Context, table string) (any, error) {
	target := c.baseURL + "/api/" + url.PathEscape(table)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Debug(ctx, "failed to close response body", logger.Error(err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRelayUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d %s", ErrRelayStatus, resp.StatusCode, string(body))
	}

	logger.Get().Debug(ctx, "table fetched",
		logger.String("table", table),
		logger.String("request_id", resp.Header.Get("X-Request-ID")),
		logger.Int("bytes", len(body)))

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	return v, nil
}
