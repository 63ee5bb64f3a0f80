// Package upstream talks to the sensor REST API that owns the table data.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/smartfarm/internal/domain/model"
	"github.com/okian/smartfarm/pkg/logger"
	"github.com/okian/smartfarm/pkg/metrics"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 32 << 20

	requestIDHeader = "X-Request-ID"
)

// Outcome labels recorded per call.
const (
	outcomeSuccess   = "success"
	outcomeTransport = "transport_error"
	outcomeStatus    = "status_error"
	outcomeMalformed = "malformed"
)

// Client forwards table reads to a single fixed upstream URL.
// It is safe for concurrent use.
type Client struct {
	url          string
	creds        model.Credentials
	httpClient   *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	logger       logger.Logger
}

// New validates rawURL and builds a Client.
func New(rawURL string, creds model.Credentials, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("upstream: parse url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("upstream: url must be absolute http(s): %q", rawURL)
	}

	c := &Client{
		url:          u.String(),
		creds:        creds,
		httpClient:   &http.Client{},
		timeout:      defaultTimeout,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("upstream")
	}
	return c, nil
}

// Fetch sends GET <url> with a JSON body {user, pass, db, table} and returns
// the response body unchanged once it is known to be valid JSON.
func (c *Client) Fetch(ctx context.Context, table string) (json.RawMessage, error) {
	const op = "upstream.fetch"
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("%s: %w: empty name", op, ErrInvalidTable)
	}

	payload, err := json.Marshal(model.NewTableQuery(c.creds, table))
	if err != nil {
		return nil, fmt.Errorf("%s: encode payload: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}

	start := time.Now()
	metrics.AddUpstreamInFlight(1)
	defer metrics.AddUpstreamInFlight(-1)

	body, err := c.do(req, table)
	elapsed := time.Since(start)
	latencyMs := float64(elapsed.Microseconds()) / 1000

	if err != nil {
		metrics.RecordUpstream(table, outcomeOf(err), latencyMs, len(body))
		c.logger.Warn(ctx, "upstream call failed",
			logger.String("table", table),
			logger.Duration("took", elapsed),
			logger.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordUpstream(table, outcomeSuccess, latencyMs, len(body))
	c.logger.Debug(ctx, "upstream call succeeded",
		logger.String("table", table),
		logger.Int("bytes", len(body)),
		logger.Duration("took", elapsed))
	return json.RawMessage(body), nil
}

func (c *Client) do(req *http.Request, table string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Table: table, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBodyBytes)
	}
	if !json.Valid(body) {
		return body, ErrMalformedResponse
	}
	return body, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamStatus):
		return outcomeStatus
	case errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrResponseTooLarge):
		return outcomeMalformed
	default:
		return outcomeTransport
	}
}
