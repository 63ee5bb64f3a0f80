package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/smartfarm/internal/domain/model"
	"github.com/okian/smartfarm/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = model.Credentials{
	User: "azmiprod_smartfarmuser",
	Pass: "SMARTfarm123.",
	DB:   "azmiprod_smartfarm",
}

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type captured struct {
	mu          sync.Mutex
	method      string
	contentType string
	requestID   string
	body        string
}

func (c *captured) snapshot() (method, contentType, requestID, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method, c.contentType, c.requestID, c.body
}

func newUpstream(t *testing.T, status int, respBody string) (*httptest.Server, *captured, *int32) {
	t.Helper()
	var calls int32
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		b, _ := io.ReadAll(r.Body)
		got.mu.Lock()
		defer got.mu.Unlock()
		got.method = r.Method
		got.contentType = r.Header.Get("Content-Type")
		got.requestID = r.Header.Get("X-Request-ID")
		got.body = string(b)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, got, &calls
}

func TestFetchForwardsPayloadAndReturnsBody(t *testing.T) {
	const upstreamBody = `[{"id":"1","moisture":"41","created_at":"2025-01-01 10:00:00"}]`
	srv, got, calls := newUpstream(t, http.StatusOK, upstreamBody)

	c, err := New(srv.URL, testCreds)
	require.NoError(t, err)

	ctx := logger.WithRequestID(context.Background(), "req-1")
	body, err := c.Fetch(ctx, model.TableMoisture)
	require.NoError(t, err)

	method, contentType, requestID, sent := got.snapshot()
	assert.Equal(t, upstreamBody, string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "req-1", requestID)
	assert.JSONEq(t,
		`{"user":"azmiprod_smartfarmuser","pass":"SMARTfarm123.","db":"azmiprod_smartfarm","table":"moisture"}`,
		sent)
}

func TestFetchDHT22Table(t *testing.T) {
	srv, got, _ := newUpstream(t, http.StatusOK, `[]`)
	c, err := New(srv.URL, testCreds)
	require.NoError(t, err)

	body, err := c.Fetch(context.Background(), model.TableDHT22)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))

	_, _, _, sent := got.snapshot()
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(sent), &payload))
	assert.Equal(t, "dht22", payload["table"])
}

func TestFetchNonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		srv, _, _ := newUpstream(t, status, `{"error":"nope"}`)
		c, err := New(srv.URL, testCreds)
		require.NoError(t, err)

		body, err := c.Fetch(context.Background(), model.TableMoisture)
		require.Error(t, err)
		assert.Nil(t, body)
		assert.ErrorIs(t, err, ErrUpstreamStatus)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, status, se.Code)
		assert.Equal(t, model.TableMoisture, se.Table)
	}
}

func TestFetchMalformedJSON(t *testing.T) {
	srv, _, _ := newUpstream(t, http.StatusOK, `<html>oops</html>`)
	c, err := New(srv.URL, testCreds)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), model.TableMoisture)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchResponseTooLarge(t *testing.T) {
	srv, _, _ := newUpstream(t, http.StatusOK, `["0123456789"]`)
	c, err := New(srv.URL, testCreds, WithMaxBodyBytes(4))
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), model.TableMoisture)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, testCreds)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), model.TableDHT22)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c, err := New(srv.URL, testCreds, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Fetch(context.Background(), model.TableMoisture)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchEmptyTable(t *testing.T) {
	srv, _, calls := newUpstream(t, http.StatusOK, `[]`)
	c, err := New(srv.URL, testCreds)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidTable)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "/relative", "ftp://host/x", "://bad"} {
		_, err := New(raw, testCreds)
		assert.Error(t, err, raw)
	}
}

func TestOptions(t *testing.T) {
	hc := &http.Client{}
	c, err := New("https://example.com/rest/", testCreds,
		WithHTTPClient(hc),
		WithTimeout(3*time.Second),
		WithTimeout(0),
		WithMaxBodyBytes(-1),
		WithLogger(nil),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 3*time.Second, c.timeout)
	assert.Equal(t, int64(defaultMaxBodyBytes), c.maxBodyBytes)
	assert.NotNil(t, c.logger)
}
