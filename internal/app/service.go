// Package service provides the relay service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/smartfarm/internal/domain/model"
	"github.com/okian/smartfarm/pkg/logger"
)

// Fetcher reads one table from the sensor API.
type Fetcher interface {
	Fetch(ctx context.Context, table string) (json.RawMessage, error)
}

// tableCounters tracks traffic for one table.
type tableCounters struct {
	requests atomic.Int64
	failures atomic.Int64
}

// Service relays table reads to the sensor API for an allow-listed set of tables.
type Service struct {
	mu sync.RWMutex

	fetcher Fetcher
	tables  model.TableSet
	// counters has one entry per allowed table and is never written after New.
	counters map[string]*tableCounters

	started   bool
	startedAt time.Time
	now       func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the upstream fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithTables adds tables to the allow-list on top of moisture and dht22.
func WithTables(tables ...string) Option {
	return func(s *Service) {
		s.tables = model.NewTableSet(append(s.tables.Names(), tables...)...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. The built-in tables are always allowed.
func New(opts ...Option) *Service {
	s := &Service{
		tables: model.NewTableSet(model.TableMoisture, model.TableDHT22),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.counters = make(map[string]*tableCounters, s.tables.Len())
	for _, t := range s.tables.Names() {
		s.counters[t] = &tableCounters{}
	}
	return s
}

// Start checks wiring and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.fetcher == nil {
		return ErrNoFetcher
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "relay service started", logger.Any("tables", s.tables.Names()))
	return nil
}

// Stop marks the service stopped. In-flight calls finish on their own contexts.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "relay service stopped")
}

// FetchTable forwards a read for table. Tables outside the allow-list fail
// with ErrUnknownTable before any outbound call is made.
func (s *Service) FetchTable(ctx context.Context, table string) (json.RawMessage, error) {
	const op = "service.fetch_table"

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, fmt.Errorf("%s: %w", op, ErrNotStarted)
	}

	c, ok := s.counters[table]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownTable, table)
	}
	c.requests.Add(1)

	body, err := s.fetcher.Fetch(ctx, table)
	if err != nil {
		c.failures.Add(1)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return body, nil
}

// Tables returns the allow-list in configuration order.
func (s *Service) Tables() []string {
	return s.tables.Names()
}

// GetStats returns request counters and uptime for the /stats endpoint.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	started, startedAt := s.started, s.startedAt
	s.mu.RUnlock()

	requests := make(map[string]int64, len(s.counters))
	failures := make(map[string]int64, len(s.counters))
	var totalReq, totalFail int64
	for t, c := range s.counters {
		r, f := c.requests.Load(), c.failures.Load()
		requests[t] = r
		failures[t] = f
		totalReq += r
		totalFail += f
	}

	uptime := 0.0
	if started {
		uptime = s.now().Sub(startedAt).Seconds()
	}

	return map[string]any{
		"started":          started,
		"uptimeSeconds":    uptime,
		"tables":           s.tables.Names(),
		"requestsByTable":  requests,
		"failuresByTable":  failures,
		"totalRequests":    totalReq,
		"upstreamFailures": totalFail,
	}
}
