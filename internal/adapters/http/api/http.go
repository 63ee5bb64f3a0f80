// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/smartfarm/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// FetchTable returns the upstream JSON for table unchanged.
	FetchTable(ctx context.Context, table string) (json.RawMessage, error)

	// Tables lists the tables served under /api/{table}.
	Tables() []string
}

// Server wires HTTP routes for the relay API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	tableHandler  *TableHandler
	corsOrigin    string
	logger        logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigin sets the Access-Control-Allow-Origin value.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithLogger sets a custom logger for request logging.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		corsOrigin:    "*",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	s.tableHandler = NewTableHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/moisture", s.wrap(s.tableHandler.HandleFixed("moisture"), "moisture"))
	mux.Handle("/dht22", s.wrap(s.tableHandler.HandleFixed("dht22"), "dht22"))
	mux.Handle("/api/", s.wrap(s.tableHandler.HandleByName, "api_table"))
	mux.Handle("/healthz", s.wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/stats", s.wrap(s.statsHandler.HandleStats, "stats"))
}

// wrap applies the middleware chain, outermost first.
func (s *Server) wrap(h http.HandlerFunc, endpoint string) http.Handler {
	return RequestIDMiddleware(
		CORSMiddleware(s.corsOrigin,
			MetricsMiddleware(h, endpoint)))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw sends an already-encoded JSON document byte for byte.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError sends the error envelope. Only kind's message reaches the client.
func writeError(w http.ResponseWriter, status int, code string, kind error) {
	msg := http.StatusText(status)
	if kind != nil {
		msg = kind.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
