package api

import (
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/smartfarm/internal/app"
	"github.com/okian/smartfarm/pkg/logger"
)

// TableHandler serves sensor tables by relaying to the upstream API.
type TableHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewTableHandler creates a new table handler.
func NewTableHandler(deps Dependencies, l logger.Logger) *TableHandler {
	return &TableHandler{deps: deps, logger: l}
}

// HandleFixed returns a handler for GET /<table>. Query parameters and
// request bodies are ignored.
func (h *TableHandler) HandleFixed(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readMethod(r.Method) {
			http.NotFound(w, r)
			return
		}
		h.relay(w, r, table)
	}
}

// HandleByName handles GET /api/{table} requests.
func (h *TableHandler) HandleByName(w http.ResponseWriter, r *http.Request) {
	const op = "api.table_by_name"
	if !readMethod(r.Method) {
		http.NotFound(w, r)
		return
	}
	table := strings.TrimPrefix(r.URL.Path, "/api/")
	if table == "" || strings.Contains(table, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	h.relay(w, r, table)
}

// readMethod reports whether method may read a table. HEAD relays like GET;
// net/http drops the body.
func readMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func (h *TableHandler) relay(w http.ResponseWriter, r *http.Request, table string) {
	ctx := r.Context()
	body, err := h.deps.FetchTable(ctx, table)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownTable):
			writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
		case errors.Is(err, service.ErrNotStarted):
			writeError(w, http.StatusServiceUnavailable, "unavailable", nil)
		default:
			h.logger.Error(ctx, "relay failed", logger.String("table", table), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "upstream_error", ErrUpstream)
		}
		return
	}
	writeRaw(w, http.StatusOK, body)
}
