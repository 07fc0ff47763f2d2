// Package chi is the HTTP edge of the discovery service: filter decoding,
// search and sync endpoints, and JSON error mapping.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/armorymarket/discovery/internal/catalog"
	"github.com/armorymarket/discovery/internal/domain"
	"github.com/armorymarket/discovery/internal/domain/query"
	"github.com/armorymarket/discovery/internal/gazetteer"
	searchuc "github.com/armorymarket/discovery/internal/usecase/search"
	syncuc "github.com/armorymarket/discovery/internal/usecase/sync"
	"github.com/armorymarket/discovery/internal/version"
)

// Error codes returned to clients.
const (
	codeBadRequest     = "bad_request"
	codeSyncInProgress = "sync_in_progress"
	codeSyncFailed     = "sync_failed"
	codeNotFound       = "not_found"
	codeInternalError  = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pinger checks liveness of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the discovery HTTP API.
type Server struct {
	search        *searchuc.Service
	sync          *syncuc.Service
	catalog       *catalog.Registry
	engine        Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	sync *syncuc.Service,
	cat *catalog.Registry,
	engine Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		sync:    sync,
		catalog: cat,
		engine:  engine,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		syncAbortedHandler,
		sentinelHandler(domain.ErrAlreadyRunning, http.StatusConflict, codeSyncInProgress),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
	}
	return s
}

// Routes registers all endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.Search)
		r.Get("/filters", s.Filters)
		r.Post("/sync", s.Sync)
	})
}

// Search handles GET /api/search. Filter parameters are decoded liberally:
// an unparseable value degrades to its default, it never rejects a URL.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	state := query.Decode(r.URL.Query())

	page, err := s.search.Search(r.Context(), state)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Sync handles POST /api/sync, triggering one reconciliation cycle.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := s.sync.Reconcile(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// filtersResponse describes the facet vocabulary for filter UIs.
type filtersResponse struct {
	Categories     []catalog.Category `json:"categories"`
	CatalogVersion string             `json:"catalogVersion"`
	Regions        []gazetteer.Region `json:"regions"`
	Sorts          []query.Sort       `json:"sorts"`
}

// Filters handles GET /api/filters.
func (s *Server) Filters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, filtersResponse{
		Categories:     s.catalog.All(),
		CatalogVersion: s.catalog.Version(),
		Regions:        gazetteer.AllRegions(),
		Sorts: []query.Sort{
			query.SortRelevance,
			query.SortPriceAsc,
			query.SortPriceDesc,
			query.SortNewest,
			query.SortOldest,
			query.SortClosest,
		},
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyRunning,
		domain.ErrSyncAborted,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// syncAbortedHandler handles ErrSyncAborted with the failed phase attached.
func syncAbortedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrSyncAborted) {
		return false
	}
	var sae *domain.SyncAbortedError
	if errors.As(err, &sae) {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"code":    codeSyncFailed,
			"message": msg,
			"phase":   sae.Phase,
		})
		return true
	}
	writeError(w, http.StatusBadGateway, codeSyncFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
