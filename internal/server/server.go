// Package server exposes the DatLas engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/DatLas/internal/errs"
	"github.com/koustreak/DatLas/internal/kg"
	"github.com/koustreak/DatLas/internal/logger"
)

// Server routes HTTP requests to the engine.
type Server struct {
	engine *kg.Engine
	store  kg.Store
	log    *logger.Logger
}

// New returns a Server around an engine. store is used for health checks.
func New(engine *kg.Engine, store kg.Store, log *logger.Logger) *Server {
	return &Server{engine: engine, store: store, log: log}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/introspect-schema", s.handleIntrospect)
	r.Get("/schema/search", s.handleSearch)
	r.Get("/schema/context", s.handleContext)
	r.Get("/schema/inferred-relationships", s.handleInferred)
	r.Get("/health", s.handleHealth)
	return r
}

// handleIntrospect kicks off a full introspect-and-store pass in the
// background and returns immediately. A pass against a large catalog takes
// minutes; callers poll the graph afterwards.
func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	database := r.URL.Query().Get("database_name")
	schemaFilter := r.URL.Query().Get("schema_name")

	go func() {
		ctx := context.Background()
		if _, err := s.engine.IntrospectAndStore(ctx, database, schemaFilter); err != nil {
			s.log.ErrorWith("background introspection failed", err, map[string]interface{}{
				"database": database,
			})
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":        "started",
		"database_name": database,
		"schema_name":   schemaFilter,
		"message":       "schema introspection running in background",
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	database := r.URL.Query().Get("database_name")

	threshold := 0.0
	if raw := r.URL.Query().Get("similarity_threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			s.writeError(w, errs.New(errs.SubsystemGraph, errs.ErrKindInvalidInput,
				"similarity_threshold must be a number in [0, 1]"))
			return
		}
		threshold = parsed
	}

	results, err := s.engine.Search(r.Context(), database, query, threshold)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if results == nil {
		results = []kg.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	database := r.URL.Query().Get("database_name")

	// Table names are stored upper-cased, so normalize the caller's list.
	var tables []string
	for _, t := range strings.Split(r.URL.Query().Get("table_names"), ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			tables = append(tables, t)
		}
	}

	sc, err := s.engine.Context(r.Context(), database, tables)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleInferred(w http.ResponseWriter, r *http.Request) {
	database := r.URL.Query().Get("database_name")

	report, err := s.engine.InferredReport(r.Context(), database)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"graph":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// writeError maps unified errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsInvalidInput(err):
		status = http.StatusBadRequest
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsConnectionFailed(err):
		status = http.StatusBadGateway
	case errs.IsTimeout(err):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.log.ErrorWith("request failed", err, nil)
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requestLogger logs one line per request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1000).
			Logger().
			Info("request")
	})
}
