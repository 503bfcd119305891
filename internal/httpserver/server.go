// Package httpserver exposes the retrieval engine over a JSON API.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openparl/hansard/internal/config"
	"github.com/openparl/hansard/internal/domain"
	"github.com/openparl/hansard/internal/hansard"
)

// Server is the HTTP server for the transcript API.
type Server struct {
	cfg        *config.Config
	svc        *hansard.Service
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server around the engine service.
func NewServer(cfg *config.Config, svc *hansard.Service, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/sittings", s.handleSittings)
	mux.HandleFunc("GET /v1/item", s.handleItem)
	mux.HandleFunc("GET /v1/search", s.handleSearch)
	mux.HandleFunc("GET /v1/recent", s.handleRecent)
	mux.HandleFunc("GET /v1/calendar", s.handleCalendar)
	mux.HandleFunc("GET /v1/member", s.handleMember)
	mux.HandleFunc("GET /v1/column", s.handleColumn)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      withLogging(logger, withMetrics(mux)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSittings(w http.ResponseWriter, r *http.Request) {
	major, ok := s.majorParam(w, r)
	if !ok {
		return
	}
	view, err := s.svc.ByDate(r.Context(), major, r.URL.Query().Get("d"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	major, ok := s.majorParam(w, r)
	if !ok {
		return
	}
	gid := r.URL.Query().Get("gid")
	if gid == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "gid parameter is required")
		return
	}

	view, err := s.svc.ByGid(r.Context(), major, gid)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if view.Redirect != nil {
		location := "/v1/item?" + url.Values{
			"major": {strconv.Itoa(major)},
			"gid":   {view.Redirect.Gid},
		}.Encode()
		http.Redirect(w, r, location, http.StatusMovedPermanently)
		return
	}
	if view.Robots != "" {
		w.Header().Set("X-Robots-Tag", view.Robots)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("num"))
	order := q.Get("order")
	if order == "" {
		order = domain.OrderRelevance
	}

	view, err := s.svc.Search(r.Context(), q.Get("q"), page, perPage, order)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	major, ok := s.majorParam(w, r)
	if !ok {
		return
	}
	num, _ := strconv.Atoi(r.URL.Query().Get("num"))
	view, err := s.svc.Recent(r.Context(), major, num)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	major, ok := s.majorParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	var req hansard.CalendarRequest
	req.Year, _ = strconv.Atoi(q.Get("y"))
	req.Month, _ = strconv.Atoi(q.Get("m"))
	req.RecentMonths, _ = strconv.Atoi(q.Get("months"))

	view, err := s.svc.Calendar(r.Context(), major, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMember(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var memberIDs []int64
	for _, raw := range strings.Split(q.Get("m"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "bad member id")
			return
		}
		memberIDs = append(memberIDs, id)
	}

	major, _ := strconv.Atoi(q.Get("major"))
	num, _ := strconv.Atoi(q.Get("num"))

	view, err := s.svc.ByMember(r.Context(), memberIDs, major, num)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleColumn(w http.ResponseWriter, r *http.Request) {
	major, ok := s.majorParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	items, err := s.svc.ByColumn(r.Context(), major, q.Get("d"), q.Get("c"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": items})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	major, ok := s.majorParam(w, r)
	if !ok {
		return
	}
	total, err := s.svc.TotalItems(r.Context(), major)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := map[string]any{"total_items": total}
	if day, err := s.svc.MostRecentDay(r.Context(), major); err == nil {
		resp["most_recent_day"] = day
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) majorParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("major")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "major parameter is required")
		return 0, false
	}
	major, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "major must be a number")
		return 0, false
	}
	return major, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "InvalidRequest", verr.Msg)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", "no such content")
	default:
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "InternalError", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
