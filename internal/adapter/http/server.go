// Package http exposes the dashboard API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// QueryService answers dashboard queries over the current snapshot.
type QueryService interface {
	Run(ctx context.Context, req domain.Request) (*domain.Result, error)
	Sensors(ctx context.Context) ([]domain.SensorMetadata, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard API and operational HTTP endpoints.
type Server struct {
	httpServer *http.Server
	service    QueryService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, health, readiness, and
// metrics routes.
func NewServer(addr string, service QueryService, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		logger:  logger,
	}

	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/dashboard/charts", s.handleCharts)
	mux.HandleFunc("GET /api/v1/dashboard/table", s.handleTable)
	mux.HandleFunc("GET /api/v1/sensors", s.handleSensors)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// parseRequest builds a domain.Request from query parameters. Parsing is
// tolerant: unusable values fall back to defaults and come back as
// advisories instead of rejecting the query, since hand-edited URLs are
// expected.
func parseRequest(r *http.Request) (domain.Request, []domain.Advisory) {
	q := r.URL.Query()
	var advisories []domain.Advisory

	req := domain.Request{Sensor: strings.TrimSpace(q.Get("sensor"))}

	if raw := q.Get("start"); raw != "" {
		if t, err := domain.ParseTimestamp(raw); err != nil {
			advisories = append(advisories, badParam(domain.AdvisoryTimeInvalid, "start", raw))
		} else {
			req.Start = t
		}
	}
	if raw := q.Get("end"); raw != "" {
		if t, err := domain.ParseTimestamp(raw); err != nil {
			advisories = append(advisories, badParam(domain.AdvisoryTimeInvalid, "end", raw))
		} else {
			req.End = t
		}
	}
	if raw := q.Get("bucket"); raw != "" {
		if b, err := domain.ParseBucket(raw); err != nil {
			advisories = append(advisories, badParam(domain.AdvisoryBucketInvalid, "bucket", raw))
		} else {
			req.Bucket = b
		}
	}

	return req, advisories
}

func badParam(code, param, raw string) domain.Advisory {
	return domain.Advisory{
		Code:    code,
		Message: fmt.Sprintf("Ignoring unusable %s %q; using the default instead.", param, raw),
	}
}

// runQuery parses the request, runs it, and folds parse advisories into the
// result. Returns false after writing an error response.
func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) (*domain.Result, bool) {
	req, advisories := parseRequest(r)

	result, err := s.service.Run(r.Context(), req)
	if err != nil {
		s.logger.Error("dashboard query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return nil, false
	}

	if len(advisories) > 0 {
		result.Advisories = append(advisories, result.Advisories...)
	}
	return result, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// chartsResponse is the charts endpoint's trimmed view of a result.
type chartsResponse struct {
	Heading     string             `json:"heading"`
	Bucket      string             `json:"bucket"`
	Range       domain.TimeRange   `json:"range"`
	Advisories  []domain.Advisory  `json:"advisories,omitempty"`
	Charts      []domain.ChartView `json:"charts"`
	GeneratedAt time.Time          `json:"generated_at"`
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chartsResponse{
		Heading:     result.Heading,
		Bucket:      result.Bucket,
		Range:       result.Range,
		Advisories:  result.Advisories,
		Charts:      result.Charts,
		GeneratedAt: result.GeneratedAt,
	})
}

// tableResponse is the table endpoint's trimmed view of a result.
type tableResponse struct {
	Heading     string            `json:"heading"`
	Bucket      string            `json:"bucket"`
	Range       domain.TimeRange  `json:"range"`
	Advisories  []domain.Advisory `json:"advisories,omitempty"`
	Table       []domain.TableRow `json:"table"`
	GeneratedAt time.Time         `json:"generated_at"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{
		Heading:     result.Heading,
		Bucket:      result.Bucket,
		Range:       result.Range,
		Advisories:  result.Advisories,
		Table:       result.Table,
		GeneratedAt: result.GeneratedAt,
	})
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := s.service.Sensors(r.Context())
	if err != nil {
		s.logger.Error("sensor listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "listing failed"})
		return
	}
	if sensors == nil {
		sensors = []domain.SensorMetadata{}
	}
	writeJSON(w, http.StatusOK, sensors)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
