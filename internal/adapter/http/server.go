package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/address-forecast-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ForecastController is the pipeline surface exposed over HTTP.
type ForecastController interface {
	Submit(ctx context.Context, address string) domain.Snapshot
	SetCoordinates(ctx context.Context, coords domain.Coordinates) domain.Snapshot
	ClearCoordinates() domain.Snapshot
	Snapshot() domain.Snapshot
}

// Server exposes the forecast API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	ctrl       ForecastController
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /forecast, /coordinates, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, ctrl ForecastController, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A run makes up to three sequential upstream calls.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ctrl:     ctrl,
		validate: newValidator(),
		logger:   logger,
	}

	mux.HandleFunc("GET /forecast", s.handleGetForecast)
	mux.HandleFunc("POST /forecast", s.handleSubmit)
	mux.HandleFunc("PUT /coordinates", s.handleSetCoordinates)
	mux.HandleFunc("DELETE /coordinates", s.handleClearCoordinates)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
