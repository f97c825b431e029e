// Package api exposes acquisition progress, stored runs and metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/juraj-juraj/BRIA-project/internal/adapters/repository"
	"github.com/juraj-juraj/BRIA-project/internal/app"
	"github.com/juraj-juraj/BRIA-project/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Status returns the current acquisition progress.
	Status() types.Status

	// Summaries lists the runs held in the store.
	Summaries(ctx context.Context) ([]types.RunSummary, error)

	// Write persists a stored run to a new dataset file and returns its path.
	Write(ctx context.Context, id string) (string, error)
}

// Server wires HTTP routes for the acquisition API.
type Server struct {
	healthHandler *HealthHandler
	statusHandler *StatusHandler
	runsHandler   *RunsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(deps),
		statusHandler: NewStatusHandler(deps),
		runsHandler:   NewRunsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleList, "runs"))
	mux.HandleFunc("/runs/{id}/write", MetricsMiddleware(s.runsHandler.HandleWrite, "runs_write"))
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

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError maps service errors onto HTTP status codes.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, app.ErrBusy):
		writeError(w, http.StatusConflict, "busy", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
