package api

import (
	"net/http"
	"strings"

	"github.com/juraj-juraj/BRIA-project/internal/domain/types"
)

// RunsHandler lists stored runs and retries their dataset writes.
type RunsHandler struct {
	deps Dependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

type runsResponse struct {
	Runs []types.RunSummary `json:"runs"`
}

type writeResponse struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// HandleList handles GET /runs requests.
func (h *RunsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	runs, err := h.deps.Summaries(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if runs == nil {
		runs = []types.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: runs})
}

// HandleWrite handles POST /runs/{id}/write requests.
func (h *RunsHandler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	path, err := h.deps.Write(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, writeResponse{ID: id, Path: path})
}
