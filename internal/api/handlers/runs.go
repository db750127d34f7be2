package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

// RunHandler serves persisted scan summaries
type RunHandler struct {
	runs   contracts.RunRepository
	logger *logger.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs contracts.RunRepository, log *logger.Logger) *RunHandler {
	return &RunHandler{runs: runs, logger: log}
}

// List returns recent runs without their full summaries
// GET /api/runs?limit=
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 20, 200)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected a positive integer)")
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if runs == nil {
		runs = []contracts.RunRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

// Get returns one run with its summary
// GET /api/runs/{id}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.runs.GetRun(r.Context(), id)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}
