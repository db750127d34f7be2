package handlers

import (
	"net/http"

	"github.com/wz-hub/a-stock-scanner/pkg/database"
)

// HealthHandler reports service and store health
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check pings the store
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status, err := h.db.HealthCheck(r.Context())
	code := http.StatusOK
	state := "ok"
	if err != nil {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}

	respondJSON(w, code, map[string]interface{}{
		"status":   state,
		"service":  "a-stock-scanner",
		"database": status,
	})
}
