package handlers

import (
	"net/http"

	"github.com/wz-hub/a-stock-scanner/internal/s2_signals"
)

// StrategyInfo describes one builtin strategy
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Lookback    int    `json:"lookback"`
	Enabled     bool   `json:"enabled"`
}

// StrategyHandler lists the strategy catalogue
type StrategyHandler struct {
	enabled *s2_signals.Registry
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(enabled *s2_signals.Registry) *StrategyHandler {
	return &StrategyHandler{enabled: enabled}
}

// StrategyCatalogue describes every known strategy and whether it is enabled
func StrategyCatalogue(reg *s2_signals.Registry) []StrategyInfo {
	out := []StrategyInfo{}
	for _, s := range reg.Catalogue() {
		out = append(out, StrategyInfo{
			Name:        s.Name(),
			Description: s.Description(),
			Lookback:    s.Lookback(),
			Enabled:     reg.Enabled(s.Name()),
		})
	}
	return out
}

// List returns every builtin strategy and whether it is enabled
// GET /api/strategies
func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, StrategyCatalogue(h.enabled))
}
