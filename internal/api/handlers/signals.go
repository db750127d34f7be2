package handlers

import (
	"net/http"
	"time"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

const maxSignalLimit = 1000

// SignalHandler serves the result store
type SignalHandler struct {
	signals contracts.SignalRepository
	logger  *logger.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(signals contracts.SignalRepository, log *logger.Logger) *SignalHandler {
	return &SignalHandler{signals: signals, logger: log}
}

// SignalsResponse wraps a signal query result
type SignalsResponse struct {
	Count   int                `json:"count"`
	Signals []contracts.Signal `json:"signals"`
}

// List returns signals, newest scan date first
// GET /api/signals?date=&from=&to=&strategy=&code=&limit=
func (h *SignalHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := contracts.SignalFilter{
		StrategyName:   r.URL.Query().Get("strategy"),
		InstrumentCode: r.URL.Query().Get("code"),
	}

	dates := []struct {
		key string
		dst **time.Time
	}{
		{"date", &filter.Date},
		{"from", &filter.From},
		{"to", &filter.To},
	}
	var err error
	for _, d := range dates {
		if *d.dst, err = queryDate(r, d.key); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid '"+d.key+"' date format (expected YYYY-MM-DD)")
			return
		}
	}

	if filter.Limit, err = queryLimit(r, 200, maxSignalLimit); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected a positive integer)")
		return
	}

	signals, err := h.signals.Query(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query signals")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve signals")
		return
	}
	if signals == nil {
		signals = []contracts.Signal{}
	}

	respondJSON(w, http.StatusOK, SignalsResponse{Count: len(signals), Signals: signals})
}
