package s2_signals

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// RSIOversold fires when RSI climbs back over the oversold line on an up day
type RSIOversold struct {
	Period    int
	Threshold float64
}

func NewRSIOversold() *RSIOversold {
	return &RSIOversold{Period: 14, Threshold: 30}
}

func (s *RSIOversold) Name() string { return "rsi_oversold" }

func (s *RSIOversold) Description() string {
	return fmt.Sprintf("RSI%d rebounds above %.0f", s.Period, s.Threshold)
}

// Lookback leaves a few days past the RSI warm-up
func (s *RSIOversold) Lookback() int { return s.Period + 6 }

func (s *RSIOversold) Scan(history []contracts.PriceBar, current contracts.Quote) (optional.Option[contracts.SignalPayload], error) {
	if len(history) < s.Lookback() {
		return none()
	}

	rsi := RSI(Closes(history), s.Period)
	last := len(rsi) - 1
	today, prev := rsi[last], rsi[last-1]

	// NaN compares false
	if !(prev < s.Threshold && today > s.Threshold && current.ChangePercent > 0) {
		return none()
	}

	return fire(contracts.SignalPayload{
		Type:        "rsi_oversold_rebound",
		Magnitude:   round(today-prev, 2),
		Description: fmt.Sprintf("RSI rebounded from %.1f to %.1f", prev, today),
		Metrics: map[string]float64{
			"rsi":      round(today, 2),
			"rsi_prev": round(prev, 2),
		},
	})
}
