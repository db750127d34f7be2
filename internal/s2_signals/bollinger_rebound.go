package s2_signals

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// BollingerRebound fires when price recovers from the lower band
type BollingerRebound struct {
	Period    int
	Width     float64 // band width in standard deviations
	Tolerance float64 // how close to the lower band counts as touching
}

func NewBollingerRebound() *BollingerRebound {
	return &BollingerRebound{Period: 20, Width: 2, Tolerance: 0.02}
}

func (s *BollingerRebound) Name() string { return "bollinger_rebound" }

func (s *BollingerRebound) Description() string {
	return fmt.Sprintf("rebound off the lower Bollinger band (%d, %.0fσ)", s.Period, s.Width)
}

func (s *BollingerRebound) Lookback() int { return s.Period + 5 }

func (s *BollingerRebound) Scan(history []contracts.PriceBar, current contracts.Quote) (optional.Option[contracts.SignalPayload], error) {
	if len(history) < s.Lookback() {
		return none()
	}

	closes := Closes(history)
	mid := SMA(closes, s.Period)
	std := RollingStd(closes, s.Period)

	last := len(closes) - 1
	lower := func(i int) float64 { return mid[i] - s.Width*std[i] }
	lowerToday, lowerPrev := lower(last), lower(last-1)
	if math.IsNaN(lowerToday) || math.IsNaN(lowerPrev) || lowerToday <= 0 {
		return none()
	}

	touched := closes[last-1] <= lowerPrev*(1+s.Tolerance)
	if !(touched && closes[last] > lowerToday && current.ChangePercent > 0) {
		return none()
	}

	distance := (closes[last] - lowerToday) / lowerToday * 100
	return fire(contracts.SignalPayload{
		Type:        "bollinger_lower_rebound",
		Magnitude:   round(distance, 2),
		Description: fmt.Sprintf("%.2f%% above the lower band after touching it", distance),
		Metrics: map[string]float64{
			"lower":    round(lowerToday, 4),
			"middle":   round(mid[last], 4),
			"upper":    round(mid[last]+s.Width*std[last], 4),
			"distance": round(distance, 2),
		},
	})
}
