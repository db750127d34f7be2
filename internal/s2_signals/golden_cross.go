package s2_signals

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// GoldenCross fires when the fast SMA crosses above the slow SMA
type GoldenCross struct {
	Fast int
	Slow int
}

// NewGoldenCross returns the MA5/MA20 crossover
func NewGoldenCross() *GoldenCross {
	return &GoldenCross{Fast: 5, Slow: 20}
}

func (s *GoldenCross) Name() string { return "golden_cross" }

func (s *GoldenCross) Description() string {
	return fmt.Sprintf("MA%d crosses above MA%d", s.Fast, s.Slow)
}

func (s *GoldenCross) Lookback() int { return s.Slow + 1 }

func (s *GoldenCross) Scan(history []contracts.PriceBar, current contracts.Quote) (optional.Option[contracts.SignalPayload], error) {
	if len(history) < s.Lookback() {
		return none()
	}

	closes := Closes(history)
	fast := SMA(closes, s.Fast)
	slow := SMA(closes, s.Slow)
	if !CrossedAbove(fast, slow) {
		return none()
	}

	last := len(closes) - 1
	spread := (fast[last] - slow[last]) / slow[last] * 100

	return fire(contracts.SignalPayload{
		Type:        "ma_golden_cross",
		Magnitude:   round(spread, 4),
		Description: fmt.Sprintf("MA%d (%.2f) crossed above MA%d (%.2f)", s.Fast, fast[last], s.Slow, slow[last]),
		Metrics: map[string]float64{
			fmt.Sprintf("ma%d", s.Fast): round(fast[last], 4),
			fmt.Sprintf("ma%d", s.Slow): round(slow[last], 4),
			"price":                     current.Price,
		},
	})
}
