package s2_signals

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// Zero-axis labels attached to MACD signals
const (
	AboveZero = "above_zero"
	BelowZero = "below_zero"
)

// MACDCross fires when DIF crosses above DEA
type MACDCross struct {
	FastSpan   int
	SlowSpan   int
	SignalSpan int
}

// NewMACDCross returns the standard 12/26/9 MACD crossover
func NewMACDCross() *MACDCross {
	return &MACDCross{FastSpan: 12, SlowSpan: 26, SignalSpan: 9}
}

func (s *MACDCross) Name() string { return "macd_cross" }

func (s *MACDCross) Description() string {
	return fmt.Sprintf("MACD(%d,%d,%d) DIF crosses above DEA", s.FastSpan, s.SlowSpan, s.SignalSpan)
}

// Lookback is the EMA warm-up floor; shorter series are too unstable to trust
func (s *MACDCross) Lookback() int { return s.SlowSpan + s.SignalSpan }

// Lines returns the DIF and DEA series for closes
func (s *MACDCross) Lines(closes []float64) (dif, dea []float64) {
	fast := EMA(closes, s.FastSpan)
	slow := EMA(closes, s.SlowSpan)
	dif = make([]float64, len(closes))
	for i := range closes {
		dif[i] = fast[i] - slow[i]
	}
	return dif, EMA(dif, s.SignalSpan)
}

func (s *MACDCross) Scan(history []contracts.PriceBar, current contracts.Quote) (optional.Option[contracts.SignalPayload], error) {
	if len(history) < s.Lookback() {
		return none()
	}

	dif, dea := s.Lines(Closes(history))
	if !CrossedAbove(dif, dea) {
		return none()
	}

	last := len(dif) - 1
	axis := BelowZero
	if dif[last] > 0 {
		axis = AboveZero
	}
	hist := (dif[last] - dea[last]) * 2

	return fire(contracts.SignalPayload{
		Type:        "macd_golden_cross",
		Magnitude:   round(hist, 4),
		Description: fmt.Sprintf("MACD golden cross %s (DIF=%.4f)", axis, dif[last]),
		Metrics: map[string]float64{
			"dif":   round(dif[last], 4),
			"dea":   round(dea[last], 4),
			"macd":  round(hist, 4),
			"price": current.Price,
		},
		Labels: map[string]string{"position": axis},
	})
}
