package s2_signals

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// VolumeBreak fires on a high-volume up move
type VolumeBreak struct {
	Period       int     // volume average window, today included
	MinRatio     float64 // volume / average volume
	MinChangePct float64
}

func NewVolumeBreak() *VolumeBreak {
	return &VolumeBreak{Period: 5, MinRatio: 2, MinChangePct: 3}
}

func (s *VolumeBreak) Name() string { return "volume_break" }

func (s *VolumeBreak) Description() string {
	return fmt.Sprintf("volume over %.0fx its %d-day average with a gain above %.0f%%", s.MinRatio, s.Period, s.MinChangePct)
}

func (s *VolumeBreak) Lookback() int { return 2 * s.Period }

func (s *VolumeBreak) Scan(history []contracts.PriceBar, current contracts.Quote) (optional.Option[contracts.SignalPayload], error) {
	if len(history) < s.Lookback() {
		return none()
	}

	avg := SMA(Volumes(history), s.Period)
	last := len(history) - 1
	if !(avg[last] > 0) {
		return none()
	}

	ratio := history[last].Volume / avg[last]
	if !(ratio > s.MinRatio && current.ChangePercent > s.MinChangePct) {
		return none()
	}

	return fire(contracts.SignalPayload{
		Type:        "volume_breakout",
		Magnitude:   round(ratio, 2),
		Description: fmt.Sprintf("volume %.2fx average, up %.2f%%", ratio, current.ChangePercent),
		Metrics: map[string]float64{
			"volume_ratio":   round(ratio, 2),
			"change_percent": round(current.ChangePercent, 2),
		},
	})
}
