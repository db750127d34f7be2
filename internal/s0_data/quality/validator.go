package quality

import (
	"fmt"
	"math"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// Validate checks a fetched batch before it is stored.
// Any violation rejects the whole batch with a DataIntegrityError.
// ⭐ SSOT: bar integrity rules live here
func Validate(code string, r contracts.DateRange, bars []contracts.PriceBar) error {
	for i, b := range bars {
		if err := validateBar(code, r, b); err != nil {
			return &contracts.DataIntegrityError{Code: code, Reason: fmt.Sprintf("bar %d: %s", i, err)}
		}
		if i > 0 && !b.TradingDate.After(bars[i-1].TradingDate) {
			return &contracts.DataIntegrityError{
				Code: code,
				Reason: fmt.Sprintf("bar %d: date %s does not follow %s",
					i, contracts.FormatDate(b.TradingDate), contracts.FormatDate(bars[i-1].TradingDate)),
			}
		}
	}
	return nil
}

func validateBar(code string, r contracts.DateRange, b contracts.PriceBar) error {
	if b.InstrumentCode != code {
		return fmt.Errorf("instrument %q, want %q", b.InstrumentCode, code)
	}
	if !r.Contains(b.TradingDate) {
		return fmt.Errorf("date %s outside requested %s", contracts.FormatDate(b.TradingDate), r)
	}

	for name, v := range map[string]float64{"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%s price %v is not positive", name, v)
		}
	}
	if b.High < math.Max(b.Open, b.Close) || b.High < b.Low {
		return fmt.Errorf("high %v below open/close/low", b.High)
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("low %v above open/close", b.Low)
	}
	if math.IsNaN(b.Volume) || b.Volume < 0 {
		return fmt.Errorf("volume %v is negative", b.Volume)
	}
	return nil
}
