package s2_signals

import (
	"github.com/moznion/go-optional"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// Strategy evaluates one instrument's recent history.
// Implementations are pure: same input, same output, inputs untouched.
// Too little history yields None, never an error.
type Strategy interface {
	Name() string
	Description() string
	// Lookback is the minimum number of bars needed to decide
	Lookback() int
	Scan(history []contracts.PriceBar, current contracts.Quote) (optional.Option[contracts.SignalPayload], error)
}

func none() (optional.Option[contracts.SignalPayload], error) {
	return optional.None[contracts.SignalPayload](), nil
}

func fire(p contracts.SignalPayload) (optional.Option[contracts.SignalPayload], error) {
	return optional.Some(p), nil
}
