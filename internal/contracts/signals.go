package contracts

import (
	"sort"
	"time"
)

// SignalPayload is strategy-defined detail attached to a fired signal
type SignalPayload struct {
	Type        string             `json:"type"`
	Magnitude   float64            `json:"magnitude"`
	Description string             `json:"description"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Labels      map[string]string  `json:"labels,omitempty"`
}

// Signal is one stored scan result.
// (InstrumentCode, ScanDate, StrategyName) is unique.
type Signal struct {
	InstrumentCode string        `json:"instrument_code"`
	ScanDate       time.Time     `json:"scan_date"`
	StrategyName   string        `json:"strategy_name"`
	Payload        SignalPayload `json:"payload"`
	CreatedAt      time.Time     `json:"created_at"`
}

// SignalKey identifies a signal row
type SignalKey struct {
	InstrumentCode string
	ScanDate       time.Time
	StrategyName   string
}

// Key returns the signal's identity
func (s Signal) Key() SignalKey {
	return SignalKey{InstrumentCode: s.InstrumentCode, ScanDate: DateOnly(s.ScanDate), StrategyName: s.StrategyName}
}

// SignalFilter narrows a signal query; zero fields are ignored
type SignalFilter struct {
	Date           *time.Time
	From           *time.Time
	To             *time.Time
	StrategyName   string
	InstrumentCode string
	Limit          int
}

// SortSignals orders by scan date desc, then code asc, then strategy asc
func SortSignals(signals []Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if !a.ScanDate.Equal(b.ScanDate) {
			return a.ScanDate.After(b.ScanDate)
		}
		if a.InstrumentCode != b.InstrumentCode {
			return a.InstrumentCode < b.InstrumentCode
		}
		return a.StrategyName < b.StrategyName
	})
}
