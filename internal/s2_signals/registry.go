package s2_signals

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/internal/strategyconfig"
)

// Builtins returns one instance of every strategy with stock parameters
func Builtins() []Strategy {
	return BuiltinsFrom(strategyconfig.Default())
}

// BuiltinsFrom builds every shipped strategy from tuned parameters
func BuiltinsFrom(p strategyconfig.Config) []Strategy {
	return []Strategy{
		&GoldenCross{Fast: p.GoldenCross.Fast, Slow: p.GoldenCross.Slow},
		&MACDCross{FastSpan: p.MACDCross.Fast, SlowSpan: p.MACDCross.Slow, SignalSpan: p.MACDCross.Signal},
		&RSIOversold{Period: p.RSIOversold.Period, Threshold: p.RSIOversold.Threshold},
		&BollingerRebound{Period: p.BollingerRebound.Period, Width: p.BollingerRebound.Width, Tolerance: p.BollingerRebound.Tolerance},
		&VolumeBreak{Period: p.VolumeBreak.Period, MinRatio: p.VolumeBreak.MinRatio, MinChangePct: p.VolumeBreak.MinChangePct},
	}
}

// Registry holds the enabled strategies in configured order
// ⭐ SSOT: which strategies run is decided here
type Registry struct {
	strategies []Strategy
	byName     map[string]Strategy
	catalogue  []Strategy
	paramsHash string
}

// NewRegistry resolves enabled names against the builtin catalogue
func NewRegistry(enabled []string) (*Registry, error) {
	return NewRegistryWithParams(strategyconfig.Default(), enabled)
}

// NewRegistryWithParams resolves enabled names against builtins built from p.
// The parameter hash is stamped on every run summary.
func NewRegistryWithParams(p strategyconfig.Config, enabled []string) (*Registry, error) {
	if err := strategyconfig.Validate(&p); err != nil {
		return nil, &contracts.ConfigurationError{Field: "STRATEGY_CONFIG", Reason: err.Error()}
	}
	hash, err := strategyconfig.Hash(&p)
	if err != nil {
		return nil, fmt.Errorf("hash strategy params: %w", err)
	}

	r, err := NewRegistryFrom(BuiltinsFrom(p), enabled)
	if err != nil {
		return nil, err
	}
	r.paramsHash = hash
	return r, nil
}

// NewRegistryFrom resolves enabled names against a custom catalogue
func NewRegistryFrom(catalogue []Strategy, enabled []string) (*Registry, error) {
	known := make(map[string]Strategy, len(catalogue))
	for _, s := range catalogue {
		known[s.Name()] = s
	}

	if len(enabled) == 0 {
		return nil, &contracts.ConfigurationError{Field: "ENABLED_STRATEGIES", Reason: "no strategy enabled"}
	}

	r := &Registry{
		byName:    make(map[string]Strategy, len(enabled)),
		catalogue: append([]Strategy(nil), catalogue...),
	}
	for _, name := range enabled {
		s, ok := known[name]
		if !ok {
			return nil, &contracts.ConfigurationError{
				Field:  "ENABLED_STRATEGIES",
				Reason: fmt.Sprintf("unknown strategy %q (available: %s)", name, strings.Join(names(catalogue), ", ")),
			}
		}
		if _, dup := r.byName[name]; dup {
			return nil, &contracts.ConfigurationError{Field: "ENABLED_STRATEGIES", Reason: fmt.Sprintf("duplicate strategy %q", name)}
		}
		r.byName[name] = s
		r.strategies = append(r.strategies, s)
	}
	return r, nil
}

// Get returns an enabled strategy by name
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, &contracts.ConfigurationError{Field: "strategy", Reason: fmt.Sprintf("strategy %q is not enabled", name)}
	}
	return s, nil
}

// Strategies returns the enabled strategies in configured order
func (r *Registry) Strategies() []Strategy {
	return append([]Strategy(nil), r.strategies...)
}

// Names returns enabled strategy names in configured order
func (r *Registry) Names() []string {
	return names(r.strategies)
}

// MaxLookback is the largest history any enabled strategy needs
func (r *Registry) MaxLookback() int {
	longest := 0
	for _, s := range r.strategies {
		if s.Lookback() > longest {
			longest = s.Lookback()
		}
	}
	return longest
}

// ParamsHash identifies the parameter set; empty for a custom catalogue
func (r *Registry) ParamsHash() string {
	return r.paramsHash
}

// Enabled reports whether name is enabled
func (r *Registry) Enabled(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Catalogue lists every known strategy sorted by name, for CLI and API listings
func (r *Registry) Catalogue() []Strategy {
	all := append([]Strategy(nil), r.catalogue...)
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

func names(strategies []Strategy) []string {
	out := make([]string, len(strategies))
	for i, s := range strategies {
		out[i] = s.Name()
	}
	return out
}
