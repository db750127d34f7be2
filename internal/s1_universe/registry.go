package s1_universe

import (
	"context"
	"fmt"
	"time"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

// minUpstreamRatio guards against mass delisting on a truncated listing
const minUpstreamRatio = 0.5

// RefreshResult reports what a registry refresh changed
type RefreshResult struct {
	Skipped  bool     `json:"skipped"`
	Upserted int      `json:"upserted"`
	Delisted []string `json:"delisted"`
	Active   int      `json:"active"`
}

// Registry maintains the set of scannable instruments
// ⭐ SSOT: instruments enter and leave the universe only here
type Registry struct {
	provider contracts.MarketDataProvider
	repo     contracts.InstrumentRepository
	interval time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

// NewRegistry creates a new Registry refreshing at most once per interval
func NewRegistry(provider contracts.MarketDataProvider, repo contracts.InstrumentRepository, interval time.Duration, log *logger.Logger) *Registry {
	return &Registry{
		provider: provider,
		repo:     repo,
		interval: interval,
		now:      time.Now,
		logger:   log.WithModule("universe"),
	}
}

// Due reports whether the registry should be refreshed now
func (r *Registry) Due(ctx context.Context) (bool, error) {
	last, err := r.repo.LastRefreshedAt(ctx)
	if err != nil {
		return false, err
	}
	if last.IsZero() {
		return true, nil
	}
	return r.now().Sub(last) >= r.interval, nil
}

// Refresh pulls the upstream listing and reconciles the local registry.
// Without force it is a no-op until the refresh interval has elapsed.
func (r *Registry) Refresh(ctx context.Context, force bool) (*RefreshResult, error) {
	if !force {
		due, err := r.Due(ctx)
		if err != nil {
			return nil, fmt.Errorf("check registry age: %w", err)
		}
		if !due {
			r.logger.Debug("Registry is fresh, skipping refresh")
			return &RefreshResult{Skipped: true}, nil
		}
	}

	upstream, err := r.provider.FetchInstrumentList(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch instrument list: %w", err)
	}

	current, err := r.repo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}

	if len(upstream) == 0 {
		return nil, &contracts.DataIntegrityError{Code: "*", Reason: "provider returned an empty instrument list"}
	}
	if float64(len(upstream)) < float64(len(current))*minUpstreamRatio {
		return nil, &contracts.DataIntegrityError{
			Code:   "*",
			Reason: fmt.Sprintf("provider listed %d instruments against %d active, refusing to delist", len(upstream), len(current)),
		}
	}

	if err := r.repo.Upsert(ctx, upstream); err != nil {
		return nil, fmt.Errorf("upsert instruments: %w", err)
	}

	listed := make(map[string]bool, len(upstream))
	for _, inst := range upstream {
		listed[inst.Code] = true
	}
	var gone []string
	for _, inst := range current {
		if !listed[inst.Code] {
			gone = append(gone, inst.Code)
		}
	}
	if err := r.repo.MarkDelisted(ctx, gone); err != nil {
		return nil, fmt.Errorf("mark delisted: %w", err)
	}

	result := &RefreshResult{
		Upserted: len(upstream),
		Delisted: gone,
		Active:   len(upstream),
	}

	r.logger.WithFields(map[string]interface{}{
		"upserted": result.Upserted,
		"delisted": len(gone),
	}).Info("Instrument registry refreshed")

	return result, nil
}

// Active lists the instruments to scan, ordered by code
func (r *Registry) Active(ctx context.Context, includeDelisted bool) ([]contracts.Instrument, error) {
	instruments, err := r.repo.List(ctx, includeDelisted)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	return instruments, nil
}

// Codes is Active reduced to instrument codes
func (r *Registry) Codes(ctx context.Context, includeDelisted bool) ([]string, error) {
	instruments, err := r.Active(ctx, includeDelisted)
	if err != nil {
		return nil, err
	}
	codes := make([]string, len(instruments))
	for i, inst := range instruments {
		codes[i] = inst.Code
	}
	return codes, nil
}
