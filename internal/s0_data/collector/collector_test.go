package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/internal/data/repos"
	"github.com/wz-hub/a-stock-scanner/pkg/database/dbtest"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
	"github.com/wz-hub/a-stock-scanner/pkg/retry"
)

// fakeProvider serves one weekday bar per day and fails on demand
type fakeProvider struct {
	mu       sync.Mutex
	calls    map[string]int
	ranges   map[string][]contracts.DateRange
	failures map[string][]error // consumed one per call
	corrupt  map[string]bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		calls:    map[string]int{},
		ranges:   map[string][]contracts.DateRange{},
		failures: map[string][]error{},
		corrupt:  map[string]bool{},
	}
}

func (p *fakeProvider) FetchDailyBars(ctx context.Context, code string, r contracts.DateRange) ([]contracts.PriceBar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[code]++
	p.ranges[code] = append(p.ranges[code], r)
	if errs := p.failures[code]; len(errs) > 0 {
		p.failures[code] = errs[1:]
		if errs[0] != nil {
			return nil, errs[0]
		}
	}

	var bars []contracts.PriceBar
	for d := contracts.DateOnly(r.From); !d.After(r.To); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		bars = append(bars, contracts.PriceBar{
			InstrumentCode: code, TradingDate: d,
			Open: 10, High: 10.5, Low: 9.5, Close: 10.2, Volume: 1000, Amount: 10200,
		})
	}
	if p.corrupt[code] && len(bars) > 0 {
		bars[0].High = 1
	}
	return bars, nil
}

func (p *fakeProvider) FetchInstrumentList(ctx context.Context) ([]contracts.Instrument, error) {
	return nil, nil
}

func (p *fakeProvider) callCount(code string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[code]
}

func transient(code string) error {
	return &contracts.TransientFetchError{Code: code, Err: errors.New("connection reset")}
}

// Friday 2024-03-15 after the close
var fixedNow = time.Date(2024, 3, 15, 16, 0, 0, 0, contracts.MarketLocation)

func newTestSynchronizer(t *testing.T, provider *fakeProvider, workers int) (*Synchronizer, *repos.PriceRepository) {
	t.Helper()
	prices := repos.NewPriceRepository(dbtest.New(t))
	s := NewSynchronizer(provider, prices, Config{
		Workers:      workers,
		Retry:        retry.Policy{MaxAttempts: 3},
		BackfillDays: 10,
		SessionClose: 15*time.Hour + 30*time.Minute,
	}, logger.Nop())
	s.now = func() time.Time { return fixedNow }
	return s, prices
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := contracts.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestSyncBackfillThenNoOp(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	s, prices := newTestSynchronizer(t, provider, 1)

	out := s.Sync(ctx, "600000")
	assert.Equal(t, contracts.SyncUpdated, out.Status)
	assert.Equal(t, 1, out.Attempts)
	// 2024-03-05 .. 2024-03-15 has 9 weekdays
	assert.Equal(t, 9, out.Bars)
	assert.Equal(t, "2024-03-05", contracts.FormatDate(provider.ranges["600000"][0].From))

	last, ok, err := prices.LatestTradingDate(ctx, "600000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", contracts.FormatDate(last))

	out = s.Sync(ctx, "600000")
	assert.Equal(t, contracts.SyncNoOp, out.Status)
	assert.Equal(t, 1, provider.callCount("600000"), "up-to-date instrument must not hit the provider")
}

func TestBackfillCoversScanWindow(t *testing.T) {
	prices := repos.NewPriceRepository(dbtest.New(t))
	tests := []struct {
		name       string
		configured int
		window     int
		want       int
	}{
		{"default window fits", 120, 60, 120},
		{"long history days", 120, 200, 300},
		{"slow moving average", 120, 151, 231},
		{"no window", 30, 0, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynchronizer(newFakeProvider(), prices, Config{BackfillDays: tt.configured, WindowBars: tt.window}, logger.Nop())
			assert.Equal(t, tt.want, s.BackfillDays())
			assert.GreaterOrEqual(t, s.BackfillDays()*5/7, tt.window)
		})
	}
}

func TestSyncFetchesOnlyMissingRange(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	s, prices := newTestSynchronizer(t, provider, 1)

	_, err := prices.InsertBars(ctx, []contracts.PriceBar{{
		InstrumentCode: "000001", TradingDate: mustDate(t, "2024-03-13"),
		Open: 9, High: 9, Low: 9, Close: 9, Volume: 1,
	}})
	require.NoError(t, err)

	out := s.Sync(ctx, "000001")
	assert.Equal(t, contracts.SyncUpdated, out.Status)
	assert.Equal(t, 2, out.Bars)

	r := provider.ranges["000001"][0]
	assert.Equal(t, "2024-03-14", contracts.FormatDate(r.From))
	assert.Equal(t, "2024-03-15", contracts.FormatDate(r.To))

	window, err := prices.Window(ctx, "000001", mustDate(t, "2024-03-15"), 10)
	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.Equal(t, 9.0, window[0].Close, "existing bar must not be overwritten")
}

func TestSyncBeforeSessionClose(t *testing.T) {
	provider := newFakeProvider()
	s, _ := newTestSynchronizer(t, provider, 1)
	s.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, contracts.MarketLocation) }

	out := s.Sync(context.Background(), "600000")
	assert.Equal(t, contracts.SyncUpdated, out.Status)
	assert.Equal(t, "2024-03-14", contracts.FormatDate(provider.ranges["600000"][0].To))
}

func TestSyncRetries(t *testing.T) {
	tests := []struct {
		name         string
		failures     []error
		wantStatus   contracts.SyncStatus
		wantAttempts int
	}{
		{"transient then success", []error{transient("600000")}, contracts.SyncUpdated, 2},
		{"transient exhausted", []error{transient("600000"), transient("600000"), transient("600000")}, contracts.SyncFailed, 3},
		{"integrity not retried", []error{&contracts.DataIntegrityError{Code: "600000", Reason: "bad row"}}, contracts.SyncFailed, 1},
		{"plain error not retried", []error{errors.New("HTTP 404")}, contracts.SyncFailed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			provider := newFakeProvider()
			provider.failures["600000"] = tt.failures
			s, prices := newTestSynchronizer(t, provider, 1)

			out := s.Sync(ctx, "600000")
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantAttempts, out.Attempts)
			assert.Equal(t, tt.wantAttempts, provider.callCount("600000"))

			_, stored, err := prices.LatestTradingDate(ctx, "600000")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus == contracts.SyncUpdated, stored)
			if tt.wantStatus == contracts.SyncFailed {
				assert.NotEmpty(t, out.Reason)
			}
		})
	}
}

func TestSyncRejectsCorruptBars(t *testing.T) {
	ctx := context.Background()
	provider := newFakeProvider()
	provider.corrupt["600000"] = true
	s, prices := newTestSynchronizer(t, provider, 1)

	out := s.Sync(ctx, "600000")
	assert.Equal(t, contracts.SyncFailed, out.Status)
	assert.Contains(t, out.Reason, "data integrity")

	_, stored, err := prices.LatestTradingDate(ctx, "600000")
	require.NoError(t, err)
	assert.False(t, stored, "a rejected batch must leave the store untouched")
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	for _, workers := range []int{1, 3} {
		provider := newFakeProvider()
		provider.failures["000002"] = []error{errors.New("HTTP 404")}
		s, _ := newTestSynchronizer(t, provider, workers)

		codes := []string{"600000", "000002", "000001", "300750"}
		var mu sync.Mutex
		seen := 0
		outcomes := s.SyncAll(context.Background(), codes, func(contracts.SyncOutcome) {
			mu.Lock()
			seen++
			mu.Unlock()
		})

		require.Len(t, outcomes, len(codes))
		assert.Equal(t, len(codes), seen)
		for i, code := range codes {
			assert.Equal(t, code, outcomes[i].Code)
			if code == "000002" {
				assert.Equal(t, contracts.SyncFailed, outcomes[i].Status)
				continue
			}
			assert.Equal(t, contracts.SyncUpdated, outcomes[i].Status, "workers=%d code=%s", workers, code)
		}
	}
}

func TestSyncAllCancelled(t *testing.T) {
	provider := newFakeProvider()
	s, _ := newTestSynchronizer(t, provider, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := s.SyncAll(ctx, []string{"600000", "000001"}, nil)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, contracts.SyncFailed, o.Status)
		assert.Equal(t, "cancelled", o.Reason)
	}
}
