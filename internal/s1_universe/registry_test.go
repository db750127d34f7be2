package s1_universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/internal/data/repos"
	"github.com/wz-hub/a-stock-scanner/pkg/database/dbtest"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

type listProvider struct {
	list  []contracts.Instrument
	err   error
	calls int
}

func (p *listProvider) FetchDailyBars(ctx context.Context, code string, r contracts.DateRange) ([]contracts.PriceBar, error) {
	return nil, nil
}

func (p *listProvider) FetchInstrumentList(ctx context.Context) ([]contracts.Instrument, error) {
	p.calls++
	return p.list, p.err
}

func instruments(codes ...string) []contracts.Instrument {
	out := make([]contracts.Instrument, len(codes))
	for i, c := range codes {
		out[i] = contracts.Instrument{Code: c, Name: "name " + c}
	}
	return out
}

func newTestRegistry(t *testing.T, p *listProvider) *Registry {
	t.Helper()
	repo := repos.NewInstrumentRepository(dbtest.New(t))
	return NewRegistry(p, repo, 7*24*time.Hour, logger.Nop())
}

func TestRefreshPopulatesEmptyRegistry(t *testing.T) {
	ctx := context.Background()
	p := &listProvider{list: instruments("600000", "000001", "300750")}
	reg := newTestRegistry(t, p)

	res, err := reg.Refresh(ctx, false)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.Upserted)
	assert.Empty(t, res.Delisted)

	codes, err := reg.Codes(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "300750", "600000"}, codes)
}

func TestRefreshWeeklyCadence(t *testing.T) {
	ctx := context.Background()
	p := &listProvider{list: instruments("600000", "000001")}
	reg := newTestRegistry(t, p)

	_, err := reg.Refresh(ctx, false)
	require.NoError(t, err)

	res, err := reg.Refresh(ctx, false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 1, p.calls)

	res, err = reg.Refresh(ctx, true)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, p.calls)

	reg.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	due, err := reg.Due(ctx)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestRefreshFlagsDelisted(t *testing.T) {
	ctx := context.Background()
	p := &listProvider{list: instruments("600000", "000001", "000002")}
	reg := newTestRegistry(t, p)

	_, err := reg.Refresh(ctx, true)
	require.NoError(t, err)

	p.list = instruments("600000", "000001")
	res, err := reg.Refresh(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"000002"}, res.Delisted)

	active, err := reg.Codes(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001", "600000"}, active)

	all, err := reg.Active(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 3, "delisted instruments are kept")
	assert.True(t, all[1].Delisted)

	// relisted upstream
	p.list = instruments("600000", "000001", "000002")
	_, err = reg.Refresh(ctx, true)
	require.NoError(t, err)
	active, err = reg.Codes(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func TestRefreshRejectsSuspiciousListing(t *testing.T) {
	ctx := context.Background()
	p := &listProvider{list: instruments("600000", "000001", "000002", "300750")}
	reg := newTestRegistry(t, p)
	_, err := reg.Refresh(ctx, true)
	require.NoError(t, err)

	tests := []struct {
		name string
		list []contracts.Instrument
	}{
		{"empty", nil},
		{"truncated", instruments("600000")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.list = tt.list
			_, err := reg.Refresh(ctx, true)
			var integrity *contracts.DataIntegrityError
			require.True(t, errors.As(err, &integrity), "got %v", err)

			active, err := reg.Codes(ctx, false)
			require.NoError(t, err)
			assert.Len(t, active, 4, "registry must be untouched")
		})
	}
}

func TestRefreshProviderError(t *testing.T) {
	p := &listProvider{err: &contracts.TransientFetchError{Code: "*", Err: errors.New("timeout")}}
	reg := newTestRegistry(t, p)

	_, err := reg.Refresh(context.Background(), true)
	require.Error(t, err)
	assert.True(t, contracts.IsTransient(err))
}
