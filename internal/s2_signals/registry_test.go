package s2_signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/internal/strategyconfig"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		enabled []string
		want    []string
		wantErr bool
	}{
		{"defaults", []string{"golden_cross", "macd_cross"}, []string{"golden_cross", "macd_cross"}, false},
		{"configured order kept", []string{"volume_break", "golden_cross"}, []string{"volume_break", "golden_cross"}, false},
		{"unknown", []string{"golden_cross", "moon_phase"}, nil, true},
		{"duplicate", []string{"macd_cross", "macd_cross"}, nil, true},
		{"empty", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry(tt.enabled)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, contracts.IsConfiguration(err), "got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, reg.Names())
		})
	}
}

func TestRegistryGetAndLookback(t *testing.T) {
	reg, err := NewRegistry([]string{"golden_cross", "macd_cross"})
	require.NoError(t, err)

	s, err := reg.Get("macd_cross")
	require.NoError(t, err)
	assert.Equal(t, "macd_cross", s.Name())

	_, err = reg.Get("rsi_oversold")
	assert.True(t, contracts.IsConfiguration(err), "builtin but not enabled")

	assert.Equal(t, 35, reg.MaxLookback())
}

func TestCatalogueSorted(t *testing.T) {
	reg, err := NewRegistry([]string{"macd_cross"})
	require.NoError(t, err)

	var got []string
	for _, s := range reg.Catalogue() {
		got = append(got, s.Name())
		assert.NotEmpty(t, s.Description())
		assert.Positive(t, s.Lookback())
	}
	assert.Equal(t, []string{"bollinger_rebound", "golden_cross", "macd_cross", "rsi_oversold", "volume_break"}, got)
	assert.True(t, reg.Enabled("macd_cross"))
	assert.False(t, reg.Enabled("golden_cross"))
}

func TestRegistryWithParams(t *testing.T) {
	p := strategyconfig.Default()
	p.GoldenCross = strategyconfig.GoldenCross{Fast: 10, Slow: 60}

	reg, err := NewRegistryWithParams(p, []string{"golden_cross", "rsi_oversold"})
	require.NoError(t, err)

	s, err := reg.Get("golden_cross")
	require.NoError(t, err)
	assert.Equal(t, "MA10 crosses above MA60", s.Description())
	assert.Equal(t, 61, reg.MaxLookback())

	def, err := NewRegistry([]string{"golden_cross", "rsi_oversold"})
	require.NoError(t, err)
	assert.Len(t, reg.ParamsHash(), 64)
	assert.NotEqual(t, def.ParamsHash(), reg.ParamsHash())

	custom, err := NewRegistryFrom(Builtins(), []string{"golden_cross"})
	require.NoError(t, err)
	assert.Empty(t, custom.ParamsHash())
}

func TestRegistryWithInvalidParams(t *testing.T) {
	p := strategyconfig.Default()
	p.MACDCross.Slow = p.MACDCross.Fast

	_, err := NewRegistryWithParams(p, []string{"macd_cross"})
	var cfgErr *contracts.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "STRATEGY_CONFIG", cfgErr.Field)
}
