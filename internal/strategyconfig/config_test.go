package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(&cfg))
	assert.Empty(t, Warn(&cfg))
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
golden_cross:
  fast: 10
  slow: 30
volume_break:
  min_ratio: 3
`))
	require.NoError(t, err)

	assert.Equal(t, GoldenCross{Fast: 10, Slow: 30}, cfg.GoldenCross)
	assert.Equal(t, 3.0, cfg.VolumeBreak.MinRatio)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.VolumeBreak.Period)
	assert.Equal(t, Default().MACDCross, cfg.MACDCross)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("golden_cross:\n  fsat: 3\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("kdj_cross:\n  period: 9\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"golden_cross.slow", func(c *Config) { c.GoldenCross.Slow = c.GoldenCross.Fast }},
		{"golden_cross.fast", func(c *Config) { c.GoldenCross.Fast = 0 }},
		{"macd_cross.slow", func(c *Config) { c.MACDCross.Slow = 5 }},
		{"macd_cross.signal", func(c *Config) { c.MACDCross.Signal = 0 }},
		{"rsi_oversold.threshold", func(c *Config) { c.RSIOversold.Threshold = 70 }},
		{"rsi_oversold.period", func(c *Config) { c.RSIOversold.Period = 1 }},
		{"bollinger_rebound.width", func(c *Config) { c.BollingerRebound.Width = 0 }},
		{"bollinger_rebound.tolerance", func(c *Config) { c.BollingerRebound.Tolerance = -0.1 }},
		{"volume_break.min_ratio", func(c *Config) { c.VolumeBreak.MinRatio = 1 }},
		{"volume_break.min_change_pct", func(c *Config) { c.VolumeBreak.MinChangePct = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.BollingerRebound.Tolerance = 0.2
	cfg.VolumeBreak.MinRatio = 1.2

	codes := []string{}
	for _, w := range Warn(&cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"BOLLINGER_LOOSE_TOUCH", "VOLUME_RATIO_LOW"}, codes)
}

func TestLoadAndHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rsi_oversold:\n  threshold: 25\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, cfg.RSIOversold.Threshold)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	again, _ := Hash(cfg)
	assert.Equal(t, hash, again, "hash is deterministic")

	def := Default()
	defHash, _ := Hash(&def)
	assert.NotEqual(t, defHash, hash)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
