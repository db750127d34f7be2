package strategyconfig

// Config holds the tunable parameters of every builtin strategy.
// A section left out of the file keeps its defaults.
type Config struct {
	GoldenCross      GoldenCross      `yaml:"golden_cross" json:"golden_cross"`
	MACDCross        MACDCross        `yaml:"macd_cross" json:"macd_cross"`
	RSIOversold      RSIOversold      `yaml:"rsi_oversold" json:"rsi_oversold"`
	BollingerRebound BollingerRebound `yaml:"bollinger_rebound" json:"bollinger_rebound"`
	VolumeBreak      VolumeBreak      `yaml:"volume_break" json:"volume_break"`
}

// GoldenCross moving-average crossover
type GoldenCross struct {
	Fast int `yaml:"fast" json:"fast"`
	Slow int `yaml:"slow" json:"slow"`
}

// MACDCross EMA spans
type MACDCross struct {
	Fast   int `yaml:"fast" json:"fast"`
	Slow   int `yaml:"slow" json:"slow"`
	Signal int `yaml:"signal" json:"signal"`
}

// RSIOversold rebound line
type RSIOversold struct {
	Period    int     `yaml:"period" json:"period"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// BollingerRebound band settings
type BollingerRebound struct {
	Period    int     `yaml:"period" json:"period"`
	Width     float64 `yaml:"width" json:"width"`         // standard deviations
	Tolerance float64 `yaml:"tolerance" json:"tolerance"` // fraction above the lower band that still counts as a touch
}

// VolumeBreak thresholds
type VolumeBreak struct {
	Period       int     `yaml:"period" json:"period"`
	MinRatio     float64 `yaml:"min_ratio" json:"min_ratio"`
	MinChangePct float64 `yaml:"min_change_pct" json:"min_change_pct"`
}

// Default returns the stock parameters
func Default() Config {
	return Config{
		GoldenCross:      GoldenCross{Fast: 5, Slow: 20},
		MACDCross:        MACDCross{Fast: 12, Slow: 26, Signal: 9},
		RSIOversold:      RSIOversold{Period: 14, Threshold: 30},
		BollingerRebound: BollingerRebound{Period: 20, Width: 2, Tolerance: 0.02},
		VolumeBreak:      VolumeBreak{Period: 5, MinRatio: 2, MinChangePct: 3},
	}
}
