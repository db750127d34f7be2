package strategyconfig

import "fmt"

// ValidationError is a rejected parameter
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a legal but unusual setting
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === golden_cross ===
	if cfg.GoldenCross.Fast < 1 {
		return ValidationError{"golden_cross.fast", "must be >= 1"}
	}
	if cfg.GoldenCross.Slow <= cfg.GoldenCross.Fast {
		return ValidationError{"golden_cross.slow", "must be greater than fast"}
	}

	// === macd_cross ===
	if cfg.MACDCross.Fast < 1 {
		return ValidationError{"macd_cross.fast", "must be >= 1"}
	}
	if cfg.MACDCross.Slow <= cfg.MACDCross.Fast {
		return ValidationError{"macd_cross.slow", "must be greater than fast"}
	}
	if cfg.MACDCross.Signal < 1 {
		return ValidationError{"macd_cross.signal", "must be >= 1"}
	}

	// === rsi_oversold ===
	if cfg.RSIOversold.Period < 2 {
		return ValidationError{"rsi_oversold.period", "must be >= 2"}
	}
	if cfg.RSIOversold.Threshold <= 0 || cfg.RSIOversold.Threshold >= 50 {
		return ValidationError{"rsi_oversold.threshold", "must be in (0, 50)"}
	}

	// === bollinger_rebound ===
	if cfg.BollingerRebound.Period < 2 {
		return ValidationError{"bollinger_rebound.period", "must be >= 2"}
	}
	if cfg.BollingerRebound.Width <= 0 {
		return ValidationError{"bollinger_rebound.width", "must be > 0"}
	}
	if cfg.BollingerRebound.Tolerance < 0 || cfg.BollingerRebound.Tolerance >= 1 {
		return ValidationError{"bollinger_rebound.tolerance", "must be in [0, 1)"}
	}

	// === volume_break ===
	if cfg.VolumeBreak.Period < 1 {
		return ValidationError{"volume_break.period", "must be >= 1"}
	}
	if cfg.VolumeBreak.MinRatio <= 1 {
		return ValidationError{"volume_break.min_ratio", "must be > 1"}
	}
	if cfg.VolumeBreak.MinChangePct < 0 {
		return ValidationError{"volume_break.min_change_pct", "must be >= 0"}
	}

	return nil
}

// Warn returns recommendation violations (does not fail)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.BollingerRebound.Tolerance > 0.1 {
		warnings = append(warnings, Warning{
			Code:    "BOLLINGER_LOOSE_TOUCH",
			Message: fmt.Sprintf("tolerance %.2f treats closes far above the band as touches", cfg.BollingerRebound.Tolerance),
		})
	}
	if cfg.VolumeBreak.MinRatio < 1.5 {
		warnings = append(warnings, Warning{
			Code:    "VOLUME_RATIO_LOW",
			Message: fmt.Sprintf("min_ratio %.2f fires on ordinary volume", cfg.VolumeBreak.MinRatio),
		})
	}
	if cfg.GoldenCross.Slow > 120 || cfg.MACDCross.Slow > 120 {
		warnings = append(warnings, Warning{
			Code:    "LONG_WARMUP",
			Message: "slow windows over 120 days need a large HISTORY_DAYS and backfill",
		})
	}

	return warnings
}
