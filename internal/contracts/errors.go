package contracts

import (
	"errors"
	"fmt"
)

// TransientFetchError is a provider failure worth retrying
// (timeouts, connection errors, throttling, 5xx).
type TransientFetchError struct {
	Code string
	Err  error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error for %s: %v", e.Code, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// DataIntegrityError marks provider data that must not be stored
type DataIntegrityError struct {
	Code   string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error for %s: %s", e.Code, e.Reason)
}

// ConfigurationError is fatal at startup
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// StrategyEvaluationError wraps a strategy error or recovered panic
type StrategyEvaluationError struct {
	Strategy string
	Code     string
	Err      error
}

func (e *StrategyEvaluationError) Error() string {
	return fmt.Sprintf("strategy %s failed on %s: %v", e.Strategy, e.Code, e.Err)
}

func (e *StrategyEvaluationError) Unwrap() error { return e.Err }

// NotificationError is logged and never fails a scan
type NotificationError struct {
	Channel string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification via %s failed: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// IsTransient reports whether err carries a TransientFetchError
func IsTransient(err error) bool {
	var te *TransientFetchError
	return errors.As(err, &te)
}

// IsConfiguration reports whether err carries a ConfigurationError
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
