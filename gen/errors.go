package gen

import "fmt"

// ConfigError reports a malformed generator construction: overlapping or
// over-budget reservations, unknown tags in a rewrite table, negative
// bounds. Configuration errors are fatal and surface before scheduling
// begins, either from Validate or, where the check needs runtime shape
// (reservation budgets against a concrete concurrency, rewrite tables
// against emitted tags), as a panic at first use.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "gen: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
