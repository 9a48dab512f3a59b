package config

import (
	"errors"
	"fmt"
)

// ConfigurationError reports malformed arguments or configuration values.
// The CLI prints usage text and exits with status 1 when it sees one.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// Invalidf returns a ConfigurationError with a formatted reason.
func Invalidf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
