package model

import (
	"errors"
	"fmt"
)

// Error kinds. Callers distinguish configuration problems from bad input data
// with errors.Is; a simulated bankruptcy is never reported as an error.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidData   = errors.New("invalid data")

	ErrUnknownConfigType = fmt.Errorf("%w: unknown config_type", ErrInvalidConfig)
	ErrEmptyTicks        = fmt.Errorf("%w: empty tick stream", ErrInvalidData)
	ErrUnsortedTicks     = fmt.Errorf("%w: ticks are not in chronological order", ErrInvalidData)
)

// ConfigError wraps a message as an ErrInvalidConfig.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// DataError wraps a message as an ErrInvalidData.
func DataError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}
