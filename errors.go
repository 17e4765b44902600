package treecorr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports missing, over-constrained or unresolvable
	// configuration. The caller must fix the configuration and reconstruct.
	ErrConfiguration = errors.New("treecorr: configuration error")

	// ErrValue reports a parameter that is present but out of range.
	ErrValue = errors.New("treecorr: invalid value")

	// ErrKindMismatch reports an operation invoked on a correlation kind that
	// does not support it.
	ErrKindMismatch = errors.New("treecorr: kind mismatch")
)

// ConfigError names the configuration key at fault.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%v: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrConfiguration, e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// ValueError names the key whose value is out of range.
type ValueError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%v: %s = %v: %s", ErrValue, e.Key, e.Value, e.Reason)
}

func (e *ValueError) Unwrap() error { return ErrValue }

func missingKey(key string) error {
	return &ConfigError{Key: key, Reason: "missing required parameter"}
}
