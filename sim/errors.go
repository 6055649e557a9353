package sim

import (
	"errors"
	"fmt"
)

// ErrAcquisitionTimeout is returned (wrapped) by the bounded-wait fork
// acquisition when the fork stays held past the configured timeout.
// It is a recoverable signal: callers holding other forks still release them.
var ErrAcquisitionTimeout = errors.New("fork acquisition timed out")

// ConfigurationError reports an invalid table, actor, or gate parameter.
// Constructors return it before any fork, philosopher, or gate is created.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func configErr(field string, value any, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// CancellationError reports a pass that was aborted before every philosopher
// finished. It is only returned after all launched philosophers have unwound,
// so no fork or gate slot is still held when the caller sees it.
type CancellationError struct {
	Mode      Mode
	Launched  int   // philosophers started before the abort
	Completed int   // philosophers that finished their cycles
	Err       error // context cause combined with per-philosopher errors
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("%s pass cancelled after %d/%d philosophers completed: %v",
		e.Mode, e.Completed, e.Launched, e.Err)
}

func (e *CancellationError) Unwrap() error { return e.Err }
