package sim

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching. The typed errors below unwrap to these.
var (
	ErrConfig             = errors.New("invalid configuration")
	ErrDegenerateInstance = errors.New("degenerate instance")
	ErrActionOutOfRange   = errors.New("action out of range")
	ErrActionMasked       = errors.New("action masked")
	ErrEpisodeNotActive   = errors.New("episode not active")
)

// ConfigError reports a malformed generator or environment configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DegenerateInstanceError is returned by Reset when no instance with at least
// one feasible item was produced within the retry bound.
type DegenerateInstanceError struct {
	Attempts int
}

func (e *DegenerateInstanceError) Error() string {
	return fmt.Sprintf("no feasible instance after %d reset attempts", e.Attempts)
}

func (e *DegenerateInstanceError) Unwrap() error { return ErrDegenerateInstance }

// InvalidActionKind distinguishes the two ways a caller can supply an illegal action.
type InvalidActionKind string

const (
	OutOfRange InvalidActionKind = "out-of-range"
	Masked     InvalidActionKind = "masked"
)

// InvalidActionError is returned by Step for an illegal action. The episode
// state is left untouched.
type InvalidActionError struct {
	Kind     InvalidActionKind
	Action   int
	NumItems int
}

func (e *InvalidActionError) Error() string {
	switch e.Kind {
	case OutOfRange:
		return fmt.Sprintf("action %d out of range [0, %d)", e.Action, e.NumItems)
	default:
		return fmt.Sprintf("action %d is masked (already selected or exceeds remaining capacity)", e.Action)
	}
}

func (e *InvalidActionError) Unwrap() error {
	if e.Kind == OutOfRange {
		return ErrActionOutOfRange
	}
	return ErrActionMasked
}
