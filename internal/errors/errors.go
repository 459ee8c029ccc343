// Package errors provides domain-specific error types for natives.
//
// Candidate failures are recoverable and stay attached to the candidate
// that produced them.  A SelectionError is fatal to the subsystem that
// asked for the capability: there is nothing below the last candidate.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrNoSuitableImplementation is returned when every candidate of a
	// selector is unavailable or failed to initialise.
	ErrNoSuitableImplementation = errors.New("no suitable implementation")

	// ErrInvalidInstance marks a factory that returned a nil instance.
	ErrInvalidInstance = errors.New("factory returned an invalid instance")

	// ErrUnexpectedDisconnect signals an abnormal disconnect.  It carries
	// no detail and is safe to compare with errors.Is.
	ErrUnexpectedDisconnect = errors.New("unexpected disconnect")

	// ErrTooLarge is returned when inflated data exceeds the allowed size.
	ErrTooLarge = errors.New("uncompressed size exceeds limit")
)

// ── Structured error types ───────────────────────────────────────────

// CandidateError records why a candidate was disqualified.
type CandidateError struct {
	Candidate string // candidate name
	Stage     string // "setup" or "factory"
	Err       error  // underlying error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate %s: %s: %v", e.Candidate, e.Stage, e.Err)
}

func (e *CandidateError) Unwrap() error { return e.Err }

// Attempt describes one candidate's final state in a failed selection.
type Attempt struct {
	Name  string
	State string
	Err   error // nil when the candidate was never attempted
}

// SelectionError is returned when no candidate of a capability could be
// made ready.  It matches ErrNoSuitableImplementation with errors.Is.
type SelectionError struct {
	Capability string
	Attempts   []Attempt
}

func (e *SelectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Capability, ErrNoSuitableImplementation)
	if len(e.Attempts) == 0 {
		b.WriteString(" (no candidates)")
		return b.String()
	}
	b.WriteString(" [")
	for i, a := range e.Attempts {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s=%s", a.Name, a.State)
		if a.Err != nil {
			fmt.Fprintf(&b, ": %v", a.Err)
		}
	}
	b.WriteString("]")
	return b.String()
}

func (e *SelectionError) Unwrap() error { return ErrNoSuitableImplementation }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// WrapCandidate creates a CandidateError.  It returns nil when err is nil.
func WrapCandidate(candidate, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &CandidateError{Candidate: candidate, Stage: stage, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsFatal reports whether err means a capability cannot be provided at all.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNoSuitableImplementation)
}

// FailedStage returns the stage a candidate failed in, or "" if err is
// not a CandidateError.
func FailedStage(err error) string {
	var ce *CandidateError
	if errors.As(err, &ce) {
		return ce.Stage
	}
	return ""
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use natives/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
