package selector

import (
	"fmt"
	"reflect"
	"sync"

	nerr "natives/internal/errors"
)

// Setup performs a candidate's one-time initialisation, such as
// running a self-test or loading a library.
type Setup func() error

// Factory builds the usable instance once setup has succeeded.
type Factory[T any] func() (T, error)

// Candidate is one implementation variant of a capability.
// A Candidate is safe for concurrent use.
type Candidate[T any] struct {
	name    string
	setup   Setup
	factory Factory[T]

	mu       sync.Mutex
	state    State
	instance T     // set only in Ready
	err      error // set only in Failed
}

// NewCandidate evaluates probe and returns a candidate in either
// ProbedAvailable or NotAvailable state.  A nil probe always passes and
// a nil setup does nothing.
func NewCandidate[T any](name string, probe Probe, setup Setup, factory Factory[T]) *Candidate[T] {
	if probe == nil {
		probe = Always
	}
	c := &Candidate[T]{
		name:    name,
		setup:   setup,
		factory: factory,
		state:   NotAvailable,
	}
	if probe() {
		c.state = ProbedAvailable
	}
	return c
}

// NewValueCandidate is NewCandidate with a pre-built instance in place
// of a factory.
func NewValueCandidate[T any](name string, probe Probe, setup Setup, value T) *Candidate[T] {
	return NewCandidate(name, probe, setup, func() (T, error) { return value, nil })
}

// Name returns the candidate's diagnostic name.
func (c *Candidate[T]) Name() string { return c.name }

// State returns the current lifecycle state.
func (c *Candidate[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the reason the candidate failed, or nil.
func (c *Candidate[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Attempt returns the candidate's instance, initialising it on the
// first call from ProbedAvailable.  It reports false when the candidate
// is NotAvailable or Failed.  Setup and factory run at most once no
// matter how often, or from how many goroutines, Attempt is called.
func (c *Candidate[T]) Attempt() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	switch c.state {
	case Ready:
		return c.instance, true
	case ProbedAvailable:
		inst, err := c.initialize()
		if err != nil {
			c.state = Failed
			c.err = err
			return zero, false
		}
		c.instance = inst
		c.state = Ready
		return inst, true
	default:
		return zero, false
	}
}

// initialize runs setup then factory.  A panic in either is reported
// as a failure of the stage that raised it.
func (c *Candidate[T]) initialize() (inst T, err error) {
	stage := "setup"
	defer func() {
		if r := recover(); r != nil {
			var zero T
			inst = zero
			err = nerr.WrapCandidate(c.name, stage, fmt.Errorf("panic: %v", r))
		}
	}()

	if c.setup != nil {
		if err := c.setup(); err != nil {
			return inst, nerr.WrapCandidate(c.name, stage, err)
		}
	}

	stage = "factory"
	if c.factory == nil {
		return inst, nerr.WrapCandidate(c.name, stage, nerr.ErrInvalidInstance)
	}
	v, err := c.factory()
	if err != nil {
		return inst, nerr.WrapCandidate(c.name, stage, err)
	}
	if isNil(v) {
		return inst, nerr.WrapCandidate(c.name, stage, nerr.ErrInvalidInstance)
	}
	return v, nil
}

// isNil reports whether v is a nil interface or a nil value of a
// nillable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
