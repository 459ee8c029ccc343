package selector

import (
	"slices"
	"sync"
	"sync/atomic"

	nerr "natives/internal/errors"
	"natives/internal/metrics"
	"natives/util"
)

// Option configures a Selector.
type Option func(*settings)

type settings struct {
	logger  *util.Logger
	metrics *metrics.Collector
}

// WithLogger reports candidate outcomes and the final choice to l.
func WithLogger(l *util.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics records candidate and selection counters in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *settings) { s.metrics = m }
}

// resolution is published once and never modified.
type resolution[T any] struct {
	index    int
	name     string
	instance T
}

// Selector resolves a capability to the first usable Candidate, in
// list order, and caches it.  It is safe for concurrent use; after
// resolution Get and SelectedName take no locks.
type Selector[T any] struct {
	capability string
	candidates []*Candidate[T]
	logger     *util.Logger
	metrics    *metrics.Collector

	mu       sync.Mutex // serialises first resolution
	resolved atomic.Pointer[resolution[T]]
	err      error // guarded by mu
}

// New returns a Selector over candidates, most preferred first.
// capability names the selector in logs and errors.
func New[T any](capability string, candidates []*Candidate[T], opts ...Option) *Selector[T] {
	var st settings
	for _, o := range opts {
		o(&st)
	}
	return &Selector[T]{
		capability: capability,
		candidates: slices.Clone(candidates),
		logger:     st.logger.Named(capability),
		metrics:    st.metrics,
	}
}

// Capability returns the name given to New.
func (s *Selector[T]) Capability() string { return s.capability }

// Get returns the resolved instance, resolving on first use.  When no
// candidate can be made ready it returns a *errors.SelectionError that
// matches errors.ErrNoSuitableImplementation; later calls return the
// same error.
func (s *Selector[T]) Get() (T, error) {
	r, err := s.resolve()
	if err != nil {
		var zero T
		return zero, err
	}
	return r.instance, nil
}

// MustGet is Get for startup wiring: it panics when no candidate works.
func (s *Selector[T]) MustGet() T {
	v, err := s.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// SelectedName returns the name of the resolved candidate, resolving on
// first use.  It is meant for logs and telemetry only.
func (s *Selector[T]) SelectedName() (string, error) {
	r, err := s.resolve()
	if err != nil {
		return "", err
	}
	return r.name, nil
}

// Resolved reports whether a candidate has been chosen.  It never
// triggers resolution.
func (s *Selector[T]) Resolved() bool { return s.resolved.Load() != nil }

// CandidateStatus describes one candidate for diagnostics.
type CandidateStatus struct {
	Name     string
	State    State
	Err      error
	Selected bool
}

// Candidates returns the status of every candidate in priority order.
// It never triggers resolution.
func (s *Selector[T]) Candidates() []CandidateStatus {
	r := s.resolved.Load()
	out := make([]CandidateStatus, 0, len(s.candidates))
	for i, c := range s.candidates {
		out = append(out, CandidateStatus{
			Name:     c.Name(),
			State:    c.State(),
			Err:      c.Err(),
			Selected: r != nil && r.index == i,
		})
	}
	return out
}

func (s *Selector[T]) resolve() (*resolution[T], error) {
	if r := s.resolved.Load(); r != nil {
		return r, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.resolved.Load(); r != nil {
		return r, nil
	}
	if s.err != nil {
		return nil, s.err
	}

	for i, c := range s.candidates {
		before := c.State()
		switch before {
		case NotAvailable:
			s.metrics.CandidateSkipped()
			s.logger.Debug("%s: not available on this platform", c.Name())
			continue
		case ProbedAvailable:
			s.metrics.CandidateAttempted()
			s.logger.Debug("%s: initialising", c.Name())
		}

		inst, ok := c.Attempt()
		if ok {
			if before == ProbedAvailable {
				s.metrics.CandidateReady()
			}
			r := &resolution[T]{index: i, name: c.Name(), instance: inst}
			s.resolved.Store(r)
			s.metrics.Resolved(s.capability, r.name)
			s.logger.Info("using %s", r.name)
			return r, nil
		}

		if before == ProbedAvailable {
			if err := c.Err(); err != nil {
				s.metrics.CandidateFailed(err.Error())
				s.logger.Verbose("%s: disqualified: %v", c.Name(), err)
			}
		}
	}

	s.err = s.selectionError()
	s.metrics.Exhausted(s.capability)
	s.logger.Verbose("%v", s.err)
	return nil, s.err
}

func (s *Selector[T]) selectionError() error {
	se := &nerr.SelectionError{Capability: s.capability}
	for _, c := range s.candidates {
		se.Attempts = append(se.Attempts, nerr.Attempt{
			Name:  c.Name(),
			State: c.State().String(),
			Err:   c.Err(),
		})
	}
	return se
}
