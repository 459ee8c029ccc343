// Package metrics provides lightweight, lock-free counters for tracking
// implementation selection and codec throughput.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks selection and codec metrics for a natives process.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	attempts    atomic.Int64
	ready       atomic.Int64
	failed      atomic.Int64
	skipped     atomic.Int64
	resolutions atomic.Int64
	exhausted   atomic.Int64
	bytesIn     atomic.Int64
	bytesOut    atomic.Int64

	mu             sync.RWMutex
	startTime      time.Time
	selected       map[string]string // capability -> variant
	lastFailure    time.Time
	lastFailureMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{
		startTime: time.Now(),
		selected:  make(map[string]string),
	}
}

// ── Candidate metrics ────────────────────────────────────────────────

// CandidateAttempted records a setup/factory run for a candidate.
func (c *Collector) CandidateAttempted() {
	if c == nil {
		return
	}
	c.attempts.Add(1)
}

// CandidateReady records a candidate that initialised successfully.
func (c *Collector) CandidateReady() {
	if c == nil {
		return
	}
	c.ready.Add(1)
}

// CandidateFailed records a disqualified candidate and keeps its message.
func (c *Collector) CandidateFailed(msg string) {
	if c == nil {
		return
	}
	c.failed.Add(1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.lastFailureMsg = msg
	c.mu.Unlock()
}

// CandidateSkipped records a candidate passed over because its probe
// reported it unusable on this platform.
func (c *Collector) CandidateSkipped() {
	if c == nil {
		return
	}
	c.skipped.Add(1)
}

// Attempts returns the number of setup/factory runs.
func (c *Collector) Attempts() int64 {
	if c == nil {
		return 0
	}
	return c.attempts.Load()
}

// Failures returns the number of disqualified candidates.
func (c *Collector) Failures() int64 {
	if c == nil {
		return 0
	}
	return c.failed.Load()
}

// Skipped returns the number of probe-rejected candidates seen.
func (c *Collector) Skipped() int64 {
	if c == nil {
		return 0
	}
	return c.skipped.Load()
}

// ── Selection metrics ────────────────────────────────────────────────

// Resolved records the variant chosen for a capability.
func (c *Collector) Resolved(capability, variant string) {
	if c == nil {
		return
	}
	c.resolutions.Add(1)
	c.mu.Lock()
	c.selected[capability] = variant
	c.mu.Unlock()
}

// Exhausted records a capability for which no candidate could be used.
func (c *Collector) Exhausted(capability string) {
	if c == nil {
		return
	}
	c.exhausted.Add(1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.lastFailureMsg = capability + ": no suitable implementation"
	c.mu.Unlock()
}

// Resolutions returns how many capabilities have been resolved.
func (c *Collector) Resolutions() int64 {
	if c == nil {
		return 0
	}
	return c.resolutions.Load()
}

// Selected returns the variant resolved for capability, if any.
func (c *Collector) Selected(capability string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.selected[capability]
	return v, ok
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesRead records n bytes consumed from the input stream.
func (c *Collector) BytesRead(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesWritten records n bytes produced on the output stream.
func (c *Collector) BytesWritten(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes read.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes written.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Selection is one capability → variant pair in a Snapshot.
type Selection struct {
	Capability string `json:"capability"`
	Variant    string `json:"variant"`
}

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime             string      `json:"uptime"`
	CandidateAttempts  int64       `json:"candidate_attempts"`
	CandidatesReady    int64       `json:"candidates_ready"`
	CandidatesFailed   int64       `json:"candidates_failed"`
	CandidatesSkipped  int64       `json:"candidates_skipped"`
	Resolutions        int64       `json:"resolutions"`
	Exhausted          int64       `json:"exhausted"`
	BytesIn            int64       `json:"bytes_in"`
	BytesOut           int64       `json:"bytes_out"`
	Selected           []Selection `json:"selected,omitempty"`
	LastFailure        string      `json:"last_failure,omitempty"`
	LastFailureMessage string      `json:"last_failure_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.  Selections are
// sorted by capability name.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		CandidateAttempts: c.attempts.Load(),
		CandidatesReady:   c.ready.Load(),
		CandidatesFailed:  c.failed.Load(),
		CandidatesSkipped: c.skipped.Load(),
		Resolutions:       c.resolutions.Load(),
		Exhausted:         c.exhausted.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
	}
	for capability, variant := range c.selected {
		s.Selected = append(s.Selected, Selection{Capability: capability, Variant: variant})
	}
	sort.Slice(s.Selected, func(i, j int) bool {
		return s.Selected[i].Capability < s.Selected[j].Capability
	})
	if !c.lastFailure.IsZero() {
		s.LastFailure = c.lastFailure.Format(time.RFC3339)
		s.LastFailureMessage = c.lastFailureMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
