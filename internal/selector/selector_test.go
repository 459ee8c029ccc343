package selector

import (
	"bytes"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	nerr "natives/internal/errors"
	"natives/internal/metrics"
	"natives/util"
)

func TestSelector_Example(t *testing.T) {
	x := &codec{"fallback"}
	var fastSetups atomic.Int64
	s := New("compression", []*Candidate[*codec]{
		NewValueCandidate("fast", Never, counting(&fastSetups, nil), &codec{"fast"}),
		NewValueCandidate("accelerated", Always, func() error { return fmt.Errorf("no native library") }, &codec{"accelerated"}),
		NewValueCandidate("fallback", Always, nil, x),
	})

	got, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != x {
		t.Errorf("Get = %+v, want fallback instance", got)
	}
	name, err := s.SelectedName()
	if err != nil || name != "fallback" {
		t.Errorf("SelectedName = %q, %v; want fallback", name, err)
	}
	if fastSetups.Load() != 0 {
		t.Errorf("probe-rejected setup ran %d times", fastSetups.Load())
	}
}

func TestSelector_PriorityOrder(t *testing.T) {
	var a, b, c atomic.Int64
	s := New("cipher", []*Candidate[*codec]{
		NewValueCandidate("A", Always, counting(&a, fmt.Errorf("fails")), &codec{"A"}),
		NewValueCandidate("B", Always, counting(&b, nil), &codec{"B"}),
		NewValueCandidate("C", Always, counting(&c, nil), &codec{"C"}),
	})

	got, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.id != "B" {
		t.Errorf("resolved %q, want B", got.id)
	}
	if a.Load() != 1 || b.Load() != 1 || c.Load() != 0 {
		t.Errorf("setups A=%d B=%d C=%d, want 1 1 0", a.Load(), b.Load(), c.Load())
	}
}

func TestSelector_FactoryInvalidFallsThrough(t *testing.T) {
	s := New("compression", []*Candidate[*codec]{
		NewCandidate("empty", Always, nil, func() (*codec, error) { return nil, nil }),
		NewValueCandidate("next", Always, nil, &codec{"next"}),
	})

	name, err := s.SelectedName()
	if err != nil || name != "next" {
		t.Fatalf("SelectedName = %q, %v; want next", name, err)
	}
	st := s.Candidates()
	if st[0].State != Failed || !nerr.Is(st[0].Err, nerr.ErrInvalidInstance) {
		t.Errorf("first candidate = %+v, want failed with ErrInvalidInstance", st[0])
	}
	if !st[1].Selected || st[0].Selected {
		t.Errorf("selection flags wrong: %+v", st)
	}
}

func TestSelector_Idempotent(t *testing.T) {
	var setups, builds atomic.Int64
	s := New("compression", []*Candidate[*codec]{
		NewCandidate("only", Always, counting(&setups, nil), func() (*codec, error) {
			builds.Add(1)
			return &codec{"only"}, nil
		}),
	})

	first, err := s.Get()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		got, err := s.Get()
		if err != nil || got != first {
			t.Fatalf("call %d: got %p, %v; want %p", i, got, err, first)
		}
	}
	if setups.Load() != 1 || builds.Load() != 1 {
		t.Errorf("setup=%d factory=%d, want 1 each", setups.Load(), builds.Load())
	}
}

func TestSelector_ConcurrentFirstUse(t *testing.T) {
	var setups, failing atomic.Int64
	entered := make(chan struct{})
	release := make(chan struct{})
	s := New("cipher", []*Candidate[*codec]{
		NewValueCandidate("broken", Always, counting(&failing, fmt.Errorf("no")), &codec{"broken"}),
		NewValueCandidate("slow", Always, func() error {
			setups.Add(1)
			close(entered)
			<-release
			return nil
		}, &codec{"slow"}),
	})

	const callers = 64
	results := make([]*codec, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			v, err := s.Get()
			results[i] = v
			return err
		})
	}

	// One caller is now inside setup; the rest are queued behind it
	// or still starting.  None may finish before setup returns.
	<-entered
	if s.Resolved() {
		t.Fatal("resolved while setup was still running")
	}
	close(release)
	if err := g.Wait(); err != nil {
		t.Fatalf("Get: %v", err)
	}

	for i, v := range results {
		if v != results[0] {
			t.Fatalf("caller %d got %p, want %p", i, v, results[0])
		}
	}
	if setups.Load() != 1 || failing.Load() != 1 {
		t.Errorf("setups slow=%d broken=%d, want 1 each", setups.Load(), failing.Load())
	}
}

func TestSelector_AllUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		candidates []*Candidate[*codec]
	}{
		{
			name: "all probes false",
			candidates: []*Candidate[*codec]{
				NewValueCandidate("a", Never, nil, &codec{}),
				NewValueCandidate("b", Never, nil, &codec{}),
			},
		},
		{
			name: "all setups fail",
			candidates: []*Candidate[*codec]{
				NewValueCandidate("a", Always, func() error { return fmt.Errorf("a") }, &codec{}),
				NewValueCandidate("b", Always, func() error { return fmt.Errorf("b") }, &codec{}),
			},
		},
		{
			name: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("compression", tt.candidates)

			v, err := s.Get()
			if v != nil {
				t.Errorf("Get returned %v with error", v)
			}
			if !nerr.Is(err, nerr.ErrNoSuitableImplementation) {
				t.Fatalf("err = %v, want ErrNoSuitableImplementation", err)
			}
			var se *nerr.SelectionError
			if !nerr.As(err, &se) || len(se.Attempts) != len(tt.candidates) {
				t.Errorf("want SelectionError with %d attempts, got %v", len(tt.candidates), err)
			}
			if _, err2 := s.SelectedName(); err2 != err {
				t.Errorf("SelectedName error = %v, want cached %v", err2, err)
			}
			if s.Resolved() {
				t.Error("Resolved should be false")
			}
		})
	}
}

func TestSelector_MustGetPanics(t *testing.T) {
	s := New[*codec]("cipher", nil)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !nerr.IsFatal(err) {
			t.Errorf("recovered %v, want fatal selection error", r)
		}
	}()
	s.MustGet()
}

func TestSelector_LazyResolution(t *testing.T) {
	var setups atomic.Int64
	s := New("compression", []*Candidate[*codec]{
		NewValueCandidate("only", Always, counting(&setups, nil), &codec{}),
	})
	if s.Resolved() || setups.Load() != 0 {
		t.Fatal("New must not run setup")
	}
	_ = s.Candidates()
	if s.Resolved() || setups.Load() != 0 {
		t.Fatal("Candidates must not trigger resolution")
	}
	s.MustGet()
	if !s.Resolved() {
		t.Error("expected resolved after Get")
	}
}

func TestSelector_LogsAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := util.NewLogger(3)
	logger.SetOutput(&buf)
	logger.SetTimestamps(false)
	m := metrics.New()

	s := New("cipher", []*Candidate[*codec]{
		NewValueCandidate("native", Never, nil, &codec{}),
		NewValueCandidate("accel", Always, func() error { return fmt.Errorf("self-test mismatch") }, &codec{}),
		NewValueCandidate("portable", Always, nil, &codec{}),
	}, WithLogger(logger), WithMetrics(m))

	if _, err := s.Get(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"cipher: native: not available",
		"cipher: accel: disqualified: candidate accel: setup: self-test mismatch",
		"[INF] cipher: using portable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}

	snap := m.Snapshot()
	if snap.CandidatesSkipped != 1 || snap.CandidateAttempts != 2 ||
		snap.CandidatesFailed != 1 || snap.CandidatesReady != 1 {
		t.Errorf("unexpected counters: %+v", snap)
	}
	if v, _ := m.Selected("cipher"); v != "portable" {
		t.Errorf("metrics selected = %q, want portable", v)
	}
}

func TestSelector_ExhaustionLoggedVerbose(t *testing.T) {
	candidates := func() []*Candidate[*codec] {
		return []*Candidate[*codec]{NewValueCandidate("a", Never, nil, &codec{})}
	}

	tests := []struct {
		name      string
		verbosity int
		wantLog   bool
	}{
		{"normal", 1, false},
		{"verbose", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := util.NewLogger(tt.verbosity)
			logger.SetOutput(&buf)
			logger.SetTimestamps(false)

			s := New("compression", candidates(), WithLogger(logger))
			if _, err := s.Get(); err == nil {
				t.Fatal("expected error")
			}
			out := buf.String()
			if strings.Contains(out, "[ERR]") {
				t.Errorf("exhaustion must be left to the caller to report: %q", out)
			}
			if got := strings.Contains(out, "no suitable implementation"); got != tt.wantLog {
				t.Errorf("logged = %v, want %v: %q", got, tt.wantLog, out)
			}
		})
	}
}

func TestSelector_CandidatesCopied(t *testing.T) {
	list := []*Candidate[*codec]{
		NewValueCandidate("a", Always, nil, &codec{"a"}),
	}
	s := New("compression", list)
	list[0] = NewValueCandidate("b", Always, nil, &codec{"b"})

	if name, _ := s.SelectedName(); name != "a" {
		t.Errorf("selector must own its candidate list, got %q", name)
	}
}
