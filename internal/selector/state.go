package selector

// State is a candidate's position in its lifecycle.
type State int

const (
	// NotAvailable means the probe rejected the candidate.  Terminal.
	NotAvailable State = iota
	// ProbedAvailable means the probe passed and setup has not run yet.
	ProbedAvailable
	// Ready means setup and factory succeeded.  Terminal.
	Ready
	// Failed means setup or factory failed.  Terminal.
	Failed
)

func (s State) String() string {
	switch s {
	case NotAvailable:
		return "not-available"
	case ProbedAvailable:
		return "probed-available"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s != ProbedAvailable }
