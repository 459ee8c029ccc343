package selector

import (
	"runtime"
	"slices"
)

// Probe is a cheap, side-effect-free check that a candidate could work
// on this platform.  It runs once, when the candidate is built.
type Probe func() bool

// Always passes.
func Always() bool { return true }

// Never rejects every candidate.
func Never() bool { return false }

// All passes when every probe passes.  An empty All passes.
func All(probes ...Probe) Probe {
	return func() bool {
		for _, p := range probes {
			if !p() {
				return false
			}
		}
		return true
	}
}

// Any passes when at least one probe passes.
func Any(probes ...Probe) Probe {
	return func() bool {
		for _, p := range probes {
			if p() {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Probe) Probe {
	return func() bool { return !p() }
}

// OnArch passes when runtime.GOARCH is one of arch.
func OnArch(arch ...string) Probe {
	return func() bool { return slices.Contains(arch, runtime.GOARCH) }
}
