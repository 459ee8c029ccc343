// Package selector picks one implementation of a capability from an
// ordered list of candidates and keeps that choice for the lifetime of
// the Selector.
//
// Each Candidate carries a cheap probe (evaluated once, at
// construction), a one-time setup step and a factory.  The first
// candidate, in list order, whose probe passes and whose setup and
// factory both succeed becomes the resolved implementation.  Failures
// disqualify a single candidate; only running out of candidates is
// fatal.
//
// Candidate lifecycle:
//
//	             probe false
//	NewCandidate ───────────→ NotAvailable
//	     │ probe true
//	     ↓
//	ProbedAvailable ──setup/factory ok──→ Ready
//	     │
//	     └────────setup/factory error───→ Failed
//
// All transitions are one-way.  Ready and Failed are absorbing.
package selector
