// Package corerr defines the stable error categories the Linking Core
// surfaces to callers, per the error handling design in spec.md §7.
// Components map low-level failures onto these kinds at their boundary;
// background loops recover from them, user-triggered calls propagate them.
package corerr

import "errors"

// Sentinel kinds. Use errors.Is against these, or wrap with fmt.Errorf's
// "%w" verb to attach detail while preserving the kind.
var (
	// ErrStorageUnavailable means the embedded store could not be opened
	// or reached at all. Fatal to the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStorageBusy means a connection could not be acquired within the
	// bounded-wait policy (lock contention). Callers may retry.
	ErrStorageBusy = errors.New("storage busy")

	// ErrStorageCorrupt means the schema or data failed an integrity check.
	ErrStorageCorrupt = errors.New("storage corrupt")

	// ErrGraphUnavailable means the concept graph could not be read or
	// updated because its backing storage failed.
	ErrGraphUnavailable = errors.New("graph unavailable")

	// ErrScoringFailed means no scoring signal produced a score at all.
	// In practice unreachable because keyword overlap always works.
	ErrScoringFailed = errors.New("scoring failed")

	// ErrConsolidationFatal means a temp fact exhausted its retry budget
	// during consolidation and was discarded.
	ErrConsolidationFatal = errors.New("consolidation fatal")

	// ErrCancelled is returned unmodified when a caller-supplied context
	// is cancelled mid-operation.
	ErrCancelled = errors.New("cancelled")

	// ErrTimeout is returned unmodified when a bounded operation exceeds
	// its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrInvalidInput means validation failed at a public entry point.
	// Never reaches storage.
	ErrInvalidInput = errors.New("invalid input")
)

// PartialGraphUpdate reports that a batch graph update (record_cooccurrence
// over a concept set) partially failed. Pairs that succeeded are already
// committed; failed pairs are listed so the caller can retry just those.
type PartialGraphUpdate struct {
	FailedPairs [][2]string
	Err         error
}

func (e *PartialGraphUpdate) Error() string {
	return "partial graph update: " + e.Err.Error()
}

func (e *PartialGraphUpdate) Unwrap() error { return e.Err }

// ScoringDegraded reports that at least one scoring signal was unavailable
// (e.g. the embedding provider failed) but a ranking was still produced.
// Not a terminal error: callers still receive a result.
type ScoringDegraded struct {
	MissingSignals []string
}

func (e *ScoringDegraded) Error() string {
	return "scoring degraded: missing signals " + joinStrings(e.MissingSignals)
}

// ConsolidationRetryable reports that promoting one temp fact failed but
// may succeed on a later consolidation run. The fact is returned to
// pending with its retry counter incremented.
type ConsolidationRetryable struct {
	FactKey string
	Attempt int
	Err     error
}

func (e *ConsolidationRetryable) Error() string {
	return "consolidation retryable for " + e.FactKey + ": " + e.Err.Error()
}

func (e *ConsolidationRetryable) Unwrap() error { return e.Err }

// ConflictDeferred is not an error condition; it is the normal branch of
// consolidation where a new value conflicts with a stored one under the
// same key and is enqueued for user confirmation rather than applied.
type ConflictDeferred struct {
	Profile      string
	Key          string
	ExistingText string
	ProposedText string
	QueueID      string
}

func (e *ConflictDeferred) Error() string {
	return "conflict deferred for " + e.Profile + "." + e.Key
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
