package domain

import "fmt"

// RecordRejectedError marks a single malformed input record. Rejections are
// counted and logged, never fatal for the batch.
type RecordRejectedError struct {
	Provider Provider
	Field    string
	Reason   string
}

func (e *RecordRejectedError) Error() string {
	return fmt.Sprintf("record rejected (%s): field %q %s", e.Provider, e.Field, e.Reason)
}

// ProviderUnavailableError marks an adapter I/O failure. The failing
// provider surfaces as a warning in the batch summary; other providers'
// data is still processed.
type ProviderUnavailableError struct {
	Provider Provider
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// InvalidTransitionError marks a state-machine violation. Surfaced to the
// caller, never silently coerced.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// ScoringInvariantError marks a defective candidate reaching the scorer,
// e.g. a non-positive estimated impact. This is a bug upstream and fails
// loudly rather than being clamped.
type ScoringInvariantError struct {
	Key    string
	Reason string
}

func (e *ScoringInvariantError) Error() string {
	return fmt.Sprintf("scoring invariant violated for %s: %s", e.Key, e.Reason)
}
