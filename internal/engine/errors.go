package engine

import "fmt"

// ValidationError reports input the caller can correct and resubmit.
// It is never retried automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// EmptyBranchSetError is returned when a subordinate account would be
// created without any branch affiliation.
type EmptyBranchSetError struct{}

func (e *EmptyBranchSetError) Error() string {
	return "branch set must not be empty"
}

// BranchNotOwnedError reports the first proposed branch the creator does
// not hold. Reporting is deliberately first-offender, in the order the
// branches were proposed.
type BranchNotOwnedError struct {
	BranchID string
}

func (e *BranchNotOwnedError) Error() string {
	return fmt.Sprintf("branch %q not held by creator", e.BranchID)
}

// NotFoundError reports a referenced record that does not exist. The
// engine never infers or defaults a missing reference.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// InvalidTransitionError reports an illegal lifecycle transition, e.g.
// closing an already-closed lead. Callers must not apply side effects
// (grant recompute, audit emission) when this error occurs.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// DuplicateError reports a value already present anywhere in the record
// population, regardless of branch or hierarchy.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s %q", e.Field, e.Value)
}
