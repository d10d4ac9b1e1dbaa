package engine

import (
	"time"

	"github.com/spec-kit/lead-engine/internal/domain"
)

const (
	stateActive = "ACTIVE"
	stateClosed = "CLOSED"
)

// CloseLead transitions an active lead to closed, recording the business
// status and the close timestamp. Closing an already-closed lead is an
// InvalidTransitionError, never a silent success, so callers cannot
// double-fire grant recomputes or audit events.
func CloseLead(lead *domain.Lead, status string, now time.Time) error {
	if lead.IsClosed {
		return &InvalidTransitionError{From: stateClosed, To: stateClosed}
	}
	lead.IsClosed = true
	lead.Status = status
	closedAt := now
	lead.ClosedAt = &closedAt
	return nil
}

// ReopenLead transitions a closed lead back to active. ClosedAt is
// deliberately preserved as a historical timestamp; only the closed flag
// flips. Reopening an active lead is an InvalidTransitionError.
func ReopenLead(lead *domain.Lead) error {
	if !lead.IsClosed {
		return &InvalidTransitionError{From: stateActive, To: stateActive}
	}
	lead.IsClosed = false
	return nil
}
