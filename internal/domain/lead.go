package domain

import "time"

// Lead is the primary business record: a sales opportunity tracked through
// the Active/Closed lifecycle. Payload is an opaque key→value map owned by
// the form layer; the engine only ever inspects designated unique fields.
//
// Invariant: IsClosed implies ClosedAt is set. ClosedAt is a historical
// timestamp and survives a reopen.
type Lead struct {
	ID           string
	Payload      map[string]any
	Status       string
	OwnerID      string
	AssignedToID *string
	BranchID     *string
	IsClosed     bool
	ClosedAt     *time.Time
	Grants       []Grant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
