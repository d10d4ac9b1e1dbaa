package events

import "time"

// Action enumerates auditable operations.
type Action string

const (
	ActionUserCreated    Action = "user.created"
	ActionLeadCreated    Action = "lead.created"
	ActionLeadAssigned   Action = "lead.assigned"
	ActionLeadClosed     Action = "lead.closed"
	ActionLeadReopened   Action = "lead.reopened"
	ActionBranchCascaded Action = "branch.cascade_applied"
)

// AuditEvent is the record handed to the audit collaborator. The engine
// constructs the payload; persistence belongs to whoever subscribes.
type AuditEvent struct {
	ID         string         `json:"id"`
	Action     Action         `json:"action"`
	ActorID    string         `json:"actor_id"`
	ActorName  string         `json:"actor_name"`
	TargetID   string         `json:"target_id"`
	TargetType string         `json:"target_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
