package dto

import (
	"time"

	"github.com/spec-kit/lead-engine/internal/domain"
)

// CreateLeadRequest payload.
type CreateLeadRequest struct {
	Payload      map[string]any `json:"payload"`
	Status       string         `json:"status"`
	BranchID     *string        `json:"branch_id"`
	AssignedToID *string        `json:"assigned_to_id"`
}

// AssignLeadRequest payload.
type AssignLeadRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// CloseLeadRequest payload.
type CloseLeadRequest struct {
	Status string `json:"status"`
}

// GrantResponse is one entry of a record's access list.
type GrantResponse struct {
	SubjectID  string `json:"subject_id"`
	Capability string `json:"capability"`
}

// LeadResponse is the lead projection returned to callers.
type LeadResponse struct {
	ID           string          `json:"id"`
	Payload      map[string]any  `json:"payload"`
	Status       string          `json:"status"`
	OwnerID      string          `json:"owner_id"`
	AssignedToID *string         `json:"assigned_to_id,omitempty"`
	BranchID     *string         `json:"branch_id,omitempty"`
	IsClosed     bool            `json:"is_closed"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
	Grants       []GrantResponse `json:"grants"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LeadFromDomain maps a lead record.
func LeadFromDomain(lead *domain.Lead) LeadResponse {
	grants := make([]GrantResponse, 0, len(lead.Grants))
	for _, g := range lead.Grants {
		grants = append(grants, GrantResponse{SubjectID: g.SubjectID, Capability: string(g.Capability)})
	}
	return LeadResponse{
		ID:           lead.ID,
		Payload:      lead.Payload,
		Status:       lead.Status,
		OwnerID:      lead.OwnerID,
		AssignedToID: lead.AssignedToID,
		BranchID:     lead.BranchID,
		IsClosed:     lead.IsClosed,
		ClosedAt:     lead.ClosedAt,
		Grants:       grants,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
	}
}
