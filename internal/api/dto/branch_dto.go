package dto

import (
	"time"

	"github.com/spec-kit/lead-engine/internal/domain"
)

// CreateBranchRequest payload.
type CreateBranchRequest struct {
	Name string `json:"name"`
}

// UpdateBranchRequest payload.
type UpdateBranchRequest struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// UpdateManagerBranchesRequest payload.
type UpdateManagerBranchesRequest struct {
	BranchIDs []string `json:"branch_ids"`
}

// BranchResponse is the branch projection returned to callers.
type BranchResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchFromDomain maps a branch record.
func BranchFromDomain(branch *domain.Branch) BranchResponse {
	return BranchResponse{
		ID:        branch.ID,
		Name:      branch.Name,
		IsActive:  branch.IsActive,
		CreatedAt: branch.CreatedAt,
		UpdatedAt: branch.UpdatedAt,
	}
}
