package dto

import (
	"time"

	"github.com/spec-kit/lead-engine/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CreateSubordinateRequest payload.
type CreateSubordinateRequest struct {
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      domain.Role `json:"role"`
	BranchIDs []string    `json:"branch_ids"`
}

// UserResponse is the user record projection returned to callers.
type UserResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	ManagerID  *string     `json:"manager_id,omitempty"`
	TeamLeadID *string     `json:"team_lead_id,omitempty"`
	BranchIDs  []string    `json:"branch_ids"`
	Active     bool        `json:"active"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// UserDetailResponse adds the viewer-scoped branch projection.
type UserDetailResponse struct {
	UserResponse
	VisibleBranches   []string `json:"visible_branches"`
	HiddenBranchCount int      `json:"hidden_branch_count"`
}
