package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-engine/internal/api/dto"
	"github.com/spec-kit/lead-engine/internal/auth"
	"github.com/spec-kit/lead-engine/internal/service"
	apperrors "github.com/spec-kit/lead-engine/pkg/util/errorutil"
)

// BranchesHandler manages the branch catalog endpoints.
type BranchesHandler struct {
	branches *service.BranchService
}

// NewBranchesHandler constructs handler.
func NewBranchesHandler(branches *service.BranchService) *BranchesHandler {
	return &BranchesHandler{branches: branches}
}

// CreateBranch POST /branches.
func (h *BranchesHandler) CreateBranch(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	branch, err := h.branches.CreateBranch(c.UserContext(), principal.Actor, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.BranchFromDomain(branch)})
}

// ListBranches GET /branches.
func (h *BranchesHandler) ListBranches(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	includeInactive := c.QueryBool("include_inactive", false)
	branches, err := h.branches.ListBranches(c.UserContext(), principal.Actor, includeInactive)
	if err != nil {
		return err
	}
	items := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		items = append(items, dto.BranchFromDomain(&branches[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateBranch PATCH /branches/:id.
func (h *BranchesHandler) UpdateBranch(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	branch, err := h.branches.UpdateBranch(c.UserContext(), principal.Actor, c.Params("id"), req.Name, isActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BranchFromDomain(branch)})
}

// UpdateManagerBranches PUT /users/:id/branches.
func (h *BranchesHandler) UpdateManagerBranches(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateManagerBranchesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	manager, err := h.branches.UpdateManagerBranches(c.UserContext(), principal.Actor, c.Params("id"), req.BranchIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(manager)})
}
