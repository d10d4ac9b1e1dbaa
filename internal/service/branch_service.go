package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-engine/internal/domain"
	"github.com/spec-kit/lead-engine/internal/engine"
	"github.com/spec-kit/lead-engine/internal/events"
	"github.com/spec-kit/lead-engine/internal/observability"
	"github.com/spec-kit/lead-engine/internal/persistence"
	"github.com/spec-kit/lead-engine/internal/repository"
	apperrors "github.com/spec-kit/lead-engine/pkg/util/errorutil"
)

// BranchService manages the branch catalog and propagates manager branch
// reassignments down the hierarchy. The fan-out is checkpointed so an
// interrupted cascade is replayed on the next startup.
type BranchService struct {
	branches    repository.BranchRepository
	users       repository.UserRepository
	checkpoints persistence.CascadeCheckpointStore
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// BranchDependencies bundles collaborators for the branch service.
type BranchDependencies struct {
	BranchRepo  repository.BranchRepository
	UserRepo    repository.UserRepository
	Checkpoints persistence.CascadeCheckpointStore
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewBranchService constructs the service.
func NewBranchService(deps BranchDependencies) *BranchService {
	return &BranchService{
		branches:    deps.BranchRepo,
		users:       deps.UserRepo,
		checkpoints: deps.Checkpoints,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// CreateBranch adds a branch to the catalog. Admin only.
func (s *BranchService) CreateBranch(ctx context.Context, actor domain.Actor, name string) (*domain.Branch, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.MapError(&engine.ValidationError{Field: "name", Reason: "name required"})
	}
	branch := &domain.Branch{Name: name, IsActive: true}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, apperrors.MapError(err)
	}
	return branch, nil
}

// ListBranches returns the catalog. Inactive branches are admin only.
func (s *BranchService) ListBranches(ctx context.Context, actor domain.Actor, includeInactive bool) ([]domain.Branch, error) {
	if includeInactive && actor.Role != domain.RoleAdmin {
		includeInactive = false
	}
	branches, err := s.branches.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return branches, nil
}

// UpdateBranch renames or toggles a branch. Admin only.
func (s *BranchService) UpdateBranch(ctx context.Context, actor domain.Actor, branchID, name string, isActive bool) (*domain.Branch, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	branch, err := s.branches.GetByID(ctx, branchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(&engine.NotFoundError{Resource: "branch", ID: branchID})
		}
		return nil, apperrors.MapError(err)
	}
	if name != "" {
		branch.Name = name
	}
	branch.IsActive = isActive
	if err := s.branches.Update(ctx, branch); err != nil {
		return nil, apperrors.MapError(err)
	}
	return branch, nil
}

// UpdateManagerBranches replaces a manager's branch set and cascades the
// change to every subordinate by clipping each one's branches to the new
// set. A checkpoint is written before the fan-out and cleared after it, so
// a crash mid-cascade is repaired by ResumePending on the next boot.
func (s *BranchService) UpdateManagerBranches(ctx context.Context, actor domain.Actor, managerID string, branchIDs []string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(branchIDs) == 0 {
		return nil, apperrors.MapError(&engine.EmptyBranchSetError{})
	}
	for _, id := range branchIDs {
		if _, err := s.branches.GetByID(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.MapError(&engine.NotFoundError{Resource: "branch", ID: id})
			}
			return nil, apperrors.MapError(err)
		}
	}

	manager, err := s.users.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(&engine.NotFoundError{Resource: "user", ID: managerID})
		}
		return nil, apperrors.MapError(err)
	}
	if manager.Role != domain.RoleManager {
		return nil, apperrors.MapError(&engine.ValidationError{Field: "user_id", Reason: "not a manager"})
	}

	checkpoint := persistence.CascadeCheckpoint{ManagerID: manager.ID, BranchIDs: branchIDs}
	if s.checkpoints != nil {
		if err := s.checkpoints.Save(ctx, checkpoint); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	manager.BranchIDs = branchIDs
	if err := s.users.Update(ctx, manager); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.applyCascade(ctx, manager.ID, branchIDs); err != nil {
		// Checkpoint stays in place; the worker replays it on restart.
		return nil, err
	}
	if s.checkpoints != nil {
		if err := s.checkpoints.Clear(ctx, manager.ID); err != nil && s.logger != nil {
			s.logger.Warn("cascade checkpoint clear failed", zap.String("manager_id", manager.ID), zap.Error(err))
		}
	}
	s.publishCascadeAudit(ctx, actor, manager.ID, branchIDs)
	return manager, nil
}

// ResumePending replays every checkpoint left behind by an interrupted
// cascade. The clip is idempotent, so replaying an already-finished
// cascade is harmless.
func (s *BranchService) ResumePending(ctx context.Context) error {
	if s.checkpoints == nil {
		return nil
	}
	pending, err := s.checkpoints.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, checkpoint := range pending {
		if len(checkpoint.BranchIDs) == 0 {
			// Key-only checkpoint recovered from a malformed record; nothing
			// safe to replay, leave it for operators.
			if s.logger != nil {
				s.logger.Warn("skipping malformed cascade checkpoint", zap.String("manager_id", checkpoint.ManagerID))
			}
			continue
		}
		if err := s.applyCascade(ctx, checkpoint.ManagerID, checkpoint.BranchIDs); err != nil {
			if s.logger != nil {
				s.logger.Error("cascade replay failed", zap.String("manager_id", checkpoint.ManagerID), zap.Error(err))
			}
			continue
		}
		if err := s.checkpoints.Clear(ctx, checkpoint.ManagerID); err != nil && s.logger != nil {
			s.logger.Warn("cascade checkpoint clear failed", zap.String("manager_id", checkpoint.ManagerID), zap.Error(err))
		}
		s.metrics.RecordCascadeResume()
		if s.logger != nil {
			s.logger.Info("cascade replayed", zap.String("manager_id", checkpoint.ManagerID))
		}
	}
	return nil
}

// applyCascade clips every subordinate's branch set to the manager's new
// set. A subordinate whose branches are already a subset is rewritten to
// the same value, which keeps the operation safe to repeat.
func (s *BranchService) applyCascade(ctx context.Context, managerID string, branchIDs []string) error {
	subordinates, err := s.users.ListByManager(ctx, managerID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for i := range subordinates {
		sub := &subordinates[i]
		sub.BranchIDs = engine.IntersectBranches(sub.BranchIDs, branchIDs)
		if err := s.users.Update(ctx, sub); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}

func (s *BranchService) publishCascadeAudit(ctx context.Context, actor domain.Actor, managerID string, branchIDs []string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.AuditEvent{
		ID:         uuid.NewString(),
		Action:     events.ActionBranchCascaded,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		TargetID:   managerID,
		TargetType: "user",
		Metadata:   map[string]any{"branch_ids": branchIDs},
		Timestamp:  time.Now(),
	})
}

func requireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}
