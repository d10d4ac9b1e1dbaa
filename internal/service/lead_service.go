package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-engine/internal/domain"
	"github.com/spec-kit/lead-engine/internal/engine"
	"github.com/spec-kit/lead-engine/internal/events"
	"github.com/spec-kit/lead-engine/internal/repository"
	apperrors "github.com/spec-kit/lead-engine/pkg/util/errorutil"
)

// LeadService coordinates lead workflows: creation, assignment and the
// close/reopen lifecycle. Every lifecycle-changing operation recomputes
// the lead's grant set as a whole replacement before persisting.
type LeadService struct {
	leads      repository.LeadRepository
	users      repository.UserRepository
	unique     *UniquenessService
	dispatcher events.Dispatcher
}

// LeadDependencies bundles collaborators for the lead service.
type LeadDependencies struct {
	LeadRepo   repository.LeadRepository
	UserRepo   repository.UserRepository
	Uniqueness *UniquenessService
	Dispatcher events.Dispatcher
}

// LeadCreateInput describes lead creation payload.
type LeadCreateInput struct {
	Payload      map[string]any
	Status       string
	BranchID     *string
	AssignedToID *string
}

// NewLeadService constructs the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	return &LeadService{
		leads:      deps.LeadRepo,
		users:      deps.UserRepo,
		unique:     deps.Uniqueness,
		dispatcher: deps.Dispatcher,
	}
}

// CreateLead creates a lead owned by the actor.
func (s *LeadService) CreateLead(ctx context.Context, actor domain.Actor, input LeadCreateInput) (*domain.Lead, error) {
	if input.BranchID != nil && actor.Role != domain.RoleAdmin {
		if !containsBranch(actor.BranchIDs, *input.BranchID) {
			return nil, apperrors.NewForbidden("branch outside actor scope")
		}
	}
	if s.unique != nil {
		if err := s.unique.CheckPayload(ctx, input.Payload, ""); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	lead := &domain.Lead{
		Payload:  input.Payload,
		Status:   input.Status,
		OwnerID:  actor.ID,
		BranchID: input.BranchID,
	}
	if lead.Status == "" {
		lead.Status = "New"
	}

	chain := engine.ChainOfCommand{}
	if input.AssignedToID != nil {
		assignee, err := s.loadAssignee(ctx, actor, *input.AssignedToID)
		if err != nil {
			return nil, err
		}
		lead.AssignedToID = &assignee.ID
		chain = chainFor(assignee)
	}
	lead.Grants = engine.ComputeLeadGrants(*lead, chain)

	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAudit(ctx, actor, events.ActionLeadCreated, lead.ID, map[string]any{
		"branch_id":   lead.BranchID,
		"assigned_to": lead.AssignedToID,
	})
	return lead, nil
}

// ListLeads returns leads visible to the actor. The visibility predicate
// is evaluated by the store; nothing is filtered after the fact.
func (s *LeadService) ListLeads(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Lead, error) {
	pred := engine.ResolveLeadFilter(actor)
	leads, err := s.leads.ListWithPredicate(ctx, pred, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return leads, nil
}

// GetLead fetches a lead ensuring the actor may see it.
func (s *LeadService) GetLead(ctx context.Context, actor domain.Actor, leadID string) (*domain.Lead, error) {
	lead, err := s.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !actorCanAccessLead(actor, lead) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return lead, nil
}

// AssignLead sets the lead's assignee and replaces the grant set. Legal in
// either lifecycle state; a closed lead's new assignee receives read-only
// access because grants always derive from the current state.
func (s *LeadService) AssignLead(ctx context.Context, actor domain.Actor, leadID, assigneeID string) (*domain.Lead, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	lead, err := s.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !actorCanAccessLead(actor, lead) {
		return nil, apperrors.NewForbidden("access denied")
	}
	assignee, err := s.loadAssignee(ctx, actor, assigneeID)
	if err != nil {
		return nil, err
	}

	previous := lead.AssignedToID
	lead.AssignedToID = &assignee.ID
	lead.Grants = engine.ComputeLeadGrants(*lead, chainFor(assignee))

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAudit(ctx, actor, events.ActionLeadAssigned, lead.ID, map[string]any{
		"previous_assignee": previous,
		"assignee":          assignee.ID,
	})
	return lead, nil
}

// CloseLead transitions the lead to closed and downgrades assignee and
// chain grants to read-only. A second close is an invalid transition and
// produces no grant write and no audit event.
func (s *LeadService) CloseLead(ctx context.Context, actor domain.Actor, leadID, status string) (*domain.Lead, error) {
	lead, err := s.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !actorCanAccessLead(actor, lead) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if err := engine.CloseLead(lead, status, time.Now()); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recomputeAndPersist(ctx, lead); err != nil {
		return nil, err
	}
	s.publishAudit(ctx, actor, events.ActionLeadClosed, lead.ID, map[string]any{
		"status":    lead.Status,
		"closed_at": lead.ClosedAt,
	})
	return lead, nil
}

// ReopenLead transitions a closed lead back to active, restoring write
// grants to the assignee and chain. ClosedAt is preserved.
func (s *LeadService) ReopenLead(ctx context.Context, actor domain.Actor, leadID string) (*domain.Lead, error) {
	lead, err := s.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !actorCanAccessLead(actor, lead) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if err := engine.ReopenLead(lead); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recomputeAndPersist(ctx, lead); err != nil {
		return nil, err
	}
	s.publishAudit(ctx, actor, events.ActionLeadReopened, lead.ID, map[string]any{
		"closed_at": lead.ClosedAt,
	})
	return lead, nil
}

func (s *LeadService) getLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(&engine.NotFoundError{Resource: "lead", ID: leadID})
		}
		return nil, apperrors.MapError(err)
	}
	return lead, nil
}

// loadAssignee fetches and scope-checks a prospective assignee before any
// grant computation happens.
func (s *LeadService) loadAssignee(ctx context.Context, actor domain.Actor, assigneeID string) (*domain.User, error) {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(&engine.NotFoundError{Resource: "user", ID: assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"user_id": assigneeID})
	}
	if actor.Role != domain.RoleAdmin && len(engine.IntersectBranches(assignee.BranchIDs, actor.BranchIDs)) == 0 {
		return nil, apperrors.NewForbidden("assignee outside actor branch scope")
	}
	return assignee, nil
}

// recomputeAndPersist replaces the grant set from the lead's current
// assignment and lifecycle state, then writes business fields and grants
// in one update.
func (s *LeadService) recomputeAndPersist(ctx context.Context, lead *domain.Lead) error {
	chain := engine.ChainOfCommand{}
	if lead.AssignedToID != nil {
		assignee, err := s.users.GetByID(ctx, *lead.AssignedToID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.MapError(&engine.NotFoundError{Resource: "user", ID: *lead.AssignedToID})
			}
			return apperrors.MapError(err)
		}
		chain = chainFor(assignee)
	}
	lead.Grants = engine.ComputeLeadGrants(*lead, chain)
	if err := s.leads.Update(ctx, lead); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *LeadService) publishAudit(ctx context.Context, actor domain.Actor, action events.Action, leadID string, metadata map[string]any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.AuditEvent{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		TargetID:   leadID,
		TargetType: "lead",
		Metadata:   metadata,
		Timestamp:  time.Now(),
	})
}

// chainFor derives the chain of command above an assignee: their team
// lead, and that team lead's manager. For a team lead assignee the chain
// is just their manager; managers and admins have no chain.
func chainFor(assignee *domain.User) engine.ChainOfCommand {
	switch assignee.Role {
	case domain.RoleAgent:
		return engine.ChainOfCommand{TeamLeadID: assignee.TeamLeadID, ManagerID: assignee.ManagerID}
	case domain.RoleTeamLead:
		return engine.ChainOfCommand{ManagerID: assignee.ManagerID}
	default:
		return engine.ChainOfCommand{}
	}
}

func requireAssignPriv(actor domain.Actor) error {
	if actor.Role != domain.RoleTeamLead && actor.Role != domain.RoleManager && actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("insufficient role for assignment")
	}
	return nil
}

// actorCanAccessLead mirrors the visibility predicate for a single record
// already in hand.
func actorCanAccessLead(actor domain.Actor, lead *domain.Lead) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager, domain.RoleTeamLead:
		if len(actor.BranchIDs) == 0 {
			return lead.OwnerID == actor.ID
		}
		return lead.BranchID != nil && containsBranch(actor.BranchIDs, *lead.BranchID)
	default:
		return lead.AssignedToID != nil && *lead.AssignedToID == actor.ID
	}
}

func containsBranch(branchIDs []string, id string) bool {
	for _, b := range branchIDs {
		if b == id {
			return true
		}
	}
	return false
}
