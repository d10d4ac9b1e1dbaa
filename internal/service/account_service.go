package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-engine/internal/auth"
	"github.com/spec-kit/lead-engine/internal/domain"
	"github.com/spec-kit/lead-engine/internal/engine"
	"github.com/spec-kit/lead-engine/internal/events"
	"github.com/spec-kit/lead-engine/internal/identity"
	"github.com/spec-kit/lead-engine/internal/repository"
	apperrors "github.com/spec-kit/lead-engine/pkg/util/errorutil"
)

// subordinateRole maps each creator role to the single role it may create.
// The older two-role model is fully superseded; only this lattice exists.
var subordinateRole = map[domain.Role]domain.Role{
	domain.RoleAdmin:    domain.RoleManager,
	domain.RoleManager:  domain.RoleTeamLead,
	domain.RoleTeamLead: domain.RoleAgent,
}

// AccountService manages hierarchy accounts: subordinate creation,
// listing under visibility rules, and login.
type AccountService struct {
	users      repository.UserRepository
	provider   identity.Provider
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
}

// AccountDependencies bundles collaborators.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	Provider   identity.Provider
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
}

// CreateSubordinateInput describes a new subordinate account.
type CreateSubordinateInput struct {
	Name      string
	Email     string
	Password  string
	Role      domain.Role
	BranchIDs []string
}

// UserView pairs a user record with the viewer-scoped branch projection.
type UserView struct {
	User     *domain.User
	Branches engine.BranchView
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	return &AccountService{
		users:      deps.UserRepo,
		provider:   deps.Provider,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
	}
}

// CreateSubordinate validates and creates an account one level below the
// creator. Branch validation runs before the identity provider is called;
// the subordinate's back-references derive from the creator: a team lead's
// manager is the creator, an agent's team lead is the creator and its
// manager is the creator's own manager.
func (s *AccountService) CreateSubordinate(ctx context.Context, creator *domain.User, input CreateSubordinateInput) (*domain.User, error) {
	if !engine.ValidRole(input.Role) {
		return nil, apperrors.MapError(&engine.ValidationError{Field: "role", Reason: "unknown role"})
	}
	allowed, ok := subordinateRole[creator.Role]
	if !ok || input.Role != allowed {
		return nil, apperrors.NewForbidden("creator role cannot create this account role")
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.MapError(&engine.ValidationError{Field: "name", Reason: "name and email required"})
	}

	if creator.Role == domain.RoleAdmin {
		// Admins are unscoped; only the non-empty rule applies.
		if len(input.BranchIDs) == 0 {
			return nil, apperrors.MapError(&engine.EmptyBranchSetError{})
		}
	} else if err := engine.ValidateSubordinateBranches(input.BranchIDs, creator.BranchIDs); err != nil {
		return nil, apperrors.MapError(err)
	}

	if existing, err := s.users.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, apperrors.MapError(&engine.DuplicateError{Field: "email", Value: input.Email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	subjectID, err := s.provider.CreateAccount(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		SubjectID: subjectID,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Role:      input.Role,
		BranchIDs: input.BranchIDs,
		Active:    true,
	}
	switch input.Role {
	case domain.RoleTeamLead:
		user.ManagerID = &creator.ID
	case domain.RoleAgent:
		user.TeamLeadID = &creator.ID
		user.ManagerID = creator.ManagerID
	}
	user.Grants = engine.ComputeUserGrants(*user, creator.ID)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAudit(ctx, creator, events.ActionUserCreated, user.ID, map[string]any{
		"role":       user.Role,
		"branch_ids": user.BranchIDs,
	})
	return user, nil
}

// ListUsers returns accounts visible to the actor. Each record carries
// the viewer-scoped branch projection, never the target's full branch
// set: listing must leak no more than fetching one record would.
func (s *AccountService) ListUsers(ctx context.Context, actor domain.Actor, limit, offset int) ([]UserView, error) {
	pred := engine.ResolveUserFilter(actor)
	users, err := s.users.ListWithPredicate(ctx, pred, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, UserView{
			User:     &users[i],
			Branches: engine.ResolveVisibleBranches(users[i].BranchIDs, actor.Role, actor.BranchIDs),
		})
	}
	return views, nil
}

// GetUser fetches a user with the viewer-scoped branch projection. The
// hidden count is exposed to callers; what to display with it is not this
// engine's decision.
func (s *AccountService) GetUser(ctx context.Context, actor domain.Actor, userID string) (*UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(&engine.NotFoundError{Resource: "user", ID: userID})
		}
		return nil, apperrors.MapError(err)
	}
	if !actorCanAccessUser(actor, user) {
		return nil, apperrors.NewForbidden("access denied")
	}

	view := engine.ResolveVisibleBranches(user.BranchIDs, actor.Role, actor.BranchIDs)
	return &UserView{User: user, Branches: view}, nil
}

// Login authenticates credentials and issues an access token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	subjectID, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	user, err := s.users.GetBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account not found")
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("account deactivated")
	}
	token, expiresAt, err := s.tokens.GenerateToken(user.SubjectID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, expiresAt, nil
}

func (s *AccountService) publishAudit(ctx context.Context, creator *domain.User, action events.Action, targetID string, metadata map[string]any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.AuditEvent{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    creator.ID,
		ActorName:  creator.Name,
		TargetID:   targetID,
		TargetType: "user",
		Metadata:   metadata,
		Timestamp:  time.Now(),
	})
}

// actorCanAccessUser mirrors the user visibility predicate for a single
// record already in hand, including the self-visibility guarantee.
func actorCanAccessUser(actor domain.Actor, user *domain.User) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager, domain.RoleTeamLead:
		if user.ID == actor.ID {
			return true
		}
		return len(engine.IntersectBranches(user.BranchIDs, actor.BranchIDs)) > 0
	default:
		return user.ID == actor.ID
	}
}
