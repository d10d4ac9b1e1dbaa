package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-engine/internal/auth"
	"github.com/spec-kit/lead-engine/internal/domain"
	"github.com/spec-kit/lead-engine/internal/engine"
	"github.com/spec-kit/lead-engine/internal/events"
	apperrors "github.com/spec-kit/lead-engine/pkg/util/errorutil"
)

type accountFixture struct {
	svc        *AccountService
	users      *fakeUserRepo
	provider   *fakeProvider
	dispatcher *recordingDispatcher
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	users := newFakeUserRepo()
	provider := newFakeProvider()
	dispatcher := &recordingDispatcher{}
	svc := NewAccountService(AccountDependencies{
		UserRepo:   users,
		Provider:   provider,
		Tokens:     auth.NewTokenManager("test-secret", 15),
		Dispatcher: dispatcher,
	})
	return &accountFixture{svc: svc, users: users, provider: provider, dispatcher: dispatcher}
}

func TestCreateSubordinate_ManagerCreatesTeamLead(t *testing.T) {
	f := newAccountFixture(t)
	manager := f.users.add(domain.User{Name: "Mara", Role: domain.RoleManager, BranchIDs: []string{"b1", "b2"}, Active: true})

	created, err := f.svc.CreateSubordinate(context.Background(), &manager, CreateSubordinateInput{
		Name: "Tomas", Email: "tomas@example.com", Password: "secret",
		Role: domain.RoleTeamLead, BranchIDs: []string{"b1"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.SubjectID)
	require.NotNil(t, created.ManagerID)
	require.Equal(t, manager.ID, *created.ManagerID)
	require.Nil(t, created.TeamLeadID)
	require.True(t, engine.HasCapability(created.Grants, manager.ID, domain.CapabilityUpdate))
	require.Len(t, f.dispatcher.byAction(events.ActionUserCreated), 1)
}

func TestCreateSubordinate_AgentInheritsManagerTransitively(t *testing.T) {
	f := newAccountFixture(t)
	manager := f.users.add(domain.User{Name: "Mara", Role: domain.RoleManager, BranchIDs: []string{"b1"}, Active: true})
	teamLead := f.users.add(domain.User{Name: "Tomas", Role: domain.RoleTeamLead, ManagerID: &manager.ID, BranchIDs: []string{"b1"}, Active: true})

	agent, err := f.svc.CreateSubordinate(context.Background(), &teamLead, CreateSubordinateInput{
		Name: "Ana", Email: "ana@example.com", Password: "secret",
		Role: domain.RoleAgent, BranchIDs: []string{"b1"},
	})
	require.NoError(t, err)
	require.NotNil(t, agent.TeamLeadID)
	require.Equal(t, teamLead.ID, *agent.TeamLeadID)
	require.NotNil(t, agent.ManagerID)
	require.Equal(t, manager.ID, *agent.ManagerID)
}

func TestCreateSubordinate_RolePairingEnforced(t *testing.T) {
	f := newAccountFixture(t)
	manager := f.users.add(domain.User{Name: "Mara", Role: domain.RoleManager, BranchIDs: []string{"b1"}, Active: true})

	_, err := f.svc.CreateSubordinate(context.Background(), &manager, CreateSubordinateInput{
		Name: "Ana", Email: "ana@example.com", Password: "secret",
		Role: domain.RoleAgent, BranchIDs: []string{"b1"},
	})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "FORBIDDEN", domainErr.Code)
	require.Zero(t, f.provider.calls)
}

func TestCreateSubordinate_BranchNotOwnedNamesFirstOffender(t *testing.T) {
	f := newAccountFixture(t)
	manager := f.users.add(domain.User{Name: "Mara", Role: domain.RoleManager, BranchIDs: []string{"b1", "b2"}, Active: true})

	_, err := f.svc.CreateSubordinate(context.Background(), &manager, CreateSubordinateInput{
		Name: "Tomas", Email: "tomas@example.com", Password: "secret",
		Role: domain.RoleTeamLead, BranchIDs: []string{"b1", "b3", "b4"},
	})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "BRANCH_NOT_OWNED", domainErr.Code)
	require.Equal(t, "b3", domainErr.Details["branch_id"])
	// Validation failed before the identity provider was touched.
	require.Zero(t, f.provider.calls)
}

func TestCreateSubordinate_EmptyBranchSetRejected(t *testing.T) {
	f := newAccountFixture(t)
	manager := f.users.add(domain.User{Name: "Mara", Role: domain.RoleManager, BranchIDs: []string{"b1"}, Active: true})

	_, err := f.svc.CreateSubordinate(context.Background(), &manager, CreateSubordinateInput{
		Name: "Tomas", Email: "tomas@example.com", Password: "secret",
		Role: domain.RoleTeamLead, BranchIDs: nil,
	})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "EMPTY_BRANCH_SET", domainErr.Code)
}

func TestCreateSubordinate_DuplicateEmailRejected(t *testing.T) {
	f := newAccountFixture(t)
	manager := f.users.add(domain.User{Name: "Mara", Role: domain.RoleManager, BranchIDs: []string{"b1"}, Active: true})
	f.users.add(domain.User{Name: "Existing", Email: "tomas@example.com", Role: domain.RoleTeamLead, Active: true})

	_, err := f.svc.CreateSubordinate(context.Background(), &manager, CreateSubordinateInput{
		Name: "Tomas", Email: "tomas@example.com", Password: "secret",
		Role: domain.RoleTeamLead, BranchIDs: []string{"b1"},
	})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "DUPLICATE_VALUE", domainErr.Code)
}

func TestGetUser_HiddenCountReflectsViewerScope(t *testing.T) {
	f := newAccountFixture(t)
	viewer := f.users.add(domain.User{Name: "Tomas", Role: domain.RoleTeamLead, BranchIDs: []string{"b1"}, Active: true})
	target := f.users.add(domain.User{Name: "Ana", Role: domain.RoleAgent, BranchIDs: []string{"b1", "b2", "b3"}, Active: true})

	view, err := f.svc.GetUser(context.Background(), viewer.AsActor(), target.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"b1"}, view.Branches.Visible)
	require.Equal(t, 2, view.Branches.HiddenCount)

	admin := f.users.add(domain.User{Name: "Root", Role: domain.RoleAdmin, Active: true})
	adminView, err := f.svc.GetUser(context.Background(), admin.AsActor(), target.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"b1", "b2", "b3"}, adminView.Branches.Visible)
	require.Zero(t, adminView.Branches.HiddenCount)
}

func TestListUsers_BranchProjectionScopedToViewer(t *testing.T) {
	f := newAccountFixture(t)
	viewer := f.users.add(domain.User{Name: "Tomas", Role: domain.RoleTeamLead, BranchIDs: []string{"b1"}, Active: true})
	target := f.users.add(domain.User{Name: "Ana", Role: domain.RoleAgent, BranchIDs: []string{"b1", "b2", "b3"}, Active: true})

	views, err := f.svc.ListUsers(context.Background(), viewer.AsActor(), 20, 0)
	require.NoError(t, err)

	var got *UserView
	for i := range views {
		if views[i].User.ID == target.ID {
			got = &views[i]
		}
	}
	require.NotNil(t, got)
	require.Equal(t, []string{"b1"}, got.Branches.Visible)
	require.Equal(t, 2, got.Branches.HiddenCount)
	require.NotContains(t, got.Branches.Visible, "b2")
	require.NotContains(t, got.Branches.Visible, "b3")
}

func TestListUsers_AdminSeesFullBranchSets(t *testing.T) {
	f := newAccountFixture(t)
	admin := f.users.add(domain.User{Name: "Root", Role: domain.RoleAdmin, Active: true})
	target := f.users.add(domain.User{Name: "Ana", Role: domain.RoleAgent, BranchIDs: []string{"b1", "b2"}, Active: true})

	views, err := f.svc.ListUsers(context.Background(), admin.AsActor(), 20, 0)
	require.NoError(t, err)

	for i := range views {
		if views[i].User.ID == target.ID {
			require.Equal(t, []string{"b1", "b2"}, views[i].Branches.Visible)
			require.Zero(t, views[i].Branches.HiddenCount)
			return
		}
	}
	t.Fatalf("target user missing from admin listing")
}

func TestGetUser_SelfAlwaysVisible(t *testing.T) {
	f := newAccountFixture(t)
	viewer := f.users.add(domain.User{Name: "Tomas", Role: domain.RoleTeamLead, BranchIDs: nil, Active: true})

	view, err := f.svc.GetUser(context.Background(), viewer.AsActor(), viewer.ID)
	require.NoError(t, err)
	require.Equal(t, viewer.ID, view.User.ID)
}

func TestLogin_IssuesTokenForActiveAccount(t *testing.T) {
	f := newAccountFixture(t)
	admin := f.users.add(domain.User{Name: "Root", Role: domain.RoleAdmin, BranchIDs: []string{"b1"}, Active: true})

	created, err := f.svc.CreateSubordinate(context.Background(), &admin, CreateSubordinateInput{
		Name: "Mara", Email: "mara@example.com", Password: "secret",
		Role: domain.RoleManager, BranchIDs: []string{"b1"},
	})
	require.NoError(t, err)

	user, token, expiresAt, err := f.svc.Login(context.Background(), "mara@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	_, _, _, err = f.svc.Login(context.Background(), "mara@example.com", "wrong")
	require.Error(t, err)
}
