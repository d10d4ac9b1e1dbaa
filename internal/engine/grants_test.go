package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-engine/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestComputeLeadGrants_OwnerAlwaysFullControl(t *testing.T) {
	lead := domain.Lead{ID: "l1", OwnerID: "owner"}

	grants := ComputeLeadGrants(lead, ChainOfCommand{})

	require.Equal(t, []domain.Grant{
		{SubjectID: "owner", Capability: domain.CapabilityRead},
		{SubjectID: "owner", Capability: domain.CapabilityUpdate},
		{SubjectID: "owner", Capability: domain.CapabilityDelete},
	}, grants)
}

func TestComputeLeadGrants_ActiveAssigneeAndChain(t *testing.T) {
	lead := domain.Lead{ID: "l1", OwnerID: "owner", AssignedToID: strPtr("agent")}
	chain := ChainOfCommand{TeamLeadID: strPtr("tl"), ManagerID: strPtr("mgr")}

	grants := ComputeLeadGrants(lead, chain)

	require.True(t, HasCapability(grants, "agent", domain.CapabilityRead))
	require.True(t, HasCapability(grants, "agent", domain.CapabilityUpdate))
	require.False(t, HasCapability(grants, "agent", domain.CapabilityDelete))

	for _, subject := range []string{"tl", "mgr"} {
		require.True(t, HasCapability(grants, subject, domain.CapabilityRead))
		require.True(t, HasCapability(grants, subject, domain.CapabilityUpdate))
		require.True(t, HasCapability(grants, subject, domain.CapabilityDelete))
	}
}

func TestComputeLeadGrants_ClosedRevokesWrites(t *testing.T) {
	closedAt := time.Now()
	lead := domain.Lead{
		ID:           "l1",
		OwnerID:      "owner",
		AssignedToID: strPtr("agent"),
		IsClosed:     true,
		ClosedAt:     &closedAt,
	}
	chain := ChainOfCommand{TeamLeadID: strPtr("tl"), ManagerID: strPtr("mgr")}

	grants := ComputeLeadGrants(lead, chain)

	for _, subject := range []string{"agent", "tl", "mgr"} {
		require.True(t, HasCapability(grants, subject, domain.CapabilityRead))
		require.False(t, HasCapability(grants, subject, domain.CapabilityUpdate))
		require.False(t, HasCapability(grants, subject, domain.CapabilityDelete))
	}
	// Closed = read-only never applies to the owner.
	require.True(t, HasCapability(grants, "owner", domain.CapabilityDelete))
}

func TestComputeLeadGrants_ReassignmentExcludesFormerAssignee(t *testing.T) {
	lead := domain.Lead{ID: "l1", OwnerID: "owner", AssignedToID: strPtr("agentX")}
	before := ComputeLeadGrants(lead, ChainOfCommand{TeamLeadID: strPtr("tlX")})
	require.True(t, HasCapability(before, "agentX", domain.CapabilityUpdate))

	lead.AssignedToID = strPtr("agentY")
	after := ComputeLeadGrants(lead, ChainOfCommand{TeamLeadID: strPtr("tlY")})

	for _, grant := range after {
		require.NotEqual(t, "agentX", grant.SubjectID)
		require.NotEqual(t, "tlX", grant.SubjectID)
	}
	require.True(t, HasCapability(after, "agentY", domain.CapabilityRead))
	require.True(t, HasCapability(after, "agentY", domain.CapabilityUpdate))
}

func TestComputeLeadGrants_UnassignedChainGetsNothing(t *testing.T) {
	lead := domain.Lead{ID: "l1", OwnerID: "owner"}

	grants := ComputeLeadGrants(lead, ChainOfCommand{TeamLeadID: strPtr("tl"), ManagerID: strPtr("mgr")})

	for _, grant := range grants {
		require.Equal(t, "owner", grant.SubjectID)
	}
}

func TestComputeLeadGrants_OwnerAssigneeUnion(t *testing.T) {
	// A lead assigned back to its owner keeps the owner's full control.
	lead := domain.Lead{ID: "l1", OwnerID: "owner", AssignedToID: strPtr("owner"), IsClosed: true}

	grants := ComputeLeadGrants(lead, ChainOfCommand{})

	require.True(t, HasCapability(grants, "owner", domain.CapabilityUpdate))
	require.True(t, HasCapability(grants, "owner", domain.CapabilityDelete))
}

func TestComputeLeadGrants_Deterministic(t *testing.T) {
	lead := domain.Lead{ID: "l1", OwnerID: "owner", AssignedToID: strPtr("agent")}
	chain := ChainOfCommand{TeamLeadID: strPtr("tl"), ManagerID: strPtr("mgr")}

	require.Equal(t, ComputeLeadGrants(lead, chain), ComputeLeadGrants(lead, chain))
}

func TestComputeUserGrants(t *testing.T) {
	user := domain.User{
		ID:         "agent",
		Role:       domain.RoleAgent,
		TeamLeadID: strPtr("tl"),
		ManagerID:  strPtr("mgr"),
	}

	grants := ComputeUserGrants(user, "tl")

	require.True(t, HasCapability(grants, "agent", domain.CapabilityRead))
	require.True(t, HasCapability(grants, "mgr", domain.CapabilityRead))
	require.True(t, HasCapability(grants, "tl", domain.CapabilityRead))
	require.True(t, HasCapability(grants, "tl", domain.CapabilityUpdate))
	require.False(t, HasCapability(grants, "agent", domain.CapabilityUpdate))
}
