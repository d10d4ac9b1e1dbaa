package engine

import (
	"sort"

	"github.com/spec-kit/lead-engine/internal/domain"
)

// ChainOfCommand is the ordered management line above a lead's assignee:
// the assignee's team lead, and that team lead's manager, where present.
type ChainOfCommand struct {
	TeamLeadID *string
	ManagerID  *string
}

// ComputeLeadGrants derives the complete grant set for a lead from its
// current ownership, assignment and lifecycle state. It is the single
// source of truth for who may read, update or delete the lead document.
//
// The result is always a full replacement set. Callers persist it
// atomically in place of whatever was attached before, so a reassignment
// can never leak residual access to a former assignee or their chain.
func ComputeLeadGrants(lead domain.Lead, chain ChainOfCommand) []domain.Grant {
	caps := map[string]map[domain.Capability]struct{}{}
	add := func(subjectID string, granted ...domain.Capability) {
		if subjectID == "" {
			return
		}
		if caps[subjectID] == nil {
			caps[subjectID] = map[domain.Capability]struct{}{}
		}
		for _, c := range granted {
			caps[subjectID][c] = struct{}{}
		}
	}

	// Owner retains full control in every lifecycle state.
	add(lead.OwnerID, domain.CapabilityRead, domain.CapabilityUpdate, domain.CapabilityDelete)

	if lead.AssignedToID != nil {
		if lead.IsClosed {
			// Closed means read-only for everyone below the owner.
			add(*lead.AssignedToID, domain.CapabilityRead)
			addChain(add, chain, domain.CapabilityRead)
		} else {
			add(*lead.AssignedToID, domain.CapabilityRead, domain.CapabilityUpdate)
			addChain(add, chain, domain.CapabilityRead, domain.CapabilityUpdate, domain.CapabilityDelete)
		}
	}

	return flattenGrants(caps)
}

// ComputeUserGrants derives the grant set for a user record at creation:
// the subject reads their own record, the management line above them reads
// it, and the creator keeps read and update.
func ComputeUserGrants(user domain.User, creatorID string) []domain.Grant {
	caps := map[string]map[domain.Capability]struct{}{}
	add := func(subjectID string, granted ...domain.Capability) {
		if subjectID == "" {
			return
		}
		if caps[subjectID] == nil {
			caps[subjectID] = map[domain.Capability]struct{}{}
		}
		for _, c := range granted {
			caps[subjectID][c] = struct{}{}
		}
	}

	add(user.ID, domain.CapabilityRead)
	if user.TeamLeadID != nil {
		add(*user.TeamLeadID, domain.CapabilityRead)
	}
	if user.ManagerID != nil {
		add(*user.ManagerID, domain.CapabilityRead)
	}
	add(creatorID, domain.CapabilityRead, domain.CapabilityUpdate)

	return flattenGrants(caps)
}

func addChain(add func(string, ...domain.Capability), chain ChainOfCommand, granted ...domain.Capability) {
	if chain.TeamLeadID != nil {
		add(*chain.TeamLeadID, granted...)
	}
	if chain.ManagerID != nil {
		add(*chain.ManagerID, granted...)
	}
}

var capabilityOrder = map[domain.Capability]int{
	domain.CapabilityRead:   0,
	domain.CapabilityUpdate: 1,
	domain.CapabilityDelete: 2,
}

func flattenGrants(caps map[string]map[domain.Capability]struct{}) []domain.Grant {
	result := make([]domain.Grant, 0, len(caps))
	for subjectID, set := range caps {
		for c := range set {
			result = append(result, domain.Grant{SubjectID: subjectID, Capability: c})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SubjectID != result[j].SubjectID {
			return result[i].SubjectID < result[j].SubjectID
		}
		return capabilityOrder[result[i].Capability] < capabilityOrder[result[j].Capability]
	})
	return result
}

// HasCapability reports whether the grant set allows the subject the given
// capability.
func HasCapability(grants []domain.Grant, subjectID string, capability domain.Capability) bool {
	for _, g := range grants {
		if g.SubjectID == subjectID && g.Capability == capability {
			return true
		}
	}
	return false
}
