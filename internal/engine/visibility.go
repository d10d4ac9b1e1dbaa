package engine

import "github.com/spec-kit/lead-engine/internal/domain"

// Op enumerates the clause operators a predicate may use. Every operator
// maps directly onto an equality or containment query the document store
// can evaluate server-side; client-side-only filtering is not acceptable
// at scale, so no other operators exist.
type Op string

const (
	OpEqual    Op = "eq"       // scalar field equals the single value
	OpIn       Op = "in"       // scalar field is one of the values
	OpIsSet    Op = "is_set"   // scalar field is non-null
	OpOverlaps Op = "overlaps" // set field shares at least one value
)

// Clause is a single field condition.
type Clause struct {
	Field  string
	Op     Op
	Values []string
}

// Predicate is the query-shaped visibility filter handed to the document
// store: a disjunction of conjunctive clause groups. MatchAll short-circuits
// the whole filter.
type Predicate struct {
	MatchAll bool
	AnyOf    [][]Clause
}

// Lead and user record field names the predicates are expressed over.
// Repositories translate these to their storage columns verbatim.
const (
	FieldID         = "id"
	FieldOwnerID    = "owner_id"
	FieldAssignedTo = "assigned_to"
	FieldBranchID   = "branch_id"
	FieldBranchIDs  = "branch_ids"
)

// MatchAllPredicate returns the unrestricted filter.
func MatchAllPredicate() Predicate {
	return Predicate{MatchAll: true}
}

// ResolveLeadFilter produces the lead visibility predicate for an actor.
//
// Admins see everything. Managers and team leads with branch affiliations
// see leads attached to one of their branches; with no affiliation they
// fall back to leads they own, never the whole tenant. Agents see only
// leads assigned to them.
func ResolveLeadFilter(actor domain.Actor) Predicate {
	switch actor.Role {
	case domain.RoleAdmin:
		return MatchAllPredicate()
	case domain.RoleManager, domain.RoleTeamLead:
		if len(actor.BranchIDs) == 0 {
			return Predicate{AnyOf: [][]Clause{{
				{Field: FieldOwnerID, Op: OpEqual, Values: []string{actor.ID}},
			}}}
		}
		return Predicate{AnyOf: [][]Clause{{
			{Field: FieldBranchID, Op: OpIsSet},
			{Field: FieldBranchID, Op: OpIn, Values: actor.BranchIDs},
		}}}
	default:
		return Predicate{AnyOf: [][]Clause{{
			{Field: FieldAssignedTo, Op: OpEqual, Values: []string{actor.ID}},
		}}}
	}
}

// ResolveUserFilter produces the user-record visibility predicate for an
// actor. Same shape as the lead filter over the target's branch set, with
// one extra rule: a non-admin viewer's own record is always included even
// when the branch clause would exclude it.
func ResolveUserFilter(actor domain.Actor) Predicate {
	switch actor.Role {
	case domain.RoleAdmin:
		return MatchAllPredicate()
	case domain.RoleManager, domain.RoleTeamLead:
		self := []Clause{{Field: FieldID, Op: OpEqual, Values: []string{actor.ID}}}
		if len(actor.BranchIDs) == 0 {
			return Predicate{AnyOf: [][]Clause{self}}
		}
		return Predicate{AnyOf: [][]Clause{
			{{Field: FieldBranchIDs, Op: OpOverlaps, Values: actor.BranchIDs}},
			self,
		}}
	default:
		return Predicate{AnyOf: [][]Clause{{
			{Field: FieldID, Op: OpEqual, Values: []string{actor.ID}},
		}}}
	}
}

// BranchView is the viewer-scoped projection of another user's branch
// assignments. HiddenCount reports how many assignments were withheld,
// never which ones.
type BranchView struct {
	Visible     []string
	HiddenCount int
}

// ResolveVisibleBranches computes which of a target user's branch
// assignments a viewer may see. Admins see all of them; everyone else sees
// only the intersection with their own affiliations. Callers must treat a
// zero HiddenCount and an admin view identically so that the count cannot
// be used to infer the viewer's privilege level.
func ResolveVisibleBranches(targetBranchIDs []string, viewerRole domain.Role, viewerBranchIDs []string) BranchView {
	if viewerRole == domain.RoleAdmin {
		return BranchView{Visible: append([]string(nil), targetBranchIDs...)}
	}
	visible := IntersectBranches(targetBranchIDs, viewerBranchIDs)
	return BranchView{
		Visible:     visible,
		HiddenCount: len(targetBranchIDs) - len(visible),
	}
}
