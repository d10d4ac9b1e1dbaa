package engine

import "github.com/spec-kit/lead-engine/internal/domain"

// roleWeight orders the closed role set. Higher weight outranks lower.
var roleWeight = map[domain.Role]int{
	domain.RoleAgent:    1,
	domain.RoleTeamLead: 2,
	domain.RoleManager:  3,
	domain.RoleAdmin:    4,
}

// ValidRole reports whether r belongs to the closed role set.
func ValidRole(r domain.Role) bool {
	_, ok := roleWeight[r]
	return ok
}

// Outranks reports whether a sits strictly above b in the hierarchy.
// Unknown roles never outrank anything.
func Outranks(a, b domain.Role) bool {
	wa, ok := roleWeight[a]
	if !ok {
		return false
	}
	wb, ok := roleWeight[b]
	if !ok {
		return false
	}
	return wa > wb
}
