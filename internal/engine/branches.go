package engine

// ValidateSubordinateBranches checks that a new subordinate's proposed
// branch set is a subset of its creator's branch set. Pure validation;
// persisting the subordinate and deriving its manager/team-lead references
// stays with the caller.
func ValidateSubordinateBranches(proposed []string, creatorBranches []string) error {
	if len(proposed) == 0 {
		return &EmptyBranchSetError{}
	}
	owned := make(map[string]struct{}, len(creatorBranches))
	for _, id := range creatorBranches {
		owned[id] = struct{}{}
	}
	for _, id := range proposed {
		if _, ok := owned[id]; !ok {
			return &BranchNotOwnedError{BranchID: id}
		}
	}
	return nil
}

// IntersectBranches returns the members of base that are also in allowed,
// preserving base order. Used when a manager's branch set change is
// propagated down the hierarchy: subordinates are clipped to what the
// manager still holds, which keeps the subset invariant and makes the
// cascade safe to re-run.
func IntersectBranches(base []string, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = struct{}{}
	}
	result := make([]string, 0, len(base))
	for _, id := range base {
		if _, ok := allowedSet[id]; ok {
			result = append(result, id)
		}
	}
	return result
}
