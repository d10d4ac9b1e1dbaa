package domain

import "time"

// User is an account inside the hierarchy. ManagerID and TeamLeadID are
// immutable back-references set once at creation; they are lookup-only and
// imply no ownership.
type User struct {
	ID         string
	SubjectID  string
	Name       string
	Email      string
	Role       Role
	ManagerID  *string
	TeamLeadID *string
	BranchIDs  []string
	Grants     []Grant
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AsActor projects the user into the identity shape the engine consumes.
func (u *User) AsActor() Actor {
	return Actor{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		BranchIDs: u.BranchIDs,
	}
}
