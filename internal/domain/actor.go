package domain

// Role enumerates the account hierarchy levels.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleTeamLead Role = "TEAM_LEAD"
	RoleAgent    Role = "AGENT"
)

// Actor is the authenticated identity performing an operation.
// An empty BranchIDs set means unscoped for admins and
// own-records-only for managers and team leads.
type Actor struct {
	ID        string
	Name      string
	Role      Role
	BranchIDs []string
}
