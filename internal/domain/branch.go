package domain

import "time"

// Branch is an organizational scoping unit. Branch ids are treated as
// opaque tokens everywhere else in the engine.
type Branch struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
