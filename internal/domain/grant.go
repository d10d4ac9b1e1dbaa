package domain

// Capability enumerates the access levels a grant can carry.
type Capability string

const (
	CapabilityRead   Capability = "read"
	CapabilityUpdate Capability = "update"
	CapabilityDelete Capability = "delete"
)

// Grant pairs a subject with a capability on a record. Grant sets are a
// derived projection: they are recomputed as a whole whenever the
// underlying ownership or assignment facts change, never patched in place.
type Grant struct {
	SubjectID  string     `json:"subject_id"`
	Capability Capability `json:"capability"`
}
