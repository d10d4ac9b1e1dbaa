package engine

import (
	"encoding/json"
	"strings"
)

// UniqueField enumerates the payload fields subject to organization-wide
// duplicate detection.
type UniqueField string

const (
	UniqueFieldEmail UniqueField = "email"
	UniqueFieldPhone UniqueField = "phone"
)

// ValidUniqueField reports whether f is a designated unique field.
func ValidUniqueField(f UniqueField) bool {
	return f == UniqueFieldEmail || f == UniqueFieldPhone
}

// PayloadCandidate is a record surfaced by the store's coarse containment
// query, carrying its still-encoded payload for exact verification.
type PayloadCandidate struct {
	ID  string
	Raw []byte
}

// VerifyDuplicate exact-matches narrowed candidates against the value.
// Payload fields are stored opaquely, so the containment query is only
// probabilistic; each candidate's payload is decoded and the designated
// field compared exactly before a duplicate is declared. Candidates whose
// payload fails to decode are skipped — best-effort detection must not
// block unrelated writes. excludeID ignores the record being edited.
func VerifyDuplicate(field UniqueField, value string, excludeID string, candidates []PayloadCandidate) error {
	if !ValidUniqueField(field) {
		return &ValidationError{Field: "field", Reason: "not a unique field"}
	}
	want := normalizeUniqueValue(value)
	if want == "" {
		return nil
	}
	for _, candidate := range candidates {
		if excludeID != "" && candidate.ID == excludeID {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal(candidate.Raw, &payload); err != nil {
			continue
		}
		stored, ok := payload[string(field)].(string)
		if !ok {
			continue
		}
		if normalizeUniqueValue(stored) == want {
			return &DuplicateError{Field: string(field), Value: value}
		}
	}
	return nil
}

func normalizeUniqueValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
