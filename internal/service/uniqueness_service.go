package service

import (
	"context"
	"strings"

	"github.com/spec-kit/lead-engine/internal/engine"
	"github.com/spec-kit/lead-engine/internal/repository"
)

// UniquenessService performs organization-wide duplicate detection over
// designated lead payload fields. Deliberately branch-unscoped: one
// person, one lead, anywhere in the organization.
//
// This check is advisory. Two concurrent creates can both pass it before
// either write commits; the store's unique index is the authoritative
// guard, this service only provides early, user-friendly rejection.
type UniquenessService struct {
	leads repository.LeadRepository
}

// NewUniquenessService constructs the service.
func NewUniquenessService(leads repository.LeadRepository) *UniquenessService {
	return &UniquenessService{leads: leads}
}

// CheckUnique narrows candidates with a coarse containment query and then
// exact-verifies each decoded payload. excludeID ignores the record being
// edited.
func (s *UniquenessService) CheckUnique(ctx context.Context, field engine.UniqueField, value, excludeID string) error {
	if !engine.ValidUniqueField(field) {
		return &engine.ValidationError{Field: "field", Reason: "not a unique field"}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	candidates, err := s.leads.SearchPayload(ctx, value)
	if err != nil {
		return err
	}
	return engine.VerifyDuplicate(field, value, excludeID, candidates)
}

// CheckPayload runs the uniqueness check for every designated field
// present in the payload.
func (s *UniquenessService) CheckPayload(ctx context.Context, payload map[string]any, excludeID string) error {
	for _, field := range []engine.UniqueField{engine.UniqueFieldEmail, engine.UniqueFieldPhone} {
		value, ok := payload[string(field)].(string)
		if !ok {
			continue
		}
		if err := s.CheckUnique(ctx, field, value, excludeID); err != nil {
			return err
		}
	}
	return nil
}
