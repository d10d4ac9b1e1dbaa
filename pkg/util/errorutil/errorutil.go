package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-engine/internal/engine"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic and engine-typed errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var emptyBranches *engine.EmptyBranchSetError
	if errors.As(err, &emptyBranches) {
		return NewDomainError("EMPTY_BRANCH_SET", emptyBranches.Error(), http.StatusBadRequest, nil)
	}
	var notOwned *engine.BranchNotOwnedError
	if errors.As(err, &notOwned) {
		return NewDomainError("BRANCH_NOT_OWNED", notOwned.Error(), http.StatusBadRequest,
			map[string]any{"branch_id": notOwned.BranchID})
	}
	var validation *engine.ValidationError
	if errors.As(err, &validation) {
		return NewDomainError("VALIDATION_FAILED", validation.Error(), http.StatusBadRequest, nil)
	}
	var duplicate *engine.DuplicateError
	if errors.As(err, &duplicate) {
		return NewDomainError("DUPLICATE_VALUE", duplicate.Error(), http.StatusConflict,
			map[string]any{"field": duplicate.Field})
	}
	var notFound *engine.NotFoundError
	if errors.As(err, &notFound) {
		return NewDomainError("NOT_FOUND", notFound.Error(), http.StatusNotFound,
			map[string]any{"resource": notFound.Resource, "id": notFound.ID})
	}
	var transition *engine.InvalidTransitionError
	if errors.As(err, &transition) {
		return NewDomainError("INVALID_TRANSITION", transition.Error(), http.StatusConflict, nil)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}

	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
