package approval

import (
	"errors"

	"contentflow/internal/db"
	"contentflow/internal/lifecycle"
	"contentflow/internal/validation"
)

// ErrNotReviewer is returned when a user without the reviewer role touches the internal gate.
var ErrNotReviewer = errors.New("internal approval requires the reviewer role")

// ErrNotAdmin is returned when a non-admin manages users or clients.
var ErrNotAdmin = errors.New("this action requires the admin role")

// Error codes shared by the API, the portal and the resolution metrics.
const (
	CodeNotFound                 = "not_found"
	CodeExpired                  = "expired"
	CodeAlreadyResolved          = "already_resolved"
	CodeStateConflict            = "state_conflict"
	CodeValidation               = "validation_error"
	CodeInternalApprovalRequired = "internal_approval_required"
	CodeIllegalTransition        = "illegal_transition"
	CodeForbidden                = "forbidden"
	CodeConflict                 = "conflict"
	CodeInternal                 = "internal"
)

// Code classifies an error returned by the service.
func Code(err error) string {
	switch {
	case errors.Is(err, db.ErrApprovalLinkNotFound),
		errors.Is(err, db.ErrContentNotFound),
		errors.Is(err, db.ErrClientNotFound),
		errors.Is(err, db.ErrTenantNotFound),
		errors.Is(err, db.ErrUserNotFound):
		return CodeNotFound
	case errors.Is(err, db.ErrApprovalLinkExpired):
		return CodeExpired
	case errors.Is(err, db.ErrApprovalLinkResolved):
		return CodeAlreadyResolved
	case errors.Is(err, db.ErrStateConflict):
		return CodeStateConflict
	case errors.Is(err, validation.ErrInvalid):
		return CodeValidation
	case errors.Is(err, db.ErrInternalGateClosed):
		return CodeInternalApprovalRequired
	case errors.Is(err, lifecycle.ErrIllegalTransition), errors.Is(err, lifecycle.ErrGuardFailed):
		return CodeIllegalTransition
	case errors.Is(err, ErrNotReviewer), errors.Is(err, ErrNotAdmin):
		return CodeForbidden
	case errors.Is(err, db.ErrClientExists):
		return CodeConflict
	}
	return CodeInternal
}
