package db

import (
	"errors"
	"fmt"
)

// Domain-level database error sentinels.
var (
	// Tenant and user errors
	ErrTenantNotFound = errors.New("tenant not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrClientNotFound = errors.New("client not found")
	ErrClientExists   = errors.New("a client with this name already exists")

	// Content errors
	ErrContentNotFound = errors.New("content item not found")

	// ErrStateConflict means the content item is no longer in the state the caller read,
	// usually because another actor moved it on first.
	ErrStateConflict = errors.New("content status changed concurrently")

	// ErrInternalGateClosed means no approval link may be issued before internal approval.
	ErrInternalGateClosed = errors.New("content has not been internally approved")

	// Approval link errors
	ErrApprovalLinkNotFound = errors.New("approval link not found")
	ErrApprovalLinkExpired  = errors.New("approval link has expired")
	ErrApprovalLinkResolved = errors.New("approval link has already been resolved")
	ErrDuplicateToken       = errors.New("approval token already exists")

	// ErrApprovalLinkSuperseded means a newer link was issued for the same item.
	// It is a state conflict: only the latest link may decide.
	ErrApprovalLinkSuperseded = fmt.Errorf("%w: a newer approval link was issued", ErrStateConflict)
)
