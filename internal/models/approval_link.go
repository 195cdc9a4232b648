package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the state of a single approval link.
type ApprovalStatus string

// Approval link states. A link leaves pending exactly once.
const (
	ApprovalPending             ApprovalStatus = "pending"
	ApprovalApproved            ApprovalStatus = "approved"
	ApprovalAdjustmentRequested ApprovalStatus = "adjustment_requested"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalAdjustmentRequested:
		return true
	}
	return false
}

// Resolved reports whether the link already carries a decision.
func (s ApprovalStatus) Resolved() bool {
	return s == ApprovalApproved || s == ApprovalAdjustmentRequested
}

// ApprovalLink is an immutable record of one issued approval token and its eventual decision.
type ApprovalLink struct {
	ID           uuid.UUID      `json:"id"`
	TenantID     uuid.UUID      `json:"tenant_id"`
	ContentID    uuid.UUID      `json:"content_id"`
	ClientID     uuid.UUID      `json:"client_id"`
	Token        string         `json:"-"`
	Status       ApprovalStatus `json:"status"`
	ReviewerName *string        `json:"reviewer_name"`
	Comment      *string        `json:"comment"`
	IssuedBy     *uuid.UUID     `json:"issued_by,omitempty"`
	ResolvedAt   *time.Time     `json:"resolved_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	CreatedAt    time.Time      `json:"created_at"`

	// Non-DB fields, populated via JOIN for display
	ClientName   string `json:"client_name,omitempty"`
	ContentTitle string `json:"content_title,omitempty"`
}

// Expired reports whether the link is past its validity window at now.
func (l *ApprovalLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// IssuedLink is an approval link together with the shareable URL built from it.
type IssuedLink struct {
	Link *ApprovalLink `json:"link"`
	URL  string        `json:"url"`
}

// ApprovalView is what the client sees when opening a link.
type ApprovalView struct {
	Link    *ApprovalLink `json:"link"`
	Content *ContentItem  `json:"content"`
}
