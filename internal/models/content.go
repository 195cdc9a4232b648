package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentStatus is the lifecycle state of a content item.
type ContentStatus string

// Content lifecycle states.
const (
	ContentDraft               ContentStatus = "draft"
	ContentInProduction        ContentStatus = "in_production"
	ContentPendingApproval     ContentStatus = "pending_approval"
	ContentAdjustmentRequested ContentStatus = "adjustment_requested"
	ContentApproved            ContentStatus = "approved"
	ContentScheduled           ContentStatus = "scheduled"
	ContentPublished           ContentStatus = "published"
	ContentCanceled            ContentStatus = "canceled"
)

// ContentStatuses lists every known content status.
var ContentStatuses = []ContentStatus{
	ContentDraft,
	ContentInProduction,
	ContentPendingApproval,
	ContentAdjustmentRequested,
	ContentApproved,
	ContentScheduled,
	ContentPublished,
	ContentCanceled,
}

// Valid reports whether s is one of the known content statuses.
func (s ContentStatus) Valid() bool {
	for _, known := range ContentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Editable reports whether descriptive fields may still change in this state.
func (s ContentStatus) Editable() bool {
	return s == ContentDraft || s == ContentInProduction || s == ContentAdjustmentRequested
}

// ContentItem is a piece of client content moving through production and approval.
type ContentItem struct {
	ID                 uuid.UUID     `json:"id"`
	TenantID           uuid.UUID     `json:"tenant_id"`
	ClientID           uuid.UUID     `json:"client_id"`
	Status             ContentStatus `json:"status"`
	InternalApproved   bool          `json:"internal_approved"`
	InternalApprovedBy *uuid.UUID    `json:"internal_approved_by,omitempty"`
	InternalApprovedAt *time.Time    `json:"internal_approved_at,omitempty"`
	Title              string        `json:"title"`
	Body               string        `json:"body"`
	MediaRefs          []string      `json:"media_refs"`
	PublishAt          *time.Time    `json:"publish_at,omitempty"`
	CreatedBy          *uuid.UUID    `json:"created_by,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`

	// Populated via JOIN for display
	ClientName string `json:"client_name,omitempty"`
	// Populated by the dashboard API: triggers defined for the current status.
	Actions []string `json:"actions,omitempty"`
}
