package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"contentflow/internal/models"
)

// EventType names an outcome the state machine announces to notifiers.
type EventType string

// Outcome events emitted after an external decision is committed.
const (
	EventApproved            EventType = "approved"
	EventAdjustmentRequested EventType = "adjustment_requested"
)

// Event is emitted once a client decision has been durably recorded.
// Consumers must treat it as informational: the transition it describes is already committed.
type Event struct {
	Type         EventType `json:"event"`
	TenantID     uuid.UUID `json:"tenant_id"`
	ContentID    uuid.UUID `json:"content_id"`
	ContentTitle string    `json:"content_title"`
	ClientName   string    `json:"client_name"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Comment      *string   `json:"comment,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventForDecision builds the outcome event for a resolved link.
func EventForDecision(link *models.ApprovalLink, content *models.ContentItem) Event {
	ev := Event{
		TenantID:     link.TenantID,
		ContentID:    link.ContentID,
		ClientName:   link.ClientName,
		Comment:      link.Comment,
		ContentTitle: link.ContentTitle,
	}
	if content != nil {
		ev.ContentTitle = content.Title
		if ev.ClientName == "" {
			ev.ClientName = content.ClientName
		}
	}
	if link.ReviewerName != nil {
		ev.ReviewerName = *link.ReviewerName
	}
	if link.ResolvedAt != nil {
		ev.OccurredAt = *link.ResolvedAt
	}
	if link.Status == models.ApprovalApproved {
		ev.Type = EventApproved
	} else {
		ev.Type = EventAdjustmentRequested
	}
	return ev
}

// Emitter receives events from the state machine. Emit must not block.
type Emitter interface {
	Emit(Event)
}
