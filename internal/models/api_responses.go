package models

import "time"

// DecisionResponse is returned by the public resolver endpoints.
type DecisionResponse struct {
	Status       ApprovalStatus `json:"status"`
	ContentState ContentStatus  `json:"content_status,omitempty"`
	ReviewerName *string        `json:"reviewer_name,omitempty"`
	Comment      *string        `json:"comment,omitempty"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty"`
}

// HistoryResponse is the internal audit trail for a content item.
type HistoryResponse struct {
	ContentID string         `json:"content_id"`
	Entries   []ApprovalLink `json:"entries"`
}
