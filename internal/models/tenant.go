package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an agency account; all content and clients are scoped to one.
type Tenant struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	WebhookURL   *string   `json:"webhook_url,omitempty"`
	NotifyEmails []string  `json:"notify_emails"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
