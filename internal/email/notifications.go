package email

import (
	"context"

	"github.com/google/uuid"

	"contentflow/internal/config"
	"contentflow/internal/lifecycle"
)

// RecipientGetter finds who to tell about a decision on a content item.
type RecipientGetter interface {
	GetNotificationEmails(ctx context.Context, tenantID, contentID uuid.UUID) ([]string, error)
}

// Notifier emails the agency when a client decides on content.
type Notifier struct {
	service   *Service
	templates *Templates
	db        RecipientGetter

	// send is swapped in tests.
	send func(to []string, subject, htmlBody, textBody string) error
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, db RecipientGetter) *Notifier {
	n := &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		db:        db,
	}
	n.send = n.service.Send
	return n
}

// Name identifies the sink in logs and metrics.
func (n *Notifier) Name() string {
	return "email"
}

// Enabled reports whether SMTP is configured.
func (n *Notifier) Enabled() bool {
	return n.service.IsEnabled()
}

// Notify sends the outcome email for ev. Unknown event types are ignored.
func (n *Notifier) Notify(ctx context.Context, ev lifecycle.Event) error {
	subject, htmlBody, textBody, ok := n.templates.ForEvent(ev)
	if !ok {
		return nil
	}

	emails, err := n.db.GetNotificationEmails(ctx, ev.TenantID, ev.ContentID)
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		return nil
	}

	return n.send(emails, subject, htmlBody, textBody)
}
