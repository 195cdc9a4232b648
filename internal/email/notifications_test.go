package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"contentflow/internal/config"
	"contentflow/internal/lifecycle"
)

type fakeRecipients struct {
	emails []string
	err    error
}

func (f *fakeRecipients) GetNotificationEmails(ctx context.Context, tenantID, contentID uuid.UUID) ([]string, error) {
	return f.emails, f.err
}

type sentMail struct {
	to      []string
	subject string
}

func newTestNotifier(recipients RecipientGetter) (*Notifier, *[]sentMail) {
	n := NewNotifier(&config.Config{SiteTitle: "Contentflow", BaseURL: "https://review.example.com"}, recipients)
	var sent []sentMail
	n.send = func(to []string, subject, htmlBody, textBody string) error {
		sent = append(sent, sentMail{to: to, subject: subject})
		return nil
	}
	return n, &sent
}

func TestNewNotifier(t *testing.T) {
	n := NewNotifier(&config.Config{}, nil)
	if n.service == nil || n.templates == nil {
		t.Fatal("NewNotifier did not wire service and templates")
	}
	if n.Name() != "email" {
		t.Errorf("Name() = %q", n.Name())
	}
	if n.Enabled() {
		t.Error("Enabled() = true with empty config")
	}
}

func TestNotifier_Notify(t *testing.T) {
	n, sent := newTestNotifier(&fakeRecipients{emails: []string{"team@northwind.example"}})

	if err := n.Notify(context.Background(), testEvent(lifecycle.EventAdjustmentRequested)); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(*sent))
	}
	got := (*sent)[0]
	if len(got.to) != 1 || got.to[0] != "team@northwind.example" {
		t.Errorf("recipients = %v", got.to)
	}
	if !strings.Contains(got.subject, "requested changes") {
		t.Errorf("subject = %q", got.subject)
	}
}

func TestNotifier_Notify_NoRecipients(t *testing.T) {
	n, sent := newTestNotifier(&fakeRecipients{})

	if err := n.Notify(context.Background(), testEvent(lifecycle.EventApproved)); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(*sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(*sent))
	}
}

func TestNotifier_Notify_LookupError(t *testing.T) {
	n, _ := newTestNotifier(&fakeRecipients{err: errors.New("db down")})

	if err := n.Notify(context.Background(), testEvent(lifecycle.EventApproved)); err == nil {
		t.Error("Notify() should return the lookup error")
	}
}

func TestNotifier_Notify_UnknownEvent(t *testing.T) {
	n, sent := newTestNotifier(&fakeRecipients{emails: []string{"x@example.com"}})

	if err := n.Notify(context.Background(), lifecycle.Event{Type: "published"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(*sent) != 0 {
		t.Error("unknown events should not send email")
	}
}
