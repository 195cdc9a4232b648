package email

import (
	"strings"
	"testing"

	"contentflow/internal/config"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantEnabled bool
	}{
		{
			name: "enabled when all SMTP settings configured",
			cfg: &config.Config{
				SMTPEnabled: true,
				SMTPHost:    "smtp.example.com",
				SMTPPort:    587,
				SMTPFrom:    "noreply@example.com",
			},
			wantEnabled: true,
		},
		{
			name: "disabled when SMTPEnabled is false",
			cfg: &config.Config{
				SMTPEnabled: false,
				SMTPHost:    "smtp.example.com",
				SMTPPort:    587,
				SMTPFrom:    "noreply@example.com",
			},
			wantEnabled: false,
		},
		{
			name: "disabled when SMTPHost is empty",
			cfg: &config.Config{
				SMTPEnabled: true,
				SMTPPort:    587,
				SMTPFrom:    "noreply@example.com",
			},
			wantEnabled: false,
		},
		{
			name:        "disabled with empty config",
			cfg:         &config.Config{},
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.cfg)
			if svc.IsEnabled() != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", svc.IsEnabled(), tt.wantEnabled)
			}
		})
	}
}

func TestService_Send_Disabled(t *testing.T) {
	svc := NewService(&config.Config{SMTPEnabled: false})

	if err := svc.Send([]string{"test@example.com"}, "Test", "<p>HTML</p>", "Text"); err != nil {
		t.Errorf("Send() error = %v, want nil when disabled", err)
	}
}

func TestService_Send_NoRecipients(t *testing.T) {
	svc := NewService(&config.Config{
		SMTPEnabled: true,
		SMTPHost:    "smtp.invalid",
		SMTPPort:    25,
		SMTPFrom:    "noreply@example.com",
	})

	if err := svc.Send(nil, "Test", "<p>HTML</p>", "Text"); err != nil {
		t.Errorf("Send() error = %v, want nil without recipients", err)
	}
}

func TestService_BuildMessage(t *testing.T) {
	svc := NewService(&config.Config{
		SMTPFrom:     "noreply@example.com",
		SMTPFromName: "Contentflow",
	})

	msg := svc.buildMessage([]string{"a@example.com", "b@example.com"}, "Hello", "<p>HTML</p>", "Plain")

	checks := []string{
		"From: Contentflow <noreply@example.com>\r\n",
		"To: a@example.com, b@example.com\r\n",
		"Subject: Hello\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"Plain\r\n",
		"<p>HTML</p>\r\n",
		"--" + boundary + "--\r\n",
	}
	for _, check := range checks {
		if !strings.Contains(msg, check) {
			t.Errorf("message missing %q", check)
		}
	}
	if strings.Index(msg, "text/plain") > strings.Index(msg, "text/html") {
		t.Error("plain text part should come before the HTML part")
	}
}

func TestService_BuildMessage_NoFromName(t *testing.T) {
	svc := NewService(&config.Config{SMTPFrom: "noreply@example.com"})

	msg := svc.buildMessage([]string{"a@example.com"}, "Hello", "", "Plain only")
	if !strings.Contains(msg, "From: noreply@example.com\r\n") {
		t.Error("expected bare From address")
	}
	if strings.Contains(msg, "text/html") {
		t.Error("empty HTML body should be omitted")
	}
}
