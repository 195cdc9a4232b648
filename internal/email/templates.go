package email

import (
	"fmt"
	"html"

	"github.com/google/uuid"

	"contentflow/internal/config"
	"contentflow/internal/lifecycle"
)

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0f766e; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .button { display: inline-block; background: #0f766e; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .success { color: #059669; }
        .warning { color: #d97706; }
        blockquote { border-left: 3px solid #d97706; margin: 10px 0; padding-left: 12px; color: #374151; white-space: pre-wrap; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>This email was sent by %s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content, html.EscapeString(t.cfg.SiteTitle), t.cfg.BaseURL, t.cfg.BaseURL)
}

func (t *Templates) historyURL(contentID uuid.UUID) string {
	return fmt.Sprintf("%s/api/v1/content/%s/approval-history", t.cfg.BaseURL, contentID)
}

// ClientApproved generates email for the agency when a client approves content.
func (t *Templates) ClientApproved(ev lifecycle.Event) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] %s approved \"%s\"", t.cfg.SiteTitle, ev.ClientName, ev.ContentTitle)

	content := fmt.Sprintf(`
        <p>Your client has approved a piece of content.</p>

        <div class="info-box">
            <p><span class="label">Content:</span> %s</p>
            <p><span class="label">Client:</span> %s</p>
            <p><span class="label">Approved by:</span> %s</p>
            <p><span class="label">Status:</span> <span class="success">Approved</span></p>
            <p><span class="label">When:</span> %s</p>
        </div>

        <p>It can now be scheduled for publishing.</p>
        <p style="text-align: center;">
            <a href="%s" class="button">View approval history</a>
        </p>
    `,
		html.EscapeString(ev.ContentTitle),
		html.EscapeString(ev.ClientName),
		html.EscapeString(ev.ReviewerName),
		ev.OccurredAt.UTC().Format("2006-01-02 15:04 MST"),
		t.historyURL(ev.ContentID),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Content approved by your client

Content: %s
Client: %s
Approved by: %s
When: %s

It can now be scheduled for publishing.
History: %s

--
%s
%s`,
		ev.ContentTitle,
		ev.ClientName,
		ev.ReviewerName,
		ev.OccurredAt.UTC().Format("2006-01-02 15:04 MST"),
		t.historyURL(ev.ContentID),
		t.cfg.SiteTitle,
		t.cfg.BaseURL,
	)

	return
}

// AdjustmentRequested generates email for the agency when a client asks for changes.
func (t *Templates) AdjustmentRequested(ev lifecycle.Event) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] %s requested changes to \"%s\"", t.cfg.SiteTitle, ev.ClientName, ev.ContentTitle)

	comment := ""
	if ev.Comment != nil {
		comment = *ev.Comment
	}

	content := fmt.Sprintf(`
        <p>Your client asked for adjustments before approving.</p>

        <div class="info-box">
            <p><span class="label">Content:</span> %s</p>
            <p><span class="label">Client:</span> %s</p>
            <p><span class="label">Requested by:</span> %s</p>
            <p><span class="label">Status:</span> <span class="warning">Adjustment requested</span></p>
            <p><span class="label">Comment:</span></p>
            <blockquote>%s</blockquote>
        </div>

        <p style="text-align: center;">
            <a href="%s" class="button">View approval history</a>
        </p>
    `,
		html.EscapeString(ev.ContentTitle),
		html.EscapeString(ev.ClientName),
		html.EscapeString(ev.ReviewerName),
		html.EscapeString(comment),
		t.historyURL(ev.ContentID),
	)

	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`Your client requested changes

Content: %s
Client: %s
Requested by: %s

Comment:
%s

History: %s

--
%s
%s`,
		ev.ContentTitle,
		ev.ClientName,
		ev.ReviewerName,
		comment,
		t.historyURL(ev.ContentID),
		t.cfg.SiteTitle,
		t.cfg.BaseURL,
	)

	return
}

// ForEvent picks the template for an outcome event.
func (t *Templates) ForEvent(ev lifecycle.Event) (subject, htmlBody, textBody string, ok bool) {
	switch ev.Type {
	case lifecycle.EventApproved:
		subject, htmlBody, textBody = t.ClientApproved(ev)
		return subject, htmlBody, textBody, true
	case lifecycle.EventAdjustmentRequested:
		subject, htmlBody, textBody = t.AdjustmentRequested(ev)
		return subject, htmlBody, textBody, true
	}
	return "", "", "", false
}
