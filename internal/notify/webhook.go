package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"contentflow/internal/lifecycle"
	"contentflow/internal/validation"
)

// Webhook request headers.
const (
	HeaderEvent     = "X-Contentflow-Event"
	HeaderSignature = "X-Contentflow-Signature"
)

// WebhookURLGetter looks up where a tenant wants its outcome webhooks.
type WebhookURLGetter interface {
	GetTenantWebhookURL(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// WebhookNotifier POSTs events as JSON to the tenant's webhook URL.
// When a secret is configured the body is signed with HMAC-SHA256.
type WebhookNotifier struct {
	db     WebhookURLGetter
	secret []byte
	client *http.Client

	// checkURL guards against requests to private addresses.
	checkURL func(string) (bool, string)
}

// NewWebhookNotifier creates a webhook sink.
func NewWebhookNotifier(db WebhookURLGetter, secret string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		db:     db,
		secret: []byte(secret),
		client: &http.Client{
			Timeout: timeout,
			// Redirects could point at an internal address after validation.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		checkURL: validation.ValidateWebhookURL,
	}
}

// Name identifies the sink in logs and metrics.
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// Sign returns the signature header value for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Notify delivers ev. Tenants without a webhook URL are skipped.
func (w *WebhookNotifier) Notify(ctx context.Context, ev lifecycle.Event) error {
	url, err := w.db.GetTenantWebhookURL(ctx, ev.TenantID)
	if err != nil {
		return fmt.Errorf("looking up webhook url: %w", err)
	}
	if url == "" {
		return nil
	}
	if ok, msg := w.checkURL(url); !ok {
		return fmt.Errorf("webhook url rejected: %s", msg)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Contentflow-Webhook/1.0")
	req.Header.Set(HeaderEvent, string(ev.Type))
	if len(w.secret) > 0 {
		req.Header.Set(HeaderSignature, Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
