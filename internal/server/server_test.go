package server

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"contentflow/internal/approval"
	"contentflow/internal/config"
	"contentflow/internal/testutil"
)

// TestEncryptCookieSessionRoundTrip verifies that the encryptcookie and
// session middleware stack survives a client replaying encrypted session
// cookies across requests.
func TestEncryptCookieSessionRoundTrip(t *testing.T) {
	app := fiber.New()
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: deriveEncryptionKey("test-secret-that-is-long-enough-for-production"),
	}))
	sessionMiddleware, _ := session.NewWithStore(session.Config{
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	app.Use(sessionMiddleware)

	app.Post("/session-set", func(c fiber.Ctx) error {
		session.FromContext(c).Set("user_sub", "alice")
		return c.SendString("ok")
	})
	app.Get("/session-get", func(c fiber.Ctx) error {
		val, _ := session.FromContext(c).Get("user_sub").(string)
		return c.SendString(val)
	})

	req, _ := http.NewRequest(http.MethodPost, "/session-set", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request 1 failed: %v", err)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("request 1: no cookies returned")
	}

	for i := range 3 {
		req, _ := http.NewRequest(http.MethodGet, "/session-get", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("replay %d failed: %v", i, err)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "alice" {
			t.Fatalf("replay %d: body = %q, want %q", i, body, "alice")
		}
	}
}

func TestDeriveEncryptionKey(t *testing.T) {
	a := deriveEncryptionKey("one")
	if a != deriveEncryptionKey("one") {
		t.Error("key derivation must be deterministic")
	}
	if a == deriveEncryptionKey("two") {
		t.Error("different secrets must give different keys")
	}
	if len(a) != 44 {
		t.Errorf("encoded key length = %d, want 44", len(a))
	}
}

func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()
	cfg := &config.Config{
		Env:             "test",
		BaseURL:         "http://localhost:3000",
		SessionSecret:   "test-secret-that-is-long-enough-for-production",
		SiteTitle:       "Contentflow",
		PublicRateLimit: rateLimit,
	}
	store := testutil.NewMemStore()
	svc := approval.NewService(store, nil, nil, approval.Options{BaseURL: cfg.BaseURL})

	s := New(cfg, nil)
	s.RegisterRoutes(svc, store, nil)
	return s
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, 100)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"health", http.MethodGet, "/healthz", fiber.StatusOK, `"database":"ok"`},
		{"metrics", http.MethodGet, "/metrics", fiber.StatusOK, "go_goroutines"},
		{"dashboard requires login", http.MethodGet, "/api/v1/clients", fiber.StatusUnauthorized, `"code":"unauthenticated"`},
		{"role change requires login", http.MethodPut, "/api/v1/users/" + uuid.NewString() + "/role", fiber.StatusUnauthorized, `"code":"unauthenticated"`},
		{"unknown token json", http.MethodGet, "/approvals/" + strings.Repeat("A", 32), fiber.StatusNotFound, `"code":"not_found"`},
		{"unknown token page", http.MethodGet, "/approve?token=nope", fiber.StatusNotFound, "Link not found"},
		{"unknown route", http.MethodGet, "/nowhere", fiber.StatusNotFound, "Contentflow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.path, nil)
			resp, err := s.App.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body %q missing %q", body, tt.wantBody)
			}
		})
	}
}

func TestPublicRoutesAreRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	path := "/approvals/" + strings.Repeat("A", 32)

	var last int
	for range 3 {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		last = resp.StatusCode
	}
	if last != fiber.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}

	// Health checks are not throttled.
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
}
