package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"contentflow/internal/models"
)

// UserLoader loads the dashboard user stored in a session.
type UserLoader interface {
	GetUserBySub(ctx context.Context, sub string) (*models.User, error)
}

// AuthMiddleware handles dashboard authentication via sessions.
type AuthMiddleware struct {
	db UserLoader
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(db UserLoader) *AuthMiddleware {
	return &AuthMiddleware{db: db}
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status": "error",
		"error":  "authentication required",
		"code":   "unauthenticated",
	})
}

// RequireAuth ensures the request carries a logged-in session and loads the user.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return unauthorized(c)
	}

	userSub, ok := sess.Get("user_sub").(string)
	if !ok || userSub == "" {
		return unauthorized(c)
	}

	user, err := m.db.GetUserBySub(c.Context(), userSub)
	if err != nil {
		sess.Destroy()
		return unauthorized(c)
	}

	c.Locals("user", user)
	return c.Next()
}

// RequireTenant ensures the authenticated user belongs to a tenant and exposes
// the tenant id under the "tenant_id" local. Every dashboard query is scoped by it.
func RequireTenant(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return unauthorized(c)
	}
	if user.TenantID == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status": "error",
			"error":  "your account is not assigned to an agency",
			"code":   "forbidden",
		})
	}
	c.Locals("tenant_id", *user.TenantID)
	return c.Next()
}

// TenantID returns the tenant id set by RequireTenant.
func TenantID(c fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("tenant_id").(uuid.UUID)
	return id, ok
}
