package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"contentflow/internal/approval"
	"contentflow/internal/db"
	"contentflow/internal/models"
)

// UserStore is the user and tenant persistence behind UserHandler. *db.DB implements it.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, tenantID uuid.UUID) ([]models.User, error)
	UpdateUserRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error
	GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// UserHandler handles the dashboard user and role management endpoints.
type UserHandler struct {
	db UserStore
}

// NewUserHandler creates a new API user handler.
func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{db: store}
}

var validRoles = map[string]bool{
	models.RoleMember:   true,
	models.RoleReviewer: true,
	models.RoleAdmin:    true,
}

// MeResponse is the logged-in user and, once assigned, their agency.
type MeResponse struct {
	User   *models.User   `json:"user"`
	Tenant *models.Tenant `json:"tenant,omitempty"`
}

// Me returns the logged-in dashboard user.
func (h *UserHandler) Me(c fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	resp := MeResponse{User: user}
	if user.TenantID != nil {
		tenant, err := h.db.GetTenantByID(c.Context(), *user.TenantID)
		if err != nil && !errors.Is(err, db.ErrTenantNotFound) {
			return serviceError(c, err, nil)
		}
		resp.Tenant = tenant
	}
	return jsonSuccess(c, resp)
}

// List returns the users of the caller's agency.
func (h *UserHandler) List(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}

	users, err := h.db.ListUsers(c.Context(), sc.tenantID)
	if err != nil {
		return serviceError(c, err, nil)
	}
	return jsonSuccess(c, users)
}

// UpdateRole changes the role of a user in the caller's agency (admin only).
func (h *UserHandler) UpdateRole(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}
	if !sc.user.IsAdmin() {
		return serviceError(c, approval.ErrNotAdmin, nil)
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Role == "" {
		return jsonError(c, fiber.StatusBadRequest, "role is required")
	}
	if !validRoles[body.Role] {
		return jsonError(c, fiber.StatusBadRequest, "invalid role")
	}
	if sc.id == sc.user.ID && body.Role != models.RoleAdmin {
		return jsonError(c, fiber.StatusBadRequest, "cannot change your own role")
	}

	target, err := h.db.GetUserByID(c.Context(), sc.id)
	if err != nil {
		return serviceError(c, err, nil)
	}
	// Users of other agencies are reported as missing.
	if !target.BelongsTo(sc.tenantID) {
		return serviceError(c, db.ErrUserNotFound, nil)
	}

	if err := h.db.UpdateUserRole(c.Context(), sc.tenantID, target.ID, body.Role); err != nil {
		return serviceError(c, err, nil)
	}
	target.Role = body.Role
	return jsonSuccess(c, target)
}
