package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"contentflow/internal/config"
	"contentflow/internal/db"
	"contentflow/internal/models"
)

// AuthHandler handles OIDC authentication for agency dashboard users.
type AuthHandler struct {
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
	db           *db.DB
	cfg          *config.Config
	roles        *config.YAMLConfig
}

// NewAuthHandler creates a new auth handler with OIDC configuration.
// roles may be nil; it grants configured admins and reviewers their role on login.
func NewAuthHandler(ctx context.Context, cfg *config.Config, database *db.DB, roles *config.YAMLConfig) (*AuthHandler, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, err
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &AuthHandler{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID}),
		db:           database,
		cfg:          cfg,
		roles:        roles,
	}, nil
}

// Login initiates the OIDC login flow.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	state, err := generateState()
	if err != nil {
		return err
	}

	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}
	sess.Set("oauth_state", state)

	return c.Redirect().To(h.oauth2Config.AuthCodeURL(state))
}

// Callback handles the OIDC callback after authentication.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}

	savedState, _ := sess.Get("oauth_state").(string)
	if savedState == "" || savedState != c.Query("state") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid state")
	}
	sess.Delete("oauth_state")

	oauth2Token, err := h.oauth2Config.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to exchange code")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "missing id_token")
	}

	idToken, err := h.verifier.Verify(c.Context(), rawIDToken)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id_token")
	}

	claims := make(map[string]any)
	if err := idToken.Claims(&claims); err != nil {
		return err
	}

	// Some providers only put minimal claims in the ID token.
	userInfo, err := h.provider.UserInfo(c.Context(), oauth2.StaticTokenSource(oauth2Token))
	if err == nil {
		var userInfoClaims map[string]any
		if err := userInfo.Claims(&userInfoClaims); err == nil {
			for k, v := range userInfoClaims {
				claims[k] = v
			}
		}
	} else {
		slog.Warn("failed to fetch userinfo", "error", err)
	}

	if h.cfg.IsDev() {
		slog.Debug("OIDC claims received", "claims", claims)
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	user := &models.User{
		Sub:     sub,
		Email:   email,
		Name:    name,
		Picture: picture,
	}
	if err := h.db.UpsertUser(c.Context(), user); err != nil {
		return err
	}

	if slug := tenantClaim(claims, h.cfg.OIDCTenantClaim); slug != "" {
		if err := assignMembership(c.Context(), h.db, h.roles, user, slug); err != nil {
			slog.Error("failed to assign membership", "user_id", user.ID, "slug", slug, "error", err)
		}
	}

	sess.Set("user_sub", sub)
	slog.Info("user logged in", "user_id", user.ID)

	return c.Redirect().To("/api/v1/me")
}

// Logout clears the user session.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if sess := session.FromContext(c); sess != nil {
		if err := sess.Destroy(); err != nil {
			slog.Warn("failed to destroy session", "error", err)
		}
	}
	return c.Redirect().To("/")
}

// accountStore is what assigning a tenant and role on login needs. *db.DB implements it.
type accountStore interface {
	GetOrCreateTenant(ctx context.Context, slug string) (*models.Tenant, error)
	UpdateUserTenant(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID) error
	UpdateUserRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error
}

var roleRank = map[string]int{
	models.RoleMember:   0,
	models.RoleReviewer: 1,
	models.RoleAdmin:    2,
}

// assignMembership puts user in the tenant named by slug and applies the role
// roles grants there. Config only raises a role; demotions go through the API.
func assignMembership(ctx context.Context, store accountStore, roles *config.YAMLConfig, user *models.User, slug string) error {
	tenant, err := store.GetOrCreateTenant(ctx, slug)
	if err != nil {
		return fmt.Errorf("resolving tenant %q: %w", slug, err)
	}
	if err := store.UpdateUserTenant(ctx, user.ID, &tenant.ID); err != nil {
		return fmt.Errorf("assigning tenant: %w", err)
	}
	user.TenantID = &tenant.ID

	role := roles.RoleFor(slug, user.Email)
	if role == "" || roleRank[role] <= roleRank[user.Role] {
		return nil
	}
	if err := store.UpdateUserRole(ctx, tenant.ID, user.ID, role); err != nil {
		return fmt.Errorf("granting role %s: %w", role, err)
	}
	slog.Info("role granted from config", "user_id", user.ID, "tenant_id", tenant.ID, "role", role)
	user.Role = role
	return nil
}

// tenantClaim reads the tenant slug from the configured claim. Array claims use the first value.
func tenantClaim(claims map[string]any, claim string) string {
	if claim == "" {
		return ""
	}
	switch v := claims[claim].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	}
	return ""
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
