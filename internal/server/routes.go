package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contentflow/internal/approval"
	"contentflow/internal/handlers"
	"contentflow/internal/handlers/api"
	"contentflow/internal/middleware"
)

// Store is what the HTTP layer reads directly; everything else goes through the service.
type Store interface {
	middleware.UserLoader
	api.ClientStore
	api.UserStore
	api.Pinger
}

// RegisterRoutes registers all application routes. auth may be nil, in which
// case the dashboard API is still mounted but nobody can log in.
func (s *Server) RegisterRoutes(svc *approval.Service, store Store, auth *handlers.AuthHandler) {
	authMiddleware := middleware.NewAuthMiddleware(store)

	health := api.NewHealthHandler(store)
	public := api.NewApprovalHandler(svc)
	portal := handlers.NewPortalHandler(svc, s.Cfg)
	content := api.NewContentHandler(svc, store)
	users := api.NewUserHandler(store)

	s.App.Get("/healthz", health.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Client-facing routes: the token is the credential, so they are rate limited instead.
	limit := s.publicLimiter()
	s.App.Get("/approve", limit, portal.Show)
	s.App.Post("/approve", limit, portal.Submit)
	s.App.Get("/approvals/:token", limit, public.View)
	s.App.Post("/approvals/:token/approve", limit, public.Approve)
	s.App.Post("/approvals/:token/request-adjustment", limit, public.RequestAdjustment)

	if auth != nil {
		s.App.Get("/auth/login", auth.Login)
		s.App.Get("/auth/callback", auth.Callback)
		s.App.Get("/auth/logout", auth.Logout)
	} else {
		slog.Warn("OIDC is not configured; dashboard login is disabled")
	}

	// Dashboard API
	v1 := s.App.Group("/api/v1", authMiddleware.RequireAuth)
	v1.Get("/me", users.Me)
	v1.Get("/users", middleware.RequireTenant, users.List)
	v1.Put("/users/:id/role", middleware.RequireTenant, users.UpdateRole)
	v1.Get("/clients", middleware.RequireTenant, content.ListClients)
	v1.Post("/clients", middleware.RequireTenant, content.CreateClient)
	v1.Get("/clients/:id/content", middleware.RequireTenant, content.ListByClient)
	v1.Post("/content", middleware.RequireTenant, content.Create)
	v1.Get("/content/:id", middleware.RequireTenant, content.Get)
	v1.Put("/content/:id", middleware.RequireTenant, content.Update)
	v1.Post("/content/:id/internal-approval", middleware.RequireTenant, content.SetInternalApproval)
	v1.Post("/content/:id/approval-links", middleware.RequireTenant, content.IssueLink)
	v1.Post("/content/:id/transitions/:trigger", middleware.RequireTenant, content.Transition)
	v1.Get("/content/:id/approval-history", middleware.RequireTenant, content.History)
}
