package api

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"contentflow/internal/approval"
	"contentflow/internal/lifecycle"
	"contentflow/internal/middleware"
	"contentflow/internal/models"
	"contentflow/internal/validation"
)

// ClientStore lists and adds the clients of a tenant.
type ClientStore interface {
	ListClients(ctx context.Context, tenantID uuid.UUID) ([]models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
}

// ContentHandler serves the agency dashboard API. Every route expects
// middleware.RequireTenant to have run.
type ContentHandler struct {
	svc     *approval.Service
	clients ClientStore
}

// NewContentHandler creates a new dashboard content handler.
func NewContentHandler(svc *approval.Service, clients ClientStore) *ContentHandler {
	return &ContentHandler{svc: svc, clients: clients}
}

type contentRequest struct {
	ClientID  string     `json:"client_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	MediaRefs []string   `json:"media_refs"`
	PublishAt *time.Time `json:"publish_at"`
}

// scoped is the caller, its tenant and the :id param of a dashboard request.
type scoped struct {
	user     *models.User
	tenantID uuid.UUID
	id       uuid.UUID
}

// scope reads the request scope. A non-nil *fiber.Error means the request must
// stop and the error be written with failScope.
func scope(c fiber.Ctx) (scoped, *fiber.Error) {
	user, _ := c.Locals("user").(*models.User)
	tenantID, ok := middleware.TenantID(c)
	if !ok || user == nil {
		return scoped{}, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	sc := scoped{user: user, tenantID: tenantID}
	if c.Params("id") == "" {
		return sc, nil
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return scoped{}, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	sc.id = id
	return sc, nil
}

func failScope(c fiber.Ctx, e *fiber.Error) error {
	return jsonError(c, e.Code, e.Message)
}

// ListClients returns the tenant's clients.
func (h *ContentHandler) ListClients(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}
	clients, err := h.clients.ListClients(c.Context(), sc.tenantID)
	if err != nil {
		return serviceError(c, err, nil)
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return jsonSuccess(c, clients)
}

// CreateClient adds a client to the caller's agency (admin only).
func (h *ContentHandler) CreateClient(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}
	if !sc.user.IsAdmin() {
		return serviceError(c, approval.ErrNotAdmin, nil)
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.ValidateClientName(req.Name); err != nil {
		return serviceError(c, err, nil)
	}

	client := &models.Client{
		TenantID: sc.tenantID,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
	}
	if err := h.clients.CreateClient(c.Context(), client); err != nil {
		return serviceError(c, err, nil)
	}
	return jsonCreated(c, client)
}

// ListByClient returns the content items of one client.
func (h *ContentHandler) ListByClient(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}
	items, err := h.svc.ListContent(c.Context(), sc.tenantID, sc.id)
	if err != nil {
		return serviceError(c, err, nil)
	}
	if items == nil {
		items = []models.ContentItem{}
	}
	return jsonSuccess(c, items)
}

// Create stores a new draft content item.
func (h *ContentHandler) Create(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}

	var req contentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid client_id")
	}

	item := &models.ContentItem{
		TenantID:  sc.tenantID,
		ClientID:  clientID,
		Title:     req.Title,
		Body:      req.Body,
		MediaRefs: req.MediaRefs,
		PublishAt: req.PublishAt,
		CreatedBy: &sc.user.ID,
	}
	if err := h.svc.CreateContent(c.Context(), item); err != nil {
		return serviceError(c, err, nil)
	}
	return jsonCreated(c, item)
}

// Get returns one content item.
func (h *ContentHandler) Get(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}
	item, err := h.svc.GetContent(c.Context(), sc.tenantID, sc.id)
	if err != nil {
		return serviceError(c, err, nil)
	}
	item.Actions = lifecycle.Actions(item.Status)
	return jsonSuccess(c, item)
}

// Update replaces the descriptive fields of an editable item.
func (h *ContentHandler) Update(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}

	var req contentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item := &models.ContentItem{
		ID:        sc.id,
		TenantID:  sc.tenantID,
		Title:     req.Title,
		Body:      req.Body,
		MediaRefs: req.MediaRefs,
		PublishAt: req.PublishAt,
	}
	if err := h.svc.UpdateContent(c.Context(), item); err != nil {
		return serviceError(c, err, nil)
	}

	updated, err := h.svc.GetContent(c.Context(), sc.tenantID, sc.id)
	if err != nil {
		return serviceError(c, err, nil)
	}
	return jsonSuccess(c, updated)
}

// SetInternalApproval sets or clears the internal gate.
func (h *ContentHandler) SetInternalApproval(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}

	var req struct {
		Approved bool `json:"approved"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.SetInternalApproval(c.Context(), sc.tenantID, sc.id, req.Approved, sc.user); err != nil {
		return serviceError(c, err, nil)
	}

	item, err := h.svc.GetContent(c.Context(), sc.tenantID, sc.id)
	if err != nil {
		return serviceError(c, err, nil)
	}
	return jsonSuccess(c, item)
}

// IssueLink creates a new approval link and returns its shareable URL.
func (h *ContentHandler) IssueLink(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}

	issued, err := h.svc.IssueLink(c.Context(), sc.tenantID, sc.id, &sc.user.ID)
	if err != nil {
		return serviceError(c, err, nil)
	}
	return jsonCreated(c, issued)
}

// Transition fires a direct lifecycle trigger named in the path.
func (h *ContentHandler) Transition(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}

	var req struct {
		PublishAt *time.Time `json:"publish_at"`
	}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	item, err := h.svc.Transition(c.Context(), sc.tenantID, sc.id, lifecycle.Trigger(c.Params("trigger")), req.PublishAt)
	if err != nil {
		return serviceError(c, err, nil)
	}
	return jsonSuccess(c, item)
}

// History returns every approval link issued for an item, oldest first.
// With ?comments_only=true only adjustment requests are listed.
func (h *ContentHandler) History(c fiber.Ctx) error {
	sc, ferr := scope(c)
	if ferr != nil {
		return failScope(c, ferr)
	}

	commentsOnly := c.Query("comments_only") == "true"
	links, err := h.svc.History(c.Context(), sc.tenantID, sc.id, commentsOnly)
	if err != nil {
		return serviceError(c, err, nil)
	}
	if links == nil {
		links = []models.ApprovalLink{}
	}
	return jsonSuccess(c, models.HistoryResponse{
		ContentID: sc.id.String(),
		Entries:   links,
	})
}
