package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"contentflow/internal/approval"
	"contentflow/internal/config"
	"contentflow/internal/db"
	"contentflow/internal/models"
	"contentflow/internal/validation"
)

// PortalHandler renders the client review page reached through a shared link.
// Clients never log in; the token in the URL is their only credential.
type PortalHandler struct {
	svc *approval.Service
	cfg *config.Config
}

// NewPortalHandler creates a new portal handler.
func NewPortalHandler(svc *approval.Service, cfg *config.Config) *PortalHandler {
	return &PortalHandler{svc: svc, cfg: cfg}
}

func (h *PortalHandler) render(c fiber.Ctx, status int, name string, data fiber.Map) error {
	data["SiteTitle"] = h.cfg.SiteTitle
	return c.Status(status).Render(name, data)
}

func (h *PortalHandler) renderError(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	title, message := "Something went wrong", "Please try again later."
	switch approval.Code(err) {
	case approval.CodeNotFound:
		status = fiber.StatusNotFound
		title, message = "Link not found", "This approval link is not valid. Check that you copied the whole address."
	case approval.CodeExpired:
		status = fiber.StatusGone
		title, message = "Link expired", "This approval link has expired. Ask your agency to send a new one."
	case approval.CodeStateConflict:
		status = fiber.StatusConflict
		title, message = "No longer open for review", "This content is no longer waiting for your approval. Your agency may have sent a newer link."
	default:
		slog.Error("portal request failed", "error", err)
	}
	return h.render(c, status, "error", fiber.Map{"Title": title, "Message": message})
}

func (h *PortalHandler) renderDecision(c fiber.Ctx, status int, link *models.ApprovalLink, content *models.ContentItem) error {
	title := "Thanks for your feedback"
	if link.Status == models.ApprovalApproved {
		title = "Content approved"
	}
	return h.render(c, status, "decision", fiber.Map{
		"Title":   title,
		"Link":    link,
		"Content": content,
	})
}

// Show renders the review form for a pending link, or the recorded decision.
func (h *PortalHandler) Show(c fiber.Ctx) error {
	view, err := h.svc.View(c.Context(), c.Query("token"))
	if err != nil {
		return h.renderError(c, err)
	}
	if view.Link.Status.Resolved() {
		return h.renderDecision(c, fiber.StatusOK, view.Link, view.Content)
	}
	return h.render(c, fiber.StatusOK, "approve", fiber.Map{
		"Title":   view.Content.Title,
		"Token":   c.Query("token"),
		"Link":    view.Link,
		"Content": view.Content,

		"ReviewerName": "",
		"Comment":      "",
		"Error":        "",
	})
}

// Submit records the decision posted from the review form.
func (h *PortalHandler) Submit(c fiber.Ctx) error {
	tok := c.FormValue("token")
	reviewerName := c.FormValue("reviewer_name")
	comment := c.FormValue("comment")

	var (
		link *models.ApprovalLink
		err  error
	)
	switch c.FormValue("action") {
	case "approve":
		link, err = h.svc.Approve(c.Context(), tok, reviewerName)
	case "request_adjustment":
		link, err = h.svc.RequestAdjustment(c.Context(), tok, reviewerName, comment)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown action")
	}

	switch {
	case err == nil:
		return h.renderDecision(c, fiber.StatusOK, link, nil)
	case errors.Is(err, db.ErrApprovalLinkResolved) && link != nil:
		return h.renderDecision(c, fiber.StatusConflict, link, nil)
	case approval.Code(err) == approval.CodeValidation:
		view, viewErr := h.svc.View(c.Context(), tok)
		if viewErr != nil {
			return h.renderError(c, viewErr)
		}
		return h.render(c, fiber.StatusUnprocessableEntity, "approve", fiber.Map{
			"Title":        view.Content.Title,
			"Token":        tok,
			"Link":         view.Link,
			"Content":      view.Content,
			"ReviewerName": reviewerName,
			"Comment":      comment,
			"Error":        validationMessage(err),
		})
	}
	return h.renderError(c, err)
}

func validationMessage(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return "Please check your input."
}
