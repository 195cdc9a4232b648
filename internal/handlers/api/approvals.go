package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"contentflow/internal/approval"
	"contentflow/internal/models"
)

// ApprovalHandler serves the public, token-authenticated resolver endpoints.
type ApprovalHandler struct {
	svc *approval.Service
}

// NewApprovalHandler creates a new public approval handler.
func NewApprovalHandler(svc *approval.Service) *ApprovalHandler {
	return &ApprovalHandler{svc: svc}
}

type decisionRequest struct {
	ReviewerName string `json:"reviewer_name"`
	Comment      string `json:"comment"`
}

func parseDecision(c fiber.Ctx) (decisionRequest, error) {
	var req decisionRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	err := json.Unmarshal(c.Body(), &req)
	return req, err
}

func decisionOf(link *models.ApprovalLink) models.DecisionResponse {
	return models.DecisionResponse{
		Status:       link.Status,
		ReviewerName: link.ReviewerName,
		Comment:      link.Comment,
		ResolvedAt:   link.ResolvedAt,
	}
}

// resolutionError adds the current link state to resolver errors so a
// revisited link shows its existing decision.
func resolutionError(c fiber.Ctx, err error, link *models.ApprovalLink) error {
	if link == nil {
		return serviceError(c, err, nil)
	}
	return serviceError(c, err, fiber.Map{"decision": decisionOf(link)})
}

// View returns the content under review and the link's current state.
func (h *ApprovalHandler) View(c fiber.Ctx) error {
	view, err := h.svc.View(c.Context(), c.Params("token"))
	if err != nil {
		var link *models.ApprovalLink
		if view != nil {
			link = view.Link
		}
		return resolutionError(c, err, link)
	}
	return jsonSuccess(c, view)
}

// Approve records the client's approval.
func (h *ApprovalHandler) Approve(c fiber.Ctx) error {
	req, err := parseDecision(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	link, err := h.svc.Approve(c.Context(), c.Params("token"), req.ReviewerName)
	if err != nil {
		return resolutionError(c, err, link)
	}

	resp := decisionOf(link)
	resp.ContentState = models.ContentApproved
	return jsonSuccess(c, resp)
}

// RequestAdjustment records the client's change request. A comment is required.
func (h *ApprovalHandler) RequestAdjustment(c fiber.Ctx) error {
	req, err := parseDecision(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	link, err := h.svc.RequestAdjustment(c.Context(), c.Params("token"), req.ReviewerName, req.Comment)
	if err != nil {
		return resolutionError(c, err, link)
	}

	resp := decisionOf(link)
	resp.ContentState = models.ContentAdjustmentRequested
	return jsonSuccess(c, resp)
}
