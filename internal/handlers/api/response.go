package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"contentflow/internal/approval"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated returns a 201 response with data wrapped in the standard envelope.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// statusForCode maps a service error code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case approval.CodeNotFound:
		return fiber.StatusNotFound
	case approval.CodeExpired:
		return fiber.StatusGone
	case approval.CodeAlreadyResolved,
		approval.CodeStateConflict,
		approval.CodeInternalApprovalRequired,
		approval.CodeIllegalTransition,
		approval.CodeConflict:
		return fiber.StatusConflict
	case approval.CodeValidation:
		return fiber.StatusUnprocessableEntity
	case approval.CodeForbidden:
		return fiber.StatusForbidden
	}
	return fiber.StatusInternalServerError
}

// serviceError writes a service error with its distinct code. Extra fields are
// merged into the envelope, e.g. the existing decision of a resolved link.
func serviceError(c fiber.Ctx, err error, extra fiber.Map) error {
	code := approval.Code(err)
	message := err.Error()
	if code == approval.CodeInternal {
		slog.Error("request failed", "route", c.Route().Path, "error", err)
		message = "internal server error"
	}

	body := fiber.Map{
		"status": "error",
		"error":  message,
		"code":   code,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(statusForCode(code)).JSON(body)
}
