package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kmfa/internal/auth"
)

func statusForKind(kind auth.Kind) int {
	switch kind {
	case auth.KindValidation, auth.KindSetupRequired, auth.KindNotEnabled:
		return fiber.StatusBadRequest
	case auth.KindConflict:
		return fiber.StatusConflict
	case auth.KindUnauthenticated, auth.KindMfaRequired, auth.KindInvalidMfaCode:
		return fiber.StatusUnauthorized
	case auth.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// sendError writes err in the error envelope. Anything that is not an
// *auth.Error is logged and reported as an internal error.
func sendError(ctx *fiber.Ctx, err error) error {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		slog.Error("unexpected error", "path", ctx.Path(), "error", err)
		authErr = auth.ErrInternal
	}
	code := statusForKind(authErr.Kind)
	resp := NewErrorResponse(code, authErr.Message, APIErrorDetail{
		Domain:  "auth",
		Reason:  authErr.Reason,
		Message: authErr.Message,
	})
	resp.Error.Status = string(authErr.Kind)
	if authErr.Kind == auth.KindUnauthenticated {
		ctx.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	return ctx.Status(code).JSON(resp)
}

var invalidBodyDetails = []APIErrorDetail{{
	Domain:  "validation",
	Reason:  "invalid_body",
	Message: "Request body must be a JSON object.",
}}

func sendValidationError(ctx *fiber.Ctx, details []APIErrorDetail) error {
	resp := NewErrorResponse(fiber.StatusBadRequest, "Invalid request.", details...)
	resp.Error.Status = string(auth.KindValidation)
	return ctx.Status(fiber.StatusBadRequest).JSON(resp)
}
