package api

import (
	"github.com/gofiber/fiber/v2"
)

type MfaHandler struct {
	authService AuthService
}

func (h *MfaHandler) GetStatus(ctx *fiber.Ctx) error {
	status, err := h.authService.GetMfaStatus(ctx.UserContext(), principalFrom(ctx))
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(status))
}

// PostSetup returns the secret and the backup codes. This is the only time
// either is shown in plaintext.
func (h *MfaHandler) PostSetup(ctx *fiber.Ctx) error {
	result, err := h.authService.SetupMfa(ctx.UserContext(), principalFrom(ctx))
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(result))
}

func (h *MfaHandler) PostVerify(ctx *fiber.Ctx) error {
	var req mfaCodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return sendValidationError(ctx, invalidBodyDetails)
	}
	if details := collect(validateMfaCode(req.Code)); len(details) > 0 {
		return sendValidationError(ctx, details)
	}

	status, err := h.authService.VerifyMfa(ctx.UserContext(), principalFrom(ctx), req.Code)
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(status))
}

func (h *MfaHandler) PostDisable(ctx *fiber.Ctx) error {
	var req mfaCodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return sendValidationError(ctx, invalidBodyDetails)
	}
	if details := collect(validateMfaCode(req.Code)); len(details) > 0 {
		return sendValidationError(ctx, details)
	}

	if err := h.authService.DisableMfa(ctx.UserContext(), principalFrom(ctx), req.Code); err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(messageResponse{Message: "MFA has been disabled."}))
}

func NewMfaHandler(authService AuthService) *MfaHandler {
	return &MfaHandler{
		authService: authService,
	}
}
