package api

import (
	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	authService AuthService
}

func (h *AccountHandler) GetMe(ctx *fiber.Ctx) error {
	profile, err := h.authService.GetProfile(ctx.UserContext(), principalFrom(ctx))
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(profile))
}

func (h *AccountHandler) DeleteAccount(ctx *fiber.Ctx) error {
	var req deleteAccountRequest
	if err := ctx.BodyParser(&req); err != nil {
		return sendValidationError(ctx, invalidBodyDetails)
	}
	if details := collect(requiredField(req.Password, "missing_password", "Password is required.")); len(details) > 0 {
		return sendValidationError(ctx, details)
	}

	if err := h.authService.DeleteAccount(ctx.UserContext(), principalFrom(ctx), req.Password); err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(messageResponse{Message: "Account deleted."}))
}

func NewAccountHandler(authService AuthService) *AccountHandler {
	return &AccountHandler{
		authService: authService,
	}
}
