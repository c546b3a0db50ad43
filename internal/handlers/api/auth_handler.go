package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService AuthService
}

func requiredField(value, reason, message string) *APIErrorDetail {
	if strings.TrimSpace(value) == "" {
		return invalidField(reason, message)
	}
	return nil
}

func (h *AuthHandler) PostRegister(ctx *fiber.Ctx) error {
	var req registerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return sendValidationError(ctx, invalidBodyDetails)
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if details := collect(
		validateUsername(req.Username),
		validateEmail(req.Email),
		validatePassword(req.Password),
	); len(details) > 0 {
		return sendValidationError(ctx, details)
	}

	profile, err := h.authService.Register(ctx.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(NewDataResponse(registerResponse{Profile: *profile}))
}

func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return sendValidationError(ctx, invalidBodyDetails)
	}
	req.Username = strings.TrimSpace(req.Username)
	details := collect(
		requiredField(req.Username, "missing_username", "Username is required."),
		requiredField(req.Password, "missing_password", "Password is required."),
	)
	if req.MfaToken != "" {
		details = append(details, collect(validateMfaCode(req.MfaToken))...)
	}
	if len(details) > 0 {
		return sendValidationError(ctx, details)
	}

	result, err := h.authService.Login(ctx.UserContext(), req.Username, req.Password, req.MfaToken)
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(result))
}

func (h *AuthHandler) PostRefresh(ctx *fiber.Ctx) error {
	var req refreshRequest
	if err := ctx.BodyParser(&req); err != nil {
		return sendValidationError(ctx, invalidBodyDetails)
	}
	if details := collect(requiredField(req.RefreshToken, "missing_refresh_token", "Refresh token is required.")); len(details) > 0 {
		return sendValidationError(ctx, details)
	}

	tokens, err := h.authService.Refresh(ctx.UserContext(), req.RefreshToken)
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(tokens))
}

func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	var req refreshRequest
	if err := ctx.BodyParser(&req); err != nil {
		return sendValidationError(ctx, invalidBodyDetails)
	}
	if details := collect(requiredField(req.RefreshToken, "missing_refresh_token", "Refresh token is required.")); len(details) > 0 {
		return sendValidationError(ctx, details)
	}

	if err := h.authService.Logout(ctx.UserContext(), req.RefreshToken); err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(messageResponse{Message: "Logged out."}))
}

// PostVerifyBackupCode exchanges a backup code for a recovery token that
// can only be used to reset MFA.
func (h *AuthHandler) PostVerifyBackupCode(ctx *fiber.Ctx) error {
	var req backupCodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return sendValidationError(ctx, invalidBodyDetails)
	}
	req.Username = strings.TrimSpace(req.Username)
	if details := collect(
		requiredField(req.Username, "missing_username", "Username is required."),
		validateBackupCode(req.BackupCode),
	); len(details) > 0 {
		return sendValidationError(ctx, details)
	}

	result, err := h.authService.VerifyBackupCode(ctx.UserContext(), req.Username, req.BackupCode)
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(result))
}

func (h *AuthHandler) PostResetMfa(ctx *fiber.Ctx) error {
	token := extractBearerToken(ctx)
	if token == "" {
		return sendValidationError(ctx, []APIErrorDetail{{
			Domain:  "validation",
			Reason:  "missing_recovery_token",
			Message: "Recovery token is required.",
		}})
	}
	if err := h.authService.ResetMfa(ctx.UserContext(), token); err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(NewDataResponse(messageResponse{Message: "MFA has been reset."}))
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}
