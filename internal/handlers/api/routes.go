package api

import (
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(router fiber.Router, authService AuthService) {
	authHandler := NewAuthHandler(authService)
	mfaHandler := NewMfaHandler(authService)
	accountHandler := NewAccountHandler(authService)
	requireAuth := RequireAuth(authService)

	v1 := router.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", authHandler.PostRegister)
	authRoutes.Post("/login", authHandler.PostLogin)
	authRoutes.Post("/refresh", authHandler.PostRefresh)
	authRoutes.Post("/logout", authHandler.PostLogout)
	authRoutes.Post("/backup-codes/verify", authHandler.PostVerifyBackupCode)
	authRoutes.Post("/mfa/reset", authHandler.PostResetMfa)

	accountRoutes := v1.Group("/account", requireAuth)
	accountRoutes.Get("/me", accountHandler.GetMe)
	accountRoutes.Delete("/", accountHandler.DeleteAccount)

	mfaRoutes := v1.Group("/mfa", requireAuth)
	mfaRoutes.Get("/status", mfaHandler.GetStatus)
	mfaRoutes.Post("/setup", mfaHandler.PostSetup)
	mfaRoutes.Post("/verify", mfaHandler.PostVerify)
	mfaRoutes.Post("/disable", mfaHandler.PostDisable)
}
