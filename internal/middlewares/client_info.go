package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kmfa/internal/audit"
)

// ClientInfo attaches the caller's IP and user agent to the request context
// for audit records.
func ClientInfo() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userCtx := audit.WithClientInfo(ctx.UserContext(), ctx.IP(), ctx.Get(fiber.HeaderUserAgent))
		ctx.SetUserContext(userCtx)
		return ctx.Next()
	}
}
