package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/kmfa/internal/auth"
)

const principalLocalsKey = "principal"

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error)
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is missing or uses another scheme.
func extractBearerToken(ctx *fiber.Ctx) string {
	header := ctx.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid access token and stores the
// resolved principal for the handlers.
func RequireAuth(authenticator Authenticator) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := extractBearerToken(ctx)
		if token == "" {
			return sendError(ctx, auth.ErrInvalidToken)
		}
		principal, err := authenticator.Authenticate(ctx.UserContext(), token)
		if err != nil {
			return sendError(ctx, err)
		}
		ctx.Locals(principalLocalsKey, principal)
		return ctx.Next()
	}
}

func principalFrom(ctx *fiber.Ctx) *auth.Principal {
	principal, _ := ctx.Locals(principalLocalsKey).(*auth.Principal)
	return principal
}
