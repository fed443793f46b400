package auth

import (
	"context"
	"strings"

	"rootify-backend/internal/config"
	"rootify-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserRoleKey  = "user_role"
	CtxEmailKey     = "user_email"
	CtxSessionIDKey = "session_id"
)

// SessionChecker answers whether a provider session is still open.
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID string) (bool, error)
}

// JWTMiddleware accepts the token from a Bearer header or the session cookie
// and rejects tokens whose session was signed out.
func JWTMiddleware(cfg *config.Config, sessions SessionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, err := tokenFromRequest(c)
		if err != nil {
			return err
		}

		claims, err := ParseToken(cfg, tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		active, err := sessions.SessionActive(c.UserContext(), claims.ID)
		if err != nil {
			return err
		}
		if !active {
			return fiber.NewError(fiber.StatusUnauthorized, "Session has ended, please sign in again")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxEmailKey, claims.Email)
		c.Locals(CtxSessionIDKey, claims.ID)

		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if cookie := c.Cookies(SessionCookie); cookie != "" {
			return cookie, nil
		}
		return "", fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
	}
	return parts[1], nil
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role information missing")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "You are not allowed to do this")
	}
}

// UserID returns the uid the middleware stored for this request.
func UserID(c *fiber.Ctx) (string, error) {
	uid, ok := c.Locals(CtxUserIDKey).(string)
	if !ok || uid == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "User information missing")
	}
	return uid, nil
}
