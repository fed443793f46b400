package auth

import (
	"context"
	"errors"
	"time"

	"rootify-backend/internal/access"
	"rootify-backend/internal/config"
	"rootify-backend/internal/identity"
	"rootify-backend/internal/models"
	"rootify-backend/internal/users"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	Role        models.UserRole `json:"role"`
	Name        string          `json:"name"`
	PhoneNumber string          `json:"phone_number"`
	Region      string          `json:"region"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserLookup interface {
	Get(ctx context.Context, uid string) (*models.UserRecord, error)
}

// POST /api/auth/register
func RegisterHandler(resolver *access.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		out := resolver.Register(c.UserContext(), body.Email, body.Password, body.Role, access.AdminFields{
			Name:        body.Name,
			PhoneNumber: body.PhoneNumber,
			Region:      body.Region,
		})
		if !out.Created {
			return fiber.NewError(registerStatus(out), out.Message)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"uid":     out.Identity.UID,
			"email":   out.Identity.Email,
			"role":    out.Record.Role,
			"message": out.Message,
		})
	}
}

func registerStatus(out access.RegisterOutcome) int {
	switch {
	case out.Err != nil:
		return fiber.StatusInternalServerError
	case out.Code == identity.CodeEmailAlreadyInUse:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

// POST /api/auth/login/user and /api/auth/login/admin
func LoginHandler(cfg *config.Config, resolver *access.Resolver, role models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		out := resolver.LoginWithPassword(c.UserContext(), body.Email, body.Password, role)
		switch out.Kind {
		case access.RoleResolved:
			token, err := issueSession(c, cfg, out)
			if err != nil {
				return err
			}
			return c.JSON(loginResponse(out, token))
		case access.RoleMismatch:
			return fiber.NewError(fiber.StatusForbidden, out.Message)
		default:
			if out.Err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, out.Message)
			}
			return fiber.NewError(fiber.StatusUnauthorized, out.Message)
		}
	}
}

// POST /api/auth/logout
func LogoutHandler(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := UserID(c)
		if err != nil {
			return err
		}
		sessionID, _ := c.Locals(CtxSessionIDKey).(string)

		if err := provider.SignOut(c.UserContext(), &identity.Identity{UID: uid, SessionID: sessionID}); err != nil {
			return err
		}
		clearSession(c)

		return c.JSON(fiber.Map{
			"message": "Signed out",
			"route":   access.RouteLanding,
		})
	}
}

// GET /api/auth/me
func MeHandler(records UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := UserID(c)
		if err != nil {
			return err
		}
		email, _ := c.Locals(CtxEmailKey).(string)
		role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)

		response := fiber.Map{
			"uid":   uid,
			"email": email,
			"role":  role,
			"route": access.RouteFor(role),
		}

		rec, err := records.Get(c.UserContext(), uid)
		switch {
		case err == nil:
			response["user"] = rec
		case !errors.Is(err, users.ErrNotFound):
			return err
		}

		return c.JSON(response)
	}
}

// issueSession signs a token for a resolved outcome and sets the cookie.
func issueSession(c *fiber.Ctx, cfg *config.Config, out access.Outcome) (string, error) {
	token, err := GenerateToken(cfg, out.Identity, out.Role)
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(cfg.SessionTTL),
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return token, nil
}

func clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func loginResponse(out access.Outcome, token string) fiber.Map {
	return fiber.Map{
		"token":   token,
		"route":   out.Route,
		"message": out.Message,
		"user": fiber.Map{
			"uid":          out.Identity.UID,
			"email":        out.Identity.Email,
			"display_name": out.Identity.DisplayName,
			"role":         out.Role,
		},
	}
}
