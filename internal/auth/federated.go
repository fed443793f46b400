package auth

import (
	"net/http"
	"net/url"
	"time"

	"rootify-backend/internal/access"
	"rootify-backend/internal/config"
	"rootify-backend/internal/identity"
	"rootify-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// intendedRoleCookie carries the login-mode toggle across the IdP redirect.
const (
	intendedRoleCookie = "rootify_intended_role"
	intendedRoleMaxAge = 10 * time.Minute
	federatedPath      = "/api/auth/federated"
)

// GET /api/auth/federated/login?role=user|admin
func FederatedLoginHandler(login http.Handler) fiber.Handler {
	return adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := models.UserRole(r.URL.Query().Get("role"))
		if !role.Valid() {
			role = models.RoleUser
		}

		http.SetCookie(w, &http.Cookie{
			Name:     intendedRoleCookie,
			Value:    string(role),
			Path:     federatedPath,
			MaxAge:   int(intendedRoleMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		login.ServeHTTP(w, r)
	})
}

// FederatedCallback finishes a federated login: it resolves the role for the
// intent remembered at login time and sends the browser to its surface, or
// back to the landing page with the outcome message.
func FederatedCallback(cfg *config.Config, resolver *access.Resolver) identity.FederatedCallback {
	return func(w http.ResponseWriter, r *http.Request, flow identity.FederatedFlow) {
		role := models.RoleUser
		if cookie, err := r.Cookie(intendedRoleCookie); err == nil {
			role = models.UserRole(cookie.Value)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     intendedRoleCookie,
			Path:     federatedPath,
			MaxAge:   -1,
			HttpOnly: true,
		})

		out := resolver.LoginWithFederatedProvider(r.Context(), flow, role)
		switch out.Kind {
		case access.RoleResolved:
			token, err := GenerateToken(cfg, out.Identity, out.Role)
			if err != nil {
				redirectToLanding(w, r, "auth_error", "Could not create token")
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    token,
				Path:     "/",
				Expires:  time.Now().Add(cfg.SessionTTL),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
			http.Redirect(w, r, out.Route, http.StatusFound)
		case access.Cancelled:
			redirectToLanding(w, r, "auth_cancelled", out.Message)
		default:
			redirectToLanding(w, r, "auth_error", out.Message)
		}
	}
}

func redirectToLanding(w http.ResponseWriter, r *http.Request, key, message string) {
	q := url.Values{}
	q.Set(key, message)
	http.Redirect(w, r, access.RouteLanding+"?"+q.Encode(), http.StatusFound)
}

// FederatedDisabledHandler answers the federated routes when no IdP is configured.
func FederatedDisabledHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Federated login is not configured")
	}
}
