// Package access resolves authentication events into an identity and a role,
// assigns roles to new identities and picks the surface each role lands on.
package access

import (
	"rootify-backend/internal/identity"
	"rootify-backend/internal/models"
)

// Kind is the terminal state of one login attempt.
type Kind string

const (
	RoleResolved  Kind = "role_resolved"
	RoleMismatch  Kind = "role_mismatch"
	ProviderError Kind = "provider_error"
	Cancelled     Kind = "cancelled"
)

// Surfaces.
const (
	RouteUser    = "/user.html"
	RouteAdmin   = "/admin.html"
	RouteLanding = "/index.html"
)

// RouteFor names the surface a role is sent to.
func RouteFor(role models.UserRole) string {
	switch role {
	case models.RoleUser:
		return RouteUser
	case models.RoleAdmin:
		return RouteAdmin
	default:
		return RouteLanding
	}
}

type Outcome struct {
	Kind Kind
	// Route is set only for RoleResolved.
	Route   string
	Message string
	// Code is the provider error code behind a ProviderError or Cancelled outcome.
	Code     string
	Identity *identity.Identity
	Role     models.UserRole
	// Err is set when the attempt ended on a backend failure rather than
	// on anything the user did.
	Err error
}

func (o Outcome) Resolved() bool {
	return o.Kind == RoleResolved
}

type RegisterOutcome struct {
	Created  bool
	Message  string
	Code     string
	Identity *identity.Identity
	Record   *models.UserRecord
	Err      error
}
