package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rootify-backend/internal/audit"
	"rootify-backend/internal/identity"
	"rootify-backend/internal/logging"
	"rootify-backend/internal/models"
	"rootify-backend/internal/users"
)

// UserRecords is the role store the resolver reads and seeds.
type UserRecords interface {
	Get(ctx context.Context, uid string) (*models.UserRecord, error)
	Create(ctx context.Context, rec *models.UserRecord) error
}

type AuditWriter interface {
	WriteLog(ctx context.Context, opts audit.LogOptions) error
}

// AdminFields are only kept when registering an admin.
type AdminFields struct {
	Name        string
	PhoneNumber string
	Region      string
}

type Resolver struct {
	provider identity.Provider
	users    UserRecords
	audit    AuditWriter
	log      logging.Logger
}

func NewResolver(provider identity.Provider, records UserRecords, auditor AuditWriter, log logging.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		users:    records,
		audit:    auditor,
		log:      log.With("component", "access"),
	}
}

// LoginWithPassword authenticates once and checks the stored role against
// the login form that was used. A role mismatch leaves the provider session
// alone: the credentials were valid, the portal was not.
func (r *Resolver) LoginWithPassword(ctx context.Context, email, password string, expected models.UserRole) Outcome {
	id, err := r.provider.AuthenticateWithPassword(ctx, email, password)
	if err != nil {
		code := identity.CodeOf(err)
		out := Outcome{Kind: ProviderError, Code: code, Message: err.Error()}
		if code == identity.CodeInternal {
			r.log.Error(ctx, "password login failed", "error", err)
			out.Err = err
			return out
		}
		r.log.Warn(ctx, "password login rejected by provider", "code", code, "expected_role", expected)
		return out
	}

	rec, err := r.users.Get(ctx, id.UID)
	if errors.Is(err, users.ErrNotFound) {
		r.log.Error(ctx, "verified identity has no user record", "uid", id.UID)
		return Outcome{Kind: RoleMismatch, Message: wrongPortal(expected), Identity: id}
	}
	if err != nil {
		r.log.Error(ctx, "load user record failed", "uid", id.UID, "error", err)
		return Outcome{Kind: ProviderError, Message: msgAccountLookup, Identity: id, Err: err}
	}

	if rec.Role != expected {
		r.log.Info(ctx, "login on wrong portal", "uid", id.UID, "stored_role", rec.Role, "expected_role", expected)
		return Outcome{Kind: RoleMismatch, Message: wrongPortal(expected), Identity: id, Role: rec.Role}
	}

	return r.resolved(id, rec.Role)
}

// Register creates the credential and the identity's one UserRecord. It does
// not sign the new identity in.
func (r *Resolver) Register(ctx context.Context, email, password string, role models.UserRole, fields AdminFields) RegisterOutcome {
	if strings.TrimSpace(email) == "" || password == "" || !role.Valid() {
		return RegisterOutcome{Message: msgFillAllFields}
	}

	id, err := r.provider.CreateWithPassword(ctx, email, password)
	if err != nil {
		code := identity.CodeOf(err)
		out := RegisterOutcome{Message: registerMessage(code), Code: code}
		if code == identity.CodeInternal {
			r.log.Error(ctx, "signup failed", "error", err)
			out.Err = err
			return out
		}
		r.log.Warn(ctx, "signup rejected by provider", "code", code)
		return out
	}

	rec := &models.UserRecord{UID: id.UID, Email: id.Email, Role: role}
	if role == models.RoleAdmin {
		rec.Name = strings.TrimSpace(fields.Name)
		rec.PhoneNumber = strings.TrimSpace(fields.PhoneNumber)
		rec.Region = strings.TrimSpace(fields.Region)
	}
	if err := r.users.Create(ctx, rec); err != nil {
		r.log.Error(ctx, "create user record failed", "uid", id.UID, "error", err)
		// a password credential never outlives a failed registration
		if derr := r.provider.DeleteCredential(ctx, id.UID); derr != nil {
			r.log.Error(ctx, "rollback of credential failed", "uid", id.UID, "error", derr)
		}
		return RegisterOutcome{Message: msgSignupFailed, Identity: id, Err: err}
	}
	r.auditUserCreated(ctx, rec, "password registration")

	return RegisterOutcome{
		Created:  true,
		Message:  fmt.Sprintf("Welcome, %s! Your account has been created.", id.Email),
		Identity: id,
		Record:   rec,
	}
}

// LoginWithFederatedProvider runs the federated flow and resolves the role.
// A first login stores intended as the role. Afterwards a stored admin always
// lands on the admin surface, and a stored user asking for admin is signed
// back out.
func (r *Resolver) LoginWithFederatedProvider(ctx context.Context, flow identity.FederatedFlow, intended models.UserRole) Outcome {
	if !intended.Valid() {
		intended = models.RoleUser
	}

	id, err := flow.AuthenticateFederated(ctx)
	if err != nil {
		return r.federatedFailure(ctx, err)
	}

	rec, err := r.users.Get(ctx, id.UID)
	switch {
	case errors.Is(err, users.ErrNotFound):
		return r.firstFederatedLogin(ctx, id, intended)
	case err != nil:
		r.log.Error(ctx, "load user record failed", "uid", id.UID, "error", err)
		r.signOut(ctx, id)
		return Outcome{Kind: ProviderError, Message: msgAccountLookup, Identity: id, Err: err}
	}

	switch rec.Role {
	case models.RoleAdmin:
		return r.resolved(id, models.RoleAdmin)
	case models.RoleUser:
		if intended == models.RoleAdmin {
			r.log.Info(ctx, "admin login refused for user account", "uid", id.UID)
			r.signOut(ctx, id)
			return Outcome{Kind: RoleMismatch, Message: msgNotAdminUser, Identity: id, Role: rec.Role}
		}
		return r.resolved(id, models.RoleUser)
	default:
		r.log.Warn(ctx, "stored role not recognized", "uid", id.UID, "role", rec.Role)
		r.signOut(ctx, id)
		return Outcome{Kind: RoleMismatch, Message: msgUnrecognizedRole, Identity: id, Role: rec.Role}
	}
}

func (r *Resolver) firstFederatedLogin(ctx context.Context, id *identity.Identity, intended models.UserRole) Outcome {
	rec := &models.UserRecord{
		UID:   id.UID,
		Email: id.Email,
		Role:  intended,
		Name:  id.DisplayName,
	}
	if err := r.users.Create(ctx, rec); err != nil {
		r.log.Error(ctx, "create user record failed", "uid", id.UID, "error", err)
		r.signOut(ctx, id)
		return Outcome{Kind: ProviderError, Message: msgFederatedFailed, Identity: id, Err: err}
	}
	r.log.Info(ctx, "user record created on first federated login", "uid", id.UID, "role", intended)
	r.auditUserCreated(ctx, rec, "first federated login")
	return r.resolved(id, intended)
}

func (r *Resolver) federatedFailure(ctx context.Context, err error) Outcome {
	var pe *identity.Error
	if !errors.As(err, &pe) {
		pe = &identity.Error{Code: identity.CodeInternal, Message: err.Error()}
	}

	if pe.Code == identity.CodePopupClosed {
		r.log.Info(ctx, "federated login cancelled")
		return Outcome{Kind: Cancelled, Code: pe.Code, Message: federatedMessage(pe)}
	}
	out := Outcome{Kind: ProviderError, Code: pe.Code, Message: federatedMessage(pe)}
	if pe.Code == identity.CodeInternal {
		r.log.Error(ctx, "federated login failed", "error", err)
		out.Err = err
		return out
	}
	r.log.Warn(ctx, "federated login rejected by provider", "code", pe.Code)
	return out
}

func (r *Resolver) resolved(id *identity.Identity, role models.UserRole) Outcome {
	return Outcome{
		Kind:     RoleResolved,
		Route:    RouteFor(role),
		Message:  welcome(id),
		Identity: id,
		Role:     role,
	}
}

func (r *Resolver) signOut(ctx context.Context, id *identity.Identity) {
	if err := r.provider.SignOut(ctx, id); err != nil {
		r.log.Error(ctx, "sign out failed", "uid", id.UID, "error", err)
	}
}

func (r *Resolver) auditUserCreated(ctx context.Context, rec *models.UserRecord, how string) {
	if r.audit == nil {
		return
	}
	name := rec.Name
	if name == "" {
		name = rec.Email
	}
	err := r.audit.WriteLog(ctx, audit.LogOptions{
		UserID:      rec.UID,
		UserName:    name,
		EntityType:  audit.EntityUser,
		EntityKey:   rec.UID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("%s account created by %s", rec.Role, how),
		After:       rec,
	})
	if err != nil {
		r.log.Error(ctx, "audit log failed", "uid", rec.UID, "error", err)
	}
}
