package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"rootify-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6

	defaultSessionTTL = 24 * time.Hour
)

// federatedNamespace seeds the deterministic uid of federated identities.
var federatedNamespace = uuid.MustParse("6f1c3a52-8d4e-4b7a-9a61-3f0c2d9e7b18")

// Service is the identity provider backed by credential and session repositories.
type Service struct {
	credentials    CredentialRepository
	sessions       SessionRepository
	passwordSignup bool
	hashCost       int
	sessionTTL     time.Duration
	now            func() time.Time
}

type Option func(*Service)

// WithPasswordSignup toggles creation of password credentials.
func WithPasswordSignup(enabled bool) Option {
	return func(s *Service) { s.passwordSignup = enabled }
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithSessionTTL sets how long a session stays active after sign-in.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(credentials CredentialRepository, sessions SessionRepository, opts ...Option) *Service {
	s := &Service{
		credentials:    credentials,
		sessions:       sessions,
		passwordSignup: true,
		hashCost:       bcrypt.DefaultCost,
		sessionTTL:     defaultSessionTTL,
		now:            time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) CreateWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	if !s.passwordSignup {
		return nil, newError(CodeOperationNotAllowed, "Password sign-up is disabled for this project.")
	}

	email, ok := normalizeEmail(email)
	if !ok {
		return nil, newError(CodeInvalidEmail, "The email address is badly formatted.")
	}
	if len(password) < MinPasswordLength {
		return nil, newError(CodeWeakPassword, fmt.Sprintf("Password should be at least %d characters.", MinPasswordLength))
	}

	if _, err := s.credentials.ByEmail(ctx, models.ProviderPassword, email); err == nil {
		return nil, newError(CodeEmailAlreadyInUse, "The email address is already in use by another account.")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, internal(err)
	}

	cred := &models.Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     models.ProviderPassword,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, newError(CodeEmailAlreadyInUse, "The email address is already in use by another account.")
		}
		return nil, internal(err)
	}

	return &Identity{UID: cred.UID, Email: cred.Email}, nil
}

// DeleteCredential removes the credential of uid. Removing a missing
// credential is a no-op.
func (s *Service) DeleteCredential(ctx context.Context, uid string) error {
	if err := s.credentials.Delete(ctx, uid); err != nil {
		return internal(err)
	}
	return nil
}

func (s *Service) AuthenticateWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	email, ok := normalizeEmail(email)
	if !ok {
		return nil, newError(CodeInvalidEmail, "The email address is badly formatted.")
	}

	cred, err := s.credentials.ByEmail(ctx, models.ProviderPassword, email)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(CodeInvalidCredential, "Invalid email or password.")
	}
	if err != nil {
		return nil, internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, newError(CodeInvalidCredential, "Invalid email or password.")
	}

	return s.signIn(ctx, cred)
}

// SignOut revokes the identity's session. Signing out twice is a no-op.
func (s *Service) SignOut(ctx context.Context, id *Identity) error {
	if id == nil || id.SessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, id.SessionID, s.now()); err != nil {
		return internal(err)
	}
	return nil
}

// SessionActive reports whether the session exists, has not expired and was
// not revoked.
func (s *Service) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if sess.RevokedAt != nil {
		return false, nil
	}
	return sess.ExpiresAt.IsZero() || s.now().Before(sess.ExpiresAt), nil
}

// PurgeSessions deletes expired and revoked sessions.
func (s *Service) PurgeSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// FederatedClaims are the verified claims of an external IdP login.
type FederatedClaims struct {
	Issuer  string
	Subject string
	Email   string
	Name    string
}

// FederatedUID derives the stable uid of an external identity.
func FederatedUID(issuer, subject string) string {
	return uuid.NewSHA1(federatedNamespace, []byte(issuer+"|"+subject)).String()
}

// Federated returns the flow that signs in the holder of already verified
// IdP claims, registering the credential on first use.
func (s *Service) Federated(claims FederatedClaims) FederatedFlow {
	return FlowFunc(func(ctx context.Context) (*Identity, error) {
		if claims.Subject == "" {
			return nil, newError(CodeInternal, "The identity provider returned no subject.")
		}
		uid := FederatedUID(claims.Issuer, claims.Subject)

		cred, err := s.credentials.ByUID(ctx, uid)
		if errors.Is(err, ErrNotFound) {
			cred, err = s.registerFederated(ctx, uid, claims)
		}
		if err != nil {
			return nil, err
		}
		return s.signIn(ctx, cred)
	})
}

func (s *Service) registerFederated(ctx context.Context, uid string, claims FederatedClaims) (*models.Credential, error) {
	email, _ := normalizeEmail(claims.Email)
	if email != "" {
		if _, err := s.credentials.ByEmail(ctx, models.ProviderPassword, email); err == nil {
			return nil, &Error{
				Code:    CodeAccountExistsDifferent,
				Message: fmt.Sprintf("An account with this email (%s) already exists with different sign-in credentials.", email),
				Email:   email,
			}
		} else if !errors.Is(err, ErrNotFound) {
			return nil, internal(err)
		}
	}

	cred := &models.Credential{
		UID:         uid,
		Email:       email,
		Provider:    models.ProviderOIDC,
		Issuer:      claims.Issuer,
		Subject:     claims.Subject,
		DisplayName: strings.TrimSpace(claims.Name),
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, internal(err)
	}
	return cred, nil
}

func (s *Service) signIn(ctx context.Context, cred *models.Credential) (*Identity, error) {
	now := s.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UID:       cred.UID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Open(ctx, sess); err != nil {
		return nil, internal(err)
	}
	return &Identity{
		UID:         cred.UID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
		SessionID:   sess.ID,
	}, nil
}

// normalizeEmail lowercases and validates a bare address.
func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

func internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf("An internal error occurred: %v", err)}
}
