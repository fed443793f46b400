// Package identity is the service's identity provider. It verifies password
// credentials, brokers federated (OIDC) sign-in and tracks signed-in sessions.
// It knows nothing about roles.
package identity

import (
	"context"
	"errors"
)

// Identity is a verified end-user reference.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	// SessionID names the provider session the identity was verified in.
	// Empty when the operation did not sign anyone in.
	SessionID string
}

// Provider error codes.
const (
	CodeEmailAlreadyInUse      = "auth/email-already-in-use"
	CodeInvalidEmail           = "auth/invalid-email"
	CodeOperationNotAllowed    = "auth/operation-not-allowed"
	CodeWeakPassword           = "auth/weak-password"
	CodeInvalidCredential      = "auth/invalid-credential"
	CodePopupClosed            = "auth/popup-closed-by-user"
	CodeCancelledPopup         = "auth/cancelled-popup-request"
	CodeAccountExistsDifferent = "auth/account-exists-with-different-credential"
	CodeInternal               = "auth/internal-error"
)

// Error is a failure reported by the provider.
type Error struct {
	Code    string
	Message string
	// Email is set for account-exists-with-different-credential.
	Email string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// CodeOf returns the provider code carried by err, or CodeInternal.
func CodeOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}

// Provider authenticates password credentials and ends sessions.
type Provider interface {
	AuthenticateWithPassword(ctx context.Context, email, password string) (*Identity, error)
	// CreateWithPassword registers a new credential. It does not open a session.
	CreateWithPassword(ctx context.Context, email, password string) (*Identity, error)
	// DeleteCredential removes a credential that never got a user record.
	DeleteCredential(ctx context.Context, uid string) error
	SignOut(ctx context.Context, id *Identity) error
}

// FederatedFlow is one federated sign-in attempt.
type FederatedFlow interface {
	AuthenticateFederated(ctx context.Context) (*Identity, error)
}

// FlowFunc adapts a function to FederatedFlow.
type FlowFunc func(ctx context.Context) (*Identity, error)

func (f FlowFunc) AuthenticateFederated(ctx context.Context) (*Identity, error) {
	return f(ctx)
}

// Failed returns a flow that reports the given provider error.
func Failed(code, message string) FederatedFlow {
	return FlowFunc(func(context.Context) (*Identity, error) {
		return nil, newError(code, message)
	})
}
