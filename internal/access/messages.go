package access

import (
	"fmt"

	"rootify-backend/internal/identity"
	"rootify-backend/internal/models"
)

const (
	msgFillAllFields    = "Please fill all fields."
	msgSignupFailed     = "An error occurred during signup."
	msgFederatedFailed  = "An error occurred during federated sign-in."
	msgNotAdminUser     = "This account is registered as a non-admin user."
	msgUnrecognizedRole = "User has an unrecognized role. Please contact support."
	msgAccountLookup    = "Could not load your account. Please try again."
)

// wrongPortal is shown when valid credentials were submitted on the other
// role's login form.
func wrongPortal(expected models.UserRole) string {
	if expected == models.RoleAdmin {
		return "Not an admin account."
	}
	return "Not a user account."
}

func registerMessage(code string) string {
	switch code {
	case identity.CodeEmailAlreadyInUse:
		return "This email is already in use. Try signing in or resetting your password."
	case identity.CodeInvalidEmail:
		return "The email address is not valid."
	case identity.CodeOperationNotAllowed:
		return "Email/password sign up is disabled. Contact the site administrator."
	case identity.CodeWeakPassword:
		return "The password is too weak. Please choose a stronger password."
	default:
		return msgSignupFailed
	}
}

func federatedMessage(err *identity.Error) string {
	switch err.Code {
	case identity.CodePopupClosed:
		return "Sign-in cancelled."
	case identity.CodeCancelledPopup:
		return "Another sign-in window is already open."
	case identity.CodeAccountExistsDifferent:
		return fmt.Sprintf("An account with this email (%s) already exists with different sign-in credentials.", err.Email)
	default:
		return msgFederatedFailed
	}
}

func welcome(id *identity.Identity) string {
	name := id.DisplayName
	if name == "" {
		name = id.Email
	}
	if name == "" {
		return "Signed in."
	}
	return fmt.Sprintf("Signed in as %s.", name)
}
