package auth

import (
	"context"

	"github.com/mmynk/gathersync/internal/models"
)

// Authenticator issues and checks account credentials. Sessions handed to
// devices are JWTs minted by JWTManager after a successful call, so the
// service layer does not care how the credential itself is verified.
type Authenticator interface {
	// Register creates an account with the given email and credential.
	// Emails are matched case-insensitively. Returns ErrEmailExists when the
	// address is taken and the credential's validation error when it is
	// rejected.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the account it
	// belongs to, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials that may not be stored.
	// For passwords this is the length check.
	ValidateCredential(credential string) error
}
