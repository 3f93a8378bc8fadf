package auth

import (
	"context"

	"github.com/mmynk/cotisations/internal/models"
)

// Authenticator defines the interface for staff authentication.
// The service layer only depends on this, so the credential scheme can
// change without touching handlers.
type Authenticator interface {
	// Register creates a new staff account with the given username and credential.
	Register(ctx context.Context, username, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the user if it matches.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)

	// SetCredential replaces the credential of an existing account.
	SetCredential(ctx context.Context, username, credential string) error

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
