// backend/internal/application/usecase/auth/ports.go
package auth

import (
	"context"
	"time"

	userdom "sripavan/internal/domain/user"
)

// Account is what the identity provider knows about a credential.
type Account struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// IdentityProvider verifies credentials and owns the persisted session of
// one device.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string) (*Account, error)
	Authenticate(ctx context.Context, email, password string) (*Account, error)
	EndSession(ctx context.Context) error

	// Restore resolves the persisted session; (nil, nil) means anonymous.
	Restore(ctx context.Context) (*Account, error)

	// OnSessionChange registers fn for provider-side session changes
	// (nil account = session ended). The returned func unregisters it.
	OnSessionChange(fn func(*Account)) (cancel func())

	SetProfile(ctx context.Context, patch userdom.ProfilePatch) error
	SendPasswordReset(ctx context.Context, email string) error
}

// Provider error codes consumed by the mapping in errors.go.
const (
	CodeUnknownAccount    = "unknown-account"
	CodeWrongPassword     = "wrong-password"
	CodeInvalidCredential = "invalid-credential"
	CodeTooManyRequests   = "too-many-requests"
	CodeDisabledAccount   = "disabled-account"
	CodeEmailInUse        = "email-already-in-use"
)

// ProviderError is returned by IdentityProvider implementations.
// Code is one of the Code* constants or the provider's raw code.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return "identity provider: " + e.Code + ": " + e.Err.Error()
	}
	return "identity provider: " + e.Code
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
