package auth

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to callers. Provider failures are always mapped to
// one of these (or to *UnmappedProviderError) before they leave the Manager.
var (
	ErrReservedIdentity   = errors.New("auth: email is reserved")
	ErrDuplicateEmail     = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUnknownAccount     = errors.New("auth: unknown account")
	ErrAdminAccessDenied  = errors.New("auth: admin access denied")
	ErrUnauthenticated    = errors.New("auth: not signed in")
	ErrTooManyAttempts    = errors.New("auth: too many attempts")
	ErrDisabledAccount    = errors.New("auth: account disabled")
)

// UnmappedProviderError carries a provider code outside the taxonomy.
type UnmappedProviderError struct {
	Code string
	Err  error
}

func (e *UnmappedProviderError) Error() string {
	return fmt.Sprintf("auth: identity provider error (%s)", e.Code)
}

func (e *UnmappedProviderError) Unwrap() error { return e.Err }

// MapProviderError maps a provider failure onto the taxonomy.
// Errors that are not *ProviderError are returned unchanged.
func MapProviderError(err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return err
	}
	switch pe.Code {
	case CodeUnknownAccount:
		return ErrUnknownAccount
	case CodeWrongPassword, CodeInvalidCredential:
		return ErrInvalidCredentials
	case CodeTooManyRequests:
		return ErrTooManyAttempts
	case CodeDisabledAccount:
		return ErrDisabledAccount
	case CodeEmailInUse:
		return ErrDuplicateEmail
	default:
		return &UnmappedProviderError{Code: pe.Code, Err: pe.Err}
	}
}

// signInError is MapProviderError for credential checks: an unknown email is
// reported like a bad password.
func signInError(err error) error {
	mapped := MapProviderError(err)
	if errors.Is(mapped, ErrUnknownAccount) {
		return ErrInvalidCredentials
	}
	return mapped
}

// providerCode returns the raw provider code of err, or "".
func providerCode(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// GenericErrorMessage is shown for errors without a user-facing description.
const GenericErrorMessage = "Something went wrong. Please try again."

// Describe returns the user-facing text for err. Errors outside the auth
// taxonomy get GenericErrorMessage; their detail belongs in the log.
func Describe(err error) string {
	var unmapped *UnmappedProviderError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrReservedIdentity):
		return "This email address is reserved. Please use a different email."
	case errors.Is(err, ErrDuplicateEmail):
		return "This email is already registered. Please log in instead."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password. Please try again."
	case errors.Is(err, ErrUnknownAccount):
		return "No account found with this email address."
	case errors.Is(err, ErrAdminAccessDenied):
		return "You do not have admin access."
	case errors.Is(err, ErrUnauthenticated):
		return "Please log in to continue."
	case errors.Is(err, ErrTooManyAttempts):
		return "Too many failed attempts. Please try again later."
	case errors.Is(err, ErrDisabledAccount):
		return "This account has been disabled. Please contact support."
	case errors.As(err, &unmapped):
		return "Authentication failed (" + unmapped.Code + ")."
	default:
		return GenericErrorMessage
	}
}
