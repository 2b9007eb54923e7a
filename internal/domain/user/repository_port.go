package user

import (
	"context"
	"errors"
)

// Repository is the persistence port for users/{uid}.
type Repository interface {
	// GetByUID returns ErrNotFound when the record does not exist.
	GetByUID(ctx context.Context, uid string) (*User, error)

	// Create fails with ErrConflict when a record already exists for u.UID.
	Create(ctx context.Context, u User) error

	// SetAdmin overwrites the isAdmin flag.
	SetAdmin(ctx context.Context, uid string, isAdmin bool) error

	// UpdateProfile writes the non-nil fields of the patch.
	UpdateProfile(ctx context.Context, uid string, patch ProfilePatch) error
}

// Common errors
var (
	ErrNotFound = errors.New("user: not found")
	ErrConflict = errors.New("user: conflict")
)
