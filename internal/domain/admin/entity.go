// backend/internal/domain/admin/entity.go
package admin

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Entry is one document of the admins index (admins/{uid}).
// The index is consulted by email independently of users/{uid}.isAdmin.
type Entry struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	ErrInvalidEntry = errors.New("admin: invalid entry")
)

// NewEntry normalizes the email (lower-case) so lookups are case-insensitive.
func NewEntry(uid, email string, now time.Time) (Entry, error) {
	e := Entry{
		UID:       strings.TrimSpace(uid),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: now.UTC(),
	}
	if e.UID == "" || e.Email == "" || e.CreatedAt.IsZero() {
		return Entry{}, ErrInvalidEntry
	}
	return e, nil
}

// Index is the persistence port for the admins index.
type Index interface {
	// ExistsByEmail is case-insensitive.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Add upserts the entry keyed by uid.
	Add(ctx context.Context, e Entry) error
}
