// backend/internal/domain/user/entity.go
package user

import (
	"errors"
	"strings"
	"time"
)

// User is the storefront identity (users/{uid}).
// UID is assigned by the identity provider and never changes.
// IsAdmin is derived at sign-in from this record and the admins index.
type User struct {
	UID         string    `json:"uid"`
	Email       *string   `json:"email"`
	DisplayName *string   `json:"displayName"`
	PhotoURL    *string   `json:"photoURL"`
	IsAdmin     bool      `json:"isAdmin"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Errors (single source)
var (
	ErrInvalidUID         = errors.New("user: invalid uid")
	ErrInvalidDisplayName = errors.New("user: invalid displayName")
	ErrInvalidPhotoURL    = errors.New("user: invalid photoURL")
	ErrInvalidCreatedAt   = errors.New("user: invalid createdAt")
)

// Policy
var (
	MaxDisplayNameLength = 100
	MaxPhotoURLLength    = 2048
)

// ProfilePatch carries the optional profile fields of an update.
// A nil field is left untouched.
type ProfilePatch struct {
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoURL,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.DisplayName == nil && p.PhotoURL == nil
}

// Normalize trims the patch fields and validates their length.
func (p ProfilePatch) Normalize() (ProfilePatch, error) {
	out := ProfilePatch{
		DisplayName: normalizePtr(p.DisplayName),
		PhotoURL:    normalizePtr(p.PhotoURL),
	}
	if p.DisplayName != nil && out.DisplayName == nil {
		// explicit empty string clears the field
		empty := ""
		out.DisplayName = &empty
	}
	if p.PhotoURL != nil && out.PhotoURL == nil {
		empty := ""
		out.PhotoURL = &empty
	}
	if out.DisplayName != nil && len([]rune(*out.DisplayName)) > MaxDisplayNameLength {
		return ProfilePatch{}, ErrInvalidDisplayName
	}
	if out.PhotoURL != nil && len(*out.PhotoURL) > MaxPhotoURLLength {
		return ProfilePatch{}, ErrInvalidPhotoURL
	}
	return out, nil
}

// Apply copies the patch onto the user. Empty strings clear the field.
func (u *User) Apply(p ProfilePatch, now time.Time) {
	if p.DisplayName != nil {
		u.DisplayName = normalizePtr(p.DisplayName)
	}
	if p.PhotoURL != nil {
		u.PhotoURL = normalizePtr(p.PhotoURL)
	}
	u.UpdatedAt = now.UTC()
}

// Clone returns a deep copy so readers never share pointers with the owner.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Email = clonePtr(u.Email)
	cp.DisplayName = clonePtr(u.DisplayName)
	cp.PhotoURL = clonePtr(u.PhotoURL)
	return &cp
}

// EmailValue returns the email or "".
func (u *User) EmailValue() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// Validation
func (u User) validate() error {
	if strings.TrimSpace(u.UID) == "" {
		return ErrInvalidUID
	}
	if u.DisplayName != nil && len([]rune(*u.DisplayName)) > MaxDisplayNameLength {
		return ErrInvalidDisplayName
	}
	if u.PhotoURL != nil && len(*u.PhotoURL) > MaxPhotoURLLength {
		return ErrInvalidPhotoURL
	}
	if u.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	return nil
}

// Constructors

// New builds a validated user record.
func New(uid string, email, displayName, photoURL *string, isAdmin bool, now time.Time) (User, error) {
	now = now.UTC()
	u := User{
		UID:         strings.TrimSpace(uid),
		Email:       normalizePtr(email),
		DisplayName: normalizePtr(displayName),
		PhotoURL:    normalizePtr(photoURL),
		IsAdmin:     isAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.validate(); err != nil {
		return User{}, err
	}
	return u, nil
}

// NormalizeEmail lower-cases and trims an email for comparisons and index keys.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameEmail compares two emails case-insensitively.
func SameEmail(a, b string) bool {
	na, nb := NormalizeEmail(a), NormalizeEmail(b)
	return na != "" && na == nb
}

// Helpers

func normalizePtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
