package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	userdom "sripavan/internal/domain/user"
)

var (
	ErrAdminPolicyNotConfigured = errors.New("auth: admin policy is not configured")
)

// BootstrapCredential checks the bootstrap administrative password.
type BootstrapCredential interface {
	Matches(password string) bool
}

// PlainCredential compares against a secret held in memory
// (loaded from Secret Manager or, in development, from env).
type PlainCredential string

func (c PlainCredential) Matches(password string) bool {
	if c == "" || password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c), []byte(password)) == 1
}

// HashedCredential compares against a bcrypt hash.
type HashedCredential []byte

func (c HashedCredential) Matches(password string) bool {
	if len(c) == 0 || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(c, []byte(password)) == nil
}

// AdminPolicy holds the single reserved administrative email and the
// bootstrap credential that may create or promote it.
type AdminPolicy struct {
	Email      string
	Credential BootstrapCredential
}

func (p AdminPolicy) validate() error {
	if strings.TrimSpace(p.Email) == "" || p.Credential == nil {
		return ErrAdminPolicyNotConfigured
	}
	return nil
}

// IsAdminEmail compares case-insensitively against the reserved email.
func (p AdminPolicy) IsAdminEmail(email string) bool {
	return userdom.SameEmail(email, p.Email)
}

// bootstrapMatches is false when no credential is configured.
func (p AdminPolicy) bootstrapMatches(password string) bool {
	if p.Credential == nil {
		return false
	}
	return p.Credential.Matches(password)
}
