package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	userdom "sripavan/internal/domain/user"
)

// SignUp creates a regular account. The reserved administrative email is
// rejected before the provider is contacted.
func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) error {
	const title = "Sign up failed"

	email = strings.TrimSpace(email)
	name := strings.TrimSpace(displayName)

	if m.policy.IsAdminEmail(email) {
		m.notifyFailure(ctx, title, ErrReservedIdentity)
		return ErrReservedIdentity
	}
	if len([]rune(name)) > userdom.MaxDisplayNameLength {
		m.notifyFailure(ctx, title, userdom.ErrInvalidDisplayName)
		return userdom.ErrInvalidDisplayName
	}

	acct, err := m.provider.CreateAccount(ctx, email, password)
	if err != nil {
		err = MapProviderError(err)
		m.notifyFailure(ctx, title, err)
		return err
	}

	if name != "" {
		if err := m.provider.SetProfile(ctx, userdom.ProfilePatch{DisplayName: &name}); err != nil {
			m.logger.Warnw("set display name failed", "uid", acct.UID, "err", err)
		}
	}

	rec, err := userdom.New(acct.UID, &email, &name, nil, false, m.clock.Now())
	if err == nil {
		err = m.users.Create(ctx, rec)
		if errors.Is(err, userdom.ErrConflict) {
			err = nil
		}
	}
	if err != nil {
		m.endProviderSession(ctx)
		err = fmt.Errorf("auth: create user record: %w", err)
		m.notifyFailure(ctx, title, err)
		return err
	}

	m.setSession(ctx, &rec, false)
	m.notifySuccess(ctx, "Account created", "Welcome to Sri Pavan Computers!")
	return nil
}

// SignIn authenticates a regular or admin-mode attempt and returns the
// resulting identity. A regular sign-in never enables admin mode, even for
// admins.
func (m *Manager) SignIn(ctx context.Context, email, password string, adminAttempt bool) (*userdom.User, error) {
	email = strings.TrimSpace(email)
	if adminAttempt {
		return m.adminSignIn(ctx, email, password)
	}

	const title = "Login failed"

	acct, err := m.provider.Authenticate(ctx, email, password)
	if err != nil {
		err = signInError(err)
		m.notifyFailure(ctx, title, err)
		return nil, err
	}

	identity, err := m.loadIdentity(ctx, acct)
	if err != nil {
		m.logger.Warnw("load identity failed; continuing without admin flag", "uid", acct.UID, "err", err)
		identity = identityFromAccount(acct, m.clock.Now())
	}

	m.setSession(ctx, identity, false)
	m.notifySuccess(ctx, "Login successful", "Welcome back!")
	return identity.Clone(), nil
}

// ResolveIsAdmin is the single precedence rule for the admin flag: an admins
// index hit overrides a stale non-admin user record.
func ResolveIsAdmin(record *userdom.User, indexHit bool) bool {
	if indexHit {
		return true
	}
	return record != nil && record.IsAdmin
}

// loadIdentity reads users/{uid} (creating it with isAdmin=false when absent)
// and derives IsAdmin from the record and the admins index. The index is
// always consulted when the record says not-admin; a hit is backfilled.
func (m *Manager) loadIdentity(ctx context.Context, acct *Account) (*userdom.User, error) {
	rec, err := m.users.GetByUID(ctx, acct.UID)
	switch {
	case errors.Is(err, userdom.ErrNotFound):
		rec, err = m.createRecord(ctx, acct, false)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("auth: load user record: %w", err)
	}

	if rec.Email == nil && strings.TrimSpace(acct.Email) != "" {
		e := strings.TrimSpace(acct.Email)
		rec.Email = &e
	}

	if rec.IsAdmin {
		return rec, nil
	}

	hit := false
	if email := rec.EmailValue(); email != "" {
		hit, err = m.admins.ExistsByEmail(ctx, email)
		if err != nil {
			m.logger.Warnw("admins index lookup failed", "uid", rec.UID, "err", err)
			hit = false
		}
	}

	if ResolveIsAdmin(rec, hit) {
		if err := m.users.SetAdmin(ctx, rec.UID, true); err != nil {
			m.logger.Warnw("backfill admin flag failed", "uid", rec.UID, "err", err)
		}
		rec.IsAdmin = true
	}
	return rec, nil
}

// createRecord creates users/{uid} for acct. An existing record (lost race)
// is read back instead.
func (m *Manager) createRecord(ctx context.Context, acct *Account, isAdmin bool) (*userdom.User, error) {
	rec, err := userdom.New(acct.UID, strPtr(acct.Email), strPtr(acct.DisplayName), strPtr(acct.PhotoURL), isAdmin, m.clock.Now())
	if err != nil {
		return nil, err
	}
	err = m.users.Create(ctx, rec)
	if errors.Is(err, userdom.ErrConflict) {
		return m.users.GetByUID(ctx, acct.UID)
	}
	if err != nil {
		return nil, fmt.Errorf("auth: create user record: %w", err)
	}
	return &rec, nil
}

// endProviderSession is best-effort; used to roll back a half-finished sign-in.
func (m *Manager) endProviderSession(ctx context.Context) {
	if err := m.provider.EndSession(ctx); err != nil {
		m.logger.Warnw("end provider session failed", "err", err)
	}
}

func identityFromAccount(acct *Account, now time.Time) *userdom.User {
	now = now.UTC()
	return &userdom.User{
		UID:         acct.UID,
		Email:       strPtr(acct.Email),
		DisplayName: strPtr(acct.DisplayName),
		PhotoURL:    strPtr(acct.PhotoURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
