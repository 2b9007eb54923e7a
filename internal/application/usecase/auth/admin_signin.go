package auth

import (
	"context"
	"errors"
	"fmt"

	admindom "sripavan/internal/domain/admin"
	userdom "sripavan/internal/domain/user"
)

// adminState is decided by an upfront admins index lookup for the
// configured administrative email.
type adminState int

const (
	noAdminExists adminState = iota
	adminExists
)

func (s adminState) String() string {
	if s == adminExists {
		return "admin-exists"
	}
	return "no-admin-exists"
}

func (m *Manager) currentAdminState(ctx context.Context) (adminState, error) {
	ok, err := m.admins.ExistsByEmail(ctx, m.policy.Email)
	if err != nil {
		return noAdminExists, fmt.Errorf("auth: admins index lookup: %w", err)
	}
	if ok {
		return adminExists, nil
	}
	return noAdminExists, nil
}

// adminSignIn is the admin-mode sign-in. On success the session is
// AuthenticatedAdmin; on failure adminMode is left as it was.
func (m *Manager) adminSignIn(ctx context.Context, email, password string) (*userdom.User, error) {
	const title = "Admin login failed"

	if !m.policy.IsAdminEmail(email) {
		m.notifyFailure(ctx, title, ErrAdminAccessDenied)
		return nil, ErrAdminAccessDenied
	}

	state, err := m.currentAdminState(ctx)
	if err != nil {
		m.notifyFailure(ctx, title, err)
		return nil, err
	}

	var identity *userdom.User
	switch state {
	case adminExists:
		identity, err = m.signInExistingAdmin(ctx, email, password)
	default:
		identity, err = m.bootstrapAdmin(ctx, email, password)
	}
	if err != nil {
		m.logger.Infow("admin sign-in rejected", "state", state.String(), "err", err)
		m.notifyFailure(ctx, title, err)
		return nil, err
	}

	m.setSession(ctx, identity, true)
	m.notifySuccess(ctx, "Admin login successful", "Welcome to the admin dashboard.")
	return identity.Clone(), nil
}

// signInExistingAdmin only authenticates; bootstrap creation is not
// possible once the admins index knows the email.
func (m *Manager) signInExistingAdmin(ctx context.Context, email, password string) (*userdom.User, error) {
	acct, err := m.provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, signInError(err)
	}
	return m.authenticatedAdmin(ctx, acct, password)
}

// bootstrapAdmin handles the first administrative sign-in. An unknown
// account combined with the bootstrap credential creates the admin.
func (m *Manager) bootstrapAdmin(ctx context.Context, email, password string) (*userdom.User, error) {
	acct, err := m.provider.Authenticate(ctx, email, password)
	if err == nil {
		return m.authenticatedAdmin(ctx, acct, password)
	}

	switch providerCode(err) {
	case CodeUnknownAccount, CodeInvalidCredential:
		// invalid-credential is what providers with enumeration protection
		// return for unknown emails
		if m.policy.bootstrapMatches(password) {
			return m.createAdmin(ctx, email, password)
		}
	}
	return nil, signInError(err)
}

// authenticatedAdmin loads the identity of an authenticated admin attempt
// and promotes it when the bootstrap credential was supplied.
func (m *Manager) authenticatedAdmin(ctx context.Context, acct *Account, password string) (*userdom.User, error) {
	identity, err := m.loadIdentity(ctx, acct)
	if err != nil {
		m.rejectAuthenticated(ctx)
		return nil, err
	}
	if identity.IsAdmin {
		return identity, nil
	}
	if !m.policy.bootstrapMatches(password) {
		m.rejectAuthenticated(ctx)
		return nil, ErrAdminAccessDenied
	}
	if err := m.promote(ctx, identity); err != nil {
		m.rejectAuthenticated(ctx)
		return nil, err
	}
	return identity, nil
}

// createAdmin creates the credential, the isAdmin record and the index entry.
func (m *Manager) createAdmin(ctx context.Context, email, password string) (*userdom.User, error) {
	acct, err := m.provider.CreateAccount(ctx, email, password)
	if err != nil {
		mapped := MapProviderError(err)
		if errors.Is(mapped, ErrDuplicateEmail) {
			// the account exists with a different password
			return nil, ErrInvalidCredentials
		}
		return nil, mapped
	}

	rec, err := m.createRecord(ctx, acct, true)
	if err != nil {
		m.rejectAuthenticated(ctx)
		return nil, err
	}
	if !rec.IsAdmin {
		if err := m.users.SetAdmin(ctx, rec.UID, true); err != nil {
			m.rejectAuthenticated(ctx)
			return nil, fmt.Errorf("auth: promote user record: %w", err)
		}
		rec.IsAdmin = true
	}
	if err := m.addToIndex(ctx, rec); err != nil {
		m.rejectAuthenticated(ctx)
		return nil, err
	}

	m.logger.Infow("bootstrap admin created", "uid", rec.UID)
	return rec, nil
}

func (m *Manager) promote(ctx context.Context, u *userdom.User) error {
	if err := m.users.SetAdmin(ctx, u.UID, true); err != nil {
		return fmt.Errorf("auth: promote user record: %w", err)
	}
	if err := m.addToIndex(ctx, u); err != nil {
		return err
	}
	u.IsAdmin = true
	m.logger.Infow("user promoted to admin", "uid", u.UID)
	return nil
}

func (m *Manager) addToIndex(ctx context.Context, u *userdom.User) error {
	entry, err := admindom.NewEntry(u.UID, u.EmailValue(), m.clock.Now())
	if err != nil {
		return err
	}
	if err := m.admins.Add(ctx, entry); err != nil {
		return fmt.Errorf("auth: add admins index entry: %w", err)
	}
	return nil
}

// rejectAuthenticated ends the provider session that the admin attempt
// established. The provider session of any previous identity was replaced by
// the attempt, so the local session is cleared as well.
func (m *Manager) rejectAuthenticated(ctx context.Context) {
	m.endProviderSession(ctx)
	m.setSession(ctx, nil, false)
}
