package auth

import (
	"context"
	"fmt"
	"strings"

	userdom "sripavan/internal/domain/user"
)

// LogOut ends the provider session and always clears the local session.
// A provider failure is reported as a warning notification only.
func (m *Manager) LogOut(ctx context.Context) error {
	err := m.provider.EndSession(ctx)
	m.setSession(ctx, nil, false)

	if err != nil {
		m.logger.Warnw("provider sign-out failed; local session cleared", "err", err)
		m.notifyWarning(ctx, "Logged out", "You were signed out on this device, but the server could not confirm it.")
		return nil
	}
	m.notifySuccess(ctx, "Logged out", "You have been successfully logged out.")
	return nil
}

// ForgotPassword asks the provider to dispatch a password-reset email.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := m.provider.SendPasswordReset(ctx, email); err != nil {
		err = MapProviderError(err)
		m.notifyFailure(ctx, "Password reset failed", err)
		return err
	}
	m.notifySuccess(ctx, "Password reset email sent", "Check your inbox for instructions to reset your password.")
	return nil
}

// UpdateProfile writes the patch to the provider profile and to users/{uid},
// then to the in-memory identity.
func (m *Manager) UpdateProfile(ctx context.Context, patch userdom.ProfilePatch) error {
	const title = "Profile update failed"

	cur := m.Current()
	if cur == nil {
		m.notifyFailure(ctx, title, ErrUnauthenticated)
		return ErrUnauthenticated
	}

	p, err := patch.Normalize()
	if err != nil {
		m.notifyFailure(ctx, title, err)
		return err
	}
	if p.IsEmpty() {
		return nil
	}

	if err := m.provider.SetProfile(ctx, p); err != nil {
		err = MapProviderError(err)
		m.notifyFailure(ctx, title, err)
		return err
	}
	if err := m.users.UpdateProfile(ctx, cur.UID, p); err != nil {
		err = fmt.Errorf("auth: update user record: %w", err)
		m.notifyFailure(ctx, title, err)
		return err
	}

	m.mu.Lock()
	applied := m.current != nil && m.current.UID == cur.UID
	if applied {
		m.current.Apply(p, m.clock.Now())
	}
	m.mu.Unlock()
	if applied {
		m.publish()
	}

	m.notifySuccess(ctx, "Profile updated", "Your profile has been updated successfully.")
	return nil
}
