// backend/internal/application/usecase/auth/manager.go
package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	admindom "sripavan/internal/domain/admin"
	"sripavan/internal/domain/device"
	"sripavan/internal/domain/notification"
	userdom "sripavan/internal/domain/user"
)

// State is the lifecycle state of a device session.
type State string

const (
	StateUninitialized        State = "uninitialized"
	StateLoading              State = "loading"
	StateAnonymous            State = "anonymous"
	StateAuthenticatedRegular State = "authenticated"
	StateAuthenticatedAdmin   State = "admin"
)

// adminModeKey persists the admin-mode flag next to the provider session.
const adminModeKey = "adminMode"

// Snapshot is an immutable view of the session published to subscribers.
type Snapshot struct {
	Identity  *userdom.User `json:"currentIdentity"`
	Loading   bool          `json:"loading"`
	AdminMode bool          `json:"adminMode"`
	State     State         `json:"state"`
}

// Deps are the collaborators of a Manager.
type Deps struct {
	Provider IdentityProvider
	Users    userdom.Repository
	Admins   admindom.Index
	Notifier notification.Notifier
	// Store persists the admin-mode flag; optional.
	Store  device.Store
	Policy AdminPolicy
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock injects a custom clock (useful for tests).
func WithClock(c Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger injects a logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

type listener struct {
	id int
	fn func(Snapshot)
}

// Manager owns the identity lifecycle of one device: sign-up, sign-in
// (regular or admin-mode), sign-out, password reset and profile updates.
//
// Invariants:
// - adminMode ⇒ current.IsAdmin
// - after LogOut: current == nil && adminMode == false
type Manager struct {
	provider IdentityProvider
	users    userdom.Repository
	admins   admindom.Index
	notifier notification.Notifier
	store    device.Store
	policy   AdminPolicy
	clock    Clock
	logger   *zap.SugaredLogger

	mu        sync.RWMutex
	phase     State // Uninitialized, Loading, or "" once resolved
	current   *userdom.User
	adminMode bool

	lmu       sync.Mutex
	listeners []listener
	nextID    int

	cancelProvider func()
}

var (
	errNilProvider = errors.New("auth: identity provider is nil")
	errNilUsers    = errors.New("auth: user repository is nil")
	errNilAdmins   = errors.New("auth: admins index is nil")
)

// NewManager validates deps and returns an uninitialized Manager.
func NewManager(deps Deps, opts ...Option) (*Manager, error) {
	switch {
	case deps.Provider == nil:
		return nil, errNilProvider
	case deps.Users == nil:
		return nil, errNilUsers
	case deps.Admins == nil:
		return nil, errNilAdmins
	}
	if err := deps.Policy.validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		provider: deps.Provider,
		users:    deps.Users,
		admins:   deps.Admins,
		notifier: deps.Notifier,
		store:    deps.Store,
		policy:   deps.Policy,
		clock:    systemClock{},
		logger:   zap.NewNop().Sugar(),
		phase:    StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = notification.NotifierFunc(func(context.Context, notification.Notification) {})
	}
	return m, nil
}

// Start resolves the persisted session. Loading is true until it returns.
// A failing restore degrades to an anonymous session.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.phase != StateUninitialized {
		m.mu.Unlock()
		return
	}
	m.phase = StateLoading
	m.mu.Unlock()
	m.publish()

	m.cancelProvider = m.provider.OnSessionChange(m.onProviderSessionChange)

	var (
		identity  *userdom.User
		adminMode bool
	)
	acct, err := m.provider.Restore(ctx)
	if err != nil {
		m.logger.Warnw("restore session failed; continuing anonymous", "err", err)
	}
	if acct != nil {
		identity, err = m.loadIdentity(ctx, acct)
		if err != nil {
			m.logger.Warnw("load identity on restore failed", "uid", acct.UID, "err", err)
			identity = identityFromAccount(acct, m.clock.Now())
		}
		adminMode = identity.IsAdmin && m.restoreAdminMode(ctx)
	}

	m.mu.Lock()
	m.phase = ""
	m.current = identity
	m.adminMode = adminMode
	m.mu.Unlock()

	m.persistAdminMode(ctx, adminMode)
	m.publish()
}

// Close unregisters from the provider.
func (m *Manager) Close() {
	if m.cancelProvider != nil {
		m.cancelProvider()
		m.cancelProvider = nil
	}
}

// ============================================================
// Readers
// ============================================================

// Current returns a copy of the current identity or nil.
func (m *Manager) Current() *userdom.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// CurrentUID returns the uid of the current identity or "".
func (m *Manager) CurrentUID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.UID
}

func (m *Manager) AdminMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adminMode
}

// Loading is true until the persisted-session check resolved.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase != ""
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked()
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) stateLocked() State {
	switch {
	case m.phase != "":
		return m.phase
	case m.current == nil:
		return StateAnonymous
	case m.adminMode:
		return StateAuthenticatedAdmin
	default:
		return StateAuthenticatedRegular
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Identity:  m.current.Clone(),
		Loading:   m.phase != "",
		AdminMode: m.adminMode,
		State:     m.stateLocked(),
	}
}

// ============================================================
// Subscription
// ============================================================

// Subscribe registers fn for every session change. fn runs synchronously on
// the goroutine that changed the session and must not call back into
// mutating Manager operations.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	m.lmu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	m.lmu.Unlock()

	return func() {
		m.lmu.Lock()
		defer m.lmu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) publish() {
	snap := m.Snapshot()

	m.lmu.Lock()
	ls := make([]listener, len(m.listeners))
	copy(ls, m.listeners)
	m.lmu.Unlock()

	for _, l := range ls {
		l.fn(snap)
	}
}

// ============================================================
// Session transitions
// ============================================================

// setSession installs identity/adminMode and publishes when something changed.
// adminMode is forced false unless the identity is an admin.
func (m *Manager) setSession(ctx context.Context, identity *userdom.User, adminMode bool) {
	if identity == nil || !identity.IsAdmin {
		adminMode = false
	}

	m.mu.Lock()
	changed := !sameIdentity(m.current, identity) || m.adminMode != adminMode
	m.current = identity.Clone()
	m.adminMode = adminMode
	m.mu.Unlock()

	m.persistAdminMode(ctx, adminMode)
	if changed {
		m.publish()
	}
}

// onProviderSessionChange only reacts to provider-side sign-outs
// (expired or revoked sessions). Sign-ins are installed by the Manager itself
// after the admin flag has been derived.
func (m *Manager) onProviderSessionChange(acct *Account) {
	if acct != nil {
		return
	}
	m.mu.RLock()
	active := m.current != nil
	m.mu.RUnlock()
	if !active {
		return
	}
	m.logger.Infow("provider session ended; clearing local session")
	m.setSession(context.Background(), nil, false)
}

func (m *Manager) persistAdminMode(ctx context.Context, on bool) {
	if m.store == nil {
		return
	}
	var err error
	if on {
		err = m.store.Set(ctx, adminModeKey, "1")
	} else {
		err = m.store.Remove(ctx, adminModeKey)
	}
	if err != nil {
		m.logger.Warnw("persist admin mode failed", "err", err)
	}
}

func (m *Manager) restoreAdminMode(ctx context.Context) bool {
	if m.store == nil {
		return false
	}
	v, ok, err := m.store.Get(ctx, adminModeKey)
	if err != nil {
		m.logger.Warnw("read admin mode failed", "err", err)
		return false
	}
	return ok && v == "1"
}

// ============================================================
// Notifications
// ============================================================

func (m *Manager) notifySuccess(ctx context.Context, title, desc string) {
	n := notification.Success(title, desc)
	n.CreatedAt = m.clock.Now().UTC()
	m.notifier.Notify(ctx, n)
}

func (m *Manager) notifyFailure(ctx context.Context, title string, err error) {
	m.logger.Warnw("operation failed", "op", title, "err", err)
	n := notification.Failure(title, Describe(err))
	n.CreatedAt = m.clock.Now().UTC()
	m.notifier.Notify(ctx, n)
}

func (m *Manager) notifyWarning(ctx context.Context, title, desc string) {
	n := notification.Warning(title, desc)
	n.CreatedAt = m.clock.Now().UTC()
	m.notifier.Notify(ctx, n)
}

func sameIdentity(a, b *userdom.User) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	}
	return a.UID == b.UID &&
		a.IsAdmin == b.IsAdmin &&
		ptrEq(a.Email, b.Email) &&
		ptrEq(a.DisplayName, b.DisplayName) &&
		ptrEq(a.PhotoURL, b.PhotoURL)
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
