// backend/internal/adapters/out/identity/provider.go
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	authuc "sripavan/internal/application/usecase/auth"
	"sripavan/internal/domain/device"
	userdom "sripavan/internal/domain/user"
)

// Provider codes produced by this adapter in addition to the auth.Code* set.
const (
	CodeNetwork       = "network-request-failed"
	CodeInternal      = "internal-error"
	CodeNoCurrentUser = "no-current-user"
	CodeWeakPassword  = "weak-password"
	CodeInvalidEmail  = "invalid-email"
)

// SessionKey is the device slot holding the persisted provider session.
const SessionKey = "session"

// Firebase accepts session cookies between 5 minutes and 14 days.
const (
	DefaultSessionTTL = 5 * 24 * time.Hour
	minSessionTTL     = 5 * time.Minute
	maxSessionTTL     = 14 * 24 * time.Hour
)

// AdminAuth is the subset of *firebaseauth.Client the provider uses.
type AdminAuth interface {
	CreateUser(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *firebaseauth.UserToUpdate) (*firebaseauth.UserRecord, error)
	GetUser(ctx context.Context, uid string) (*firebaseauth.UserRecord, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*firebaseauth.Token, error)
}

var _ AdminAuth = (*firebaseauth.Client)(nil)

// ========================================
// Factory
// ========================================

// Factory opens one Provider per device.
type Factory struct {
	Password   PasswordAuth
	Admin      AdminAuth
	SessionTTL time.Duration
	Logger     *zap.SugaredLogger
}

// Open binds a provider session to the device store.
func (f *Factory) Open(deviceID string, store device.Store) (authuc.IdentityProvider, error) {
	if f == nil || f.Password == nil || f.Admin == nil {
		return nil, errors.New("identity: factory is not configured")
	}
	if store == nil {
		return nil, errors.New("identity: device store is nil")
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Provider{
		password:  f.Password,
		admin:     f.Admin,
		store:     store,
		ttl:       clampTTL(f.SessionTTL),
		now:       time.Now,
		logger:    logger.With("device", deviceID),
		listeners: map[int]func(*authuc.Account){},
	}, nil
}

func clampTTL(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultSessionTTL
	case d < minSessionTTL:
		return minSessionTTL
	case d > maxSessionTTL:
		return maxSessionTTL
	}
	return d
}

// ========================================
// Provider
// ========================================

// persistedSession is what survives a restart of the device.
type persistedSession struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Cookie    string    `json:"cookie"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Provider implements auth.IdentityProvider for one device. The session is a
// Firebase session cookie kept in the device store.
type Provider struct {
	password PasswordAuth
	admin    AdminAuth
	store    device.Store
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.SugaredLogger

	mu        sync.Mutex
	uid       string
	gen       int
	expiry    *time.Timer
	nextID    int
	listeners map[int]func(*authuc.Account)
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*authuc.Account, error) {
	email = strings.TrimSpace(email)
	rec, err := p.admin.CreateUser(ctx, (&firebaseauth.UserToCreate{}).Email(email).Password(password))
	if err != nil {
		return nil, adminError(err)
	}

	res, err := p.password.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := p.startSession(ctx, res); err != nil {
		return nil, err
	}

	acct := &authuc.Account{UID: rec.UID, Email: rec.Email}
	p.fire(acct)
	return acct, nil
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (*authuc.Account, error) {
	res, err := p.password.VerifyPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	if err := p.startSession(ctx, res); err != nil {
		return nil, err
	}

	acct := &authuc.Account{UID: res.UID, Email: res.Email, DisplayName: res.DisplayName}
	p.fire(acct)
	return acct, nil
}

// EndSession forgets the session on this device only.
func (p *Provider) EndSession(ctx context.Context) error {
	p.mu.Lock()
	had := p.uid != ""
	p.resetLocked()
	p.mu.Unlock()

	if err := p.store.Remove(ctx, SessionKey); err != nil {
		return err
	}
	if had {
		p.fire(nil)
	}
	return nil
}

// Restore verifies the persisted session cookie.
// An expired, revoked or otherwise dead session is dropped and reported as
// anonymous; transient verification failures are returned and the slot kept.
func (p *Provider) Restore(ctx context.Context) (*authuc.Account, error) {
	s, ok, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if !p.now().Before(s.ExpiresAt) {
		p.drop(ctx, "expired")
		return nil, nil
	}

	tok, err := p.admin.VerifySessionCookieAndCheckRevoked(ctx, s.Cookie)
	if err != nil {
		if sessionEnded(err) {
			p.drop(ctx, "rejected")
			return nil, nil
		}
		return nil, &authuc.ProviderError{Code: CodeNetwork, Err: err}
	}

	acct := &authuc.Account{UID: tok.UID, Email: s.Email}
	if rec, err := p.admin.GetUser(ctx, tok.UID); err == nil && rec != nil && rec.UserInfo != nil {
		acct.Email = rec.Email
		acct.DisplayName = rec.DisplayName
		acct.PhotoURL = rec.PhotoURL
	} else if err != nil {
		p.logger.Debugw("get user on restore failed; using persisted email", "uid", tok.UID, "err", err)
	}

	p.install(s)
	return acct, nil
}

func (p *Provider) OnSessionChange(fn func(*authuc.Account)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// SetProfile updates the provider-side profile of the signed-in account.
// Empty values remove the attribute.
func (p *Provider) SetProfile(ctx context.Context, patch userdom.ProfilePatch) error {
	p.mu.Lock()
	uid := p.uid
	p.mu.Unlock()
	if uid == "" {
		return &authuc.ProviderError{Code: CodeNoCurrentUser}
	}
	if patch.IsEmpty() {
		return nil
	}

	u := &firebaseauth.UserToUpdate{}
	if patch.DisplayName != nil {
		u = u.DisplayName(strings.TrimSpace(*patch.DisplayName))
	}
	if patch.PhotoURL != nil {
		u = u.PhotoURL(strings.TrimSpace(*patch.PhotoURL))
	}
	if _, err := p.admin.UpdateUser(ctx, uid, u); err != nil {
		return adminError(err)
	}
	return nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	return p.password.SendPasswordReset(ctx, email)
}

// ========================================
// Session bookkeeping
// ========================================

func (p *Provider) startSession(ctx context.Context, res *SignInResult) error {
	if res == nil || res.UID == "" || res.IDToken == "" {
		return &authuc.ProviderError{Code: CodeInternal, Err: errors.New("identity: empty sign-in result")}
	}
	cookie, err := p.admin.SessionCookie(ctx, res.IDToken, p.ttl)
	if err != nil {
		return adminError(err)
	}

	s := persistedSession{
		UID:       res.UID,
		Email:     res.Email,
		Cookie:    cookie,
		ExpiresAt: p.now().Add(p.ttl).UTC(),
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := p.store.Set(ctx, SessionKey, string(raw)); err != nil {
		return err
	}
	p.install(s)
	return nil
}

// install makes s the live session and arms its expiry.
func (p *Provider) install(s persistedSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	p.uid = s.UID
	gen := p.gen
	p.expiry = time.AfterFunc(s.ExpiresAt.Sub(p.now()), func() { p.expire(gen) })
}

func (p *Provider) resetLocked() {
	p.gen++
	p.uid = ""
	if p.expiry != nil {
		p.expiry.Stop()
		p.expiry = nil
	}
}

func (p *Provider) expire(gen int) {
	p.mu.Lock()
	if gen != p.gen || p.uid == "" {
		p.mu.Unlock()
		return
	}
	p.resetLocked()
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.drop(ctx, "expired")
	p.fire(nil)
}

func (p *Provider) drop(ctx context.Context, reason string) {
	p.logger.Infow("provider session ended", "reason", reason)
	if err := p.store.Remove(ctx, SessionKey); err != nil {
		p.logger.Warnw("remove persisted session failed", "err", err)
	}
}

func (p *Provider) load(ctx context.Context) (persistedSession, bool, error) {
	raw, ok, err := p.store.Get(ctx, SessionKey)
	if err != nil || !ok {
		return persistedSession{}, false, err
	}
	var s persistedSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.UID == "" || s.Cookie == "" {
		p.logger.Warnw("persisted session is unreadable; discarding", "err", err)
		p.drop(ctx, "corrupt")
		return persistedSession{}, false, nil
	}
	return s, true, nil
}

func (p *Provider) fire(acct *authuc.Account) {
	p.mu.Lock()
	fns := make([]func(*authuc.Account), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		if acct == nil {
			fn(nil)
			continue
		}
		cp := *acct
		fn(&cp)
	}
}

// ========================================
// Error mapping
// ========================================

func sessionEnded(err error) bool {
	return firebaseauth.IsSessionCookieRevoked(err) ||
		firebaseauth.IsSessionCookieInvalid(err) ||
		firebaseauth.IsUserDisabled(err) ||
		firebaseauth.IsUserNotFound(err)
}

func adminError(err error) error {
	switch {
	case err == nil:
		return nil
	case firebaseauth.IsEmailAlreadyExists(err):
		return &authuc.ProviderError{Code: authuc.CodeEmailInUse, Err: err}
	case firebaseauth.IsUserNotFound(err):
		return &authuc.ProviderError{Code: authuc.CodeUnknownAccount, Err: err}
	case firebaseauth.IsUserDisabled(err):
		return &authuc.ProviderError{Code: authuc.CodeDisabledAccount, Err: err}
	}
	// the admin SDK validates arguments locally with plain errors
	msg := err.Error()
	switch {
	case strings.Contains(msg, "password must be"):
		return &authuc.ProviderError{Code: CodeWeakPassword, Err: err}
	case strings.Contains(msg, "malformed email"):
		return &authuc.ProviderError{Code: CodeInvalidEmail, Err: err}
	}
	return &authuc.ProviderError{Code: CodeInternal, Err: err}
}

var _ authuc.IdentityProvider = (*Provider)(nil)
