package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	admindom "sripavan/internal/domain/admin"
	"sripavan/internal/domain/notification"
	userdom "sripavan/internal/domain/user"
)

type fakeAccount struct {
	Account
	password string
}

type fakeProvider struct {
	mu        sync.Mutex
	accounts  map[string]*fakeAccount // by lower-cased email
	session   *Account
	listeners map[int]func(*Account)
	nextID    int
	seq       int

	// enumerationProtection reports invalid-credential for unknown emails.
	enumerationProtection bool

	authErr    error
	endErr     error
	restoreErr error
	resetErr   error
	profileErr error

	createCalls int
	authCalls   int
	endCalls    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts:  map[string]*fakeAccount{},
		listeners: map[int]func(*Account){},
	}
}

func (p *fakeProvider) addAccount(uid, email, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[strings.ToLower(email)] = &fakeAccount{Account: Account{UID: uid, Email: email}, password: password}
}

func (p *fakeProvider) CreateAccount(_ context.Context, email, password string) (*Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	key := strings.ToLower(email)
	if _, ok := p.accounts[key]; ok {
		return nil, &ProviderError{Code: CodeEmailInUse}
	}
	p.seq++
	a := &fakeAccount{Account: Account{UID: fmt.Sprintf("uid-%d", p.seq), Email: email}, password: password}
	p.accounts[key] = a
	acct := a.Account
	p.session = &acct
	out := acct
	return &out, nil
}

func (p *fakeProvider) Authenticate(_ context.Context, email, password string) (*Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authCalls++
	if p.authErr != nil {
		return nil, p.authErr
	}
	a, ok := p.accounts[strings.ToLower(email)]
	if !ok {
		if p.enumerationProtection {
			return nil, &ProviderError{Code: CodeInvalidCredential}
		}
		return nil, &ProviderError{Code: CodeUnknownAccount}
	}
	if a.password != password {
		return nil, &ProviderError{Code: CodeWrongPassword}
	}
	acct := a.Account
	p.session = &acct
	out := acct
	return &out, nil
}

func (p *fakeProvider) EndSession(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endCalls++
	if p.endErr != nil {
		return p.endErr
	}
	p.session = nil
	return nil
}

func (p *fakeProvider) Restore(context.Context) (*Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.restoreErr != nil {
		return nil, p.restoreErr
	}
	if p.session == nil {
		return nil, nil
	}
	out := *p.session
	return &out, nil
}

func (p *fakeProvider) OnSessionChange(fn func(*Account)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// expire simulates a provider-side session end (token revoked).
func (p *fakeProvider) expire() {
	p.mu.Lock()
	p.session = nil
	fns := make([]func(*Account), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(nil)
	}
}

func (p *fakeProvider) SetProfile(_ context.Context, patch userdom.ProfilePatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profileErr != nil {
		return p.profileErr
	}
	if p.session == nil {
		return &ProviderError{Code: "no-current-user"}
	}
	if patch.DisplayName != nil {
		p.session.DisplayName = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		p.session.PhotoURL = *patch.PhotoURL
	}
	return nil
}

func (p *fakeProvider) SendPasswordReset(_ context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resetErr != nil {
		return p.resetErr
	}
	if _, ok := p.accounts[strings.ToLower(email)]; !ok {
		return &ProviderError{Code: CodeUnknownAccount}
	}
	return nil
}

// ------------------------------------------------------------

type fakeUsers struct {
	mu       sync.Mutex
	records  map[string]userdom.User
	getErr    error
	createErr error
	creates   int
	setAdmin int
}

func newFakeUsers() *fakeUsers { return &fakeUsers{records: map[string]userdom.User{}} }

func (r *fakeUsers) GetByUID(_ context.Context, uid string) (*userdom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.records[uid]
	if !ok {
		return nil, userdom.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *fakeUsers) Create(_ context.Context, u userdom.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.records[u.UID]; ok {
		return userdom.ErrConflict
	}
	r.creates++
	r.records[u.UID] = *u.Clone()
	return nil
}

func (r *fakeUsers) SetAdmin(_ context.Context, uid string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.records[uid]
	if !ok {
		return userdom.ErrNotFound
	}
	r.setAdmin++
	u.IsAdmin = isAdmin
	r.records[uid] = u
	return nil
}

func (r *fakeUsers) UpdateProfile(_ context.Context, uid string, patch userdom.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.records[uid]
	if !ok {
		return userdom.ErrNotFound
	}
	u.Apply(patch, time.Now())
	r.records[uid] = u
	return nil
}

func (r *fakeUsers) get(uid string) (userdom.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.records[uid]
	return u, ok
}

// ------------------------------------------------------------

type fakeAdmins struct {
	mu      sync.Mutex
	entries map[string]admindom.Entry // by uid
	err     error
}

func newFakeAdmins() *fakeAdmins { return &fakeAdmins{entries: map[string]admindom.Entry{}} }

func (a *fakeAdmins) ExistsByEmail(_ context.Context, email string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return false, a.err
	}
	for _, e := range a.entries {
		if userdom.SameEmail(e.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (a *fakeAdmins) Add(_ context.Context, e admindom.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[e.UID] = e
	return nil
}

func (a *fakeAdmins) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// ------------------------------------------------------------

type recordingNotifier struct {
	mu  sync.Mutex
	got []notification.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingNotifier) last() notification.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return notification.Notification{}
	}
	return r.got[len(r.got)-1]
}

// ------------------------------------------------------------

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var errBoom = errors.New("boom")
