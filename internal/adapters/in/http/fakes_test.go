package httpin

import (
	"context"
	"fmt"
	"strings"
	"sync"

	authuc "sripavan/internal/application/usecase/auth"
	admindom "sripavan/internal/domain/admin"
	cartdom "sripavan/internal/domain/cart"
	"sripavan/internal/domain/device"
	orderdom "sripavan/internal/domain/order"
	userdom "sripavan/internal/domain/user"
)

// accounts is the provider-side credential table shared by every device.
type accounts struct {
	mu   sync.Mutex
	byEm map[string]*authuc.Account
	pw   map[string]string
	seq  int
}

func newAccounts() *accounts {
	return &accounts{byEm: map[string]*authuc.Account{}, pw: map[string]string{}}
}

func (a *accounts) add(uid, email, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	k := strings.ToLower(email)
	a.byEm[k] = &authuc.Account{UID: uid, Email: email}
	a.pw[k] = password
}

// fakeProvider is one device's view of accounts.
type fakeProvider struct {
	accts *accounts

	mu        sync.Mutex
	session   *authuc.Account
	listeners map[int]func(*authuc.Account)
	nextID    int
}

func (p *fakeProvider) CreateAccount(_ context.Context, email, password string) (*authuc.Account, error) {
	p.accts.mu.Lock()
	k := strings.ToLower(email)
	if _, ok := p.accts.byEm[k]; ok {
		p.accts.mu.Unlock()
		return nil, &authuc.ProviderError{Code: authuc.CodeEmailInUse}
	}
	p.accts.seq++
	acct := &authuc.Account{UID: fmt.Sprintf("uid-%d", p.accts.seq), Email: email}
	p.accts.byEm[k] = acct
	p.accts.pw[k] = password
	p.accts.mu.Unlock()

	cp := *acct
	p.mu.Lock()
	p.session = &cp
	p.mu.Unlock()
	return &cp, nil
}

func (p *fakeProvider) Authenticate(_ context.Context, email, password string) (*authuc.Account, error) {
	p.accts.mu.Lock()
	k := strings.ToLower(email)
	acct, ok := p.accts.byEm[k]
	pw := p.accts.pw[k]
	p.accts.mu.Unlock()
	if !ok {
		return nil, &authuc.ProviderError{Code: authuc.CodeUnknownAccount}
	}
	if pw != password {
		return nil, &authuc.ProviderError{Code: authuc.CodeWrongPassword}
	}
	cp := *acct
	p.mu.Lock()
	p.session = &cp
	p.mu.Unlock()
	return &cp, nil
}

func (p *fakeProvider) EndSession(context.Context) error {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
	return nil
}

func (p *fakeProvider) Restore(context.Context) (*authuc.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, nil
	}
	cp := *p.session
	return &cp, nil
}

func (p *fakeProvider) OnSessionChange(fn func(*authuc.Account)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listeners == nil {
		p.listeners = map[int]func(*authuc.Account){}
	}
	p.nextID++
	id := p.nextID
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *fakeProvider) SetProfile(context.Context, userdom.ProfilePatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return &authuc.ProviderError{Code: "no-current-user"}
	}
	return nil
}

func (p *fakeProvider) SendPasswordReset(_ context.Context, email string) error {
	p.accts.mu.Lock()
	defer p.accts.mu.Unlock()
	if _, ok := p.accts.byEm[strings.ToLower(email)]; !ok {
		return &authuc.ProviderError{Code: authuc.CodeUnknownAccount}
	}
	return nil
}

type memUsers struct {
	mu   sync.Mutex
	recs map[string]userdom.User
}

func newMemUsers() *memUsers { return &memUsers{recs: map[string]userdom.User{}} }

func (r *memUsers) GetByUID(_ context.Context, uid string) (*userdom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.recs[uid]
	if !ok {
		return nil, userdom.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *memUsers) Create(_ context.Context, u userdom.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[u.UID]; ok {
		return userdom.ErrConflict
	}
	r.recs[u.UID] = u
	return nil
}

func (r *memUsers) SetAdmin(_ context.Context, uid string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.recs[uid]
	if !ok {
		return userdom.ErrNotFound
	}
	u.IsAdmin = isAdmin
	r.recs[uid] = u
	return nil
}

func (r *memUsers) UpdateProfile(_ context.Context, uid string, patch userdom.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.recs[uid]
	if !ok {
		return userdom.ErrNotFound
	}
	if patch.DisplayName != nil {
		u.DisplayName = patch.DisplayName
	}
	if patch.PhotoURL != nil {
		u.PhotoURL = patch.PhotoURL
	}
	r.recs[uid] = u
	return nil
}

type memAdmins struct {
	mu      sync.Mutex
	entries map[string]admindom.Entry
}

func (a *memAdmins) ExistsByEmail(_ context.Context, email string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		if strings.EqualFold(e.Email, strings.TrimSpace(email)) {
			return true, nil
		}
	}
	return false, nil
}

func (a *memAdmins) Add(_ context.Context, e admindom.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.entries == nil {
		a.entries = map[string]admindom.Entry{}
	}
	a.entries[e.UID] = e
	return nil
}

type memCarts struct {
	mu    sync.Mutex
	items map[string][]cartdom.CartItem
}

func (c *memCarts) Get(_ context.Context, uid string) ([]cartdom.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.items[uid]
	if !ok {
		return nil, nil
	}
	return cartdom.CloneItems(items), nil
}

func (c *memCarts) Save(_ context.Context, uid string, items []cartdom.CartItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string][]cartdom.CartItem{}
	}
	c.items[uid] = cartdom.CloneItems(items)
	return nil
}

func (c *memCarts) Delete(_ context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, uid)
	return nil
}

type memOrders struct {
	mu     sync.Mutex
	orders []orderdom.Order
}

func (o *memOrders) Create(_ context.Context, ord orderdom.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders = append(o.orders, ord)
	return nil
}

func (o *memOrders) List(_ context.Context, limit int) ([]orderdom.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]orderdom.Order, 0, len(o.orders))
	for i := len(o.orders) - 1; i >= 0; i-- {
		out = append(out, o.orders[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// providers hands out one fakeProvider per device id.
type providers struct {
	accts *accounts
	mu    sync.Mutex
	byID  map[string]*fakeProvider
}

func (p *providers) open(deviceID string, _ device.Store) (authuc.IdentityProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.byID == nil {
		p.byID = map[string]*fakeProvider{}
	}
	fp, ok := p.byID[deviceID]
	if !ok {
		fp = &fakeProvider{accts: p.accts}
		p.byID[deviceID] = fp
	}
	return fp, nil
}
