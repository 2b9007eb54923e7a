package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authuc "sripavan/internal/application/usecase/auth"
	admindom "sripavan/internal/domain/admin"
	cartdom "sripavan/internal/domain/cart"
	"sripavan/internal/domain/device"
	"sripavan/internal/domain/notification"
	userdom "sripavan/internal/domain/user"
)

type memStore struct {
	mu    sync.Mutex
	slots map[string]string
}

func (s *memStore) Get(_ context.Context, k string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[k]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, k, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[k] = v
	return nil
}

func (s *memStore) Remove(_ context.Context, k string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, k)
	return nil
}

type memStores struct {
	mu     sync.Mutex
	stores map[string]*memStore
	opened atomic.Int32
}

func (f *memStores) ForDevice(id string) (device.Store, error) {
	f.opened.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stores == nil {
		f.stores = map[string]*memStore{}
	}
	s, ok := f.stores[id]
	if !ok {
		s = &memStore{slots: map[string]string{}}
		f.stores[id] = s
	}
	return s, nil
}

// anonProvider never has a session.
type anonProvider struct{}

func (anonProvider) CreateAccount(context.Context, string, string) (*authuc.Account, error) {
	return nil, &authuc.ProviderError{Code: "operation-not-allowed"}
}
func (anonProvider) Authenticate(context.Context, string, string) (*authuc.Account, error) {
	return nil, &authuc.ProviderError{Code: authuc.CodeWrongPassword}
}
func (anonProvider) EndSession(context.Context) error { return nil }
func (anonProvider) Restore(context.Context) (*authuc.Account, error) { return nil, nil }
func (anonProvider) OnSessionChange(func(*authuc.Account)) func() { return func() {} }
func (anonProvider) SetProfile(context.Context, userdom.ProfilePatch) error { return nil }
func (anonProvider) SendPasswordReset(context.Context, string) error { return nil }

type nopUsers struct{}

func (nopUsers) GetByUID(context.Context, string) (*userdom.User, error) {
	return nil, userdom.ErrNotFound
}
func (nopUsers) Create(context.Context, userdom.User) error { return nil }
func (nopUsers) SetAdmin(context.Context, string, bool) error { return nil }
func (nopUsers) UpdateProfile(context.Context, string, userdom.ProfilePatch) error { return nil }

type nopAdmins struct{}

func (nopAdmins) ExistsByEmail(context.Context, string) (bool, error) { return false, nil }
func (nopAdmins) Add(context.Context, admindom.Entry) error { return nil }

type nopCarts struct{}

func (nopCarts) Get(context.Context, string) ([]cartdom.CartItem, error) { return nil, nil }
func (nopCarts) Save(context.Context, string, []cartdom.CartItem) error { return nil }
func (nopCarts) Delete(context.Context, string) error { return nil }

type sliceInbox struct {
	mu sync.Mutex
	ns []notification.Notification
}

func (b *sliceInbox) Notify(_ context.Context, n notification.Notification) {
	b.mu.Lock()
	b.ns = append(b.ns, n)
	b.mu.Unlock()
}

func (b *sliceInbox) Drain() []notification.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.ns
	b.ns = nil
	return out
}

func newTestRegistry(t *testing.T, stores *memStores, cfg Config) (*Registry, *atomic.Int32) {
	t.Helper()
	var providers atomic.Int32
	r, err := NewRegistry(Deps{
		Stores: stores,
		NewProvider: func(string, device.Store) (authuc.IdentityProvider, error) {
			providers.Add(1)
			return anonProvider{}, nil
		},
		Users:    nopUsers{},
		Admins:   nopAdmins{},
		Carts:    nopCarts{},
		Policy:   authuc.AdminPolicy{Email: "admin@sripavan.lk", Credential: authuc.PlainCredential("x")},
		NewInbox: func() Inbox { return &sliceInbox{} },
	}, cfg)
	require.NoError(t, err)
	return r, &providers
}

func TestRegistry_OneDevicePerID(t *testing.T) {
	stores := &memStores{}
	r, providers := newTestRegistry(t, stores, Config{})
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	var wg sync.WaitGroup
	got := make([]*Device, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := r.Get(context.Background(), "dev-1")
			assert.NoError(t, err)
			got[i] = d
		}(i)
	}
	wg.Wait()

	for _, d := range got {
		assert.Same(t, got[0], d)
	}
	assert.Equal(t, int32(1), providers.Load())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, authuc.StateAnonymous, got[0].Session.State())
}

func TestRegistry_RejectsUnsafeIDs(t *testing.T) {
	r, _ := newTestRegistry(t, &memStores{}, Config{})
	_, err := r.Get(context.Background(), "a/b")
	assert.ErrorIs(t, err, device.ErrInvalidDeviceID)
}

func TestRegistry_CartSurvivesEviction(t *testing.T) {
	stores := &memStores{}
	r, providers := newTestRegistry(t, stores, Config{IdleTTL: time.Minute})
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	d, err := r.Get(ctx, "dev-1")
	require.NoError(t, err)
	require.NoError(t, d.Cart.AddItem(ctx, cartdom.CartItem{ID: "kb", Quantity: 1}))

	now = now.Add(30 * time.Second)
	assert.Equal(t, 0, r.EvictIdle(ctx))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, r.EvictIdle(ctx))
	assert.Equal(t, 0, r.Len())

	d2, err := r.Get(ctx, "dev-1")
	require.NoError(t, err)
	assert.NotSame(t, d, d2)
	assert.Equal(t, int32(2), providers.Load())
	require.Len(t, d2.Cart.Items(), 1, "the local replica outlives the in-memory device")
	assert.Equal(t, "kb", d2.Cart.Items()[0].ID)
}

func TestRegistry_NotificationsReachInbox(t *testing.T) {
	r, _ := newTestRegistry(t, &memStores{}, Config{})
	ctx := context.Background()
	d, err := r.Get(ctx, "dev-1")
	require.NoError(t, err)

	_, err = d.Session.SignIn(ctx, "someone@example.com", "bad", false)
	require.ErrorIs(t, err, authuc.ErrInvalidCredentials)

	ns := d.Inbox.Drain()
	require.Len(t, ns, 1)
	assert.Equal(t, notification.SeverityError, ns[0].Severity)
}

func TestRegistry_ClosedRejectsGet(t *testing.T) {
	r, _ := newTestRegistry(t, &memStores{}, Config{})
	_, err := r.Get(context.Background(), "dev-1")
	require.NoError(t, err)
	require.NoError(t, r.Close(context.Background()))

	_, err = r.Get(context.Background(), "dev-1")
	assert.True(t, errors.Is(err, ErrRegistryClosed))
}
