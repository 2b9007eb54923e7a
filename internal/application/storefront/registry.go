// backend/internal/application/storefront/registry.go
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	authuc "sripavan/internal/application/usecase/auth"
	cartuc "sripavan/internal/application/usecase/cart"
	admindom "sripavan/internal/domain/admin"
	cartdom "sripavan/internal/domain/cart"
	"sripavan/internal/domain/device"
	"sripavan/internal/domain/notification"
	userdom "sripavan/internal/domain/user"
)

// Inbox buffers the notifications of one device until the UI drains them.
type Inbox interface {
	notification.Notifier
	Drain() []notification.Notification
}

// Device is the per-browser pair of state containers.
type Device struct {
	ID      string
	Session *authuc.Manager
	Cart    *cartuc.Synchronizer
	Inbox   Inbox

	mu       sync.Mutex
	lastSeen time.Time
}

func (d *Device) touch(now time.Time) {
	d.mu.Lock()
	d.lastSeen = now
	d.mu.Unlock()
}

func (d *Device) idleSince() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen
}

func (d *Device) close(ctx context.Context) error {
	d.Session.Close()
	return d.Cart.Close(ctx)
}

// Deps are shared by every device.
type Deps struct {
	Stores device.StoreFactory

	// NewProvider opens the identity provider session of one device.
	NewProvider func(deviceID string, store device.Store) (authuc.IdentityProvider, error)

	Users  userdom.Repository
	Admins admindom.Index
	Carts  cartdom.RemoteRepository
	Policy authuc.AdminPolicy

	NewInbox func() Inbox
	// Notifier additionally receives every device notification (e.g. a log sink).
	Notifier notification.Notifier

	Logger *zap.SugaredLogger
}

// Config tunes device eviction.
type Config struct {
	IdleTTL         time.Duration
	JanitorInterval time.Duration
	RemoteTimeout   time.Duration
}

var ErrRegistryClosed = errors.New("storefront: registry is closed")

type entry struct {
	ready  chan struct{}
	device *Device
	err    error
}

// Registry owns the devices of this process. Each device gets exactly one
// session manager and one cart synchronizer, built on first use.
type Registry struct {
	deps   Deps
	cfg    Config
	logger *zap.SugaredLogger
	now    func() time.Time

	mu      sync.Mutex
	devices map[string]*entry
	closed  bool
}

func NewRegistry(deps Deps, cfg Config) (*Registry, error) {
	if deps.Stores == nil || deps.NewProvider == nil {
		return nil, errors.New("storefront: device store factory and identity provider are required")
	}
	if deps.Users == nil || deps.Admins == nil || deps.Carts == nil {
		return nil, errors.New("storefront: repositories are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = time.Minute
	}
	return &Registry{
		deps:    deps,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		devices: map[string]*entry{},
	}, nil
}

// Get returns the device for id, building and starting it on first use.
// Concurrent callers for the same id share one build.
func (r *Registry) Get(ctx context.Context, deviceID string) (*Device, error) {
	id, err := device.NormalizeID(deviceID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	e, ok := r.devices[id]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		r.devices[id] = e
	}
	r.mu.Unlock()

	if ok {
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err != nil {
			return nil, e.err
		}
		e.device.touch(r.now())
		return e.device, nil
	}

	e.device, e.err = r.build(ctx, id)
	if e.err != nil {
		r.mu.Lock()
		delete(r.devices, id)
		r.mu.Unlock()
	} else {
		e.device.touch(r.now())
	}
	close(e.ready)
	return e.device, e.err
}

func (r *Registry) build(ctx context.Context, id string) (*Device, error) {
	log := r.logger.With("device", id)

	store, err := r.deps.Stores.ForDevice(id)
	if err != nil {
		return nil, fmt.Errorf("storefront: open device store: %w", err)
	}
	provider, err := r.deps.NewProvider(id, store)
	if err != nil {
		return nil, fmt.Errorf("storefront: open identity provider: %w", err)
	}

	var inbox Inbox
	if r.deps.NewInbox != nil {
		inbox = r.deps.NewInbox()
	}
	var notifier notification.Notifier
	if inbox != nil {
		notifier = fanout(inbox, r.deps.Notifier)
	} else {
		notifier = fanout(r.deps.Notifier)
	}

	session, err := authuc.NewManager(authuc.Deps{
		Provider: provider,
		Users:    r.deps.Users,
		Admins:   r.deps.Admins,
		Notifier: notifier,
		Store:    store,
		Policy:   r.deps.Policy,
	}, authuc.WithLogger(log.Named("session")))
	if err != nil {
		return nil, err
	}
	session.Start(ctx)

	cart, err := cartuc.NewSynchronizer(cartuc.Deps{
		Local:    store,
		Remote:   r.deps.Carts,
		Identity: sessionIdentity{m: session},
	}, cartuc.WithLogger(log.Named("cart")), cartuc.WithRemoteTimeout(r.cfg.RemoteTimeout))
	if err != nil {
		session.Close()
		return nil, err
	}
	cart.Start(ctx)

	log.Debugw("device ready", "state", session.State())
	return &Device{ID: id, Session: session, Cart: cart, Inbox: inbox}, nil
}

// Len returns the number of live devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

// Run evicts idle devices until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	t := time.NewTicker(r.cfg.JanitorInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.EvictIdle(ctx)
		}
	}
}

// EvictIdle closes devices not used within IdleTTL and returns how many.
func (r *Registry) EvictIdle(ctx context.Context) int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	var stale []*Device
	r.mu.Lock()
	for id, e := range r.devices {
		select {
		case <-e.ready:
		default:
			continue
		}
		if e.device != nil && e.device.idleSince().Before(cutoff) {
			stale = append(stale, e.device)
			delete(r.devices, id)
		}
	}
	r.mu.Unlock()

	for _, d := range stale {
		if err := d.close(ctx); err != nil {
			r.logger.Warnw("close idle device failed", "device", d.ID, "err", err)
		}
	}
	if len(stale) > 0 {
		r.logger.Debugw("evicted idle devices", "count", len(stale))
	}
	return len(stale)
}

// Close flushes and closes every device.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	all := make([]*entry, 0, len(r.devices))
	for _, e := range r.devices {
		all = append(all, e)
	}
	r.devices = map[string]*entry{}
	r.mu.Unlock()

	var errs []error
	for _, e := range all {
		<-e.ready
		if e.device == nil {
			continue
		}
		if err := e.device.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", e.device.ID, err))
		}
	}
	return errors.Join(errs...)
}

// sessionIdentity feeds the session manager's identity into the cart.
type sessionIdentity struct {
	m *authuc.Manager
}

func (s sessionIdentity) CurrentUID() string { return s.m.CurrentUID() }

func (s sessionIdentity) OnIdentityChange(fn func(uid string)) func() {
	return s.m.Subscribe(func(snap authuc.Snapshot) {
		if snap.Loading {
			return
		}
		uid := ""
		if snap.Identity != nil {
			uid = snap.Identity.UID
		}
		fn(uid)
	})
}

func fanout(ns ...notification.Notifier) notification.Notifier {
	var live []notification.Notifier
	for _, n := range ns {
		if n != nil {
			live = append(live, n)
		}
	}
	return notification.NotifierFunc(func(ctx context.Context, n notification.Notification) {
		for _, sink := range live {
			sink.Notify(ctx, n)
		}
	})
}
