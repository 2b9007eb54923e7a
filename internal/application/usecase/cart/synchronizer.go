// backend/internal/application/usecase/cart/synchronizer.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	cartdom "sripavan/internal/domain/cart"
	"sripavan/internal/domain/device"
)

// IdentitySource is the session signal the cart follows.
type IdentitySource interface {
	// CurrentUID returns "" when anonymous.
	CurrentUID() string

	// OnIdentityChange registers fn for session changes. fn may be called
	// with an unchanged uid; the Synchronizer ignores those.
	OnIdentityChange(fn func(uid string)) (cancel func())
}

// Snapshot is the cart as exposed to the UI.
type Snapshot struct {
	Items []cartdom.CartItem `json:"items"`
	Total decimal.Decimal    `json:"total"`
	Count int                `json:"count"`
	Open  bool               `json:"open"`
}

// Deps are the collaborators of a Synchronizer.
type Deps struct {
	Local    device.Store
	Remote   cartdom.RemoteRepository
	Identity IdentitySource
}

type Option func(*Synchronizer)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRemoteTimeout bounds each background remote write.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.remoteTimeout = d
		}
	}
}

const defaultRemoteTimeout = 10 * time.Second

var (
	errNilLocal    = errors.New("cart: local store is nil")
	errNilRemote   = errors.New("cart: remote repository is nil")
	errNilIdentity = errors.New("cart: identity source is nil")
)

// Synchronizer owns the in-memory cart of one device and keeps the
// device-local replica and the per-identity remote replica in step with it.
//
// Sync protocol:
//   - reload on Start and on identity change: remote wins when it has items,
//     otherwise the local cart is adopted and migrated to the remote replica;
//     a failing remote read falls back to the local replica.
//   - every mutation writes the local replica synchronously and queues a
//     remote write (fire-and-forget) when signed in.
//   - an empty cart removes the local slot and deletes the remote replica.
type Synchronizer struct {
	local    device.Store
	remote   cartdom.RemoteRepository
	identity IdentitySource
	logger   *zap.SugaredLogger

	remoteTimeout time.Duration
	writer        *remoteWriter

	mu      sync.Mutex
	cart    *cartdom.Cart
	open    bool
	uid     string
	gen     uint64
	started bool

	cancelIdentity func()
}

// NewSynchronizer validates deps. Call Start to load the replicas.
func NewSynchronizer(deps Deps, opts ...Option) (*Synchronizer, error) {
	switch {
	case deps.Local == nil:
		return nil, errNilLocal
	case deps.Remote == nil:
		return nil, errNilRemote
	case deps.Identity == nil:
		return nil, errNilIdentity
	}

	s := &Synchronizer{
		local:         deps.Local,
		remote:        deps.Remote,
		identity:      deps.Identity,
		logger:        zap.NewNop().Sugar(),
		remoteTimeout: defaultRemoteTimeout,
		cart:          cartdom.New(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.writer = newRemoteWriter(s.remote, s.logger, s.remoteTimeout)
	return s, nil
}

// Start loads the cart for the current identity and follows identity changes.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.cancelIdentity = s.identity.OnIdentityChange(func(uid string) {
		s.onIdentityChange(context.Background(), uid)
	})
	s.reload(ctx, s.identity.CurrentUID())
}

// Close stops following the session and flushes queued remote writes.
func (s *Synchronizer) Close(ctx context.Context) error {
	if s.cancelIdentity != nil {
		s.cancelIdentity()
		s.cancelIdentity = nil
	}
	return s.writer.close(ctx)
}

// Flush waits for queued remote writes.
func (s *Synchronizer) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

func (s *Synchronizer) onIdentityChange(ctx context.Context, uid string) {
	uid = strings.TrimSpace(uid)
	s.mu.Lock()
	same := uid == s.uid
	s.mu.Unlock()
	if same {
		return
	}
	s.reload(ctx, uid)
}

// ============================================================
// Reload
// ============================================================

func (s *Synchronizer) reload(ctx context.Context, uid string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.uid = uid
	s.mu.Unlock()

	if uid == "" {
		s.adopt(ctx, gen, s.readLocal(ctx), false)
		return
	}

	// writes queued for the previous identity land before the read
	if err := s.writer.flush(ctx); err != nil {
		s.logger.Warnw("flush before reload interrupted", "err", err)
	}

	remoteItems, err := s.remote.Get(ctx, uid)
	if err != nil {
		s.logger.Warnw("remote cart read failed; using local replica", "uid", uid, "err", err)
		s.adopt(ctx, gen, s.readLocal(ctx), false)
		return
	}
	if len(remoteItems) > 0 {
		s.adopt(ctx, gen, remoteItems, true)
		return
	}

	local := s.readLocal(ctx)
	if !s.adopt(ctx, gen, local, false) {
		return
	}
	if len(local) > 0 {
		s.logger.Infow("migrating local cart to identity", "uid", uid, "lines", len(local))
		s.mu.Lock()
		items := s.cart.Items()
		s.mu.Unlock()
		s.writer.save(uid, items)
	}
}

// adopt installs items unless a newer reload started meanwhile.
// writeLocal overwrites the local replica with the adopted cart.
func (s *Synchronizer) adopt(ctx context.Context, gen uint64, items []cartdom.CartItem, writeLocal bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.logger.Debugw("discarding stale cart reload", "gen", gen, "current", s.gen)
		return false
	}
	s.cart = cartdom.New(items)
	if writeLocal {
		if err := s.writeLocalLocked(ctx); err != nil {
			s.logger.Warnw("local cart write failed", "err", err)
		}
	}
	return true
}

func (s *Synchronizer) readLocal(ctx context.Context) []cartdom.CartItem {
	raw, ok, err := s.local.Get(ctx, cartdom.LocalKey)
	if err != nil {
		s.logger.Warnw("local cart read failed", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	items, err := cartdom.DecodeLocal(raw)
	if err != nil {
		s.logger.Warnw("local cart replica is corrupt; ignoring", "err", err)
		return nil
	}
	return items
}

// ============================================================
// Mutations
// ============================================================

// AddItem merges item into the cart and opens the cart panel.
func (s *Synchronizer) AddItem(ctx context.Context, item cartdom.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.Add(item); err != nil {
		return err
	}
	s.open = true
	return s.persistLocked(ctx)
}

// UpdateQuantity is a no-op for quantity < 1 or an unknown id.
// Quantities above cart.MaxQuantity fail with cart.ErrInvalidItem.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.cart.UpdateQuantity(id, quantity)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.persistLocked(ctx)
}

// RemoveItem is a no-op for an unknown id.
func (s *Synchronizer) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cart.Remove(id) {
		return nil
	}
	return s.persistLocked(ctx)
}

// Clear empties the cart and removes the local replica immediately.
func (s *Synchronizer) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	return s.persistLocked(ctx)
}

func (s *Synchronizer) SetOpen(open bool) {
	s.mu.Lock()
	s.open = open
	s.mu.Unlock()
}

// persistLocked writes the local replica and queues the remote write.
// Only a local failure is returned.
func (s *Synchronizer) persistLocked(ctx context.Context) error {
	if s.uid != "" {
		if s.cart.IsEmpty() {
			s.writer.delete(s.uid)
		} else {
			s.writer.save(s.uid, s.cart.Items())
		}
	}
	if err := s.writeLocalLocked(ctx); err != nil {
		s.logger.Errorw("local cart write failed", "err", err)
		return fmt.Errorf("cart: write local replica: %w", err)
	}
	return nil
}

func (s *Synchronizer) writeLocalLocked(ctx context.Context) error {
	if s.cart.IsEmpty() {
		return s.local.Remove(ctx, cartdom.LocalKey)
	}
	raw, err := cartdom.EncodeLocal(s.cart.Items())
	if err != nil {
		return err
	}
	return s.local.Set(ctx, cartdom.LocalKey, raw)
}

// ============================================================
// Readers
// ============================================================

func (s *Synchronizer) Items() []cartdom.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

func (s *Synchronizer) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *Synchronizer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

func (s *Synchronizer) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items: s.cart.Items(),
		Total: s.cart.Total(),
		Count: s.cart.Count(),
		Open:  s.open,
	}
}
