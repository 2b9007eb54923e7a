package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	cartdom "sripavan/internal/domain/cart"
)

type remoteOp struct {
	uid   string
	items []cartdom.CartItem
	del   bool
}

// remoteWriter applies per-identity replica writes in order on one
// goroutine. Consecutive writes for the same uid are coalesced into the last
// one (last writer wins). Failures are logged and dropped.
type remoteWriter struct {
	repo    cartdom.RemoteRepository
	logger  *zap.SugaredLogger
	timeout time.Duration

	mu     sync.Mutex
	queue  []remoteOp
	idle   chan struct{} // non-nil while work is queued or in flight
	closed bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newRemoteWriter(repo cartdom.RemoteRepository, logger *zap.SugaredLogger, timeout time.Duration) *remoteWriter {
	w := &remoteWriter{
		repo:    repo,
		logger:  logger,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *remoteWriter) save(uid string, items []cartdom.CartItem) {
	w.enqueue(remoteOp{uid: uid, items: cartdom.CloneItems(items)})
}

func (w *remoteWriter) delete(uid string) {
	w.enqueue(remoteOp{uid: uid, del: true})
}

func (w *remoteWriter) enqueue(op remoteOp) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warnw("remote cart write dropped after close", "uid", op.uid)
		return
	}
	if n := len(w.queue); n > 0 && w.queue[n-1].uid == op.uid {
		w.queue[n-1] = op
	} else {
		w.queue = append(w.queue, op)
	}
	if w.idle == nil {
		w.idle = make(chan struct{})
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// flush waits until every write queued before the call has been applied.
func (w *remoteWriter) flush(ctx context.Context) error {
	w.mu.Lock()
	ch := w.idle
	w.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close flushes pending writes and stops the goroutine.
func (w *remoteWriter) close(ctx context.Context) error {
	err := w.flush(ctx)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return err
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	select {
	case <-w.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (w *remoteWriter) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *remoteWriter) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			if w.idle != nil {
				close(w.idle)
				w.idle = nil
			}
			w.mu.Unlock()
			return
		}
		op := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.apply(op)
	}
}

func (w *remoteWriter) apply(op remoteOp) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var err error
	if op.del {
		err = w.repo.Delete(ctx, op.uid)
	} else {
		err = w.repo.Save(ctx, op.uid, op.items)
	}
	if err != nil {
		w.logger.Warnw("remote cart write failed", "uid", op.uid, "delete", op.del, "err", err)
	}
}
