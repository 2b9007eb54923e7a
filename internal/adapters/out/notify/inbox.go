// backend/internal/adapters/out/notify/inbox.go
package notify

import (
	"context"
	"sync"
	"time"

	"sripavan/internal/domain/notification"
)

// DefaultInboxSize bounds a device inbox; older entries are dropped first.
const DefaultInboxSize = 20

// Inbox collects the notifications of one device until the UI drains them.
type Inbox struct {
	mu    sync.Mutex
	size  int
	items []notification.Notification
	now   func() time.Time
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{size: size, now: time.Now}
}

func (b *Inbox) Notify(_ context.Context, n notification.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = b.now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, n)
	if over := len(b.items) - b.size; over > 0 {
		b.items = append([]notification.Notification(nil), b.items[over:]...)
	}
}

// Drain returns the buffered notifications oldest first and empties the inbox.
func (b *Inbox) Drain() []notification.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	if out == nil {
		out = []notification.Notification{}
	}
	return out
}

// Len returns the number of buffered notifications.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
