// backend/internal/adapters/in/http/mall/handler/notification_handler.go
package mallHandler

import (
	"net/http"

	"sripavan/internal/domain/notification"
)

// GET /mall/me/notifications
// Drains the device inbox; each notification is returned once.
func Notifications(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	out := []notification.Notification{}
	if d.Inbox != nil {
		out = d.Inbox.Drain()
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}
