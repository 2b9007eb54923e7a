// backend/internal/adapters/in/http/console/router.go
package console

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	consoleHandler "sripavan/internal/adapters/in/http/console/handler"
	"sripavan/internal/adapters/in/http/middleware"
)

type Deps struct {
	Orders *consoleHandler.OrderHandler
	Logger *zap.SugaredLogger
}

// Register mounts /console. Every route requires an admin-mode session.
func Register(r chi.Router, deps Deps) {
	if r == nil {
		return
	}
	r.Route("/console", func(r chi.Router) {
		r.Use(middleware.RequireAdminMode)

		if deps.Orders == nil {
			if deps.Logger != nil {
				deps.Logger.Warnw("nil handler; registering NotFound", "route", "GET /console/orders")
			}
			r.Get("/orders", http.NotFound)
			return
		}
		r.Get("/orders", deps.Orders.List)
	})
}
