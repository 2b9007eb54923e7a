// backend/internal/adapters/in/http/mall/router.go
package mall

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mallHandler "sripavan/internal/adapters/in/http/mall/handler"
)

// Deps is the buyer-facing (mall) handler set.
type Deps struct {
	Session      *mallHandler.SessionHandler
	Cart         *mallHandler.CartHandler
	Checkout     *mallHandler.CheckoutHandler
	ProfilePhoto *mallHandler.ProfilePhotoHandler

	Logger *zap.SugaredLogger
}

// handleSafe registers h for method+pattern.
// A missing handler logs and registers NotFound instead so the process still starts.
func handleSafe(r chi.Router, log *zap.SugaredLogger, method, pattern string, h http.HandlerFunc) {
	if h == nil {
		if log != nil {
			log.Warnw("nil handler; registering NotFound", "method", method, "pattern", pattern)
		}
		h = http.NotFound
	}
	r.Method(method, pattern, h)
}

// Register mounts /mall. The device middleware must already be installed.
func Register(r chi.Router, deps Deps) {
	if r == nil {
		return
	}
	log := deps.Logger
	s, c, co, p := deps.Session, deps.Cart, deps.Checkout, deps.ProfilePhoto

	r.Route("/mall", func(r chi.Router) {
		// session
		handleSafe(r, log, http.MethodPost, "/sign-up", method(s, (*mallHandler.SessionHandler).SignUp))
		handleSafe(r, log, http.MethodPost, "/sign-in", method(s, (*mallHandler.SessionHandler).SignIn))
		handleSafe(r, log, http.MethodPost, "/sign-out", method(s, (*mallHandler.SessionHandler).SignOut))
		handleSafe(r, log, http.MethodPost, "/forgot-password", method(s, (*mallHandler.SessionHandler).ForgotPassword))
		handleSafe(r, log, http.MethodGet, "/me/session", method(s, (*mallHandler.SessionHandler).Get))
		handleSafe(r, log, http.MethodPatch, "/me/profile", method(s, (*mallHandler.SessionHandler).UpdateProfile))
		handleSafe(r, log, http.MethodPost, "/me/profile/photo", method(p, (*mallHandler.ProfilePhotoHandler).Upload))

		// cart
		handleSafe(r, log, http.MethodGet, "/me/cart", method(c, (*mallHandler.CartHandler).Get))
		handleSafe(r, log, http.MethodDelete, "/me/cart", method(c, (*mallHandler.CartHandler).Clear))
		handleSafe(r, log, http.MethodPut, "/me/cart/open", method(c, (*mallHandler.CartHandler).SetOpen))
		handleSafe(r, log, http.MethodPost, "/me/cart/items", method(c, (*mallHandler.CartHandler).AddItem))
		handleSafe(r, log, http.MethodPut, "/me/cart/items/{id}", method(c, (*mallHandler.CartHandler).UpdateQuantity))
		handleSafe(r, log, http.MethodDelete, "/me/cart/items/{id}", method(c, (*mallHandler.CartHandler).RemoveItem))

		// checkout
		handleSafe(r, log, http.MethodPost, "/me/checkout", method(co, (*mallHandler.CheckoutHandler).Place))

		// notifications
		r.Get("/me/notifications", mallHandler.Notifications)
	})
}

// method binds a handler method to its receiver; nil receivers yield nil.
func method[T any](recv *T, fn func(*T, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	if recv == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) { fn(recv, w, r) }
}
