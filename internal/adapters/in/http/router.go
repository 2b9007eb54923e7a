// backend/internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sripavan/internal/adapters/in/http/console"
	consoleHandler "sripavan/internal/adapters/in/http/console/handler"
	"sripavan/internal/adapters/in/http/mall"
	mallHandler "sripavan/internal/adapters/in/http/mall/handler"
	"sripavan/internal/adapters/in/http/middleware"
)

// RouterDeps collects everything the HTTP surface needs, injected from the container.
type RouterDeps struct {
	Devices middleware.DeviceSource
	Device  middleware.DeviceOptions

	Checkout     mallHandler.OrderPlacer
	ProfilePhoto mallHandler.PhotoReplacer
	Orders       consoleHandler.OrderLister

	AllowedOrigins []string
	Logger         *zap.SugaredLogger
}

// NewRouter builds the BFF handler tree.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	// CORS outermost so error responses keep CORS headers
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log.Named("http")))
	r.Use(middleware.Recover(log.Named("recover")))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Device(deps.Devices, deps.Device, log.Named("device")))

		md := mall.Deps{
			Session: mallHandler.NewSessionHandler(log),
			Cart:    mallHandler.NewCartHandler(log),
			Logger:  log,
		}
		if deps.Checkout != nil {
			md.Checkout = mallHandler.NewCheckoutHandler(deps.Checkout, log)
		}
		if deps.ProfilePhoto != nil {
			md.ProfilePhoto = mallHandler.NewProfilePhotoHandler(deps.ProfilePhoto, log)
		}
		mall.Register(r, md)

		cd := console.Deps{Logger: log}
		if deps.Orders != nil {
			cd.Orders = consoleHandler.NewOrderHandler(deps.Orders, log)
		}
		console.Register(r, cd)
	})

	return r
}
