// backend/internal/adapters/in/http/middleware/device.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sripavan/internal/application/storefront"
	devicedom "sripavan/internal/domain/device"
)

const (
	DeviceCookie = "device_id"
	DeviceHeader = "X-Device-Id"
)

// DeviceSource resolves the state containers of a browser device.
type DeviceSource interface {
	Get(ctx context.Context, deviceID string) (*storefront.Device, error)
}

// context key
type ctxKey struct{ name string }

var ctxKeyDevice = ctxKey{name: "device"}

// DeviceOptions tune the device cookie.
type DeviceOptions struct {
	SecureCookie bool
	CookieMaxAge time.Duration
}

// Device attaches the caller's *storefront.Device to the request context.
// The id is read from the X-Device-Id header, then the device_id cookie;
// a browser without either gets a fresh id in a cookie.
func Device(src DeviceSource, opts DeviceOptions, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.CookieMaxAge <= 0 {
		opts.CookieMaxAge = 365 * 24 * time.Hour
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, fresh := deviceID(r)
			if fresh {
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(opts.CookieMaxAge / time.Second),
					HttpOnly: true,
					Secure:   opts.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(DeviceHeader, id)

			d, err := src.Get(r.Context(), id)
			if err != nil {
				status := http.StatusServiceUnavailable
				if errors.Is(err, devicedom.ErrInvalidDeviceID) {
					status = http.StatusBadRequest
				}
				logger.Warnw("resolve device failed", "device", id, "err", err)
				writeError(w, status, "device_unavailable", "Your session could not be loaded. Please retry.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithDevice(r.Context(), d)))
		})
	}
}

// deviceID returns the caller's id, or a new one (fresh=true).
func deviceID(r *http.Request) (id string, fresh bool) {
	if v, err := devicedom.NormalizeID(r.Header.Get(DeviceHeader)); err == nil {
		return v, false
	}
	if c, err := r.Cookie(DeviceCookie); err == nil {
		if v, err := devicedom.NormalizeID(c.Value); err == nil {
			return v, false
		}
	}
	return uuid.NewString(), true
}

func WithDevice(ctx context.Context, d *storefront.Device) context.Context {
	return context.WithValue(ctx, ctxKeyDevice, d)
}

// DeviceFrom returns the device attached by Device, or nil.
func DeviceFrom(ctx context.Context) *storefront.Device {
	d, _ := ctx.Value(ctxKeyDevice).(*storefront.Device)
	return d
}

// RequireAdminMode lets only devices with an active admin session through.
func RequireAdminMode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := DeviceFrom(r.Context())
		switch {
		case d == nil || d.Session.Current() == nil:
			writeError(w, http.StatusUnauthorized, "unauthenticated", "Please log in to continue.")
		case !d.Session.AdminMode():
			writeError(w, http.StatusForbidden, "admin_required", "You do not have admin access.")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + msg + `"}`))
}
