// backend/internal/domain/device/store.go
package device

import (
	"context"
	"errors"
	"strings"
)

// Store is the device-local replica: a string-keyed slot store scoped to one
// browser device (the BFF-side equivalent of the browser's local storage).
type Store interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove is idempotent.
	Remove(ctx context.Context, key string) error
}

// StoreFactory opens the Store for a device id.
type StoreFactory interface {
	ForDevice(deviceID string) (Store, error)
}

var (
	ErrInvalidDeviceID = errors.New("device: invalid device id")
)

// MaxIDLength bounds device ids accepted from cookies/headers.
const MaxIDLength = 64

// NormalizeID validates a client-supplied device id.
// Only [A-Za-z0-9-_] are accepted so ids are safe as file names and keys.
func NormalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxIDLength {
		return "", ErrInvalidDeviceID
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return "", ErrInvalidDeviceID
		}
	}
	return id, nil
}
