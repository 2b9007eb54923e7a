// backend/internal/domain/cart/repository_port.go
package cart

import (
	"context"
	"encoding/json"
)

// RemoteRepository is the persistence port for the per-identity replica.
//
// Storage (Firestore):
// - collection: userCarts
// - docId: uid
// - fields: items(array), updatedAt
//
// Writes are full-document overwrites (last writer wins).
type RemoteRepository interface {
	// Get returns (nil, nil) when the replica does not exist.
	Get(ctx context.Context, uid string) ([]CartItem, error)

	// Save overwrites the replica with items.
	Save(ctx context.Context, uid string, items []CartItem) error

	// Delete removes the replica. Deleting a missing replica is not an error.
	Delete(ctx context.Context, uid string) error
}

// LocalKey is the device-local slot holding the serialized cart.
const LocalKey = "cart"

// EncodeLocal serializes items for the device-local replica.
func EncodeLocal(items []CartItem) (string, error) {
	if items == nil {
		items = []CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeLocal parses the device-local replica.
// Lines are normalized by New when adopted.
func DecodeLocal(raw string) ([]CartItem, error) {
	if raw == "" {
		return nil, nil
	}
	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}
