// backend/internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "sripavan/internal/domain/cart"
)

// CartRepositoryFS implements cart.RemoteRepository using Firestore.
//
// Collection design:
// - collection: userCarts
// - docId: uid ✅ (docId is the source of truth)
// - fields: items(array of {id,name,price,image,quantity,total}), updatedAt
//
// Save is a full-document overwrite (last writer wins).
type CartRepositoryFS struct {
	Client *firestore.Client
}

func NewCartRepositoryFS(client *firestore.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("userCarts")
}

// Get returns (nil, nil) if not found (nil policy).
func (r *CartRepositoryFS) Get(ctx context.Context, uid string) ([]cartdom.CartItem, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(uid)
	if id == "" {
		return nil, errors.New("cart_repository_fs: uid is empty")
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	// ✅ IMPORTANT:
	// the web client wrote this document directly, so DataTo(&struct) can fail
	// on type drift (price as string, quantity as float). Parse snap.Data() by hand.
	return cartItemsFromData(snap.Data()), nil
}

// Save overwrites userCarts/{uid}.
func (r *CartRepositoryFS) Save(ctx context.Context, uid string, items []cartdom.CartItem) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(uid)
	if id == "" {
		return errors.New("cart_repository_fs: uid is empty")
	}

	_, err := r.col().Doc(id).Set(ctx, cartDocFromItems(items, time.Now().UTC()))
	return err
}

// Delete removes userCarts/{uid}; a missing doc is not an error.
func (r *CartRepositoryFS) Delete(ctx context.Context, uid string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(uid)
	if id == "" {
		return errors.New("cart_repository_fs: uid is empty")
	}

	_, err := r.col().Doc(id).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

func cartDocFromItems(items []cartdom.CartItem, now time.Time) map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" || it.Quantity <= 0 {
			continue
		}
		out = append(out, map[string]any{
			"id":       id,
			"name":     it.Name,
			"price":    priceValue(it.UnitPrice),
			"image":    it.Image,
			"quantity": it.Quantity,
			"total":    priceValue(it.LineTotal),
		})
	}
	return map[string]any{
		"items":     out,
		"updatedAt": now,
	}
}

// cartItemsFromData parses a userCarts document.
//
// Supported shapes:
// 1) items: [ {id, name, price, image, quantity, total} ]
// 2) items: map[id] = {name, price, image, quantity} (legacy)
//
// Lines are merged and totals recomputed by cart.New when adopted.
func cartItemsFromData(raw map[string]any) []cartdom.CartItem {
	if raw == nil {
		return nil
	}

	var items []cartdom.CartItem
	switch v := raw["items"].(type) {
	case []any:
		for _, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if it, ok := cartItemFromMap(asString(m["id"]), m); ok {
				items = append(items, it)
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m, ok := v[k].(map[string]any)
			if !ok {
				continue
			}
			id := asString(m["id"])
			if strings.TrimSpace(id) == "" {
				id = k
			}
			if it, ok := cartItemFromMap(id, m); ok {
				items = append(items, it)
			}
		}
	}
	return items
}

func cartItemFromMap(id string, m map[string]any) (cartdom.CartItem, bool) {
	id = strings.TrimSpace(id)
	qty := asInt(m["quantity"])
	if id == "" || qty <= 0 {
		return cartdom.CartItem{}, false
	}
	return cartdom.CartItem{
		ID:        id,
		Name:      strings.TrimSpace(asString(m["name"])),
		UnitPrice: asDecimal(m["price"]),
		Image:     strings.TrimSpace(asString(m["image"])),
		Quantity:  qty,
	}, true
}

var _ cartdom.RemoteRepository = (*CartRepositoryFS)(nil)
