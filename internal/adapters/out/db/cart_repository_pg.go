// backend/internal/adapters/out/db/cart_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cartdom "sripavan/internal/domain/cart"
)

// CartRepositoryPG implements cart.RemoteRepository on
// documents(collection='userCarts', id=uid).
type CartRepositoryPG struct {
	docs documents
}

func NewCartRepositoryPG(db *sql.DB) *CartRepositoryPG {
	return &CartRepositoryPG{docs: newDocuments(db)}
}

type cartDocument struct {
	Items     []cartdom.CartItem `json:"items"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

var errEmptyUID = errors.New("cart_repository_pg: uid is empty")

// Get returns (nil, nil) when no replica exists.
func (r *CartRepositoryPG) Get(ctx context.Context, uid string) ([]cartdom.CartItem, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errEmptyUID
	}

	raw, err := r.docs.get(ctx, colCarts, uid)
	if errors.Is(err, errNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc cartDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode userCarts/%s: %w", uid, err)
	}
	return doc.Items, nil
}

func (r *CartRepositoryPG) Save(ctx context.Context, uid string, items []cartdom.CartItem) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errEmptyUID
	}

	data, err := json.Marshal(cartDocument{
		Items:     cartdom.CloneItems(items),
		UpdatedAt: r.docs.now(),
	})
	if err != nil {
		return err
	}
	return r.docs.upsert(ctx, colCarts, uid, data)
}

func (r *CartRepositoryPG) Delete(ctx context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errEmptyUID
	}
	return r.docs.remove(ctx, colCarts, uid)
}

var _ cartdom.RemoteRepository = (*CartRepositoryPG)(nil)
