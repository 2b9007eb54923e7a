// backend/internal/adapters/out/db/order_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	cartdom "sripavan/internal/domain/cart"
	orderdom "sripavan/internal/domain/order"
)

// OrderRepositoryPG implements order.Repository on documents(collection='orders').
type OrderRepositoryPG struct {
	docs documents
}

func NewOrderRepositoryPG(db *sql.DB) *OrderRepositoryPG {
	return &OrderRepositoryPG{docs: newDocuments(db)}
}

func (r *OrderRepositoryPG) Create(ctx context.Context, o orderdom.Order) error {
	id := strings.TrimSpace(o.ID)
	if id == "" {
		return orderdom.ErrInvalidID
	}
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	if err := r.docs.insert(ctx, colOrders, id, data); err != nil {
		if errors.Is(err, errDuplicate) {
			return fmt.Errorf("order %s already exists: %w", id, err)
		}
		return err
	}
	return nil
}

// List returns the newest orders first; limit <= 0 means no limit.
func (r *OrderRepositoryPG) List(ctx context.Context, limit int) ([]orderdom.Order, error) {
	if r.docs.DB == nil {
		return nil, errNilDB
	}

	q := `
SELECT id, data
FROM documents
WHERE collection = $1
ORDER BY created_at DESC, id DESC`
	args := []any{colOrders}
	if limit > 0 {
		q += "\nLIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.docs.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orderdom.Order
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		o, err := decodeOrder(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func decodeOrder(id string, raw []byte) (orderdom.Order, error) {
	var o orderdom.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return orderdom.Order{}, fmt.Errorf("decode orders/%s: %w", id, err)
	}
	o.ID = id

	c := cartdom.New(o.Items)
	o.Items = c.Items()
	o.Total = c.Total()
	o.Count = c.Count()
	if o.Status == "" {
		o.Status = orderdom.StatusPlaced
	}
	return o, nil
}

var _ orderdom.Repository = (*OrderRepositoryPG)(nil)
