// backend/internal/adapters/out/firestore/order_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "sripavan/internal/domain/cart"
	orderdom "sripavan/internal/domain/order"
)

// Firestore implementation of order.Repository
type OrderRepositoryFS struct {
	Client *firestore.Client
}

func NewOrderRepositoryFS(client *firestore.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

func (r *OrderRepositoryFS) ordersCol() *firestore.CollectionRef {
	return r.Client.Collection("orders")
}

// Create stores orders/{id}; an existing id is an error.
func (r *OrderRepositoryFS) Create(ctx context.Context, o orderdom.Order) error {
	if r == nil || r.Client == nil {
		return errNilClient
	}

	id := strings.TrimSpace(o.ID)
	if id == "" {
		return orderdom.ErrInvalidID
	}

	if _, err := r.ordersCol().Doc(id).Create(ctx, orderToData(o)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("order %s already exists: %w", id, err)
		}
		return err
	}
	return nil
}

// List returns the newest orders first.
func (r *OrderRepositoryFS) List(ctx context.Context, limit int) ([]orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return nil, errNilClient
	}

	q := r.ordersCol().OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var out []orderdom.Order
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, orderFromData(doc.Ref.ID, doc.Data()))
	}
	return out, nil
}

// ========================
// Mapping
// ========================

func orderToData(o orderdom.Order) map[string]any {
	doc := cartDocFromItems(o.Items, o.CreatedAt)
	return map[string]any{
		"id":  strings.TrimSpace(o.ID),
		"uid": strings.TrimSpace(o.UID),
		"customer": map[string]any{
			"name":    o.Customer.Name,
			"email":   o.Customer.Email,
			"phone":   o.Customer.Phone,
			"address": o.Customer.Address,
		},
		"items":     doc["items"],
		"total":     priceValue(o.Total),
		"count":     o.Count,
		"status":    string(o.Status),
		"createdAt": o.CreatedAt.UTC(),
	}
}

func orderFromData(docID string, data map[string]any) orderdom.Order {
	o := orderdom.Order{ID: strings.TrimSpace(docID)}
	if data == nil {
		return o
	}

	o.UID = strings.TrimSpace(asString(data["uid"]))
	if c, ok := data["customer"].(map[string]any); ok {
		o.Customer = orderdom.CustomerSnapshot{
			Name:    asString(c["name"]),
			Email:   asString(c["email"]),
			Phone:   asString(c["phone"]),
			Address: asString(c["address"]),
		}
	}

	// totals are derived from the stored lines, not from total/count fields
	c := cartdom.New(cartItemsFromData(data))
	o.Items = c.Items()
	o.Total = c.Total()
	o.Count = c.Count()

	o.Status = orderdom.Status(strings.TrimSpace(asString(data["status"])))
	if o.Status == "" {
		o.Status = orderdom.StatusPlaced
	}
	if t, ok := asTime(data["createdAt"]); ok {
		o.CreatedAt = t.UTC()
	}
	return o
}

var _ orderdom.Repository = (*OrderRepositoryFS)(nil)
