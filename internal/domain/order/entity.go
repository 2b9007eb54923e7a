// backend/internal/domain/order/entity.go
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	cartdom "sripavan/internal/domain/cart"
)

// ========================================
// Snapshot structs (stored in Order)
// ========================================

// CustomerSnapshot is the contact/shipping details captured at checkout.
type CustomerSnapshot struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Status of an order. Payment is not processed here, so an order is only
// ever "placed" by the storefront; the back-office moves it further.
type Status string

const (
	StatusPlaced Status = "placed"
)

// ========================================
// Entity
// ========================================

type Order struct {
	ID string `json:"id"`
	// UID is empty for guest checkouts.
	UID      string           `json:"uid,omitempty"`
	Customer CustomerSnapshot `json:"customer"`

	Items []cartdom.CartItem `json:"items"`
	Total decimal.Decimal    `json:"total"`
	Count int                `json:"count"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID        = errors.New("order: invalid id")
	ErrInvalidItems     = errors.New("order: invalid items")
	ErrInvalidCustomer  = errors.New("order: invalid customer")
	ErrInvalidCreatedAt = errors.New("order: invalid createdAt")
)

// New snapshots cart lines into a placed order.
func New(id, uid string, customer CustomerSnapshot, items []cartdom.CartItem, now time.Time) (Order, error) {
	o := Order{
		ID:  strings.TrimSpace(id),
		UID: strings.TrimSpace(uid),
		Customer: CustomerSnapshot{
			Name:    strings.TrimSpace(customer.Name),
			Email:   strings.TrimSpace(customer.Email),
			Phone:   strings.TrimSpace(customer.Phone),
			Address: strings.TrimSpace(customer.Address),
		},
		Items:     cartdom.CloneItems(items),
		Status:    StatusPlaced,
		CreatedAt: now.UTC(),
	}
	// totals are recomputed from the lines, never trusted from the caller
	c := cartdom.New(o.Items)
	o.Items = c.Items()
	o.Total = c.Total()
	o.Count = c.Count()

	if err := o.validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (o Order) validate() error {
	if o.ID == "" {
		return ErrInvalidID
	}
	if len(o.Items) == 0 {
		return ErrInvalidItems
	}
	if o.Customer.Name == "" || o.Customer.Email == "" {
		return ErrInvalidCustomer
	}
	if o.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	return nil
}

// ========================================
// Repository Port
// ========================================

type Repository interface {
	Create(ctx context.Context, o Order) error
	// List returns the newest orders first.
	List(ctx context.Context, limit int) ([]Order, error)
}
