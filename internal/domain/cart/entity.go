// backend/internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidItem = errors.New("cart: invalid item")
)

// MaxQuantity bounds the quantity of one line.
const MaxQuantity = 999

// CartItem represents one line of the cart.
// ID references a catalog entry and is unique within a cart.
type CartItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"total"`
}

// Cart is the in-memory cart, the single source of truth during a session.
// Device-local and per-identity remote copies are replicas of it.
//
// NOTE:
// - Total/Count are always derived from Items (never stored separately).
// - The zero value is an empty cart.
type Cart struct {
	items []CartItem
}

// New builds a cart from replica contents.
// Lines are normalized and duplicates merged so invariants hold even for
// replicas written by older clients.
func New(items []CartItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		if it.Quantity > MaxQuantity {
			it.Quantity = MaxQuantity
		}
		norm, err := normalizeItem(it)
		if err != nil {
			continue
		}
		if err := c.merge(norm); err != nil {
			// keep the existing line, capped
			c.items[c.index(norm.ID)].setQuantity(MaxQuantity)
		}
	}
	return c
}

// Add merges the item into the cart keyed by ID.
// An existing line keeps its name/price/image and gains the added quantity.
// Quantity < 1 is treated as 1. A resulting quantity above MaxQuantity is
// rejected with ErrInvalidItem and leaves the cart unchanged.
func (c *Cart) Add(it CartItem) error {
	norm, err := normalizeItem(it)
	if err != nil {
		return err
	}
	return c.merge(norm)
}

// UpdateQuantity sets the quantity of an existing line.
// Returns false (no change) when qty < 1 or the id is absent, and
// ErrInvalidItem when qty exceeds MaxQuantity.
func (c *Cart) UpdateQuantity(id string, qty int) (bool, error) {
	if qty < 1 {
		return false, nil
	}
	if qty > MaxQuantity {
		return false, ErrInvalidItem
	}
	idx := c.index(strings.TrimSpace(id))
	if idx < 0 {
		return false, nil
	}
	c.items[idx].setQuantity(qty)
	return true, nil
}

// Remove deletes the line with id. Returns false when absent.
func (c *Cart) Remove(id string) bool {
	idx := c.index(strings.TrimSpace(id))
	if idx < 0 {
		return false
	}
	// preserve order
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []CartItem {
	return CloneItems(c.items)
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Total is Σ lineTotal.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.LineTotal)
	}
	return total
}

// Count is Σ quantity.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// ----------------------------
// Helpers
// ----------------------------

func (c *Cart) merge(it CartItem) error {
	if idx := c.index(it.ID); idx >= 0 {
		// both sides are within [1, MaxQuantity]; the sum cannot overflow
		qty := c.items[idx].Quantity + it.Quantity
		if qty > MaxQuantity {
			return ErrInvalidItem
		}
		c.items[idx].setQuantity(qty)
		return nil
	}
	c.items = append(c.items, it)
	return nil
}

func (it *CartItem) setQuantity(qty int) {
	it.Quantity = qty
	it.LineTotal = lineTotal(it.UnitPrice, qty)
}

func (c *Cart) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeItem(it CartItem) (CartItem, error) {
	id := strings.TrimSpace(it.ID)
	if id == "" {
		return CartItem{}, ErrInvalidItem
	}
	if it.UnitPrice.IsNegative() {
		return CartItem{}, ErrInvalidItem
	}
	qty := it.Quantity
	if qty < 1 {
		qty = 1
	}
	if qty > MaxQuantity {
		return CartItem{}, ErrInvalidItem
	}
	return CartItem{
		ID:        id,
		Name:      strings.TrimSpace(it.Name),
		UnitPrice: it.UnitPrice,
		Image:     strings.TrimSpace(it.Image),
		Quantity:  qty,
		LineTotal: lineTotal(it.UnitPrice, qty),
	}, nil
}

func lineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// CloneItems copies a slice of lines.
func CloneItems(src []CartItem) []CartItem {
	if len(src) == 0 {
		return []CartItem{}
	}
	cp := make([]CartItem, len(src))
	copy(cp, src)
	return cp
}
