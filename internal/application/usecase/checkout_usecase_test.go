package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "sripavan/internal/domain/cart"
	orderdom "sripavan/internal/domain/order"
)

type stubCart struct {
	items    []cartdom.CartItem
	cleared  bool
	clearErr error
}

func (c *stubCart) Items() []cartdom.CartItem { return cartdom.CloneItems(c.items) }

func (c *stubCart) Clear(context.Context) error {
	if c.clearErr != nil {
		return c.clearErr
	}
	c.cleared = true
	c.items = nil
	return nil
}

type memOrders struct {
	created []orderdom.Order
	err     error
}

func (r *memOrders) Create(_ context.Context, o orderdom.Order) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, o)
	return nil
}

func (r *memOrders) List(_ context.Context, limit int) ([]orderdom.Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	if limit < len(r.created) {
		return r.created[:limit], nil
	}
	return r.created, nil
}

var validCustomer = CheckoutInput{
	Name:    "Lakshmi",
	Email:   "lakshmi@example.com",
	Phone:   "+91 98480 22338",
	Address: "12-3 MG Road, Vijayawada",
}

func newCheckout(orders *memOrders) *CheckoutUsecase {
	u := NewCheckoutUsecase(orders, nil)
	u.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	u.newID = func() string { return "order-1" }
	return u
}

func TestPlaceOrder(t *testing.T) {
	orders := &memOrders{}
	c := &stubCart{items: []cartdom.CartItem{
		{ID: "sku-1", Name: "SSD", UnitPrice: decimal.NewFromInt(500), Quantity: 3, LineTotal: decimal.NewFromInt(1)},
	}}

	o, err := newCheckout(orders).PlaceOrder(context.Background(), "u1", c, validCustomer)

	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, "u1", o.UID)
	assert.Equal(t, orderdom.StatusPlaced, o.Status)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(1500)), "totals are recomputed")
	assert.Equal(t, 3, o.Count)
	require.Len(t, orders.created, 1)
	assert.True(t, c.cleared)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	orders := &memOrders{}
	_, err := newCheckout(orders).PlaceOrder(context.Background(), "", &stubCart{}, validCustomer)

	require.ErrorIs(t, err, ErrCheckoutEmptyCart)
	assert.Empty(t, orders.created)
}

func TestPlaceOrder_InvalidCustomer(t *testing.T) {
	orders := &memOrders{}
	c := &stubCart{items: []cartdom.CartItem{{ID: "a", UnitPrice: decimal.NewFromInt(1), Quantity: 1}}}
	in := validCustomer
	in.Email = "not-an-email"
	in.Phone = "call me"

	_, err := newCheckout(orders).PlaceOrder(context.Background(), "", c, in)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "email")
	assert.Contains(t, verrs, "phone")
	assert.False(t, c.cleared)
}

func TestPlaceOrder_RepositoryFailureKeepsCart(t *testing.T) {
	orders := &memOrders{err: errors.New("unavailable")}
	c := &stubCart{items: []cartdom.CartItem{{ID: "a", UnitPrice: decimal.NewFromInt(1), Quantity: 1}}}

	_, err := newCheckout(orders).PlaceOrder(context.Background(), "", c, validCustomer)

	require.Error(t, err)
	assert.False(t, c.cleared)
	assert.Len(t, c.items, 1)
}

func TestPlaceOrder_ClearFailureStillPlaces(t *testing.T) {
	orders := &memOrders{}
	c := &stubCart{
		items:    []cartdom.CartItem{{ID: "a", UnitPrice: decimal.NewFromInt(1), Quantity: 1}},
		clearErr: errors.New("disk full"),
	}

	_, err := newCheckout(orders).PlaceOrder(context.Background(), "", c, validCustomer)

	require.NoError(t, err)
	assert.Len(t, orders.created, 1)
}

func TestOrderUsecase_ListClampsLimit(t *testing.T) {
	orders := &memOrders{}
	for i := 0; i < 3; i++ {
		orders.created = append(orders.created, orderdom.Order{ID: string(rune('a' + i))})
	}
	uc := NewOrderUsecase(orders)

	out, err := uc.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = uc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	empty, err := NewOrderUsecase(&memOrders{}).List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}
