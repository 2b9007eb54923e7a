// backend/internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.uber.org/zap"

	cartdom "sripavan/internal/domain/cart"
	orderdom "sripavan/internal/domain/order"
)

// CheckoutCart is the part of the cart synchronizer checkout needs.
type CheckoutCart interface {
	Items() []cartdom.CartItem
	Clear(ctx context.Context) error
}

// CheckoutInput is the customer form submitted at checkout.
type CheckoutInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,18}[0-9]$`)

// Validate checks the customer form.
func (in CheckoutInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Email, validation.Required, validation.Length(6, 254), is.EmailFormat),
		validation.Field(&in.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&in.Address, validation.Required, validation.Length(5, 500)),
	)
}

var (
	ErrCheckoutOrdersMissing = errors.New("checkout: order repository is not configured")
	ErrCheckoutCartMissing   = errors.New("checkout: cart is not configured")
	ErrCheckoutEmptyCart     = errors.New("checkout: cart is empty")
)

// CheckoutUsecase turns the current cart into a placed order and clears the
// cart. There is no payment step.
type CheckoutUsecase struct {
	orders orderdom.Repository
	now    func() time.Time
	newID  func() string
	logger *zap.SugaredLogger
}

func NewCheckoutUsecase(orders orderdom.Repository, logger *zap.SugaredLogger) *CheckoutUsecase {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CheckoutUsecase{
		orders: orders,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: logger,
	}
}

// PlaceOrder snapshots the cart into an order for uid ("" for guests).
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, uid string, c CheckoutCart, in CheckoutInput) (orderdom.Order, error) {
	if u.orders == nil {
		return orderdom.Order{}, ErrCheckoutOrdersMissing
	}
	if c == nil {
		return orderdom.Order{}, ErrCheckoutCartMissing
	}

	in = CheckoutInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	if err := in.Validate(); err != nil {
		return orderdom.Order{}, err
	}

	items := c.Items()
	if len(items) == 0 {
		return orderdom.Order{}, ErrCheckoutEmptyCart
	}

	o, err := orderdom.New(u.newID(), uid, orderdom.CustomerSnapshot{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
	}, items, u.now())
	if err != nil {
		return orderdom.Order{}, err
	}

	if err := u.orders.Create(ctx, o); err != nil {
		return orderdom.Order{}, fmt.Errorf("checkout: create order: %w", err)
	}

	// the order is placed; a failing clear leaves the cart for the user to empty
	if err := c.Clear(ctx); err != nil {
		u.logger.Warnw("clear cart after checkout failed", "orderId", o.ID, "err", err)
	}

	u.logger.Infow("order placed", "orderId", o.ID, "uid", uid, "count", o.Count, "total", o.Total.String())
	return o, nil
}
