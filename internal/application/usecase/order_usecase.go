// backend/internal/application/usecase/order_usecase.go
package usecase

import (
	"context"
	"errors"

	orderdom "sripavan/internal/domain/order"
)

const (
	DefaultOrderListLimit = 50
	MaxOrderListLimit     = 200
)

var ErrOrderRepoMissing = errors.New("order: repository is not configured")

// OrderUsecase serves the back-office order list.
type OrderUsecase struct {
	repo orderdom.Repository
}

func NewOrderUsecase(repo orderdom.Repository) *OrderUsecase {
	return &OrderUsecase{repo: repo}
}

// List returns the newest orders first. limit <= 0 selects the default.
func (u *OrderUsecase) List(ctx context.Context, limit int) ([]orderdom.Order, error) {
	if u.repo == nil {
		return nil, ErrOrderRepoMissing
	}
	switch {
	case limit <= 0:
		limit = DefaultOrderListLimit
	case limit > MaxOrderListLimit:
		limit = MaxOrderListLimit
	}
	out, err := u.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []orderdom.Order{}
	}
	return out, nil
}
