// backend/internal/adapters/in/http/mall/handler/checkout_handler.go
package mallHandler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	usecase "sripavan/internal/application/usecase"
	cartuc "sripavan/internal/application/usecase/cart"
	orderdom "sripavan/internal/domain/order"
)

// OrderPlacer is satisfied by *usecase.CheckoutUsecase.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, uid string, c usecase.CheckoutCart, in usecase.CheckoutInput) (orderdom.Order, error)
}

type checkoutResponse struct {
	Order orderdom.Order  `json:"order"`
	Cart  cartuc.Snapshot `json:"cart"`
}

type CheckoutHandler struct {
	uc  OrderPlacer
	log *zap.SugaredLogger
}

func NewCheckoutHandler(uc OrderPlacer, logger *zap.SugaredLogger) *CheckoutHandler {
	return &CheckoutHandler{uc: uc, log: nopIfNil(logger).Named("checkout_handler")}
}

// POST /mall/me/checkout
// Guests may check out; the order then carries no uid.
func (h *CheckoutHandler) Place(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	var in usecase.CheckoutInput
	if err := readJSON(w, r, &in); err != nil {
		badRequest(w, "invalid json")
		return
	}

	o, err := h.uc.PlaceOrder(r.Context(), d.Session.CurrentUID(), d.Cart, in)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{Order: o, Cart: d.Cart.Snapshot()})
}
