// backend/internal/adapters/in/http/console/handler/order_handler.go
package consoleHandler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	orderdom "sripavan/internal/domain/order"
)

// OrderLister is satisfied by *usecase.OrderUsecase.
type OrderLister interface {
	List(ctx context.Context, limit int) ([]orderdom.Order, error)
}

// OrderHandler serves the back-office order list.
type OrderHandler struct {
	uc  OrderLister
	log *zap.SugaredLogger
}

func NewOrderHandler(uc OrderLister, logger *zap.SugaredLogger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &OrderHandler{uc: uc, log: logger.Named("console_order_handler")}
}

// GET /console/orders?limit=N
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 0)
	orders, err := h.uc.List(r.Context(), limit)
	if err != nil {
		h.log.Errorw("list orders failed", "limit", limit, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal_error",
			"message": "Could not load orders. Please try again.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})
}
