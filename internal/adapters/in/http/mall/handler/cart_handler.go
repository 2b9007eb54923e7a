// backend/internal/adapters/in/http/mall/handler/cart_handler.go
package mallHandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	cartdom "sripavan/internal/domain/cart"
)

type addItemRequest struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

var errNegativePrice = errors.New("must not be negative")

func (r addItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Name, validation.Length(0, 300)),
		validation.Field(&r.Quantity, validation.Max(cartdom.MaxQuantity)),
		validation.Field(&r.Price, validation.By(func(v any) error {
			if p, ok := v.(decimal.Decimal); ok && p.IsNegative() {
				return errNegativePrice
			}
			return nil
		})),
	)
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (r quantityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.NotNil, validation.Max(cartdom.MaxQuantity)),
	)
}

type openRequest struct {
	Open *bool `json:"open"`
}

func (r openRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Open, validation.NotNil),
	)
}

// CartHandler serves the device cart. Every response carries the cart
// snapshot after the operation.
type CartHandler struct {
	log *zap.SugaredLogger
}

func NewCartHandler(logger *zap.SugaredLogger) *CartHandler {
	return &CartHandler{log: nopIfNil(logger).Named("cart_handler")}
}

// GET /mall/me/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	writeJSON(w, http.StatusOK, d.Cart.Snapshot())
}

// POST /mall/me/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	var req addItemRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if err := req.Validate(); err != nil {
		writeErr(w, r, h.log, err)
		return
	}

	item := cartdom.CartItem{
		ID:        req.ID,
		Name:      strings.TrimSpace(req.Name),
		UnitPrice: req.Price,
		Image:     strings.TrimSpace(req.Image),
		Quantity:  req.Quantity,
	}
	if err := d.Cart.AddItem(r.Context(), item); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Cart.Snapshot())
}

// PUT /mall/me/cart/items/{id}
// A quantity below 1 leaves the cart unchanged.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	var req quantityRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, r, h.log, err)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := d.Cart.UpdateQuantity(r.Context(), id, *req.Quantity); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Cart.Snapshot())
}

// DELETE /mall/me/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := d.Cart.RemoveItem(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Cart.Snapshot())
}

// DELETE /mall/me/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	if err := d.Cart.Clear(r.Context()); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Cart.Snapshot())
}

// PUT /mall/me/cart/open
func (h *CartHandler) SetOpen(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}
	var req openRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	d.Cart.SetOpen(*req.Open)
	writeJSON(w, http.StatusOK, d.Cart.Snapshot())
}
