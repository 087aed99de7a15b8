package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/cart"
)

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (a *addItemRequest) bindForm(r *http.Request) error {
	var err error
	if a.ProductID, err = formInt64(r, "productId"); err != nil {
		return err
	}
	a.Quantity, err = formInt(r, "quantity")
	return err
}

type cartResponse struct {
	Success bool            `json:"success"`
	Cart    *cart.Cart      `json:"cart"`
	Total   decimal.Decimal `json:"total"`
}

func writeCart(w http.ResponseWriter, c *cart.Cart) {
	if c == nil {
		c = cart.New()
	}
	writeJSON(w, http.StatusOK, cartResponse{Success: true, Cart: c, Total: c.Total()})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeCart(w, sess(r).Cart())
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ProductID <= 0 {
		h.fail(w, r, apperr.Invalid("http.cart", "productId is required"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	c, err := h.carts.AddItem(r.Context(), sess(r), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeCart(w, c)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.carts.RemoveItem(r.Context(), sess(r), productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeCart(w, c)
}

func (h *Handler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dir, ok := cart.ParseDirection(chiParam(r, "direction"))
	if !ok {
		h.fail(w, r, apperr.Invalid("http.cart", "direction must be increase or decrease"))
		return
	}
	c, err := h.carts.Adjust(r.Context(), sess(r), productID, dir)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeCart(w, c)
}
