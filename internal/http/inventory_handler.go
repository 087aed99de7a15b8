package httpapi

import (
	"net/http"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
)

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.stock.Stock(r.Context(), productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type adjustRequest struct {
	ProductID int64 `json:"productId"`
	Available *int  `json:"available"`
}

func (a *adjustRequest) bindForm(r *http.Request) error {
	var err error
	if a.ProductID, err = formInt64(r, "productId"); err != nil {
		return err
	}
	if r.PostForm.Get("available") == "" {
		return nil
	}
	n, err := formInt(r, "available")
	if err != nil {
		return err
	}
	a.Available = &n
	return nil
}

func (h *Handler) AdjustAvailability(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ProductID <= 0 || req.Available == nil {
		h.fail(w, r, apperr.Invalid("http.inventory", "productId and available are required"))
		return
	}
	if err := h.stock.SetAvailable(r.Context(), req.ProductID, *req.Available); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "productId": req.ProductID, "available": *req.Available})
}
