package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/booking"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/fulfillment"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/order"
)

type checkoutRequest struct {
	order.Contact
	Payment string `json:"payment"`
}

func (c *checkoutRequest) bindForm(r *http.Request) error {
	c.Name = r.PostForm.Get("name")
	c.Phone = r.PostForm.Get("phone")
	c.Email = r.PostForm.Get("email")
	c.Address = r.PostForm.Get("address")
	c.Payment = r.PostForm.Get("payment")
	return nil
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	receipt, err := h.checkout.Checkout(r.Context(), sess(r), req.Contact, req.Payment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "receipt": receipt})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id := customerID(r)
	if id == 0 {
		h.fail(w, r, apperr.ErrMissingCustomer)
		return
	}
	orders, err := h.orders.ListByCustomer(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": orders})
}

type bookRequest struct {
	booking.Request
}

// bindForm accepts services either as repeated fields or one comma separated value.
func (b *bookRequest) bindForm(r *http.Request) error {
	for _, v := range r.PostForm["services"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				b.Services = append(b.Services, name)
			}
		}
	}
	b.Day = r.PostForm.Get("day")
	var err error
	b.MechanicID, err = formInt64(r, "mechanicId")
	return err
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.bookings.Book(r.Context(), sess(r), req.Request)
	if err != nil {
		if len(res.Allocations) > 0 {
			// Rows written before the failing service stay booked.
			h.logger.Warn("partial booking",
				zap.Int("booked", len(res.Allocations)),
				zap.Error(err))
			writeJSON(w, apperr.HTTPStatus(err), map[string]any{
				"error":  apperr.PublicMessage(err),
				"booked": res.Allocations,
			})
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"bookings": res.Allocations,
		"total":    res.Total(),
	})
}

func (h *Handler) MarkOrderReceived(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.fulfillment.MarkOrderReceived(r.Context(), customerID(r), productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "changed": out.Changed})
}

func (h *Handler) MarkServiceReceived(w http.ResponseWriter, r *http.Request) {
	key, err := bookingKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.fulfillment.MarkServiceReceived(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "changed": out.Changed})
}

func bookingKey(r *http.Request) (booking.Key, error) {
	serviceID, err := pathID(r, "serviceId")
	if err != nil {
		return booking.Key{}, err
	}
	mechanicID, err := pathID(r, "mechanicId")
	if err != nil {
		return booking.Key{}, err
	}
	return booking.Key{
		CustomerID: customerID(r),
		ServiceID:  serviceID,
		MechanicID: mechanicID,
		Day:        chiParam(r, "day"),
	}, nil
}

type reviewRequest struct {
	ServiceID  int64  `json:"serviceId"`
	MechanicID int64  `json:"mechanicId"`
	Day        string `json:"day"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (v *reviewRequest) bindForm(r *http.Request) error {
	var err error
	if v.ServiceID, err = formInt64(r, "serviceId"); err != nil {
		return err
	}
	if v.MechanicID, err = formInt64(r, "mechanicId"); err != nil {
		return err
	}
	if v.Rating, err = formInt(r, "rating"); err != nil {
		return err
	}
	v.Day = r.PostForm.Get("day")
	v.Comment = r.PostForm.Get("comment")
	return nil
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	id := customerID(r)
	if id == 0 {
		h.fail(w, r, apperr.ErrMissingCustomer)
		return
	}
	review, err := h.fulfillment.SubmitReview(r.Context(), fulfillment.Review{
		Key: booking.Key{
			CustomerID: id,
			ServiceID:  req.ServiceID,
			MechanicID: req.MechanicID,
			Day:        req.Day,
		},
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "review": review})
}
