package httpapi

import (
	"net/http"
	"strings"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Handler) AvailableDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.catalog.AvailableDays(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (h *Handler) MechanicsForDay(w http.ResponseWriter, r *http.Request) {
	day := strings.TrimSpace(r.URL.Query().Get("day"))
	if day == "" {
		h.fail(w, r, apperr.Invalid("http.mechanics", "day is required"))
		return
	}
	mechanics, err := h.catalog.MechanicsForDay(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mechanics)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id := customerID(r)
	if id == 0 {
		h.fail(w, r, apperr.ErrMissingCustomer)
		return
	}
	d, err := h.catalog.CustomerDashboard(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) MechanicBookings(w http.ResponseWriter, r *http.Request) {
	mechanicID, err := pathID(r, "mechanicId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bookings, err := h.catalog.MechanicBookings(r.Context(), mechanicID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}
