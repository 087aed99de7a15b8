package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Timeout time.Duration
	// GatewayToken must be presented in the X-Gateway-Token header on
	// gateway-only routes. Empty rejects every such call.
	GatewayToken string
}

func NewRouter(h *Handler, logger *zap.Logger, opts RouterOptions) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(correlate)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.loadSession)

		r.Delete("/session", h.SignOut)

		r.Get("/products", h.ListProducts)
		r.Get("/services", h.ListServices)
		r.Get("/services/days", h.AvailableDays)
		r.Get("/mechanics", h.MechanicsForDay)
		r.Get("/mechanics/{mechanicId}/bookings", h.MechanicBookings)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Delete("/items/{productId}", h.RemoveItem)
			r.Post("/items/{productId}/{direction}", h.AdjustItem)
		})

		r.Post("/checkout", h.Checkout)
		r.Post("/bookings", h.Book)
		r.Get("/orders", h.ListOrders)
		r.Post("/orders/{productId}/received", h.MarkOrderReceived)
		r.Post("/bookings/{serviceId}/{mechanicId}/{day}/received", h.MarkServiceReceived)
		r.Post("/reviews", h.SubmitReview)
		r.Get("/me/dashboard", h.Dashboard)

		r.Get("/inventory/{productId}", h.GetAvailability)

		// Gateway-only: the caller asserts identity or edits stock.
		r.Group(func(r chi.Router) {
			r.Use(requireGateway(opts.GatewayToken, logger))
			r.Post("/session", h.BindSession)
			r.Post("/inventory/adjust", h.AdjustAvailability)
		})
	})

	return r
}
