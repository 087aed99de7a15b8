package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/booking"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/cart"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/customer"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/fulfillment"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/inventory"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/order"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/session"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/views"
)

type Sessions interface {
	Load(w http.ResponseWriter, r *http.Request) (*session.Session, error)
}

type Directory interface {
	FindByEmail(ctx context.Context, email string) (customer.Customer, error)
	FindMechanicByEmail(ctx context.Context, email string) (customer.Mechanic, error)
}

type Catalog interface {
	ListProducts(ctx context.Context) ([]inventory.Product, error)
	ListServices(ctx context.Context) ([]views.Service, error)
	AvailableDays(ctx context.Context) ([]string, error)
	MechanicsForDay(ctx context.Context, day string) ([]views.MechanicRating, error)
	CustomerDashboard(ctx context.Context, customerID int64) (views.Dashboard, error)
	MechanicBookings(ctx context.Context, mechanicID int64) ([]views.MechanicBooking, error)
}

type Carts interface {
	AddItem(ctx context.Context, h cart.Holder, productID int64, qty int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, h cart.Holder, productID int64) (*cart.Cart, error)
	Adjust(ctx context.Context, h cart.Holder, productID int64, dir cart.Direction) (*cart.Cart, error)
}

type Checkout interface {
	Checkout(ctx context.Context, sess order.Session, contact order.Contact, payment string) (order.Receipt, error)
}

type Orders interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error)
}

type Bookings interface {
	Book(ctx context.Context, sess booking.Session, req booking.Request) (booking.Result, error)
}

type Fulfillment interface {
	MarkOrderReceived(ctx context.Context, customerID, productID int64) (fulfillment.Outcome, error)
	MarkServiceReceived(ctx context.Context, key booking.Key) (fulfillment.Outcome, error)
	SubmitReview(ctx context.Context, r fulfillment.Review) (fulfillment.Review, error)
}

type Stock interface {
	Stock(ctx context.Context, productID int64) (inventory.StockItem, error)
	SetAvailable(ctx context.Context, productID int64, available int) error
}

type Deps struct {
	Sessions    Sessions
	Directory   Directory
	Catalog     Catalog
	Carts       Carts
	Checkout    Checkout
	Orders      Orders
	Bookings    Bookings
	Fulfillment Fulfillment
	Stock       Stock
	Logger      *zap.Logger
}

type Handler struct {
	sessions    Sessions
	directory   Directory
	catalog     Catalog
	carts       Carts
	checkout    Checkout
	orders      Orders
	bookings    Bookings
	fulfillment Fulfillment
	stock       Stock
	logger      *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handler{
		sessions:    d.Sessions,
		directory:   d.Directory,
		catalog:     d.Catalog,
		carts:       d.Carts,
		checkout:    d.Checkout,
		orders:      d.Orders,
		bookings:    d.Bookings,
		fulfillment: d.Fulfillment,
		stock:       d.Stock,
		logger:      d.Logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// sess returns the session loaded by the middleware.
func sess(r *http.Request) *session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}

func customerID(r *http.Request) int64 {
	id, _ := sess(r).CustomerID()
	return id
}
