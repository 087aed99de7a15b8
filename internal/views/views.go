// Package views builds the read models behind the catalog and dashboard
// endpoints. Nothing here writes.
package views

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/booking"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/inventory"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Service struct {
	ID    int64           `json:"serviceId"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// MechanicRating is a mechanic with free capacity on the requested day.
// AverageRating is null when nobody has reviewed the mechanic yet.
type MechanicRating struct {
	ID            int64               `json:"mechanicId"`
	FullName      string              `json:"fullName"`
	AverageRating decimal.NullDecimal `json:"averageRating"`
}

type CustomerBooking struct {
	booking.Key
	ServiceName  string          `json:"serviceName"`
	MechanicName string          `json:"mechanicName"`
	Price        decimal.Decimal `json:"price"`
	Received     bool            `json:"received"`
	Reviewed     bool            `json:"reviewed"`
}

type CustomerOrder struct {
	ID          int64           `json:"orderId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Payment     string          `json:"payment"`
	Received    bool            `json:"received"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type MechanicBooking struct {
	booking.Key
	ServiceName  string `json:"serviceName"`
	CustomerName string `json:"customerName"`
	Received     bool   `json:"received"`
	Reviewed     bool   `json:"reviewed"`
}

type Dashboard struct {
	Bookings []CustomerBooking `json:"bookings"`
	Orders   []CustomerOrder   `json:"orders"`
}

type Reader struct {
	exec store.Executor
}

func NewReader(exec store.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) query(ctx context.Context, op string, b sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, apperr.E(apperr.KindInternal, op, "", err)
	}
	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	return rows, nil
}

// collect drains rows through scan. It always closes rows.
func collect[T any](op string, rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, apperr.Store(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(op, err)
	}
	return out, nil
}

func (r *Reader) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	const op = "views.products"
	rows, err := r.query(ctx, op, psql.
		Select("id", "name", "description", "price", "image_path", "quantity").
		From("products").
		OrderBy("id"))
	if err != nil {
		return nil, err
	}
	return collect(op, rows, func(rows pgx.Rows) (inventory.Product, error) {
		var p inventory.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImagePath, &p.Available)
		return p, err
	})
}

func (r *Reader) ListServices(ctx context.Context) ([]Service, error) {
	const op = "views.services"
	rows, err := r.query(ctx, op, psql.
		Select("id", "name", "price").
		From("services").
		OrderBy("name"))
	if err != nil {
		return nil, err
	}
	return collect(op, rows, func(rows pgx.Rows) (Service, error) {
		var s Service
		err := rows.Scan(&s.ID, &s.Name, &s.Price)
		return s, err
	})
}

// AvailableDays lists every day on which at least one mechanic has capacity.
func (r *Reader) AvailableDays(ctx context.Context) ([]string, error) {
	const op = "views.days"
	rows, err := r.query(ctx, op, psql.
		Select("day").
		Distinct().
		From("mechanic_shifts").
		Where(sq.Gt{"availability": 0}).
		OrderBy("day"))
	if err != nil {
		return nil, err
	}
	return collect(op, rows, func(rows pgx.Rows) (string, error) {
		var d string
		err := rows.Scan(&d)
		return d, err
	})
}

func (r *Reader) MechanicsForDay(ctx context.Context, day string) ([]MechanicRating, error) {
	const op = "views.mechanics"
	if day == "" {
		return nil, apperr.Invalid(op, "day is required")
	}
	// Built with ? placeholders; the outer builder numbers them.
	onShift := sq.
		Select("mechanic_id").
		From("mechanic_shifts").
		Where(sq.Eq{"day": day}).
		Where(sq.Gt{"availability": 0})
	shiftSQL, shiftArgs, err := onShift.ToSql()
	if err != nil {
		return nil, apperr.E(apperr.KindInternal, op, "", err)
	}

	rows, err := r.query(ctx, op, psql.
		Select("m.id", "m.full_name", "AVG(rv.rating)").
		From("mechanics m").
		LeftJoin("reviews rv ON rv.mechanic_id = m.id").
		Where("m.id IN ("+shiftSQL+")", shiftArgs...).
		GroupBy("m.id", "m.full_name").
		OrderBy("m.id"))
	if err != nil {
		return nil, err
	}
	return collect(op, rows, func(rows pgx.Rows) (MechanicRating, error) {
		var m MechanicRating
		err := rows.Scan(&m.ID, &m.FullName, &m.AverageRating)
		return m, err
	})
}

func (r *Reader) CustomerBookings(ctx context.Context, customerID int64) ([]CustomerBooking, error) {
	const op = "views.customer_bookings"
	rows, err := r.query(ctx, op, psql.
		Select("cs.customer_id", "cs.service_id", "cs.mechanic_id", "cs.day",
			"s.name", "m.full_name", "cs.price", "cs.received", "cs.reviewed").
		From("customer_services cs").
		Join("services s ON s.id = cs.service_id").
		Join("mechanics m ON m.id = cs.mechanic_id").
		Where(sq.Eq{"cs.customer_id": customerID}).
		OrderBy("cs.created_at DESC"))
	if err != nil {
		return nil, err
	}
	return collect(op, rows, func(rows pgx.Rows) (CustomerBooking, error) {
		var b CustomerBooking
		err := rows.Scan(&b.CustomerID, &b.ServiceID, &b.MechanicID, &b.Day,
			&b.ServiceName, &b.MechanicName, &b.Price, &b.Received, &b.Reviewed)
		return b, err
	})
}

func (r *Reader) CustomerOrders(ctx context.Context, customerID int64) ([]CustomerOrder, error) {
	const op = "views.customer_orders"
	rows, err := r.query(ctx, op, psql.
		Select("o.id", "o.product_id", "p.name", "o.quantity", "o.total_price", "o.payment", "o.received", "o.created_at").
		From("orders o").
		Join("products p ON p.id = o.product_id").
		Where(sq.Eq{"o.customer_id": customerID}).
		OrderBy("o.created_at DESC", "o.id DESC"))
	if err != nil {
		return nil, err
	}
	return collect(op, rows, func(rows pgx.Rows) (CustomerOrder, error) {
		var o CustomerOrder
		err := rows.Scan(&o.ID, &o.ProductID, &o.ProductName, &o.Quantity, &o.TotalPrice, &o.Payment, &o.Received, &o.CreatedAt)
		return o, err
	})
}

func (r *Reader) CustomerDashboard(ctx context.Context, customerID int64) (Dashboard, error) {
	bookings, err := r.CustomerBookings(ctx, customerID)
	if err != nil {
		return Dashboard{}, err
	}
	orders, err := r.CustomerOrders(ctx, customerID)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Bookings: bookings, Orders: orders}, nil
}

func (r *Reader) MechanicBookings(ctx context.Context, mechanicID int64) ([]MechanicBooking, error) {
	const op = "views.mechanic_bookings"
	rows, err := r.query(ctx, op, psql.
		Select("cs.customer_id", "cs.service_id", "cs.mechanic_id", "cs.day",
			"s.name", "c.full_name", "cs.received", "cs.reviewed").
		From("customer_services cs").
		Join("services s ON s.id = cs.service_id").
		Join("customers c ON c.id = cs.customer_id").
		Where(sq.Eq{"cs.mechanic_id": mechanicID}).
		OrderBy("cs.day", "cs.created_at"))
	if err != nil {
		return nil, err
	}
	return collect(op, rows, func(rows pgx.Rows) (MechanicBooking, error) {
		var b MechanicBooking
		err := rows.Scan(&b.CustomerID, &b.ServiceID, &b.MechanicID, &b.Day,
			&b.ServiceName, &b.CustomerName, &b.Received, &b.Reviewed)
		return b, err
	})
}
