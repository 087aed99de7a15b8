package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

// Repository covers services, mechanic shift capacity and booking rows.
type Repository struct {
	exec store.Executor
}

func NewRepository(exec store.Executor) *Repository {
	return &Repository{exec: exec}
}

// WithExecutor returns a shallow copy using the provided executor (e.g., a transaction).
func (r *Repository) WithExecutor(exec store.Executor) *Repository {
	return &Repository{exec: exec}
}

// ResolveService looks a service up by its exact name.
func (r *Repository) ResolveService(ctx context.Context, name string) (int64, decimal.Decimal, error) {
	var (
		id    int64
		price decimal.Decimal
	)
	err := r.exec.QueryRow(ctx, `SELECT id, price FROM services WHERE name = $1`, strings.TrimSpace(name)).Scan(&id, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, decimal.Zero, apperr.E(apperr.KindServiceNotFound, "booking.resolve", "service not found: "+name, nil)
		}
		return 0, decimal.Zero, apperr.Store("booking.resolve", err)
	}
	return id, price, nil
}

// Insert writes a booking row with received and reviewed both false.
func (r *Repository) Insert(ctx context.Context, b Booking) error {
	_, err := r.exec.Exec(ctx, `
		INSERT INTO customer_services (customer_id, service_id, mechanic_id, day, price)
		VALUES ($1, $2, $3, $4, $5)
	`, b.CustomerID, b.ServiceID, b.MechanicID, b.Day, b.Price)
	if err != nil {
		return apperr.Store("booking.insert", err)
	}
	return nil
}

// Decrement takes one slot from the mechanic's capacity on day. The update
// only matches while capacity is positive, so concurrent callers can never
// drive it below zero.
func (r *Repository) Decrement(ctx context.Context, mechanicID int64, day string) error {
	tag, err := r.exec.Exec(ctx, `
		UPDATE mechanic_shifts
		SET availability = availability - 1
		WHERE mechanic_id = $1 AND day = $2 AND availability > 0
	`, mechanicID, day)
	if err != nil {
		return apperr.Store("booking.decrement", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindNoAvailability, "booking.decrement",
			fmt.Sprintf("mechanic %d has no availability on %s", mechanicID, day), nil)
	}
	return nil
}

// SetCapacity upserts the number of slots a mechanic offers on day.
func (r *Repository) SetCapacity(ctx context.Context, mechanicID int64, day string, capacity int) error {
	if capacity < 0 {
		return apperr.Invalid("booking.capacity", "capacity must not be negative")
	}
	if strings.TrimSpace(day) == "" {
		return apperr.Invalid("booking.capacity", "day is required")
	}
	_, err := r.exec.Exec(ctx, `
		INSERT INTO mechanic_shifts (mechanic_id, day, availability)
		VALUES ($1, $2, $3)
		ON CONFLICT (mechanic_id, day)
		DO UPDATE SET availability = EXCLUDED.availability
	`, mechanicID, day, capacity)
	if err != nil {
		return apperr.Store("booking.capacity", err)
	}
	return nil
}
