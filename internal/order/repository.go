package order

import (
	"context"
	"fmt"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

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

// Insert stores o and fills in its generated id and creation time.
func (r *Repository) Insert(ctx context.Context, o *Order) error {
	err := r.exec.QueryRow(ctx, `
		INSERT INTO orders (customer_id, product_id, name, phone, email, address, quantity, total_price, payment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, o.CustomerID, o.ProductID, o.Name, o.Phone, o.Email, o.Address, o.Quantity, o.TotalPrice, o.Payment).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order for product %d: %w", o.ProductID, err)
	}
	return nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	rows, err := r.exec.Query(ctx, `
		SELECT id, customer_id, product_id, name, phone, email, address, quantity, total_price, payment, received, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, apperr.Store("order.list", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.ProductID, &o.Name, &o.Phone, &o.Email, &o.Address,
			&o.Quantity, &o.TotalPrice, &o.Payment, &o.Received, &o.CreatedAt); err != nil {
			return nil, apperr.Store("order.list", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("order.list", err)
	}
	return out, nil
}
