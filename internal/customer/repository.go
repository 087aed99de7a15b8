package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

type Customer struct {
	ID       int64  `json:"customerId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type Repository struct {
	exec store.Executor
}

func NewRepository(exec store.Executor) *Repository {
	return &Repository{exec: exec}
}

func (r *Repository) WithExecutor(exec store.Executor) *Repository {
	return &Repository{exec: exec}
}

// FindByEmail resolves a session email to the customer record.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Customer{}, apperr.E(apperr.KindCustomerNotFound, "customer.find", "customer not found", nil)
	}

	var c Customer
	err := r.exec.QueryRow(ctx, `
		SELECT id, full_name, email, phone, address
		FROM customers
		WHERE email = $1
	`, email).Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.E(apperr.KindCustomerNotFound, "customer.find", fmt.Sprintf("customer not found: %s", email), nil)
		}
		return Customer{}, apperr.Store("customer.find", err)
	}
	return c, nil
}

type Mechanic struct {
	ID       int64  `json:"mechanicId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (r *Repository) FindMechanicByEmail(ctx context.Context, email string) (Mechanic, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Mechanic{}, apperr.Invalid("customer.find_mechanic", "email is required")
	}

	var m Mechanic
	err := r.exec.QueryRow(ctx, `SELECT id, full_name, email FROM mechanics WHERE email = $1`, email).
		Scan(&m.ID, &m.FullName, &m.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mechanic{}, apperr.E(apperr.KindInvalidArgument, "customer.find_mechanic", fmt.Sprintf("unknown mechanic: %s", email), nil)
		}
		return Mechanic{}, apperr.Store("customer.find_mechanic", err)
	}
	return m, nil
}
