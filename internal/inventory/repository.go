package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

type PostgresRepository struct {
	exec store.Executor
}

func NewPostgresRepository(exec store.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec}
}

// WithExecutor returns a shallow copy using the provided executor (e.g., a transaction).
func (r *PostgresRepository) WithExecutor(exec store.Executor) *PostgresRepository {
	return &PostgresRepository{exec: exec}
}

func (r *PostgresRepository) Get(ctx context.Context, productID int64) (Product, error) {
	var p Product
	err := r.exec.QueryRow(ctx, `
		SELECT id, name, description, price, image_path, quantity
		FROM products
		WHERE id=$1
	`, productID).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImagePath, &p.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.E(apperr.KindProductNotFound, "inventory.get", fmt.Sprintf("product %d not found", productID), nil)
		}
		return Product{}, apperr.Store("inventory.get", err)
	}
	return p, nil
}

func (r *PostgresRepository) Stock(ctx context.Context, productID int64) (StockItem, error) {
	p, err := r.Get(ctx, productID)
	if err != nil {
		return StockItem{}, err
	}
	return StockItem{ProductID: p.ID, Available: p.Available}, nil
}

// Reserve decrements available stock by qty in a single conditional update.
// The affected-row count decides the outcome; the follow-up read only picks
// the error kind when nothing was updated.
func (r *PostgresRepository) Reserve(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperr.Invalid("inventory.reserve", "quantity must be positive")
	}

	tag, err := r.exec.Exec(ctx, `
		UPDATE products
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
	`, productID, qty)
	if err != nil {
		return apperr.Store("inventory.reserve", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var available int
	err = r.exec.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.E(apperr.KindProductNotFound, "inventory.reserve", fmt.Sprintf("product %d not found", productID), nil)
		}
		return apperr.Store("inventory.reserve", err)
	}
	return apperr.E(apperr.KindInsufficientStock, "inventory.reserve",
		fmt.Sprintf("not enough quantity available: requested %d, available %d", qty, available), nil)
}

// Release gives back stock taken by Reserve. It is the compensation step for
// a cart mutation that could not be persisted.
func (r *PostgresRepository) Release(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	_, err := r.exec.Exec(ctx, `
		UPDATE products
		SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return apperr.Store("inventory.release", err)
	}
	return nil
}

// Restock adds received stock. Unknown products are reported, not created.
func (r *PostgresRepository) Restock(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperr.Invalid("inventory.restock", "quantity must be positive")
	}
	tag, err := r.exec.Exec(ctx, `
		UPDATE products
		SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return apperr.Store("inventory.restock", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindProductNotFound, "inventory.restock", fmt.Sprintf("product %d not found", productID), nil)
	}
	return nil
}

func (r *PostgresRepository) SetAvailable(ctx context.Context, productID int64, available int) error {
	if available < 0 {
		return apperr.Invalid("inventory.set", "available must not be negative")
	}
	tag, err := r.exec.Exec(ctx, `
		UPDATE products
		SET quantity = $2, updated_at = now()
		WHERE id = $1
	`, productID, available)
	if err != nil {
		return apperr.Store("inventory.set", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.KindProductNotFound, "inventory.set", fmt.Sprintf("product %d not found", productID), nil)
	}
	return nil
}
