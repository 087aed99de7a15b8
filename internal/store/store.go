// Package store holds the transactional boundary used by the multi-step
// workflows (checkout, service booking, review submission).
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Executor is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories are written against it so the same code runs inside or
// outside a transaction.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Executor
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Mode selects how InTx treats a multi-step workflow.
type Mode int

const (
	// ModeCompat issues every step directly against the pool. A failing step
	// aborts the remaining steps but completed ones stay committed.
	ModeCompat Mode = iota
	// ModeAtomic wraps the whole workflow in one transaction.
	ModeAtomic
)

func (m Mode) String() string {
	if m == ModeAtomic {
		return "atomic"
	}
	return "compat"
}

type Runner struct {
	pool   DBPool
	mode   Mode
	logger *zap.Logger
}

func NewRunner(pool DBPool, mode Mode, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{pool: pool, mode: mode, logger: logger}
}

func (r *Runner) Mode() Mode { return r.mode }

// Pool returns the executor used outside of any workflow.
func (r *Runner) Pool() Executor { return r.pool }

// InTx runs fn as one workflow. In atomic mode fn receives a transaction that
// is committed only if fn returns nil; otherwise fn receives the pool itself.
func (r *Runner) InTx(ctx context.Context, fn func(exec Executor) error) error {
	if r.mode != ModeAtomic {
		return fn(r.pool)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Tx always runs fn inside a transaction regardless of mode. Event consumers
// use it to keep their dedup checkpoint and write together.
func (r *Runner) Tx(ctx context.Context, fn func(exec Executor) error) error {
	atomic := &Runner{pool: r.pool, mode: ModeAtomic, logger: r.logger}
	return atomic.InTx(ctx, fn)
}
