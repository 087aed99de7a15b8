// Package dedup keeps consumer-side checkpoints so a redelivered event is
// applied at most once per partition.
package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

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

// GetLastSequence returns the last processed sequence for a consumer/partition.
// The boolean indicates whether a checkpoint existed.
func (r *Repository) GetLastSequence(ctx context.Context, consumerName, partitionKey string) (int64, bool, error) {
	var last int64
	if err := r.exec.QueryRow(ctx, `
		SELECT last_sequence
		FROM event_dedup_checkpoint
		WHERE consumer_name=$1 AND partition_key=$2
	`, consumerName, partitionKey).Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("select checkpoint: %w", err)
	}
	return last, true, nil
}

// UpsertLastSequence advances the checkpoint. It never moves backwards.
func (r *Repository) UpsertLastSequence(ctx context.Context, consumerName, partitionKey string, seq int64) error {
	_, err := r.exec.Exec(ctx, `
		INSERT INTO event_dedup_checkpoint (consumer_name, partition_key, last_sequence)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer_name, partition_key)
		DO UPDATE SET
			last_sequence = GREATEST(event_dedup_checkpoint.last_sequence, EXCLUDED.last_sequence),
			updated_at = now()
	`, consumerName, partitionKey, seq)
	if err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}

type Verdict int

const (
	Apply Verdict = iota
	Duplicate
	// Gap means the event is new but at least one earlier sequence was never seen.
	Gap
)

// Check decides what to do with seq given the stored checkpoint. A zero
// sequence carries no ordering information and is always applied.
func (r *Repository) Check(ctx context.Context, consumerName, partitionKey string, seq int64) (Verdict, int64, error) {
	if seq == 0 {
		return Apply, 0, nil
	}
	last, ok, err := r.GetLastSequence(ctx, consumerName, partitionKey)
	if err != nil {
		return Apply, 0, err
	}
	switch {
	case !ok:
		return Apply, 0, nil
	case seq <= last:
		return Duplicate, last, nil
	case seq > last+1:
		return Gap, last, nil
	default:
		return Apply, last, nil
	}
}
