// Package sequence hands out per-partition sequence numbers for published
// events so consumers can order and deduplicate them.
package sequence

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

// NextSequence atomically increments and returns the next sequence for a partition.
// The first call for a partition returns 1.
func (r *Repository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, apperr.Invalid("sequence.next", "partition key is required")
	}
	var seq int64
	err := r.exec.QueryRow(ctx, `
		INSERT INTO event_sequence (partition_key, last_sequence)
		VALUES ($1, 1)
		ON CONFLICT (partition_key)
		DO UPDATE SET last_sequence = event_sequence.last_sequence + 1, updated_at = now()
		RETURNING last_sequence
	`, partitionKey).Scan(&seq)
	if err != nil {
		return 0, apperr.Store("sequence.next", fmt.Errorf("next sequence for %s: %w", partitionKey, err))
	}
	return seq, nil
}

// CustomerPartition is the partition key for events about one customer.
func CustomerPartition(customerID int64) string {
	return fmt.Sprintf("customer-%d", customerID)
}
