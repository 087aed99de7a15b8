package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/booking"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/dedup"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/inventory"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

const (
	StockReceivedConsumerName  = "storefront-stock-received"
	ShiftScheduledConsumerName = "storefront-shift-scheduled"
)

// ConsumerDeps is what the inbound handlers write through.
type ConsumerDeps struct {
	Runner           *store.Runner
	Inventory        *inventory.PostgresRepository
	Bookings         *booking.Repository
	Dedup            *dedup.Repository
	ConsumeEnveloped bool
	Logger           *zap.Logger
}

func (d ConsumerDeps) withDefaults() ConsumerDeps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Handlers returns the routing-key to handler table for StartConsumer.
func Handlers(deps ConsumerDeps) map[string]HandlerFunc {
	return map[string]HandlerFunc{
		StockReceivedRoutingKey:  StockReceivedHandler(deps),
		ShiftScheduledRoutingKey: ShiftScheduledHandler(deps),
	}
}

// StockReceivedHandler adds received units to a product's available quantity.
func StockReceivedHandler(deps ConsumerDeps) HandlerFunc {
	deps = deps.withDefaults()
	return func(ctx context.Context, body []byte) error {
		payload, env, err := parseEnveloped[StockReceivedPayload](body, EventTypeStockReceived, deps.ConsumeEnveloped)
		if err != nil {
			return err
		}
		if payload.ProductID <= 0 || payload.Quantity <= 0 {
			return fmt.Errorf("invalid StockReceived payload: product %d quantity %d", payload.ProductID, payload.Quantity)
		}

		partitionKey := env.partition(fmt.Sprintf("product-%d", payload.ProductID))
		return applyOnce(ctx, deps, StockReceivedConsumerName, partitionKey, env.sequence(), func(exec store.Executor) error {
			if err := deps.Inventory.WithExecutor(exec).Restock(ctx, payload.ProductID, payload.Quantity); err != nil {
				return fmt.Errorf("restock product %d: %w", payload.ProductID, err)
			}
			deps.Logger.Info("stock received",
				zap.Int64("product_id", payload.ProductID),
				zap.Int("quantity", payload.Quantity))
			return nil
		})
	}
}

// ShiftScheduledHandler sets a mechanic's booking capacity for a day.
func ShiftScheduledHandler(deps ConsumerDeps) HandlerFunc {
	deps = deps.withDefaults()
	return func(ctx context.Context, body []byte) error {
		payload, env, err := parseEnveloped[ShiftScheduledPayload](body, EventTypeShiftScheduled, deps.ConsumeEnveloped)
		if err != nil {
			return err
		}
		if payload.MechanicID <= 0 || payload.Day == "" {
			return fmt.Errorf("invalid ShiftScheduled payload: mechanic %d day %q", payload.MechanicID, payload.Day)
		}

		partitionKey := env.partition(fmt.Sprintf("mechanic-%d", payload.MechanicID))
		return applyOnce(ctx, deps, ShiftScheduledConsumerName, partitionKey, env.sequence(), func(exec store.Executor) error {
			if err := deps.Bookings.WithExecutor(exec).SetCapacity(ctx, payload.MechanicID, payload.Day, payload.Capacity); err != nil {
				return fmt.Errorf("set capacity for mechanic %d: %w", payload.MechanicID, err)
			}
			deps.Logger.Info("shift scheduled",
				zap.Int64("mechanic_id", payload.MechanicID),
				zap.String("day", payload.Day),
				zap.Int("capacity", payload.Capacity))
			return nil
		})
	}
}

// applyOnce runs apply and advances the dedup checkpoint in one transaction.
// A sequence at or below the checkpoint is acknowledged without applying.
func applyOnce(ctx context.Context, deps ConsumerDeps, consumer, partitionKey string, seq int64, apply func(exec store.Executor) error) error {
	return deps.Runner.Tx(ctx, func(exec store.Executor) error {
		checkpoints := deps.Dedup.WithExecutor(exec)

		verdict, last, err := checkpoints.Check(ctx, consumer, partitionKey, seq)
		if err != nil {
			return err
		}
		switch verdict {
		case dedup.Duplicate:
			deps.Logger.Info("skip duplicate event",
				zap.String("consumer", consumer),
				zap.String("partition_key", partitionKey),
				zap.Int64("sequence", seq),
				zap.Int64("last", last))
			return nil
		case dedup.Gap:
			deps.Logger.Warn("sequence gap",
				zap.String("consumer", consumer),
				zap.String("partition_key", partitionKey),
				zap.Int64("sequence", seq),
				zap.Int64("last", last))
		}

		if err := apply(exec); err != nil {
			return err
		}
		if seq == 0 {
			return nil
		}
		return checkpoints.UpsertLastSequence(ctx, consumer, partitionKey, seq)
	})
}

func (e *EventEnvelope[T]) sequence() int64 {
	if e == nil {
		return 0
	}
	return e.Sequence
}

func (e *EventEnvelope[T]) partition(fallback string) string {
	if e == nil || e.PartitionKey == "" {
		return fallback
	}
	return e.PartitionKey
}
