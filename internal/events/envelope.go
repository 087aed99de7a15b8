package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EventEnvelope is the shared v1 envelope. Payload is typed per event.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       T         `json:"payload"`
}

// Validate ensures the envelope contains the expected event identity.
func (e EventEnvelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	if e.EventID == "" {
		return fmt.Errorf("missing eventId")
	}
	return nil
}

// parseEnveloped decodes body as an envelope of T when allowEnveloped is set
// and the body looks like one, otherwise as a bare legacy payload. The
// returned envelope is nil for legacy bodies.
func parseEnveloped[T any](body []byte, name string, allowEnveloped bool) (T, *EventEnvelope[T], error) {
	var zero T
	if allowEnveloped {
		var env EventEnvelope[T]
		if err := json.Unmarshal(body, &env); err == nil && env.EventName != "" {
			if err := env.Validate(name, 1); err != nil {
				return zero, nil, fmt.Errorf("invalid %s envelope: %w", name, err)
			}
			return env.Payload, &env, nil
		}
	}

	var legacy T
	if err := json.Unmarshal(body, &legacy); err != nil {
		return zero, nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return legacy, nil, nil
}

type correlationKey struct{}

// WithCorrelationID attaches the id that published events will carry as
// their correlationId.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
