package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/booking"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/fulfillment"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/order"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/sequence"
)

// Sequencer hands out per-partition sequence numbers.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type PublisherOptions struct {
	PublishEnveloped bool
	Producer         string
	Timeout          time.Duration
}

// Publisher emits storefront events to the topic exchange.
type Publisher struct {
	ch     channel
	seq    Sequencer
	opts   PublisherOptions
	logger *zap.Logger
	now    func() time.Time
}

func NewPublisher(conn *amqp.Connection, seq Sequencer, opts PublisherOptions, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	return newPublisher(ch, seq, opts, logger), nil
}

func newPublisher(ch channel, seq Sequencer, opts PublisherOptions, logger *zap.Logger) *Publisher {
	if opts.Producer == "" {
		opts.Producer = storefrontServiceName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{ch: ch, seq: seq, opts: opts, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, customerID int64, r order.Receipt) error {
	payload := OrderPlacedPayload{
		CustomerID: customerID,
		Total:      r.Total,
		Timestamp:  p.now(),
	}
	for _, o := range r.Orders {
		payload.Orders = append(payload.Orders, OrderLine{
			OrderID:    o.ID,
			ProductID:  o.ProductID,
			Quantity:   o.Quantity,
			TotalPrice: o.TotalPrice,
		})
	}
	return publishEvent(ctx, p, OrderPlacedRoutingKey, EventTypeOrderPlaced, orderPlacedSchema,
		sequence.CustomerPartition(customerID), payload)
}

func (p *Publisher) PublishServicesBooked(ctx context.Context, r booking.Result) error {
	payload := ServicesBookedPayload{
		CustomerID: r.CustomerID,
		MechanicID: r.MechanicID,
		Day:        r.Day,
		Total:      r.Total(),
		Timestamp:  p.now(),
	}
	for _, a := range r.Allocations {
		payload.Services = append(payload.Services, BookedService{ServiceID: a.ServiceID, Name: a.Service, Price: a.Price})
	}
	return publishEvent(ctx, p, ServicesBookedRoutingKey, EventTypeServicesBooked, servicesBookedSchema,
		sequence.CustomerPartition(r.CustomerID), payload)
}

func (p *Publisher) PublishReviewSubmitted(ctx context.Context, r fulfillment.Review) error {
	payload := ReviewSubmittedPayload{
		ReviewID:   r.ID,
		CustomerID: r.CustomerID,
		ServiceID:  r.ServiceID,
		MechanicID: r.MechanicID,
		Day:        r.Day,
		Rating:     r.Rating,
		Timestamp:  p.now(),
	}
	return publishEvent(ctx, p, ReviewSubmittedRoutingKey, EventTypeReviewSubmitted, reviewSubmittedSchema,
		sequence.CustomerPartition(r.CustomerID), payload)
}

func publishEvent[T any](ctx context.Context, p *Publisher, routingKey, name, schema, partitionKey string, payload T) error {
	if !p.opts.PublishEnveloped {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		return p.publishJSON(ctx, routingKey, body)
	}

	seq, err := p.seq.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := EventEnvelope[T]{
		EventName:     name,
		EventVersion:  1,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID(ctx),
		Producer:      p.opts.Producer,
		PartitionKey:  partitionKey,
		Sequence:      seq,
		OccurredAt:    p.now(),
		Schema:        schema,
		Payload:       payload,
	}
	if env.CorrelationID == "" {
		env.CorrelationID = uuid.NewString()
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", name, err)
	}

	if err := p.publishJSON(ctx, routingKey, body); err != nil {
		return err
	}
	p.logger.Debug("event published",
		zap.String("event", name),
		zap.String("partition_key", partitionKey),
		zap.Int64("sequence", seq))
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now(),
			Body:         body,
		},
	)
}
