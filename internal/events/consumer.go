package events

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one message body. Returning an error NACKs the
// message without requeue.
type HandlerFunc func(ctx context.Context, body []byte) error

// StartConsumer binds one durable queue per routing key in handlers to the
// events exchange and dispatches deliveries until ctx is done.
func StartConsumer(ctx context.Context, conn *amqp.Connection, handlers map[string]HandlerFunc, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return fmt.Errorf("declare events exchange: %w", err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	for routingKey, handler := range handlers {
		queue := storefrontQueueName(routingKey)
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, routingKey, EventsExchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", queue, err)
		}
		msgs, err := ch.Consume(queue, storefrontServiceName+"."+routingKey, false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}
		go consume(ctx, routingKey, msgs, handler, logger)
	}

	go func() {
		<-ctx.Done()
		_ = ch.Close()
	}()
	return nil
}

func consume(ctx context.Context, routingKey string, msgs <-chan amqp.Delivery, handler HandlerFunc, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping consumer", zap.String("routing_key", routingKey))
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn("delivery channel closed", zap.String("routing_key", routingKey))
				return
			}
			handleDelivery(ctx, msg, handler, logger)
		}
	}
}

func handleDelivery(ctx context.Context, msg amqp.Delivery, handler HandlerFunc, logger *zap.Logger) {
	if err := handler(ctx, msg.Body); err != nil {
		logger.Error("handle message",
			zap.String("routing_key", msg.RoutingKey),
			zap.String("message_id", msg.MessageId),
			zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	_ = msg.Ack(false)
}
