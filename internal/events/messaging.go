package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange            = "storefront.events"
	OrderPlacedRoutingKey     = "order.placed.v1"
	ServicesBookedRoutingKey  = "services.booked.v1"
	ReviewSubmittedRoutingKey = "review.submitted.v1"
	StockReceivedRoutingKey   = "stock.received.v1"
	ShiftScheduledRoutingKey  = "shift.scheduled.v1"
	storefrontServiceName     = "storefront"
)

func serviceQueue(serviceName, routingKey string) string {
	return serviceName + "." + routingKey
}

func storefrontQueueName(routingKey string) string {
	return serviceQueue(storefrontServiceName, routingKey)
}

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
