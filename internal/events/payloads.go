package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventTypeOrderPlaced     = "OrderPlaced"
	EventTypeServicesBooked  = "ServicesBooked"
	EventTypeReviewSubmitted = "ReviewSubmitted"
	EventTypeStockReceived   = "StockReceived"
	EventTypeShiftScheduled  = "ShiftScheduled"

	orderPlacedSchema     = "contracts/events/storefront/OrderPlaced.v1.payload.schema.json"
	servicesBookedSchema  = "contracts/events/storefront/ServicesBooked.v1.payload.schema.json"
	reviewSubmittedSchema = "contracts/events/storefront/ReviewSubmitted.v1.payload.schema.json"
)

type OrderLine struct {
	OrderID    int64           `json:"orderId"`
	ProductID  int64           `json:"productId"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type OrderPlacedPayload struct {
	CustomerID int64           `json:"customerId"`
	Orders     []OrderLine     `json:"orders"`
	Total      decimal.Decimal `json:"total"`
	Timestamp  time.Time       `json:"timestamp"`
}

type BookedService struct {
	ServiceID int64           `json:"serviceId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

type ServicesBookedPayload struct {
	CustomerID int64           `json:"customerId"`
	MechanicID int64           `json:"mechanicId"`
	Day        string          `json:"day"`
	Services   []BookedService `json:"services"`
	Total      decimal.Decimal `json:"total"`
	Timestamp  time.Time       `json:"timestamp"`
}

type ReviewSubmittedPayload struct {
	ReviewID   int64     `json:"reviewId"`
	CustomerID int64     `json:"customerId"`
	ServiceID  int64     `json:"serviceId"`
	MechanicID int64     `json:"mechanicId"`
	Day        string    `json:"day"`
	Rating     int       `json:"rating"`
	Timestamp  time.Time `json:"timestamp"`
}

// StockReceivedPayload is published by the warehouse when goods arrive.
type StockReceivedPayload struct {
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// ShiftScheduledPayload sets how many bookings a mechanic takes on a day.
type ShiftScheduledPayload struct {
	MechanicID int64     `json:"mechanicId"`
	Day        string    `json:"day"`
	Capacity   int       `json:"capacity"`
	Timestamp  time.Time `json:"timestamp"`
}
