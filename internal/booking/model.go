package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Key identifies a booked service. A customer may hold several rows with the
// same key; updates through a key touch all of them.
type Key struct {
	CustomerID int64  `json:"customerId"`
	ServiceID  int64  `json:"serviceId"`
	MechanicID int64  `json:"mechanicId"`
	Day        string `json:"day"`
}

type Booking struct {
	Key
	Price     decimal.Decimal `json:"price"`
	Received  bool            `json:"received"`
	Reviewed  bool            `json:"reviewed"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Request asks for every named service with one mechanic on one day.
type Request struct {
	Services   []string `json:"services"`
	Day        string   `json:"day"`
	MechanicID int64    `json:"mechanicId"`
}

// Allocation is the outcome for a single requested service.
type Allocation struct {
	Service   string          `json:"service"`
	ServiceID int64           `json:"serviceId"`
	Price     decimal.Decimal `json:"price"`
}

type Result struct {
	CustomerID  int64        `json:"customerId"`
	MechanicID  int64        `json:"mechanicId"`
	Day         string       `json:"day"`
	Allocations []Allocation `json:"allocations"`
}

func (r Result) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Allocations {
		total = total.Add(a.Price)
	}
	return total
}
