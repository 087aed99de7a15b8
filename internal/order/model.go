package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one persisted row per cart line. TotalPrice is frozen at checkout.
type Order struct {
	ID         int64           `json:"orderId"`
	CustomerID int64           `json:"customerId"`
	ProductID  int64           `json:"productId"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email"`
	Address    string          `json:"address"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Payment    string          `json:"payment"`
	Received   bool            `json:"received"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Contact is the shipping detail entered at checkout.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type Receipt struct {
	Orders []Order         `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}
