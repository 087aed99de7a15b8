package order

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/cart"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/store"
)

// Session is what checkout needs from the caller's session.
type Session interface {
	cart.Holder
	CustomerID() (int64, bool)
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, customerID int64, r Receipt) error
}

// Committer converts a session cart into persisted orders.
type Committer struct {
	runner *store.Runner
	orders *Repository
	pub    Publisher
	logger *zap.Logger
}

// NewCommitter wires the committer. pub may be nil when messaging is disabled.
func NewCommitter(runner *store.Runner, orders *Repository, pub Publisher, logger *zap.Logger) *Committer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Committer{runner: runner, orders: orders, pub: pub, logger: logger}
}

// Checkout writes one order row per cart line and clears the cart.
//
// Rows are inserted in cart order. The first failed insert stops the loop and
// the cart is left as it was. Whether the rows written before the failure
// survive depends on the runner mode.
func (c *Committer) Checkout(ctx context.Context, sess Session, contact Contact, payment string) (Receipt, error) {
	const op = "order.checkout"

	current := sess.Cart()
	if current == nil || current.Len() == 0 {
		return Receipt{}, apperr.E(apperr.KindEmptyCart, op, "cart is empty", nil)
	}
	customerID, ok := sess.CustomerID()
	if !ok {
		return Receipt{}, apperr.E(apperr.KindMissingCustomer, op, "no customer bound to session", nil)
	}

	contact = Contact{
		Name:    strings.TrimSpace(contact.Name),
		Phone:   strings.TrimSpace(contact.Phone),
		Email:   strings.TrimSpace(contact.Email),
		Address: strings.TrimSpace(contact.Address),
	}
	payment = strings.TrimSpace(payment)

	var placed []Order
	err := c.runner.InTx(ctx, func(exec store.Executor) error {
		repo := c.orders.WithExecutor(exec)
		placed = placed[:0]
		for _, line := range current.Lines {
			o := Order{
				CustomerID: customerID,
				ProductID:  line.ProductID,
				Name:       contact.Name,
				Phone:      contact.Phone,
				Email:      contact.Email,
				Address:    contact.Address,
				Quantity:   line.Quantity,
				TotalPrice: line.Total(),
				Payment:    payment,
			}
			if err := repo.Insert(ctx, &o); err != nil {
				return err
			}
			placed = append(placed, o)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("checkout failed",
			zap.Int64("customer_id", customerID),
			zap.Int("lines", current.Len()),
			zap.Int("written", len(placed)),
			zap.Stringer("mode", c.runner.Mode()),
			zap.Error(err))
		return Receipt{}, apperr.E(apperr.KindOrderCommitFailure, op, "order commit failed", err)
	}

	receipt := Receipt{Orders: placed, Total: decimal.Zero}
	for _, o := range placed {
		receipt.Total = receipt.Total.Add(o.TotalPrice)
	}

	// The orders are already committed; a failed cart write must not turn the
	// checkout into an error that invites a second submission.
	if err := sess.SaveCart(ctx, cart.New()); err != nil {
		c.logger.Warn("clear cart after checkout", zap.Int64("customer_id", customerID), zap.Error(err))
	}

	if c.pub != nil {
		if err := c.pub.PublishOrderPlaced(ctx, customerID, receipt); err != nil {
			c.logger.Warn("publish order placed", zap.Int64("customer_id", customerID), zap.Error(err))
		}
	}

	c.logger.Info("checkout complete",
		zap.Int64("customer_id", customerID),
		zap.Int("orders", len(placed)),
		zap.String("total", receipt.Total.StringFixed(2)))
	return receipt, nil
}
