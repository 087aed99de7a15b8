package cart

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ali-zain99/Mobile-Mechanic/internal/apperr"
	"github.com/Ali-zain99/Mobile-Mechanic/internal/inventory"
)

// Stock is the inventory ledger as seen by the cart.
type Stock interface {
	Get(ctx context.Context, productID int64) (inventory.Product, error)
	Reserve(ctx context.Context, productID int64, qty int) error
	Release(ctx context.Context, productID int64, qty int) error
}

// Holder is the per-user session bag that owns the cart. Cart returns nil
// when the session never held one.
type Holder interface {
	Cart() *Cart
	SaveCart(ctx context.Context, c *Cart) error
}

type Service struct {
	stock  Stock
	logger *zap.Logger
}

func NewService(stock Stock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{stock: stock, logger: logger}
}

// AddItem reserves qty units and records them in the session cart. The
// reservation and the cart write succeed or fail together: when the session
// cannot be saved the reserved units are released again.
func (s *Service) AddItem(ctx context.Context, h Holder, productID int64, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, apperr.Invalid("cart.add", "quantity must be positive")
	}

	product, err := s.stock.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.stock.Reserve(ctx, productID, qty); err != nil {
		return nil, err
	}

	current := h.Cart()
	if current == nil {
		current = New()
	}
	next := current.Clone()
	next.Add(Line{
		ProductID:   product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImagePath:   product.ImagePath,
		Quantity:    qty,
	})

	if err := h.SaveCart(ctx, next); err != nil {
		if relErr := s.stock.Release(ctx, productID, qty); relErr != nil {
			s.logger.Error("release after failed cart save",
				zap.Int64("product_id", productID),
				zap.Int("quantity", qty),
				zap.Error(relErr))
		}
		return nil, apperr.Store("cart.add", err)
	}

	s.logger.Debug("item added to cart", zap.Int64("product_id", productID), zap.Int("quantity", qty))
	return next, nil
}

func (s *Service) RemoveItem(ctx context.Context, h Holder, productID int64) (*Cart, error) {
	current := h.Cart()
	if current == nil {
		return nil, apperr.E(apperr.KindSessionNotInitialized, "cart.remove", "session cart not properly initialized", nil)
	}
	next := current.Clone()
	if !next.Remove(productID) {
		return current, nil
	}
	if err := h.SaveCart(ctx, next); err != nil {
		return nil, apperr.Store("cart.remove", err)
	}
	return next, nil
}

// Adjust changes a line by one unit. It does not touch the inventory ledger.
func (s *Service) Adjust(ctx context.Context, h Holder, productID int64, dir Direction) (*Cart, error) {
	if _, ok := ParseDirection(string(dir)); !ok {
		return nil, apperr.Invalid("cart.adjust", "unknown direction %q", dir)
	}
	current := h.Cart()
	if current == nil {
		return nil, apperr.E(apperr.KindSessionNotInitialized, "cart.adjust", "session cart not properly initialized", nil)
	}
	next := current.Clone()
	if !next.AdjustQuantity(productID, dir) {
		return current, nil
	}
	if err := h.SaveCart(ctx, next); err != nil {
		return nil, apperr.Store("cart.adjust", err)
	}
	return next, nil
}
