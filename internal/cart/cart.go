package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one product in a session cart. Name, description, price and image
// are copied from the catalog when the line is first added.
type Line struct {
	ProductID   int64           `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImagePath   string          `json:"imagePath"`
	Quantity    int             `json:"quantity"`
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Increase, Decrease:
		return Direction(s), true
	default:
		return "", false
	}
}

// Cart keeps lines in insertion order. Every line has Quantity >= 1.
type Cart struct {
	Lines []Line `json:"lines"`
}

func New() *Cart {
	return &Cart{Lines: []Line{}}
}

func (c *Cart) Len() int { return len(c.Lines) }

func (c *Cart) index(productID int64) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Find returns a copy of the line for productID.
func (c *Cart) Find(productID int64) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// Add merges qty into an existing line for the same product or appends a new
// line. Non-positive quantities are ignored.
func (c *Cart) Add(line Line) {
	if line.Quantity <= 0 {
		return
	}
	if i := c.index(line.ProductID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return
	}
	c.Lines = append(c.Lines, line)
}

// Remove deletes the line for productID and reports whether one existed.
func (c *Cart) Remove(productID int64) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// AdjustQuantity moves a line's quantity by one. A decrease never takes the
// line below 1; it is not removed.
func (c *Cart) AdjustQuantity(productID int64, dir Direction) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	switch dir {
	case Increase:
		c.Lines[i].Quantity++
	case Decrease:
		if c.Lines[i].Quantity > 1 {
			c.Lines[i].Quantity--
		}
	default:
		return false
	}
	return true
}

func (c *Cart) Clear() {
	c.Lines = []Line{}
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// Clone returns a deep copy so callers can restore state after a failed save.
func (c *Cart) Clone() *Cart {
	out := &Cart{Lines: make([]Line, len(c.Lines))}
	copy(out.Lines, c.Lines)
	return out
}
