package inventory

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImagePath   string          `json:"imagePath"`
	Available   int             `json:"available"`
}

type StockItem struct {
	ProductID int64 `json:"productId"`
	Available int   `json:"available"`
}
