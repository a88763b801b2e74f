package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	ImagePath   string
	Price       decimal.Decimal
	Available   bool
	CategoryID  *string
	CreatedAt   time.Time
}

// Purchasable reports whether the product may be added to a cart or ordered.
func (p Product) Purchasable() bool {
	return p.Available && p.Price.IsPositive()
}

type Category struct {
	ID          string
	Name        string
	Description string
}

type Catalog struct {
	Products   []Product
	Categories []Category
}
