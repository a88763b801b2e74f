package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string
	ProfileID string
	Active    bool
	CreatedAt time.Time
}

type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
}

type CartItemWithProduct struct {
	CartItem
	Product Product
}

type CartWithItems struct {
	Cart
	Items []CartItemWithProduct
}

type CartSummary struct {
	TotalItems    int
	TotalPrice    decimal.Decimal
	TotalPriceCOP decimal.Decimal
}

// Summarize totals the cart at live catalog prices. The COP figure falls
// back to the USD amount when rate is nil.
func (c CartWithItems) Summarize(rate *Rate) CartSummary {
	s := CartSummary{TotalPrice: decimal.Zero}
	for _, it := range c.Items {
		s.TotalItems += it.Quantity
		s.TotalPrice = s.TotalPrice.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	s.TotalPriceCOP = UsdToCop(s.TotalPrice, rate)
	return s
}
