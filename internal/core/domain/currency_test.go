package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUsdToCop(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	assert.True(t, UsdToCop(hundred, nil).Equal(hundred))
	assert.True(t, UsdToCop(hundred, &Rate{Value: decimal.Zero}).Equal(hundred))
	assert.True(t, UsdToCop(hundred, &Rate{Value: decimal.RequireFromString("4000.5")}).
		Equal(decimal.RequireFromString("400050")))
}

func TestRateDateKey(t *testing.T) {
	assert.Equal(t, "2026-10-17", RateDateKey(time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC)))
}

func TestCartWithItems_Summarize(t *testing.T) {
	cart := CartWithItems{Items: []CartItemWithProduct{
		{CartItem: CartItem{Quantity: 2}, Product: Product{Price: decimal.RequireFromString("10.00")}},
		{CartItem: CartItem{Quantity: 1}, Product: Product{Price: decimal.RequireFromString("5.00")}},
	}}

	s := cart.Summarize(&Rate{Value: decimal.NewFromInt(4000)})
	assert.Equal(t, 3, s.TotalItems)
	assert.True(t, s.TotalPrice.Equal(decimal.NewFromInt(25)))
	assert.True(t, s.TotalPriceCOP.Equal(decimal.NewFromInt(100000)))
}
