package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestGenerateForOrder_OncePerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.pendingOrder(t, customer)

	inv, err := f.invoices.GenerateForOrder(ctx, customer, order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, order.ID, inv.OrderID)
	assert.True(t, inv.Total.Equal(order.Total))

	_, err = f.invoices.GenerateForOrder(ctx, customer, order.ID, "")
	assert.ErrorIs(t, err, domain.ErrConflict)

	all, err := f.stores.Invoices.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGenerateForOrder_Gate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.pendingOrder(t, customer)

	_, err := f.invoices.GenerateForOrder(ctx, shopper, order.ID, "")
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, err = f.invoices.GenerateForOrder(ctx, seller, order.ID, "https://cdn.test/inv.pdf")
	assert.NoError(t, err)

	_, err = f.invoices.GenerateForOrder(ctx, customer, "missing", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.pendingOrder(t, customer)
	theirs := f.pendingOrder(t, shopper)
	_, err := f.invoices.GenerateForOrder(ctx, customer, mine.ID, "")
	require.NoError(t, err)
	_, err = f.invoices.GenerateForOrder(ctx, shopper, theirs.ID, "")
	require.NoError(t, err)

	got, err := f.invoices.GetByOrder(ctx, customer, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.Order.ID)
	assert.Len(t, got.Order.Items, 1)

	list, err := f.invoices.ListMine(ctx, customer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].OrderID)

	_, err = f.invoices.ListAll(ctx, customer)
	assert.ErrorIs(t, err, domain.ErrPermission)
	all, err := f.invoices.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stats, err := f.invoices.Statistics(ctx, seller)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalInvoices)
	assert.Equal(t, "20.00", stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, "10.00", stats.AverageInvoiceValue.StringFixed(2))
}

func TestGetByOrder_NoInvoiceYet(t *testing.T) {
	f := newFixture(t)
	order := f.pendingOrder(t, customer)

	_, err := f.invoices.GetByOrder(context.Background(), customer, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
