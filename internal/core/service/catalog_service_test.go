package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

func TestCatalog_ServesCachedUntilTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.catalog.now = func() time.Time { return now }

	f.product(t, "serum", "10.00", true)
	f.product(t, "retired", "3.00", false)

	got, err := f.catalog.AvailableProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	f.product(t, "toner", "4.00", true)
	got, err = f.catalog.AvailableProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1, "stale reads are served within the TTL")

	now = now.Add(domain.CatalogTTL)
	got, err = f.catalog.AvailableProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCatalog_ProductWritesInvalidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.AvailableProducts(ctx)
	require.NoError(t, err)

	_, err = f.products.Create(ctx, seller, ProductInput{Name: "Rose Oil", Price: decimal.NewFromInt(12), Available: true})
	require.NoError(t, err)

	got, err := f.catalog.AvailableProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCatalog_SearchAndCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateCategory(ctx, seller, "Skincare", "")
	assert.ErrorIs(t, err, domain.ErrPermission)
	skincare, err := f.catalog.CreateCategory(ctx, admin, "Skincare", "Creams and serums")
	require.NoError(t, err)
	_, err = f.catalog.CreateCategory(ctx, admin, "Skincare", "")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.products.Create(ctx, seller, ProductInput{
		Name: "Night Cream", Description: "Hydrating", Price: decimal.NewFromInt(20), Available: true, CategoryID: &skincare.ID,
	})
	require.NoError(t, err)
	_, err = f.products.Create(ctx, seller, ProductInput{
		Name: "Lip Gloss", Description: "Shiny, hydrating finish", Price: decimal.NewFromInt(7), Available: true,
	})
	require.NoError(t, err)

	found, err := f.catalog.Search(ctx, "HYDRAT")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = f.catalog.Search(ctx, "cream")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Night Cream", found[0].Name)

	inCategory, err := f.catalog.ProductsByCategory(ctx, skincare.ID)
	require.NoError(t, err)
	assert.Len(t, inCategory, 1)

	categories, err := f.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestSeedCatalog_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.SeedCatalog(ctx))
	require.NoError(t, f.catalog.SeedCatalog(ctx))

	categories, err := f.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 7)

	products, err := f.catalog.AvailableProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 6)

	fragrances, err := f.stores.Categories.FindWhere(ctx, port.Where{"name": "Fragancias"})
	require.NoError(t, err)
	require.Len(t, fragrances, 1)
	perfumes, err := f.catalog.ProductsByCategory(ctx, fragrances[0].ID)
	require.NoError(t, err)
	require.Len(t, perfumes, 1)
	assert.Equal(t, "125.00", perfumes[0].Price.StringFixed(2))
}
