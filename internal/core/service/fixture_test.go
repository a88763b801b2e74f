package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var (
	customer = domain.Actor{ProfileID: "cust-1", Username: "ana", Role: domain.RoleCustomer}
	shopper  = domain.Actor{ProfileID: "cust-2", Username: "bea", Role: domain.RoleCustomer}
	seller   = domain.Actor{ProfileID: "sell-1", Username: "sol", Role: domain.RoleSeller}
	admin    = domain.Actor{ProfileID: "admin-1", Username: "root", Role: domain.RoleAdmin}
)

type fixture struct {
	stores   port.Stores
	log      *test.Hook
	carts    *CartService
	checkout *CheckoutService
	orders   *OrderService
	invoices *InvoiceService
	catalog  *CatalogService
	products *ProductService
	profiles *ProfileService
	blobs    *memory.BlobStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, memory.NewStores())
}

func newFixtureWith(t *testing.T, stores port.Stores) *fixture {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{stores: stores, log: hook, blobs: memory.NewBlobStorage("https://cdn.test/product-images")}
	f.carts = NewCartService(stores, logger)
	f.orders = NewOrderService(stores, logger)
	f.invoices = NewInvoiceService(stores, f.orders, logger)
	f.checkout = NewCheckoutService(stores, f.orders, f.invoices, logger)
	f.catalog = NewCatalogService(stores, logger)
	f.products = NewProductService(stores, f.blobs, f.catalog, logger)
	f.profiles = NewProfileService(stores, logger)
	return f
}

func (f *fixture) product(t *testing.T, name, price string, available bool) domain.Product {
	t.Helper()
	p := domain.Product{
		ID:        name + "-id",
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Available: available,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.stores.Products.Insert(context.Background(), p))
	return p
}

// filledCart gives actor an active cart holding qty of each product.
func (f *fixture) filledCart(t *testing.T, actor domain.Actor, qty int, products ...domain.Product) domain.Cart {
	t.Helper()
	ctx := context.Background()

	cart, err := f.carts.CreateCart(ctx, actor, actor.ProfileID)
	require.NoError(t, err)
	for _, p := range products {
		_, err := f.carts.AddItem(ctx, actor, cart.ID, p.ID, qty)
		require.NoError(t, err)
	}
	return cart
}

// failingStore fails Insert once armed; everything else passes through.
type failingStore[T any] struct {
	port.Store[T]
	fail error
}

func (s *failingStore[T]) Insert(ctx context.Context, v T) error {
	if s.fail != nil {
		return s.fail
	}
	return s.Store.Insert(ctx, v)
}

// slowStore widens the window between reading rows and writing them back.
type slowStore[T any] struct {
	port.Store[T]
	delay time.Duration
}

func (s *slowStore[T]) FindWhere(ctx context.Context, where port.Where) ([]T, error) {
	rows, err := s.Store.FindWhere(ctx, where)
	time.Sleep(s.delay)
	return rows, err
}

// hookStore runs before on the first FindByID, then passes through.
type hookStore[T any] struct {
	port.Store[T]
	fired  atomic.Bool
	before func()
}

func (s *hookStore[T]) FindByID(ctx context.Context, id string) (T, error) {
	if s.before != nil && s.fired.CompareAndSwap(false, true) {
		s.before()
	}
	return s.Store.FindByID(ctx, id)
}
