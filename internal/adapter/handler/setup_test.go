package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

type offlineRates struct{}

func (offlineRates) LatestRate(context.Context) (domain.Rate, error) {
	return domain.Rate{}, errors.New("offline")
}

type testEnv struct {
	stores port.Stores
	svc    Services
	auth   *auth.StaticAuthenticator
	guard  *memory.Cache
}

// newTestEnv onboards a customer (token "tok-cust") and a seller
// ("tok-sell"); "tok-new" belongs to a user without a profile.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	stores := memory.NewStores()
	cache := memory.NewCache()
	orders := service.NewOrderService(stores, logger)
	invoices := service.NewInvoiceService(stores, orders, logger)
	catalog := service.NewCatalogService(stores, logger)
	svc := Services{
		Carts:    service.NewCartService(stores, logger),
		Checkout: service.NewCheckoutService(stores, orders, invoices, logger),
		Orders:   orders,
		Invoices: invoices,
		Catalog:  catalog,
		Products: service.NewProductService(stores, memory.NewBlobStorage("https://cdn.test"), catalog, logger),
		Profiles: service.NewProfileService(stores, logger),
		Currency: service.NewCurrencyService(cache, offlineRates{}, logger),
	}

	require.NoError(t, svc.Profiles.SeedRoles(ctx))
	_, err := svc.Profiles.CompleteOnboarding(ctx, "cust-1", service.OnboardingInput{Username: "ana", FullName: "Ana", Role: "customer"})
	require.NoError(t, err)
	_, err = svc.Profiles.CompleteOnboarding(ctx, "sell-1", service.OnboardingInput{Username: "sol", FullName: "Sol", Role: "seller"})
	require.NoError(t, err)

	return &testEnv{
		stores: stores,
		svc:    svc,
		auth:   auth.NewStaticAuthenticator(map[string]string{"tok-cust": "cust-1", "tok-sell": "sell-1", "tok-new": "new-user"}),
		guard:  cache,
	}
}

func (e *testEnv) product(t *testing.T, name, price string) domain.Product {
	t.Helper()
	p := domain.Product{ID: name + "-id", Name: name, Price: decimal.RequireFromString(price), Available: true, CreatedAt: time.Now()}
	require.NoError(t, e.stores.Products.Insert(context.Background(), p))
	return p
}
