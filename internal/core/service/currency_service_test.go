package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
)

type stubProvider struct {
	rate  domain.Rate
	err   error
	calls int
}

func (p *stubProvider) LatestRate(context.Context) (domain.Rate, error) {
	p.calls++
	return p.rate, p.err
}

func newCurrency(provider *stubProvider) *CurrencyService {
	logger, _ := test.NewNullLogger()
	return NewCurrencyService(memory.NewCache(), provider, logger)
}

func TestRateForToday_FetchesOncePerDay(t *testing.T) {
	provider := &stubProvider{rate: domain.Rate{Unit: "COP", Value: decimal.NewFromInt(4000)}}
	svc := newCurrency(provider)
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	rate := svc.RateForToday(ctx)
	require.NotNil(t, rate)
	svc.RateForToday(ctx)
	assert.Equal(t, 1, provider.calls)

	now = now.Add(24 * time.Hour)
	svc.RateForToday(ctx)
	assert.Equal(t, 2, provider.calls)
}

func TestRateForToday_FallsBackToLastCached(t *testing.T) {
	provider := &stubProvider{rate: domain.Rate{Unit: "COP", Value: decimal.NewFromInt(4100)}}
	svc := newCurrency(provider)
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NotNil(t, svc.RateForToday(ctx))

	provider.err = errors.New("upstream down")
	now = now.Add(72 * time.Hour)
	rate := svc.RateForToday(ctx)
	require.NotNil(t, rate)
	assert.Equal(t, "4100", rate.Value.String())
}

func TestUsdToCop_NoRateIsPassthrough(t *testing.T) {
	svc := newCurrency(&stubProvider{err: errors.New("offline")})
	ctx := context.Background()

	assert.Nil(t, svc.RateForToday(ctx))
	got := svc.UsdToCop(ctx, decimal.NewFromInt(100), nil)
	assert.Equal(t, "100", got.String())
}

func TestUsdToCop_UsesCachedRate(t *testing.T) {
	svc := newCurrency(&stubProvider{rate: domain.Rate{Value: decimal.NewFromInt(4000)}})
	ctx := context.Background()
	svc.RateForToday(ctx)

	got := svc.UsdToCop(ctx, decimal.RequireFromString("2.50"), nil)
	assert.Equal(t, "10000", got.String())
}
