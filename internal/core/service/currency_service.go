package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	latestRateKey = "latest"
	dailyRateTTL  = 48 * time.Hour
)

// CurrencyService provides the COP/USD reference rate for display prices.
// It never fails: when neither provider nor cache has a rate, callers get
// nil and amounts stay in USD.
type CurrencyService struct {
	cache    port.RateCache
	provider port.RateProvider
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewCurrencyService(cache port.RateCache, provider port.RateProvider, log logrus.FieldLogger) *CurrencyService {
	return &CurrencyService{cache: cache, provider: provider, log: log, now: time.Now}
}

// RateForToday returns today's cached rate, fetching it once per calendar
// day. If the fetch fails the last rate ever cached is used.
func (s *CurrencyService) RateForToday(ctx context.Context) *domain.Rate {
	key := domain.RateDateKey(s.now())

	rate, err := s.cache.GetRate(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("rate cache read failed")
	} else if rate != nil {
		return rate
	}

	fresh, err := s.provider.LatestRate(ctx)
	if err != nil {
		s.log.WithError(err).Warn("rate fetch failed, using last cached rate")
		return s.lastKnown(ctx)
	}

	if err := s.cache.SetRate(ctx, key, fresh, dailyRateTTL); err != nil {
		s.log.WithError(err).Warn("rate cache write failed")
	}
	if err := s.cache.SetRate(ctx, latestRateKey, fresh, 0); err != nil {
		s.log.WithError(err).Warn("rate cache write failed")
	}
	return &fresh
}

func (s *CurrencyService) lastKnown(ctx context.Context) *domain.Rate {
	rate, err := s.cache.GetRate(ctx, latestRateKey)
	if err != nil {
		s.log.WithError(err).Warn("rate cache read failed")
		return nil
	}
	return rate
}

// UsdToCop converts with rate, or with the last cached rate when rate is
// nil. It never calls the provider.
func (s *CurrencyService) UsdToCop(ctx context.Context, usd decimal.Decimal, rate *domain.Rate) decimal.Decimal {
	if rate == nil {
		rate = s.lastKnown(ctx)
	}
	return domain.UsdToCop(usd, rate)
}
