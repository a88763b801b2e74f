package port

import (
	"context"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

type RateCache interface {
	// GetRate returns nil without error when nothing is cached under key.
	GetRate(ctx context.Context, key string) (*domain.Rate, error)

	// SetRate stores rate under key; a zero ttl keeps it until overwritten.
	SetRate(ctx context.Context, key string, rate domain.Rate, ttl time.Duration) error
}

type IdempotencyGuard interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees key so a failed request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}
