package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type entry struct {
	rate      domain.Rate
	expiresAt time.Time
}

// Cache stands in for Redis: rate cache and idempotency keys.
type Cache struct {
	mu    sync.Mutex
	now   func() time.Time
	rates map[string]entry
	keys  map[string]struct{}
}

func NewCache() *Cache {
	return &Cache{
		now:   time.Now,
		rates: make(map[string]entry),
		keys:  make(map[string]struct{}),
	}
}

func (c *Cache) GetRate(_ context.Context, key string) (*domain.Rate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.rates[key]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.rates, key)
		return nil, nil
	}
	rate := e.rate
	return &rate, nil
}

func (c *Cache) SetRate(_ context.Context, key string, rate domain.Rate, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{rate: rate}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.rates[key] = e
	return nil
}

func (c *Cache) SetIdempotency(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.keys[key]; ok {
		return false, nil
	}
	c.keys[key] = struct{}{}
	return true, nil
}

func (c *Cache) ReleaseIdempotency(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

var (
	_ port.RateCache        = (*Cache)(nil)
	_ port.IdempotencyGuard = (*Cache)(nil)
)
