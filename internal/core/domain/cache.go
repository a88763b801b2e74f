package domain

import "time"

// CatalogTTL is how long a fetched catalog listing may be served.
const CatalogTTL = 5 * time.Minute

// Cached holds a fetched value and when it was fetched. The zero value is
// empty and never valid.
type Cached[T any] struct {
	Data      T
	FetchedAt time.Time
}

func NewCached[T any](data T, now time.Time) Cached[T] {
	return Cached[T]{Data: data, FetchedAt: now}
}

func (c Cached[T]) IsValid(now time.Time, ttl time.Duration) bool {
	if c.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(c.FetchedAt) < ttl
}

func (c *Cached[T]) Invalidate() {
	var zero T
	c.Data = zero
	c.FetchedAt = time.Time{}
}
