package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCached_Validity(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var empty Cached[[]string]
	assert.False(t, empty.IsValid(now, CatalogTTL))

	c := NewCached([]string{"lipstick"}, now)
	assert.True(t, c.IsValid(now.Add(4*time.Minute), CatalogTTL))
	assert.False(t, c.IsValid(now.Add(5*time.Minute), CatalogTTL))

	c.Invalidate()
	assert.Nil(t, c.Data)
	assert.False(t, c.IsValid(now, CatalogTTL))
}
