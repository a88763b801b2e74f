package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

func TestStore_PartialUniqueIndex(t *testing.T) {
	ctx := context.Background()
	carts := NewStore(NewDB(), storage.CartsTable)

	require.NoError(t, carts.Insert(ctx, domain.Cart{ID: "c1", ProfileID: "p1", Active: true}))
	err := carts.Insert(ctx, domain.Cart{ID: "c2", ProfileID: "p1", Active: true})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// inactive carts are outside the index
	require.NoError(t, carts.Insert(ctx, domain.Cart{ID: "c3", ProfileID: "p1", Active: false}))
	require.NoError(t, carts.Insert(ctx, domain.Cart{ID: "c4", ProfileID: "p2", Active: true}))
}

func TestStore_NullsNeverCollide(t *testing.T) {
	ctx := context.Background()
	profiles := NewStore(NewDB(), storage.ProfilesTable)

	require.NoError(t, profiles.Insert(ctx, domain.Profile{ID: "a"}))
	require.NoError(t, profiles.Insert(ctx, domain.Profile{ID: "b"}))
	require.NoError(t, profiles.Insert(ctx, domain.Profile{ID: "c", Username: "ana"}))

	err := profiles.Insert(ctx, domain.Profile{ID: "d", Username: "ana"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestStore_FindWhereNewestFirst(t *testing.T) {
	ctx := context.Background()
	orders := NewStore(NewDB(), storage.OrdersTable)

	for _, id := range []string{"o1", "o2", "o3"} {
		require.NoError(t, orders.Insert(ctx, domain.Order{ID: id, ProfileID: "p1", Status: domain.OrderStatusPending, Total: decimal.NewFromInt(1)}))
	}
	require.NoError(t, orders.Insert(ctx, domain.Order{ID: "o4", ProfileID: "p2", Status: domain.OrderStatusPaid}))

	got, err := orders.FindWhere(ctx, port.Where{"profile_id": "p1", "status": domain.OrderStatusPending})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "o3", got[0].ID)
	assert.Equal(t, "o1", got[2].ID)

	_, err = orders.FindWhere(ctx, port.Where{"colour": "red"})
	assert.True(t, errors.Is(err, domain.ErrStore))
}

func TestStore_UpdateWhere(t *testing.T) {
	ctx := context.Background()
	orders := NewStore(NewDB(), storage.OrdersTable)
	require.NoError(t, orders.Insert(ctx, domain.Order{ID: "o1", Status: domain.OrderStatusPending}))

	err := orders.UpdateWhere(ctx, domain.Order{ID: "o1", Status: domain.OrderStatusPaid}, port.Where{"status": "pending"})
	require.NoError(t, err)

	err = orders.UpdateWhere(ctx, domain.Order{ID: "o1", Status: domain.OrderStatusCancelled}, port.Where{"status": "pending"})
	assert.True(t, errors.Is(err, port.ErrOptimisticLock))

	o, err := orders.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, o.Status)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	items := NewStore(NewDB(), storage.CartItemsTable)
	require.NoError(t, items.Insert(ctx, domain.CartItem{ID: "i1", CartID: "c1", ProductID: "p1", Quantity: 1}))

	require.NoError(t, items.Delete(ctx, "i1"))
	require.NoError(t, items.Delete(ctx, "i1"))
	assert.Equal(t, 0, items.Len())

	err := items.DeleteWhere(ctx, nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestDB_WithinTxRollsBackEveryStore(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	orders := NewStore(db, storage.OrdersTable)
	items := NewStore(db, storage.OrderItemsTable)
	boom := errors.New("boom")

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, orders.Insert(ctx, domain.Order{ID: "o1", CreatedAt: time.Now()}))
		require.NoError(t, items.Insert(ctx, domain.OrderItem{ID: "i1", OrderID: "o1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, orders.Len())
	assert.Equal(t, 0, items.Len())

	err = db.WithinTx(ctx, func(ctx context.Context) error {
		return orders.Insert(ctx, domain.Order{ID: "o2"})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, orders.Len())
}

func TestDB_RollbackKeepsWritesOutsideTx(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	carts := NewStore(db, storage.CartsTable)
	now := time.Now()

	require.NoError(t, carts.Insert(ctx, domain.Cart{ID: "mine", ProfileID: "p1", Active: true, CreatedAt: now}))
	require.NoError(t, carts.Insert(ctx, domain.Cart{ID: "gone", ProfileID: "p3", Active: true, CreatedAt: now}))
	boom := errors.New("boom")

	err := db.WithinTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, carts.Update(txCtx, domain.Cart{ID: "mine", ProfileID: "p1", Active: false, CreatedAt: now}))
		require.NoError(t, carts.Delete(txCtx, "gone"))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, carts.Insert(ctx, domain.Cart{ID: "other", ProfileID: "p2", Active: true, CreatedAt: now}))
		}()
		wg.Wait()
		return boom
	})
	assert.ErrorIs(t, err, boom)

	other, err := carts.FindByID(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "p2", other.ProfileID)

	mine, err := carts.FindByID(ctx, "mine")
	require.NoError(t, err)
	assert.True(t, mine.Active)

	_, err = carts.FindByID(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, 3, carts.Len())
}

func TestCache_RateExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetRate(ctx, "2026-01-01", domain.Rate{Value: decimal.NewFromInt(4000)}, time.Hour))
	got, err := c.GetRate(ctx, "2026-01-01")
	require.NoError(t, err)
	require.NotNil(t, got)

	now = now.Add(time.Hour)
	got, err = c.GetRate(ctx, "2026-01-01")
	require.NoError(t, err)
	assert.Nil(t, got)
}
