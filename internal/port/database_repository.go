package port

import (
	"context"
	"errors"

	"github.com/rl1809/storefront/internal/core/domain"
)

// ErrOptimisticLock is returned by UpdateWhere when no row matched both the
// key and the condition.
var ErrOptimisticLock = errors.New("optimistic lock conflict")

// Where is an equality filter keyed by column name.
type Where map[string]any

// Store is the single data-access contract for every persisted entity.
// Lookups of missing rows fail with domain.ErrNotFound, unique-index
// violations with domain.ErrConflict, anything else with domain.ErrStore.
type Store[T any] interface {
	FindByID(ctx context.Context, id string) (T, error)
	FindAll(ctx context.Context) ([]T, error)
	FindWhere(ctx context.Context, where Where) ([]T, error)

	Insert(ctx context.Context, v T) error
	Update(ctx context.Context, v T) error

	// UpdateWhere updates v only while the stored row still matches where.
	UpdateWhere(ctx context.Context, v T, where Where) error

	// Delete is idempotent: deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	DeleteWhere(ctx context.Context, where Where) error
}

// Transactor runs fn as one unit of work. Stores called with the ctx passed
// to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores bundles the store of every persisted entity with the transactor
// they share.
type Stores struct {
	Tx         Transactor
	Products   Store[domain.Product]
	Categories Store[domain.Category]
	Carts      Store[domain.Cart]
	CartItems  Store[domain.CartItem]
	Orders     Store[domain.Order]
	OrderItems Store[domain.OrderItem]
	Invoices   Store[domain.Invoice]
	Profiles   Store[domain.Profile]
	Roles      Store[domain.RoleRecord]
}
