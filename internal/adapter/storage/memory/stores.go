package memory

import (
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/port"
)

// NewStores returns an empty in-memory store for every table.
func NewStores() port.Stores {
	db := NewDB()
	return port.Stores{
		Tx:         db,
		Products:   NewStore(db, storage.ProductsTable),
		Categories: NewStore(db, storage.CategoriesTable),
		Carts:      NewStore(db, storage.CartsTable),
		CartItems:  NewStore(db, storage.CartItemsTable),
		Orders:     NewStore(db, storage.OrdersTable),
		OrderItems: NewStore(db, storage.OrderItemsTable),
		Invoices:   NewStore(db, storage.InvoicesTable),
		Profiles:   NewStore(db, storage.ProfilesTable),
		Roles:      NewStore(db, storage.RolesTable),
	}
}
