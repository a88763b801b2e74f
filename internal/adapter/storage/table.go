package storage

import (
	"database/sql"

	"github.com/rl1809/storefront/internal/core/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// Table describes how an entity maps onto a relational table. Columns[0] is
// the primary key and Values must return one value per column, in order.
type Table[T any] struct {
	Name    string
	Columns []string
	OrderBy string
	Values  func(T) []any
	Scan    func(scanner) (T, error)

	// Unique mirrors the unique indexes declared in migrations/.
	Unique []UniqueIndex[T]
}

type UniqueIndex[T any] struct {
	Name    string
	Columns []string
	// When limits the index to matching rows (a partial index); nil means all rows.
	When func(T) bool
}

func (t Table[T]) Key(v T) string {
	id, _ := t.Values(v)[0].(string)
	return id
}

func (t Table[T]) Row(v T) map[string]any {
	vals := t.Values(v)
	row := make(map[string]any, len(t.Columns))
	for i, c := range t.Columns {
		row[c] = vals[i]
	}
	return row
}

func (t Table[T]) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// emptyAsNull keeps blank values out of unique indexes.
func emptyAsNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

var ProductsTable = Table[domain.Product]{
	Name:    "products",
	Columns: []string{"id", "name", "description", "image_url", "image_path", "price", "available", "category_id", "created_at"},
	OrderBy: "created_at DESC",
	Values: func(p domain.Product) []any {
		return []any{p.ID, p.Name, p.Description, p.ImageURL, p.ImagePath, p.Price, p.Available, nullable(p.CategoryID), p.CreatedAt}
	},
	Scan: func(s scanner) (domain.Product, error) {
		var p domain.Product
		var category sql.NullString
		err := s.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.ImagePath, &p.Price, &p.Available, &category, &p.CreatedAt)
		p.CategoryID = fromNull(category)
		return p, err
	},
}

var CategoriesTable = Table[domain.Category]{
	Name:    "categories",
	Columns: []string{"id", "name", "description"},
	OrderBy: "name",
	Values: func(c domain.Category) []any {
		return []any{c.ID, c.Name, c.Description}
	},
	Scan: func(s scanner) (domain.Category, error) {
		var c domain.Category
		err := s.Scan(&c.ID, &c.Name, &c.Description)
		return c, err
	},
	Unique: []UniqueIndex[domain.Category]{{Name: "categories_name_key", Columns: []string{"name"}}},
}

var CartsTable = Table[domain.Cart]{
	Name:    "carts",
	Columns: []string{"id", "profile_id", "active", "created_at"},
	OrderBy: "created_at DESC",
	Values: func(c domain.Cart) []any {
		return []any{c.ID, c.ProfileID, c.Active, c.CreatedAt}
	},
	Scan: func(s scanner) (domain.Cart, error) {
		var c domain.Cart
		err := s.Scan(&c.ID, &c.ProfileID, &c.Active, &c.CreatedAt)
		return c, err
	},
	Unique: []UniqueIndex[domain.Cart]{{
		Name:    "carts_one_active_per_profile",
		Columns: []string{"profile_id"},
		When:    func(c domain.Cart) bool { return c.Active },
	}},
}

var CartItemsTable = Table[domain.CartItem]{
	Name:    "cart_items",
	Columns: []string{"id", "cart_id", "product_id", "quantity"},
	Values: func(i domain.CartItem) []any {
		return []any{i.ID, i.CartID, i.ProductID, i.Quantity}
	},
	Scan: func(s scanner) (domain.CartItem, error) {
		var i domain.CartItem
		err := s.Scan(&i.ID, &i.CartID, &i.ProductID, &i.Quantity)
		return i, err
	},
	Unique: []UniqueIndex[domain.CartItem]{{Name: "cart_items_cart_product_key", Columns: []string{"cart_id", "product_id"}}},
}

var OrdersTable = Table[domain.Order]{
	Name:    "orders",
	Columns: []string{"id", "profile_id", "total", "status", "created_at"},
	OrderBy: "created_at DESC",
	Values: func(o domain.Order) []any {
		return []any{o.ID, o.ProfileID, o.Total, string(o.Status), o.CreatedAt}
	},
	Scan: func(s scanner) (domain.Order, error) {
		var o domain.Order
		var status string
		err := s.Scan(&o.ID, &o.ProfileID, &o.Total, &status, &o.CreatedAt)
		o.Status = domain.OrderStatus(status)
		return o, err
	},
}

var OrderItemsTable = Table[domain.OrderItem]{
	Name:    "order_items",
	Columns: []string{"id", "order_id", "product_id", "quantity", "price_at_purchase"},
	Values: func(i domain.OrderItem) []any {
		return []any{i.ID, i.OrderID, i.ProductID, i.Quantity, i.PriceAtPurchase}
	},
	Scan: func(s scanner) (domain.OrderItem, error) {
		var i domain.OrderItem
		err := s.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.PriceAtPurchase)
		return i, err
	},
}

var InvoicesTable = Table[domain.Invoice]{
	Name:    "invoices",
	Columns: []string{"id", "order_id", "issued_at", "total", "pdf_url"},
	OrderBy: "issued_at DESC",
	Values: func(i domain.Invoice) []any {
		return []any{i.ID, i.OrderID, i.IssuedAt, i.Total, i.PDFURL}
	},
	Scan: func(s scanner) (domain.Invoice, error) {
		var i domain.Invoice
		err := s.Scan(&i.ID, &i.OrderID, &i.IssuedAt, &i.Total, &i.PDFURL)
		return i, err
	},
	Unique: []UniqueIndex[domain.Invoice]{{Name: "invoices_order_id_key", Columns: []string{"order_id"}}},
}

var ProfilesTable = Table[domain.Profile]{
	Name:    "profiles",
	Columns: []string{"id", "username", "full_name", "avatar_url", "website", "role_id", "updated_at"},
	Values: func(p domain.Profile) []any {
		return []any{p.ID, emptyAsNull(p.Username), p.FullName, p.AvatarURL, p.Website, nullable(p.RoleID), p.UpdatedAt}
	},
	Scan: func(s scanner) (domain.Profile, error) {
		var p domain.Profile
		var username, role sql.NullString
		err := s.Scan(&p.ID, &username, &p.FullName, &p.AvatarURL, &p.Website, &role, &p.UpdatedAt)
		p.Username = username.String
		p.RoleID = fromNull(role)
		return p, err
	},
	Unique: []UniqueIndex[domain.Profile]{{
		Name:    "profiles_username_key",
		Columns: []string{"username"},
	}},
}

var RolesTable = Table[domain.RoleRecord]{
	Name:    "roles",
	Columns: []string{"id", "name", "description"},
	OrderBy: "name",
	Values: func(r domain.RoleRecord) []any {
		return []any{r.ID, r.Name, r.Description}
	},
	Scan: func(s scanner) (domain.RoleRecord, error) {
		var r domain.RoleRecord
		err := s.Scan(&r.ID, &r.Name, &r.Description)
		return r, err
	},
	Unique: []UniqueIndex[domain.RoleRecord]{{Name: "roles_name_key", Columns: []string{"name"}}},
}
