package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const maxMergeAttempts = 5

// CartService maintains the single active cart of each profile.
type CartService struct {
	stores port.Stores
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewCartService(stores port.Stores, log logrus.FieldLogger) *CartService {
	return &CartService{stores: stores, log: log, now: time.Now}
}

// ActiveCart returns the profile's active cart with product details joined,
// or nil when the profile has none.
func (s *CartService) ActiveCart(ctx context.Context, actor domain.Actor, profileID string) (*domain.CartWithItems, error) {
	if err := requireOwnerOr(actor, profileID, CanPurchaseProducts, IsAdmin, "get cart"); err != nil {
		return nil, err
	}

	cart, err := s.findActive(ctx, profileID)
	if err != nil || cart == nil {
		return nil, err
	}
	return s.withItems(ctx, *cart)
}

// CreateCart does not deduplicate: callers check ActiveCart first.
func (s *CartService) CreateCart(ctx context.Context, actor domain.Actor, profileID string) (domain.Cart, error) {
	if err := requireOwnerOr(actor, profileID, CanPurchaseProducts, IsAdmin, "create cart"); err != nil {
		return domain.Cart{}, err
	}

	existing, err := s.findActive(ctx, profileID)
	if err != nil {
		return domain.Cart{}, err
	}
	if existing != nil {
		return domain.Cart{}, fmt.Errorf("profile %s already has active cart %s: %w", profileID, existing.ID, domain.ErrConflict)
	}

	cart := domain.Cart{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Active:    true,
		CreatedAt: s.now(),
	}
	if err := s.stores.Carts.Insert(ctx, cart); err != nil {
		return domain.Cart{}, fmt.Errorf("create cart: %w", err)
	}

	s.log.WithFields(logrus.Fields{"cart_id": cart.ID, "profile_id": profileID}).Info("cart created")
	return cart, nil
}

// AddItem merges into the existing line for the product when there is one.
func (s *CartService) AddItem(ctx context.Context, actor domain.Actor, cartID, productID string, quantity int) (domain.CartItem, error) {
	if quantity < 1 {
		return domain.CartItem{}, fmt.Errorf("quantity must be at least 1, got %d: %w", quantity, domain.ErrValidation)
	}

	cart, err := s.ownedActiveCart(ctx, actor, cartID, "add to cart")
	if err != nil {
		return domain.CartItem{}, err
	}

	product, err := s.stores.Products.FindByID(ctx, productID)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("product %s: %w", productID, err)
	}
	if !product.Purchasable() {
		return domain.CartItem{}, fmt.Errorf("product %s is unavailable: %w", productID, domain.ErrNotFound)
	}

	var item domain.CartItem
	for attempt := 1; ; attempt++ {
		err = s.lockCart(ctx, cart, func(ctx context.Context) error {
			item, err = s.mergeItem(ctx, cartID, productID, quantity)
			return err
		})
		// a concurrent add changed or created the line first
		raced := errors.Is(err, port.ErrOptimisticLock) || errors.Is(err, domain.ErrConflict)
		if !raced || attempt == maxMergeAttempts {
			break
		}
	}
	if errors.Is(err, port.ErrOptimisticLock) {
		err = fmt.Errorf("%w: %w", domain.ErrConflict, err)
	}
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("add item: %w", err)
	}
	return item, nil
}

// mergeItem adds to the existing line only if its quantity is still the one
// read; otherwise the caller retries.
func (s *CartService) mergeItem(ctx context.Context, cartID, productID string, quantity int) (domain.CartItem, error) {
	existing, err := s.stores.CartItems.FindWhere(ctx, port.Where{"cart_id": cartID, "product_id": productID})
	if err != nil {
		return domain.CartItem{}, err
	}

	if len(existing) > 0 {
		item := existing[0]
		seen := item.Quantity
		item.Quantity += quantity
		return item, s.stores.CartItems.UpdateWhere(ctx, item, port.Where{"quantity": seen})
	}

	item := domain.CartItem{
		ID:        uuid.NewString(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return item, s.stores.CartItems.Insert(ctx, item)
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, actor domain.Actor, itemID string, quantity int) (domain.CartItem, error) {
	if quantity < 1 {
		return domain.CartItem{}, fmt.Errorf("quantity must be at least 1, got %d: %w", quantity, domain.ErrValidation)
	}

	item, err := s.stores.CartItems.FindByID(ctx, itemID)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("cart item %s: %w", itemID, err)
	}
	cart, err := s.ownedActiveCart(ctx, actor, item.CartID, "update cart item")
	if err != nil {
		return domain.CartItem{}, err
	}

	item.Quantity = quantity
	err = s.lockCart(ctx, cart, func(ctx context.Context) error {
		return s.stores.CartItems.Update(ctx, item)
	})
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

// RemoveItem is idempotent: removing an item that does not exist succeeds.
func (s *CartService) RemoveItem(ctx context.Context, actor domain.Actor, itemID string) error {
	if err := Require(actor, CanPurchaseProducts, "remove cart item"); err != nil {
		return err
	}

	item, err := s.stores.CartItems.FindByID(ctx, itemID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cart item %s: %w", itemID, err)
	}
	cart, err := s.ownedActiveCart(ctx, actor, item.CartID, "remove cart item")
	if err != nil {
		return err
	}

	return s.lockCart(ctx, cart, func(ctx context.Context) error {
		return s.stores.CartItems.Delete(ctx, itemID)
	})
}

// Clear empties the cart and leaves it active.
func (s *CartService) Clear(ctx context.Context, actor domain.Actor, cartID string) error {
	cart, err := s.ownedActiveCart(ctx, actor, cartID, "clear cart")
	if err != nil {
		return err
	}
	err = s.lockCart(ctx, cart, func(ctx context.Context) error {
		return s.stores.CartItems.DeleteWhere(ctx, port.Where{"cart_id": cartID})
	})
	if err != nil {
		return fmt.Errorf("clear cart %s: %w", cartID, err)
	}
	return nil
}

// lockCart runs fn in a transaction that first rewrites the cart row on the
// condition that it is still active. Checkout deactivates the same row, so
// line changes and checkout of one cart never interleave.
func (s *CartService) lockCart(ctx context.Context, cart domain.Cart, fn func(ctx context.Context) error) error {
	return s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Carts.UpdateWhere(ctx, cart, port.Where{"active": true}); err != nil {
			if errors.Is(err, port.ErrOptimisticLock) {
				return fmt.Errorf("cart %s is no longer active: %w", cart.ID, domain.ErrNotFound)
			}
			return fmt.Errorf("lock cart %s: %w", cart.ID, err)
		}
		return fn(ctx)
	})
}

// AddToCart adds to the actor's active cart, creating one first if needed.
func (s *CartService) AddToCart(ctx context.Context, actor domain.Actor, productID string, quantity int) (*domain.CartWithItems, error) {
	cart, err := s.getOrCreate(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddItem(ctx, actor, cart.ID, productID, quantity); err != nil {
		return nil, err
	}
	return s.withItems(ctx, cart)
}

func (s *CartService) getOrCreate(ctx context.Context, actor domain.Actor) (domain.Cart, error) {
	cart, err := s.findActive(ctx, actor.ProfileID)
	if err != nil {
		return domain.Cart{}, err
	}
	if cart != nil {
		return *cart, nil
	}

	created, err := s.CreateCart(ctx, actor, actor.ProfileID)
	if errors.Is(err, domain.ErrConflict) {
		cart, err = s.findActive(ctx, actor.ProfileID)
		if err == nil && cart == nil {
			err = fmt.Errorf("active cart vanished: %w", domain.ErrConflict)
		}
		if err != nil {
			return domain.Cart{}, err
		}
		return *cart, nil
	}
	return created, err
}

func (s *CartService) findActive(ctx context.Context, profileID string) (*domain.Cart, error) {
	carts, err := s.stores.Carts.FindWhere(ctx, port.Where{"profile_id": profileID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("find active cart: %w", err)
	}
	if len(carts) == 0 {
		return nil, nil
	}
	return &carts[0], nil
}

// ownedActiveCart loads a cart the actor may modify. Deactivated carts are
// reported as not found.
func (s *CartService) ownedActiveCart(ctx context.Context, actor domain.Actor, cartID, action string) (domain.Cart, error) {
	if err := Require(actor, CanPurchaseProducts, action); err != nil {
		return domain.Cart{}, err
	}

	cart, err := s.stores.Carts.FindByID(ctx, cartID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("cart %s: %w", cartID, err)
	}
	if err := requireOwnerOr(actor, cart.ProfileID, CanPurchaseProducts, IsAdmin, action); err != nil {
		return domain.Cart{}, err
	}
	if !cart.Active {
		return domain.Cart{}, fmt.Errorf("cart %s is no longer active: %w", cartID, domain.ErrNotFound)
	}
	return cart, nil
}

func (s *CartService) withItems(ctx context.Context, cart domain.Cart) (*domain.CartWithItems, error) {
	items, err := s.stores.CartItems.FindWhere(ctx, port.Where{"cart_id": cart.ID})
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	out := &domain.CartWithItems{Cart: cart, Items: make([]domain.CartItemWithProduct, 0, len(items))}
	for _, it := range items {
		product, err := s.stores.Products.FindByID(ctx, it.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			product = domain.Product{ID: it.ProductID}
		} else if err != nil {
			return nil, fmt.Errorf("load product %s: %w", it.ProductID, err)
		}
		out.Items = append(out.Items, domain.CartItemWithProduct{CartItem: it, Product: product})
	}
	return out, nil
}
