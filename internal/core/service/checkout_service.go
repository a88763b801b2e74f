package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const priceLookupConcurrency = 8

// CheckoutService turns an active cart into a pending order.
type CheckoutService struct {
	stores   port.Stores
	orders   *OrderService
	invoices *InvoiceService
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewCheckoutService(stores port.Stores, orders *OrderService, invoices *InvoiceService, log logrus.FieldLogger) *CheckoutService {
	return &CheckoutService{stores: stores, orders: orders, invoices: invoices, log: log, now: time.Now}
}

// Checkout snapshots current prices into a new pending order and deactivates
// the cart. Order, order items and cart deactivation commit together or not
// at all.
func (s *CheckoutService) Checkout(ctx context.Context, actor domain.Actor, cartID string) (domain.OrderWithItems, error) {
	if err := Require(actor, CanPurchaseProducts, "checkout"); err != nil {
		return domain.OrderWithItems{}, err
	}

	cart, err := s.stores.Carts.FindByID(ctx, cartID)
	if err != nil {
		return domain.OrderWithItems{}, fmt.Errorf("cart %s: %w", cartID, err)
	}
	if err := requireOwnerOr(actor, cart.ProfileID, CanPurchaseProducts, IsAdmin, "checkout"); err != nil {
		return domain.OrderWithItems{}, err
	}
	if !cart.Active {
		return domain.OrderWithItems{}, fmt.Errorf("cart %s is no longer active: %w", cartID, domain.ErrNotFound)
	}

	items, err := s.stores.CartItems.FindWhere(ctx, port.Where{"cart_id": cartID})
	if err != nil {
		return domain.OrderWithItems{}, fmt.Errorf("list cart items: %w", err)
	}
	if len(items) == 0 {
		return domain.OrderWithItems{}, fmt.Errorf("cart %s is empty: %w", cartID, domain.ErrValidation)
	}

	products, err := s.quote(ctx, items)
	if err != nil {
		return domain.OrderWithItems{}, err
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		ProfileID: cart.ProfileID,
		Total:     decimal.Zero,
		Status:    domain.OrderStatusPending,
		CreatedAt: s.now(),
	}
	out := domain.OrderWithItems{Items: make([]domain.OrderItemWithProduct, 0, len(items))}
	for i, it := range items {
		line := domain.OrderItem{
			ID:              uuid.NewString(),
			OrderID:         order.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: products[i].Price,
		}
		order.Total = order.Total.Add(line.LineTotal())
		out.Items = append(out.Items, domain.OrderItemWithProduct{
			OrderItem:   line,
			ProductName: products[i].Name,
			ImageURL:    products[i].ImageURL,
		})
	}
	out.Order = order

	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		closed := cart
		closed.Active = false
		if err := s.stores.Carts.UpdateWhere(ctx, closed, port.Where{"active": true}); err != nil {
			if errors.Is(err, port.ErrOptimisticLock) {
				return fmt.Errorf("cart %s was checked out concurrently: %w", cartID, domain.ErrNotFound)
			}
			return fmt.Errorf("deactivate cart: %w", err)
		}

		// lines written between the quote and the deactivation above
		current, err := s.stores.CartItems.FindWhere(ctx, port.Where{"cart_id": cartID})
		if err != nil {
			return fmt.Errorf("list cart items: %w", err)
		}
		if !sameLines(items, current) {
			return fmt.Errorf("cart %s changed during checkout: %w", cartID, domain.ErrConflict)
		}

		if err := s.stores.Orders.Insert(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, it := range out.Items {
			if err := s.stores.OrderItems.Insert(ctx, it.OrderItem); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"cart_id": cartID, "profile_id": cart.ProfileID}).WithError(err).Warn("checkout failed")
		return domain.OrderWithItems{}, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"cart_id":    cartID,
		"profile_id": order.ProfileID,
		"total":      order.Total.StringFixed(2),
		"items":      len(out.Items),
	}).Info("order created")
	return out, nil
}

func sameLines(quoted, current []domain.CartItem) bool {
	if len(quoted) != len(current) {
		return false
	}
	qty := make(map[string]int, len(quoted))
	for _, it := range quoted {
		qty[it.ID] = it.Quantity
	}
	for _, it := range current {
		if q, ok := qty[it.ID]; !ok || q != it.Quantity {
			return false
		}
	}
	return true
}

// quote reads the current price of every cart line. A missing or
// unavailable product fails the whole quote.
func (s *CheckoutService) quote(ctx context.Context, items []domain.CartItem) ([]domain.Product, error) {
	products := make([]domain.Product, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(priceLookupConcurrency)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			p, err := s.stores.Products.FindByID(gctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("product %s: %w", it.ProductID, err)
			}
			if !p.Purchasable() {
				return fmt.Errorf("product %s is unavailable: %w", it.ProductID, domain.ErrNotFound)
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

// CheckoutAndPay runs checkout, confirms payment and issues the invoice as
// three separate steps. Only for deployments that simulate payment.
func (s *CheckoutService) CheckoutAndPay(ctx context.Context, actor domain.Actor, cartID string) (domain.InvoiceWithOrder, error) {
	order, err := s.Checkout(ctx, actor, cartID)
	if err != nil {
		return domain.InvoiceWithOrder{}, err
	}

	paid, err := s.orders.Process(ctx, actor, order.ID)
	if err != nil {
		return domain.InvoiceWithOrder{}, fmt.Errorf("confirm payment for order %s: %w", order.ID, err)
	}
	order.Order = paid

	invoice, err := s.invoices.GenerateForOrder(ctx, actor, order.ID, "")
	if err != nil {
		return domain.InvoiceWithOrder{}, fmt.Errorf("issue invoice for order %s: %w", order.ID, err)
	}
	return domain.InvoiceWithOrder{Invoice: invoice, Order: order}, nil
}
