package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// OrderService drives orders through their lifecycle.
type OrderService struct {
	stores port.Stores
	log    logrus.FieldLogger
}

func NewOrderService(stores port.Stores, log logrus.FieldLogger) *OrderService {
	return &OrderService{stores: stores, log: log}
}

func (s *OrderService) Process(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.OrderEventProcess)
}

func (s *OrderService) Ship(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.OrderEventShip)
}

func (s *OrderService) Complete(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.OrderEventComplete)
}

func (s *OrderService) Cancel(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.OrderEventCancel)
}

// Transition applies e to the order. The write only lands while the stored
// status is still the one the transition was computed from, so two racing
// transitions cannot both succeed.
func (s *OrderService) Transition(ctx context.Context, actor domain.Actor, orderID string, e domain.OrderEvent) (domain.Order, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, err)
	}
	if err := authorizeTransition(actor, order, e); err != nil {
		return domain.Order{}, err
	}

	from := order.Status
	if err := order.Apply(e); err != nil {
		return domain.Order{}, err
	}

	err = s.stores.Orders.UpdateWhere(ctx, order, port.Where{"status": from})
	if errors.Is(err, port.ErrOptimisticLock) {
		current, ferr := s.stores.Orders.FindByID(ctx, orderID)
		if ferr != nil {
			return domain.Order{}, fmt.Errorf("order %s: %w", orderID, ferr)
		}
		return domain.Order{}, &domain.TransitionError{OrderID: orderID, From: current.Status, Event: e}
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order %s: %w", orderID, err)
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"event":    e,
		"from":     from,
		"to":       order.Status,
		"actor":    actor.ProfileID,
	}).Info("order transitioned")
	return order, nil
}

func authorizeTransition(actor domain.Actor, order domain.Order, e domain.OrderEvent) error {
	action := string(e) + " order"
	switch e {
	case domain.OrderEventShip, domain.OrderEventComplete:
		return Require(actor, CanManageOrders, action)
	default:
		return requireOwnerOr(actor, order.ProfileID, CanPurchaseProducts, CanManageOrders, action)
	}
}

// Get returns the order with its items. Owners and order managers only.
func (s *OrderService) Get(ctx context.Context, actor domain.Actor, orderID string) (domain.OrderWithItems, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.OrderWithItems{}, fmt.Errorf("order %s: %w", orderID, err)
	}
	if err := requireOwnerOr(actor, order.ProfileID, CanPurchaseProducts, CanManageOrders, "get order"); err != nil {
		return domain.OrderWithItems{}, err
	}
	return s.withItems(ctx, order)
}

// ListMine returns the actor's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.OrderWithItems, error) {
	if err := Require(actor, CanPurchaseProducts, "list orders"); err != nil {
		return nil, err
	}
	orders, err := s.stores.Orders.FindWhere(ctx, port.Where{"profile_id": actor.ProfileID})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return s.allWithItems(ctx, orders)
}

func (s *OrderService) ListAll(ctx context.Context, actor domain.Actor) ([]domain.OrderWithItems, error) {
	if err := Require(actor, CanManageOrders, "list all orders"); err != nil {
		return nil, err
	}
	orders, err := s.stores.Orders.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return s.allWithItems(ctx, orders)
}

// Statistics counts every order. Revenue sums order totals regardless of
// status.
func (s *OrderService) Statistics(ctx context.Context, actor domain.Actor) (domain.OrderStatistics, error) {
	if err := Require(actor, CanViewAnalytics, "order statistics"); err != nil {
		return domain.OrderStatistics{}, err
	}
	orders, err := s.stores.Orders.FindAll(ctx)
	if err != nil {
		return domain.OrderStatistics{}, fmt.Errorf("list orders: %w", err)
	}

	stats := domain.OrderStatistics{TotalOrders: len(orders), TotalRevenue: decimal.Zero}
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusCompleted:
			stats.CompletedOrders++
		case domain.OrderStatusPending:
			stats.PendingOrders++
		}
		stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
	}
	return stats, nil
}

func (s *OrderService) allWithItems(ctx context.Context, orders []domain.Order) ([]domain.OrderWithItems, error) {
	out := make([]domain.OrderWithItems, 0, len(orders))
	for _, o := range orders {
		full, err := s.withItems(ctx, o)
		if err != nil {
			return nil, err
		}
		out = append(out, full)
	}
	return out, nil
}

func (s *OrderService) withItems(ctx context.Context, order domain.Order) (domain.OrderWithItems, error) {
	items, err := s.stores.OrderItems.FindWhere(ctx, port.Where{"order_id": order.ID})
	if err != nil {
		return domain.OrderWithItems{}, fmt.Errorf("list order items: %w", err)
	}

	out := domain.OrderWithItems{Order: order, Items: make([]domain.OrderItemWithProduct, 0, len(items))}
	for _, it := range items {
		line := domain.OrderItemWithProduct{OrderItem: it}
		// products may be deleted after purchase; the line keeps its price
		if p, err := s.stores.Products.FindByID(ctx, it.ProductID); err == nil {
			line.ProductName = p.Name
			line.ImageURL = p.ImageURL
		} else if !errors.Is(err, domain.ErrNotFound) {
			return domain.OrderWithItems{}, fmt.Errorf("load product %s: %w", it.ProductID, err)
		}
		out.Items = append(out.Items, line)
	}
	return out, nil
}
