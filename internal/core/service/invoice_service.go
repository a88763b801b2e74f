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

// InvoiceService issues at most one invoice per order.
type InvoiceService struct {
	stores port.Stores
	orders *OrderService
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewInvoiceService(stores port.Stores, orders *OrderService, log logrus.FieldLogger) *InvoiceService {
	return &InvoiceService{stores: stores, orders: orders, log: log, now: time.Now}
}

// GenerateForOrder copies the order total into a new invoice. A second call
// for the same order fails with domain.ErrConflict from the order_id unique
// index. Invoices are never updated.
func (s *InvoiceService) GenerateForOrder(ctx context.Context, actor domain.Actor, orderID, pdfURL string) (domain.Invoice, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("order %s: %w", orderID, err)
	}
	if err := requireOwnerOr(actor, order.ProfileID, CanPurchaseProducts, CanManageOrders, "generate invoice"); err != nil {
		return domain.Invoice{}, err
	}

	invoice := domain.Invoice{
		ID:       uuid.NewString(),
		OrderID:  orderID,
		IssuedAt: s.now(),
		Total:    order.Total,
		PDFURL:   pdfURL,
	}
	if err := s.stores.Invoices.Insert(ctx, invoice); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Invoice{}, fmt.Errorf("order %s already has an invoice: %w", orderID, err)
		}
		return domain.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"invoice_id": invoice.ID,
		"order_id":   orderID,
		"total":      invoice.Total.StringFixed(2),
	}).Info("invoice issued")
	return invoice, nil
}

func (s *InvoiceService) GetByOrder(ctx context.Context, actor domain.Actor, orderID string) (domain.InvoiceWithOrder, error) {
	order, err := s.orders.Get(ctx, actor, orderID)
	if err != nil {
		return domain.InvoiceWithOrder{}, err
	}

	invoices, err := s.stores.Invoices.FindWhere(ctx, port.Where{"order_id": orderID})
	if err != nil {
		return domain.InvoiceWithOrder{}, fmt.Errorf("find invoice: %w", err)
	}
	if len(invoices) == 0 {
		return domain.InvoiceWithOrder{}, fmt.Errorf("invoice for order %s: %w", orderID, domain.ErrNotFound)
	}
	return domain.InvoiceWithOrder{Invoice: invoices[0], Order: order}, nil
}

// ListMine returns invoices for the actor's orders, newest first.
func (s *InvoiceService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.InvoiceWithOrder, error) {
	orders, err := s.orders.ListMine(ctx, actor)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string]domain.OrderWithItems, len(orders))
	for _, o := range orders {
		byOrder[o.ID] = o
	}

	invoices, err := s.stores.Invoices.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	out := make([]domain.InvoiceWithOrder, 0, len(orders))
	for _, inv := range invoices {
		if o, ok := byOrder[inv.OrderID]; ok {
			out = append(out, domain.InvoiceWithOrder{Invoice: inv, Order: o})
		}
	}
	return out, nil
}

func (s *InvoiceService) ListAll(ctx context.Context, actor domain.Actor) ([]domain.Invoice, error) {
	if err := Require(actor, CanManageOrders, "list all invoices"); err != nil {
		return nil, err
	}
	invoices, err := s.stores.Invoices.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (s *InvoiceService) Statistics(ctx context.Context, actor domain.Actor) (domain.InvoiceStatistics, error) {
	if err := Require(actor, CanViewAnalytics, "invoice statistics"); err != nil {
		return domain.InvoiceStatistics{}, err
	}
	invoices, err := s.stores.Invoices.FindAll(ctx)
	if err != nil {
		return domain.InvoiceStatistics{}, fmt.Errorf("list invoices: %w", err)
	}
	return domain.SummarizeInvoices(invoices), nil
}
