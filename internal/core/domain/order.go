package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderEvent string

const (
	OrderEventProcess  OrderEvent = "process"
	OrderEventShip     OrderEvent = "ship"
	OrderEventComplete OrderEvent = "complete"
	OrderEventCancel   OrderEvent = "cancel"
)

var orderTransitions = map[OrderStatus]map[OrderEvent]OrderStatus{
	OrderStatusPending: {
		OrderEventProcess: OrderStatusPaid,
		OrderEventCancel:  OrderStatusCancelled,
	},
	OrderStatusPaid: {
		OrderEventShip: OrderStatusShipped,
	},
	OrderStatusShipped: {
		OrderEventComplete: OrderStatusCompleted,
	},
}

// Next returns the status reached by applying e, or false when e is not
// allowed from s. Completed and cancelled are terminal.
func (s OrderStatus) Next(e OrderEvent) (OrderStatus, bool) {
	to, ok := orderTransitions[s][e]
	return to, ok
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func ParseOrderEvent(s string) (OrderEvent, bool) {
	switch e := OrderEvent(s); e {
	case OrderEventProcess, OrderEventShip, OrderEventComplete, OrderEventCancel:
		return e, true
	}
	return "", false
}

type Order struct {
	ID        string
	ProfileID string
	Total     decimal.Decimal
	Status    OrderStatus
	CreatedAt time.Time
}

// Apply moves the order through e. The order is left untouched on error.
func (o *Order) Apply(e OrderEvent) error {
	to, ok := o.Status.Next(e)
	if !ok {
		return &TransitionError{OrderID: o.ID, From: o.Status, Event: e}
	}
	o.Status = to
	return nil
}

type OrderItem struct {
	ID              string
	OrderID         string
	ProductID       string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderWithItems struct {
	Order
	Items []OrderItemWithProduct
}

type OrderItemWithProduct struct {
	OrderItem
	ProductName string
	ImageURL    string
}

type OrderStatistics struct {
	TotalOrders     int
	CompletedOrders int
	PendingOrders   int
	TotalRevenue    decimal.Decimal
}
