package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url,omitempty"`
	ImagePath   string          `json:"image_path,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	CategoryID  *string         `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toProduct(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		ImagePath:   p.ImagePath,
		Price:       p.Price,
		Available:   p.Available,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
	}
}

func toProducts(ps []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProduct(p))
	}
	return out
}

type ProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	ImagePath   string          `json:"image_path"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	CategoryID  *string         `json:"category_id"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toCategories(cs []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, CategoryResponse(c))
	}
	return out
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CartItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   ProductResponse `json:"product"`
}

type CartSummaryResponse struct {
	TotalItems    int             `json:"total_items"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalPriceCOP decimal.Decimal `json:"total_price_cop"`
}

type CartResponse struct {
	ID        string              `json:"id"`
	ProfileID string              `json:"profile_id"`
	Active    bool                `json:"active"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []CartItemResponse  `json:"items"`
	Summary   CartSummaryResponse `json:"summary"`
}

func toCart(c domain.CartWithItems, rate *domain.Rate) CartResponse {
	resp := CartResponse{
		ID:        c.ID,
		ProfileID: c.ProfileID,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		Items:     make([]CartItemResponse, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Product:   toProduct(it.Product),
		})
	}
	sum := c.Summarize(rate)
	resp.Summary = CartSummaryResponse(sum)
	return resp
}

type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

type OrderItemResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name,omitempty"`
	ImageURL        string          `json:"image_url,omitempty"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

type OrderResponse struct {
	ID        string              `json:"id"`
	ProfileID string              `json:"profile_id"`
	Total     decimal.Decimal     `json:"total"`
	Status    domain.OrderStatus  `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []OrderItemResponse `json:"items,omitempty"`
}

func toOrder(o domain.Order) OrderResponse {
	return OrderResponse{ID: o.ID, ProfileID: o.ProfileID, Total: o.Total, Status: o.Status, CreatedAt: o.CreatedAt}
}

func toOrderWithItems(o domain.OrderWithItems) OrderResponse {
	resp := toOrder(o.Order)
	resp.Items = make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			ImageURL:        it.ImageURL,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	return resp
}

func toOrders(orders []domain.OrderWithItems) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderWithItems(o))
	}
	return out
}

type TransitionRequest struct {
	Event string `json:"event" binding:"required"`
}

type OrderStatisticsResponse struct {
	TotalOrders     int             `json:"total_orders"`
	CompletedOrders int             `json:"completed_orders"`
	PendingOrders   int             `json:"pending_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
}

type InvoiceResponse struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"order_id"`
	IssuedAt time.Time       `json:"issued_at"`
	Total    decimal.Decimal `json:"total"`
	PDFURL   string          `json:"pdf_url,omitempty"`
	Order    *OrderResponse  `json:"order,omitempty"`
}

func toInvoice(inv domain.Invoice) InvoiceResponse {
	return InvoiceResponse{ID: inv.ID, OrderID: inv.OrderID, IssuedAt: inv.IssuedAt, Total: inv.Total, PDFURL: inv.PDFURL}
}

func toInvoiceWithOrder(inv domain.InvoiceWithOrder) InvoiceResponse {
	resp := toInvoice(inv.Invoice)
	order := toOrderWithItems(inv.Order)
	resp.Order = &order
	return resp
}

type InvoiceRequest struct {
	PDFURL string `json:"pdf_url"`
}

type InvoiceStatisticsResponse struct {
	TotalInvoices       int             `json:"total_invoices"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	AverageInvoiceValue decimal.Decimal `json:"average_invoice_value"`
}

type ProfileResponse struct {
	ID           string              `json:"id"`
	Username     string              `json:"username"`
	FullName     string              `json:"full_name"`
	AvatarURL    string              `json:"avatar_url,omitempty"`
	Website      string              `json:"website,omitempty"`
	Role         string              `json:"role"`
	Onboarded    bool                `json:"onboarded"`
	Capabilities domain.Capabilities `json:"capabilities"`
}

type OnboardingRequest struct {
	Username  string `json:"username" binding:"required"`
	FullName  string `json:"full_name" binding:"required"`
	Role      string `json:"role" binding:"required"`
	AvatarURL string `json:"avatar_url"`
	Website   string `json:"website"`
}

type RoleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type RateResponse struct {
	Rate      *domain.Rate `json:"rate"`
	Available bool         `json:"available"`
}
