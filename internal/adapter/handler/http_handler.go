package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

// Services is everything the transport layer calls into.
type Services struct {
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Invoices *service.InvoiceService
	Catalog  *service.CatalogService
	Products *service.ProductService
	Profiles *service.ProfileService
	Currency *service.CurrencyService
}

type HTTPHandler struct {
	svc             Services
	auth            port.Authenticator
	guard           port.IdempotencyGuard
	log             logrus.FieldLogger
	simulatePayment bool
}

func NewHTTPHandler(svc Services, auth port.Authenticator, guard port.IdempotencyGuard, log logrus.FieldLogger, simulatePayment bool) *HTTPHandler {
	return &HTTPHandler{svc: svc, auth: auth, guard: guard, log: log, simulatePayment: simulatePayment}
}

// Router builds the gin engine serving the storefront API.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.log))

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api/v1")
	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/categories", h.ListCategories)
	api.GET("/roles", h.ListRoles)
	api.GET("/rate", h.GetRate)

	authed := api.Group("")
	authed.Use(Authenticate(h.auth, h.svc.Profiles, h.log))
	idem := Idempotent(h.guard, h.log)

	authed.GET("/me", h.Me)
	authed.PUT("/me/onboarding", h.CompleteOnboarding)

	authed.POST("/categories", h.CreateCategory)
	authed.POST("/products", h.CreateProduct)
	authed.PUT("/products/:id", h.UpdateProduct)
	authed.DELETE("/products/:id", h.DeleteProduct)
	authed.POST("/images", h.UploadImage)
	authed.DELETE("/images", h.DeleteImage)

	authed.GET("/cart", h.GetCart)
	authed.POST("/cart/items", h.AddToCart)
	authed.POST("/carts", h.CreateCart)
	authed.POST("/carts/:id/items", h.AddItem)
	authed.DELETE("/carts/:id/items", h.ClearCart)
	authed.PATCH("/cart-items/:id", h.UpdateItem)
	authed.DELETE("/cart-items/:id", h.RemoveItem)
	authed.POST("/carts/:id/checkout", idem, h.Checkout)
	if h.simulatePayment {
		authed.POST("/carts/:id/checkout-and-pay", idem, h.CheckoutAndPay)
	}

	authed.GET("/orders", h.ListMyOrders)
	authed.GET("/orders/all", h.ListAllOrders)
	authed.GET("/orders/stats", h.OrderStatistics)
	authed.GET("/orders/:id", h.GetOrder)
	authed.POST("/orders/:id/transitions", h.TransitionOrder)
	authed.POST("/orders/:id/invoice", idem, h.GenerateInvoice)
	authed.GET("/orders/:id/invoice", h.GetInvoice)

	authed.GET("/invoices", h.ListMyInvoices)
	authed.GET("/invoices/all", h.ListAllInvoices)
	authed.GET("/invoices/stats", h.InvoiceStatistics)

	return r
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	var (
		products []domain.Product
		err      error
	)
	switch {
	case c.Query("category") != "":
		products, err = h.svc.Catalog.ProductsByCategory(c.Request.Context(), c.Query("category"))
	case c.Query("q") != "":
		products, err = h.svc.Catalog.Search(c.Request.Context(), c.Query("q"))
	default:
		products, err = h.svc.Catalog.AvailableProducts(c.Request.Context())
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProducts(products))
}

func (h *HTTPHandler) GetProduct(c *gin.Context) {
	p, err := h.svc.Catalog.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(p))
}

func (h *HTTPHandler) ListCategories(c *gin.Context) {
	cs, err := h.svc.Catalog.Categories(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategories(cs))
}

func (h *HTTPHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.Profiles.Roles(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) GetRate(c *gin.Context) {
	rate := h.svc.Currency.RateForToday(c.Request.Context())
	c.JSON(http.StatusOK, RateResponse{Rate: rate, Available: rate != nil})
}

func (h *HTTPHandler) Me(c *gin.Context) {
	actor := actorFrom(c)
	resp := ProfileResponse{
		ID:           actor.ProfileID,
		Username:     actor.Username,
		Role:         actor.Role.String(),
		Onboarded:    actor.Onboarded(),
		Capabilities: actor.Capabilities(),
	}
	if p, err := h.svc.Profiles.Profile(c.Request.Context(), actor.ProfileID); err == nil {
		resp.FullName = p.FullName
		resp.AvatarURL = p.AvatarURL
		resp.Website = p.Website
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) CompleteOnboarding(c *gin.Context) {
	var req OnboardingRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.svc.Profiles.CompleteOnboarding(c.Request.Context(), actorFrom(c).ProfileID, service.OnboardingInput{
		Username:  req.Username,
		FullName:  req.FullName,
		Role:      req.Role,
		AvatarURL: req.AvatarURL,
		Website:   req.Website,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "username": p.Username, "role": req.Role})
}

func (h *HTTPHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bind(c, &req) {
		return
	}
	cat, err := h.svc.Catalog.CreateCategory(c.Request.Context(), actorFrom(c), req.Name, req.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CategoryResponse(cat))
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.svc.Products.Create(c.Request.Context(), actorFrom(c), productInput(req))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProduct(p))
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.svc.Products.Update(c.Request.Context(), actorFrom(c), c.Param("id"), productInput(req))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(p))
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	if err := h.svc.Products.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "multipart field \"file\" is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	obj, err := h.svc.Products.UploadImage(c.Request.Context(), actorFrom(c), c.PostForm("name"), fh.Header.Get("Content-Type"), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, obj)
}

func (h *HTTPHandler) DeleteImage(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "query parameter \"path\" is required"})
		return
	}
	if err := h.svc.Products.DeleteImage(c.Request.Context(), actorFrom(c), path); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) GetCart(c *gin.Context) {
	actor := actorFrom(c)
	cart, err := h.svc.Carts.ActiveCart(c.Request.Context(), actor, actor.ProfileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, gin.H{"cart": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCart(*cart, h.svc.Currency.RateForToday(c.Request.Context()))})
}

func (h *HTTPHandler) CreateCart(c *gin.Context) {
	actor := actorFrom(c)
	cart, err := h.svc.Carts.CreateCart(c.Request.Context(), actor, actor.ProfileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCart(domain.CartWithItems{Cart: cart}, nil))
}

func (h *HTTPHandler) AddToCart(c *gin.Context) {
	var req CartItemRequest
	if !bind(c, &req) {
		return
	}
	cart, err := h.svc.Carts.AddToCart(c.Request.Context(), actorFrom(c), req.ProductID, req.Quantity)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCart(*cart, h.svc.Currency.RateForToday(c.Request.Context())))
}

func (h *HTTPHandler) AddItem(c *gin.Context) {
	var req CartItemRequest
	if !bind(c, &req) {
		return
	}
	item, err := h.svc.Carts.AddItem(c.Request.Context(), actorFrom(c), c.Param("id"), req.ProductID, req.Quantity)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": item.ID, "product_id": item.ProductID, "quantity": item.Quantity})
}

func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	var req QuantityRequest
	if !bind(c, &req) {
		return
	}
	item, err := h.svc.Carts.UpdateItemQuantity(c.Request.Context(), actorFrom(c), c.Param("id"), req.Quantity)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": item.ID, "product_id": item.ProductID, "quantity": item.Quantity})
}

func (h *HTTPHandler) RemoveItem(c *gin.Context) {
	if err := h.svc.Carts.RemoveItem(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ClearCart(c *gin.Context) {
	if err := h.svc.Carts.Clear(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) Checkout(c *gin.Context) {
	order, err := h.svc.Checkout.Checkout(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderWithItems(order))
}

func (h *HTTPHandler) CheckoutAndPay(c *gin.Context) {
	inv, err := h.svc.Checkout.CheckoutAndPay(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInvoiceWithOrder(inv))
}

func (h *HTTPHandler) ListMyOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListMine(c.Request.Context(), actorFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrders(orders))
}

func (h *HTTPHandler) ListAllOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListAll(c.Request.Context(), actorFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrders(orders))
}

func (h *HTTPHandler) OrderStatistics(c *gin.Context) {
	stats, err := h.svc.Orders.Statistics(c.Request.Context(), actorFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderStatisticsResponse(stats))
}

func (h *HTTPHandler) GetOrder(c *gin.Context) {
	order, err := h.svc.Orders.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderWithItems(order))
}

func (h *HTTPHandler) TransitionOrder(c *gin.Context) {
	var req TransitionRequest
	if !bind(c, &req) {
		return
	}
	event, ok := domain.ParseOrderEvent(req.Event)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "unknown event " + req.Event})
		return
	}
	order, err := h.svc.Orders.Transition(c.Request.Context(), actorFrom(c), c.Param("id"), event)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(order))
}

func (h *HTTPHandler) GenerateInvoice(c *gin.Context) {
	var req InvoiceRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	inv, err := h.svc.Invoices.GenerateForOrder(c.Request.Context(), actorFrom(c), c.Param("id"), req.PDFURL)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInvoice(inv))
}

func (h *HTTPHandler) GetInvoice(c *gin.Context) {
	inv, err := h.svc.Invoices.GetByOrder(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInvoiceWithOrder(inv))
}

func (h *HTTPHandler) ListMyInvoices(c *gin.Context) {
	invs, err := h.svc.Invoices.ListMine(c.Request.Context(), actorFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]InvoiceResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvoiceWithOrder(inv))
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) ListAllInvoices(c *gin.Context) {
	invs, err := h.svc.Invoices.ListAll(c.Request.Context(), actorFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]InvoiceResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvoice(inv))
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) InvoiceStatistics(c *gin.Context) {
	stats, err := h.svc.Invoices.Statistics(c.Request.Context(), actorFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, InvoiceStatisticsResponse(stats))
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func productInput(req ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		ImagePath:   req.ImagePath,
		Price:       req.Price,
		Available:   req.Available,
		CategoryID:  req.CategoryID,
	}
}
