package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, env *testEnv, simulatePayment bool) *gin.Engine {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return NewHTTPHandler(env.svc, env.auth, env.guard, logger, simulatePayment).Router()
}

func do(t *testing.T, r http.Handler, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHTTP_HealthAndPublicCatalog(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "serum", "10.00")
	r := newRouter(t, env, false)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/health", "", nil).Code)

	w := do(t, r, http.MethodGet, "/api/v1/products?q=SER", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	products := decode[[]ProductResponse](t, w)
	require.Len(t, products, 1)
	assert.Equal(t, "10", products[0].Price.String())

	w = do(t, r, http.MethodGet, "/api/v1/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/rate", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[RateResponse](t, w).Available)
}

func TestHTTP_AuthRequired(t *testing.T) {
	env := newTestEnv(t)
	r := newRouter(t, env, false)

	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/api/v1/cart", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/api/v1/cart", "forged", nil).Code)

	w := do(t, r, http.MethodGet, "/api/v1/me", "tok-new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[ProfileResponse](t, w)
	assert.False(t, me.Onboarded)
	assert.False(t, me.Capabilities.CanPurchaseProducts)

	env.product(t, "serum", "10.00")
	w = do(t, r, http.MethodPost, "/api/v1/cart/items", "tok-new", CartItemRequest{ProductID: "serum-id", Quantity: 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHTTP_ShoppingFlow(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "serum", "10.00")
	env.product(t, "toner", "5.00")
	r := newRouter(t, env, false)

	w := do(t, r, http.MethodPost, "/api/v1/cart/items", "tok-cust", CartItemRequest{ProductID: "serum-id", Quantity: 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := decode[CartResponse](t, w)

	w = do(t, r, http.MethodPost, "/api/v1/carts/"+cart.ID+"/items", "tok-cust", CartItemRequest{ProductID: "toner-id", Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/cart", "tok-cust", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Cart CartResponse `json:"cart"`
	}](t, w)
	assert.Equal(t, 3, got.Cart.Summary.TotalItems)
	assert.Equal(t, "25", got.Cart.Summary.TotalPrice.String())

	w = do(t, r, http.MethodPost, "/api/v1/carts/"+cart.ID+"/checkout", "tok-cust", nil, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[OrderResponse](t, w)
	assert.Equal(t, "pending", string(order.Status))
	assert.Equal(t, "25", order.Total.String())
	assert.Len(t, order.Items, 2)

	w = do(t, r, http.MethodPost, "/api/v1/carts/"+cart.ID+"/checkout", "tok-cust", nil, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/transitions", "tok-sell", TransitionRequest{Event: "ship"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/transitions", "tok-cust", TransitionRequest{Event: "process"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "paid", string(decode[OrderResponse](t, w).Status))

	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/transitions", "tok-cust", TransitionRequest{Event: "ship"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/transitions", "tok-cust", TransitionRequest{Event: "teleport"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/invoice", "tok-cust", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "25", decode[InvoiceResponse](t, w).Total.String())

	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/invoice", "tok-cust", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/orders/stats", "tok-sell", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[OrderStatisticsResponse](t, w).TotalOrders)

	w = do(t, r, http.MethodGet, "/api/v1/orders/stats", "tok-cust", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHTTP_FailedRequestReleasesIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "serum", "10.00")
	r := newRouter(t, env, false)

	w := do(t, r, http.MethodPost, "/api/v1/carts", "tok-cust", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	cart := decode[CartResponse](t, w)

	w = do(t, r, http.MethodPost, "/api/v1/carts/"+cart.ID+"/checkout", "tok-cust", nil, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/carts/"+cart.ID+"/items", "tok-cust", CartItemRequest{ProductID: "serum-id", Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/carts/"+cart.ID+"/checkout", "tok-cust", nil, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHTTP_CheckoutAndPayOnlyWhenSimulated(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "serum", "10.00")

	off := newRouter(t, env, false)
	w := do(t, off, http.MethodPost, "/api/v1/cart/items", "tok-cust", CartItemRequest{ProductID: "serum-id", Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode[CartResponse](t, w)
	assert.Equal(t, http.StatusNotFound, do(t, off, http.MethodPost, "/api/v1/carts/"+cart.ID+"/checkout-and-pay", "tok-cust", nil).Code)

	on := newRouter(t, env, true)
	w = do(t, on, http.MethodPost, "/api/v1/carts/"+cart.ID+"/checkout-and-pay", "tok-cust", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[InvoiceResponse](t, w)
	require.NotNil(t, inv.Order)
	assert.Equal(t, "paid", string(inv.Order.Status))
}

func TestHTTP_Onboarding(t *testing.T) {
	env := newTestEnv(t)
	r := newRouter(t, env, false)

	w := do(t, r, http.MethodPut, "/api/v1/me/onboarding", "tok-new", OnboardingRequest{Username: "ana", FullName: "Other Ana", Role: "customer"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPut, "/api/v1/me/onboarding", "tok-new", OnboardingRequest{Username: "lucia", FullName: "Lucia", Role: "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/v1/me/onboarding", "tok-new", OnboardingRequest{Username: "lucia", FullName: "Lucia", Role: "seller"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/me", "tok-new", nil)
	me := decode[ProfileResponse](t, w)
	assert.True(t, me.Onboarded)
	assert.Equal(t, "seller", me.Role)
	assert.True(t, me.Capabilities.CanManageProducts)
}

func TestHTTP_ProductManagement(t *testing.T) {
	env := newTestEnv(t)
	r := newRouter(t, env, false)

	req := map[string]any{"name": "Rose Oil", "price": "12.50", "available": true}
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPost, "/api/v1/products", "tok-cust", req).Code)

	w := do(t, r, http.MethodPost, "/api/v1/products", "tok-sell", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[ProductResponse](t, w)

	w = do(t, r, http.MethodGet, "/api/v1/products", "", nil)
	assert.Len(t, decode[[]ProductResponse](t, w), 1)

	w = do(t, r, http.MethodDelete, "/api/v1/products/"+p.ID, "tok-sell", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
