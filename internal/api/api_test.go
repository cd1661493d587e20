package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/db"
	"storefront/internal/identity"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/mockapi"
	"storefront/internal/orders"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t *testing.T
	r *gin.Engine
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	store := db.OpenTest(t)
	products := catalog.NewService(store)
	_, err := products.SeedOnce(context.Background())
	require.NoError(t, err)

	ledger := cart.NewLedger(store, products)
	sink := orders.NewSink(store)
	reg := prometheus.NewRegistry()
	deps := Deps{
		Catalog:  products,
		Identity: identity.NewService(store, identity.WithHashCost(bcrypt.MinCost)),
		Sessions: session.NewManager(session.NewStoreScope(store), session.NewMemoryScope(), session.WithLifetimes(time.Hour, 24*time.Hour)),
		Cart:     ledger,
		Orders:   sink,
		Checkout: checkout.NewService(ledger, sink, mockapi.NewClient(session.NewStoreScope(store), 0)),
		Tokens: Tokens{
			Secret:      "test-secret",
			TTL:         time.Hour,
			RememberTTL: 24 * time.Hour,
		},
		Metrics:     metrics.NewCollector(reg),
		Gatherer:    reg,
		AuthLimiter: limiter,
	}
	r := gin.New()
	RegisterRoutes(r, deps)
	return &testServer{t: t, r: r}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "admin@demo.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")

	w = s.do(http.MethodPost, "/auth/register", "", gin.H{"name": "Ann", "email": "ann@x.com", "password": "secret"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret")

	w = s.do(http.MethodPost, "/auth/register", "", gin.H{"name": "Ann", "email": "ann@x.com", "password": "secret"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/register", "", gin.H{"name": "Ann", "email": "not-an-email", "password": "secret"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := s.login("ann@x.com", "secret")
	me := decode[map[string]any](t, s.do(http.MethodGet, "/auth/me", token, nil))
	user := me["user"].(map[string]any)
	assert.Equal(t, "Ann", user["name"])

	w = s.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me = decode[map[string]any](t, s.do(http.MethodGet, "/auth/me", token, nil))
	assert.Nil(t, me["user"])
	assert.Equal(t, "guest", me["owner"])
}

func TestInvalidTokenIsRejected(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/cart", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, nil)

	list := decode[[]map[string]any](t, s.do(http.MethodGet, "/products", "", nil))
	assert.Len(t, list, 5)

	list = decode[[]map[string]any](t, s.do(http.MethodGet, "/products?category=clothing&sort=price-desc", "", nil))
	require.Len(t, list, 3)
	assert.Equal(t, "Jacket", list[0]["name"])

	colors := decode[[]string](t, s.do(http.MethodGet, "/products/colors", "", nil))
	assert.Equal(t, []string{"Black", "Blue", "Brown", "Red", "White"}, colors)

	product := decode[map[string]any](t, s.do(http.MethodGet, "/products/3", "", nil))
	assert.Equal(t, "Sneakers", product["name"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/products/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/products/abc", "", nil).Code)
}

func TestGuestCart(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodPost, "/cart", "", gin.H{"product_id": 1, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/cart", "", gin.H{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	cartResp := decode[CartResponse](t, s.do(http.MethodGet, "/cart", "", nil))
	require.Len(t, cartResp.Items, 1)
	assert.Equal(t, 3, cartResp.Items[0].Quantity)
	assert.Equal(t, "360.00", cartResp.Subtotal)
	assert.Equal(t, 3, cartResp.Count)

	id := cartResp.Items[0].ID
	w = s.do(http.MethodPatch, "/cart/"+itoa(id), "", gin.H{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)
	count := decode[map[string]int](t, s.do(http.MethodGet, "/cart/count", "", nil))
	assert.Equal(t, 5, count["count"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/cart", "", gin.H{"product_id": 999}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/cart/424242", "", gin.H{"quantity": 1}).Code)

	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/cart/"+itoa(id), "", nil).Code)
	count = decode[map[string]int](t, s.do(http.MethodGet, "/cart/count", "", nil))
	assert.Zero(t, count["count"])
}

func TestUpdateQuantityClampsToOne(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login("user@demo.com", "user123")

	item := decode[map[string]any](t, s.do(http.MethodPost, "/cart", token, gin.H{"product_id": 1, "quantity": 4}))
	id := int64(item["id"].(float64))

	w := s.do(http.MethodPatch, "/cart/"+itoa(id), token, gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	count := decode[map[string]int](t, s.do(http.MethodGet, "/cart/count", token, nil))
	assert.Equal(t, 1, count["count"])

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/cart/"+itoa(id), token, gin.H{}).Code)
}

func TestCartOwnership(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login("admin@demo.com", "admin123")
	shopper := s.login("user@demo.com", "user123")

	item := decode[map[string]any](t, s.do(http.MethodPost, "/cart", shopper, gin.H{"product_id": 2, "color_id": 102}))
	assert.Equal(t, "Blue", item["color_name"])
	id := int64(item["id"].(float64))

	w := s.do(http.MethodPatch, "/cart/"+itoa(id), admin, gin.H{"quantity": 9})
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/cart", admin, nil).Code)
	count := decode[map[string]int](t, s.do(http.MethodGet, "/cart/count", shopper, nil))
	assert.Equal(t, 1, count["count"])

	guest := decode[CartResponse](t, s.do(http.MethodGet, "/cart", "", nil))
	assert.Empty(t, guest.Items)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login("user@demo.com", "user123")

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/checkout", token, nil).Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart", token, gin.H{"product_id": 4, "quantity": 1}).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/checkout", token, nil).Code)

	pending := decode[map[string]any](t, s.do(http.MethodGet, "/checkout", token, nil))
	assert.Equal(t, "700.00", pending["total"])

	form := gin.H{
		"full_name":   "Demo User",
		"email":       "user@demo.com",
		"phone":       "0100",
		"governorate": "Cairo",
		"city":        "Maadi",
		"address":     "9 Road",
		"location":    gin.H{"lat": 29.96, "lng": 31.25},
	}
	bad := gin.H{"full_name": "Demo User"}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/checkout/orders", token, bad).Code)

	w := s.do(http.MethodPost, "/checkout/orders", token, form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[map[string]any](t, w)
	assert.Regexp(t, `^ORD-\d{6}$`, order["order_number"])
	assert.Equal(t, "pending", order["status"])

	last := decode[map[string]any](t, s.do(http.MethodGet, "/checkout/orders/last", token, nil))
	assert.Equal(t, order["order_number"], last["order_number"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/checkout/orders/last", "", nil).Code)
}

func TestAnonymousCheckoutIsPerClient(t *testing.T) {
	s := newTestServer(t, nil)

	// Each token-less request opens its own session and returns its token.
	w := s.do(http.MethodPost, "/cart", "", gin.H{"product_id": 2, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	alice := w.Header().Get(middleware.SessionTokenHeader)
	require.NotEmpty(t, alice)
	bob := s.do(http.MethodGet, "/cart", "", nil).Header().Get(middleware.SessionTokenHeader)
	require.NotEmpty(t, bob)
	assert.NotEqual(t, alice, bob)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/checkout", alice, nil).Code)
	form := gin.H{
		"full_name":   "Alice Private",
		"email":       "alice@x.com",
		"phone":       "0100",
		"governorate": "Giza",
		"city":        "Dokki",
		"address":     "9 Secret Road",
		"location":    gin.H{"lat": 30.03, "lng": 31.21},
	}

	// Bob cannot order from Alice's snapshot.
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/checkout/orders", bob, form).Code)

	w = s.do(http.MethodPost, "/checkout/orders", alice, form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	last := decode[map[string]any](t, s.do(http.MethodGet, "/checkout/orders/last", alice, nil))
	assert.Equal(t, "9 Secret Road", last["shipping"].(map[string]any)["address"])

	for name, token := range map[string]string{"no token": "", "other guest": bob} {
		w := s.do(http.MethodGet, "/checkout/orders/last", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, name)
		assert.NotContains(t, w.Body.String(), "Alice Private", name)
		assert.NotContains(t, w.Body.String(), "9 Secret Road", name)
	}

	// Both guests still share the guest cart.
	me := decode[map[string]any](t, s.do(http.MethodGet, "/auth/me", bob, nil))
	assert.Equal(t, "guest", me["owner"])
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login("admin@demo.com", "admin123")
	shopper := s.login("user@demo.com", "user123")
	product := gin.H{"name": "Scarf", "price": "45.50", "category": "Accessories", "stock": 3}

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/admin/products", "", product).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/admin/products", shopper, product).Code)

	w := s.do(http.MethodPost, "/admin/products", admin, product)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	id := int64(created["id"].(float64))
	assert.Greater(t, id, int64(5))

	w = s.do(http.MethodPut, "/admin/products/"+itoa(id), admin, gin.H{"name": "Wool Scarf", "price": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[map[string]any](t, s.do(http.MethodGet, "/products/"+itoa(id), "", nil))
	assert.Equal(t, "Wool Scarf", got["name"])

	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/admin/products/"+itoa(id), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/products/"+itoa(id), "", nil).Code)

	list := decode[[]map[string]any](t, s.do(http.MethodGet, "/admin/orders", admin, nil))
	assert.Empty(t, list)

	stats := decode[map[string]any](t, s.do(http.MethodGet, "/admin/stats", admin, nil))
	assert.Equal(t, "0.00", stats["revenue"])
	assert.Equal(t, float64(0), stats["orders"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.login("user@demo.com", "user123")

	w := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `storefront_logins_total{outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
}

func TestAuthRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2)
	t.Cleanup(limiter.Stop)
	s := newTestServer(t, limiter)

	creds := gin.H{"email": "user@demo.com", "password": "user123"}
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/auth/login", "", creds).Code)

	// Catalog reads are not limited
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/products", "", nil).Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
