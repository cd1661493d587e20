package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/session"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(manager *session.Manager, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(SessionMiddleware(secret, time.Hour, manager))
	handlers := append(extra, func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": s.ID()})
	})
	r.GET("/whoami", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionMiddlewareAnonymous(t *testing.T) {
	manager := session.NewManager(session.NewMemoryScope(), session.NewMemoryScope())

	r := newRouter(manager)

	first := do(r, "")
	require.Equal(t, http.StatusOK, first.Code)
	second := do(r, "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.NotEqual(t, first.Body.String(), second.Body.String())

	// The returned token resumes the same anonymous session.
	token := first.Header().Get(SessionTokenHeader)
	require.NotEmpty(t, token)
	claims, err := utils.ParseJWT(token, secret)
	require.NoError(t, err)
	again := do(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Contains(t, again.Body.String(), `"session":"`+claims.SessionID+`"`)
	assert.Equal(t, first.Body.String(), again.Body.String())
	assert.Empty(t, again.Header().Get(SessionTokenHeader))
}

func TestSessionMiddlewareResumesToken(t *testing.T) {
	manager := session.NewManager(session.NewMemoryScope(), session.NewMemoryScope())
	token, err := utils.GenerateJWT("abc-123", false, secret, time.Hour)
	require.NoError(t, err)

	w := do(newRouter(manager), "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session":"abc-123"`)
}

func TestSessionMiddlewareRejectsBadTokens(t *testing.T) {
	manager := session.NewManager(session.NewMemoryScope(), session.NewMemoryScope())
	foreign, err := utils.GenerateJWT("abc-123", false, "other-secret", time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"not bearer":     "Basic xyz",
		"garbage":        "Bearer not-a-jwt",
		"foreign secret": "Bearer " + foreign,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(newRouter(manager), header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(session.NewMemoryScope(), session.NewMemoryScope())
	r := newRouter(manager, AdminOnlyMiddleware())

	admin, err := manager.Start(ctx, &domain.User{ID: 1, Role: domain.RoleAdmin}, false)
	require.NoError(t, err)
	shopper, err := manager.Start(ctx, &domain.User{ID: 2, Role: domain.RoleUser}, false)
	require.NoError(t, err)

	bearer := func(s *session.Session) string {
		token, err := utils.GenerateJWT(s.ID(), false, secret, time.Hour)
		require.NoError(t, err)
		return "Bearer " + token
	}

	assert.Equal(t, http.StatusOK, do(r, bearer(admin)).Code)

	w := do(r, bearer(shopper))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), LoginPath)

	w = do(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), LoginPath)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	t.Cleanup(rl.Stop)

	r := gin.New()
	r.GET("/limited", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients keep their own budget")
}

func TestRateLimiterCleanupForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60)
	t.Cleanup(rl.Stop)
	rl.limiter("10.0.0.1")

	rl.cleanup(time.Now().Add(time.Hour))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.clients)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	r := gin.New()
	r.Use(MetricsMiddleware(collector))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() != "storefront_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == "/items/:id" && labels["status_code"] == "204" {
				found = true
			}
		}
	}
	assert.True(t, found)
}
