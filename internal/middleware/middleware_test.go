package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, GetTenantID(c)+"|"+GetUserID(c))
	})
	router.GET("/", handlers...)
	return router
}

func TestTenantMiddleware_RejectsMissingTenant(t *testing.T) {
	router := newRouter(TenantMiddleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TENANT_REQUIRED")
}

func TestTenantMiddleware_ReadsHeader(t *testing.T) {
	router := newRouter(TenantMiddleware(), DevelopmentAuthMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "tenant-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tenant-1|"+devUserID, w.Body.String())
}

func TestRateLimitMiddleware_PerTenant(t *testing.T) {
	router := newRouter(TenantMiddleware(), RateLimitMiddleware(NewRateLimiter(0, 1)))

	do := func(tenant string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant-ID", tenant)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusOK, do("b"))
}

func TestRateLimitMiddleware_NilDisables(t *testing.T) {
	router := newRouter(RateLimitMiddleware(PerMinute(0)))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate.Every(time.Second), 1)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = clock

	rl.GetLimiter("tenant-a")
	rl.GetLimiter("tenant-b")
	assert.Equal(t, 2, rl.Len())

	clock = clock.Add(DefaultIdleTTL / 2)
	rl.GetLimiter("tenant-b")

	clock = clock.Add(DefaultIdleTTL/2 + time.Minute)
	rl.GetLimiter("tenant-c")

	assert.Equal(t, 2, rl.Len())
	_, kept := rl.keys["tenant-b"]
	assert.True(t, kept)
	_, evicted := rl.keys["tenant-a"]
	assert.False(t, evicted)
}
