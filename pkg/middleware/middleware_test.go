package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yeisme/pastevault/pkg/cache"
	"github.com/yeisme/pastevault/pkg/configs"
	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/internal/storage/kv"
	"github.com/yeisme/pastevault/pkg/metrics"
	"github.com/yeisme/pastevault/pkg/middleware"
	"github.com/yeisme/pastevault/pkg/tracing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ctxPkg.GetRequestID(c.Request.Context()))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(middleware.HeaderRequestID)
	require.Len(t, id, 26)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderRequestID, "client-id")
	w = serve(r, req)
	assert.Equal(t, "client-id", w.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, "client-id", w.Body.String())
}

func TestAdminTokenMiddleware(t *testing.T) {
	newRouter := func(conf configs.AdminConfig) *gin.Engine {
		r := gin.New()
		r.GET("/admin", middleware.AdminTokenMiddleware(conf), func(c *gin.Context) { c.Status(http.StatusNoContent) })

		return r
	}

	r := newRouter(configs.AdminConfig{Enabled: false, Token: "t"})
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)

	r = newRouter(configs.AdminConfig{Enabled: true, Token: "secret"})
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(middleware.HeaderAdminToken, "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(middleware.HeaderAdminToken, "secret")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		IntervalSeconds:   60,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}))

	fail := true
	r.GET("/", func(c *gin.Context) {
		if fail {
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusInternalServerError, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	fail = false
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.1,
		MinRequests:       1,
		IntervalSeconds:   60,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for range 5 {
		assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.5, Burst: 1, Key: "ip"}))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, serve(r, httptest.NewRequest(http.MethodPost, "/", nil)).Code)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	// 不同客户端互不影响
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	assert.Equal(t, http.StatusCreated, serve(r, req).Code)
}

func TestResponseCache(t *testing.T) {
	c := cache.NewCache(kv.NewMemoryKVWithClock(time.Now), "http.")

	var calls atomic.Int32

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.GET("/locations", middleware.ResponseCache(c, middleware.CacheTTL(time.Minute)), func(ctx *gin.Context) {
		calls.Add(1)
		ctx.Header("Cache-Control", "public, max-age=60")
		ctx.String(http.StatusOK, "default,large")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/locations", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var hit *httptest.ResponseRecorder

	assert.Eventually(t, func() bool {
		hit = serve(r, httptest.NewRequest(http.MethodGet, "/locations", nil))
		return hit.Header().Get("X-Cache") == "HIT"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "default,large", hit.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", hit.Header().Get("Content-Type"))
	assert.NotEqual(t, w.Header().Get(middleware.HeaderRequestID), hit.Header().Get(middleware.HeaderRequestID))
	require.NotEmpty(t, hit.Header().Get("ETag"))

	req := httptest.NewRequest(http.MethodGet, "/locations", nil)
	req.Header.Set("If-None-Match", hit.Header().Get("ETag"))
	assert.Equal(t, http.StatusNotModified, serve(r, req).Code)

	before := calls.Load()

	req = httptest.NewRequest(http.MethodGet, "/locations", nil)
	req.Header.Set("Cache-Control", "no-cache")
	assert.Equal(t, "", serve(r, req).Header().Get("X-Cache"))

	req = httptest.NewRequest(http.MethodGet, "/locations", nil)
	req.Header.Set("X-Paste-Password", "pw")
	serve(r, req)

	assert.Equal(t, before+2, calls.Load())
}

func TestResponseCacheSkipsErrorsAndNoStore(t *testing.T) {
	c := cache.NewCache(kv.NewMemoryKVWithClock(time.Now), "http.")

	r := gin.New()
	r.GET("/missing", middleware.ResponseCache(c), func(ctx *gin.Context) { ctx.Status(http.StatusNotFound) })
	r.GET("/secret", middleware.ResponseCache(c), func(ctx *gin.Context) {
		ctx.Header("Cache-Control", "no-store")
		ctx.String(http.StatusOK, "x")
	})

	for range 3 {
		assert.Equal(t, "MISS", serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil)).Header().Get("X-Cache"))
		assert.Equal(t, "MISS", serve(r, httptest.NewRequest(http.MethodGet, "/secret", nil)).Header().Get("X-Cache"))
	}
}

func TestTracingMiddlewareContinuesParent(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, tracing.Install(configs.TracingConfig{ServiceName: "pastevault", SampleRate: 1}, exp))
	t.Cleanup(func() { _ = tracing.ShutdownTracer(context.Background()) })

	r := gin.New()
	r.Use(middleware.TracingMiddleware())
	r.GET("/:id", func(c *gin.Context) { c.Status(http.StatusGone) })

	req := httptest.NewRequest(http.MethodGet, "/Ab12", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	assert.Equal(t, http.StatusGone, serve(r, req).Code)

	require.NoError(t, tracing.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /:id", spans[0].Name)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Contains(t, spans[0].Attributes, attribute.String("paste.id", "Ab12"))
	assert.Contains(t, spans[0].Attributes, attribute.Int("http.response.status_code", http.StatusGone))
}

func TestCircuitBreakerIsolatesRouteGroups(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled:         true,
		FailureRate:     0.5,
		MinRequests:     1,
		IntervalSeconds: 60,
		TimeoutSeconds:  45,
	}))
	r.GET("/:id", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/api/v1/locations", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusBadGateway, serve(r, httptest.NewRequest(http.MethodGet, "/Ab12", nil)).Code)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/Ab12", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "45", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil)).Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware(configs.ServerConfig{CORSOrigins: []string{"https://paste.example.com"}}))
	r.POST("/api/v1/pastes", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/pastes", nil)
	req.Header.Set("Origin", "https://paste.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Paste-Password")

	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://paste.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/api/v1/pastes", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}

func TestPrometheusMiddlewareUsesRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(middleware.PrometheusMiddleware())
	r.GET("/p/:id", func(c *gin.Context) { c.String(http.StatusGone, "exhausted") })

	hits := metrics.RequestCounter.WithLabelValues(http.MethodGet, "/p/:id", "4xx")
	unmatched := metrics.RequestCounter.WithLabelValues(http.MethodGet, "unmatched", "4xx")
	before, beforeUnmatched := testutil.ToFloat64(hits), testutil.ToFloat64(unmatched)

	serve(r, httptest.NewRequest(http.MethodGet, "/p/Ab12", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/p/Cd34", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.InDelta(t, before+2, testutil.ToFloat64(hits), 0)
	assert.InDelta(t, beforeUnmatched+1, testutil.ToFloat64(unmatched), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.RequestsInFlight), 0)
}
