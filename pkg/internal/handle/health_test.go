package handle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/internal/router"
	"github.com/yeisme/pastevault/pkg/internal/types"
)

func TestHealthWithoutStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	router.RegisterHealthCheckRoute(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var report types.HealthReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, types.HealthUnhealthy, report.Status)
	assert.Equal(t, types.HealthUnhealthy, report.Components["kv"].Status)
	assert.Equal(t, "not initialized", report.Components["s3"].Error)
	assert.Equal(t, types.HealthDisabled, report.Components["mq"].Status)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/mq", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
