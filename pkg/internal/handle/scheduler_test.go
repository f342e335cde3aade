package handle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/internal/router"
	"github.com/yeisme/pastevault/pkg/scheduler"
)

func schedulerEngine(s *scheduler.Scheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	if s != nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(ctxPkg.WithScheduler(c.Request.Context(), s))
		})
	}

	router.RegisterSchedulerRoutes(r.Group("/admin"))

	return r
}

func TestSchedulerRoutes(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	var runs atomic.Int32

	require.NoError(t, s.AddCron(context.Background(), "descriptor-stats", "0 0 1 1 *", func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.Start()

	r := schedulerEngine(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/scheduler/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Jobs []scheduler.JobInfo `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "descriptor-stats", body.Jobs[0].Name)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/scheduler/jobs/descriptor-stats/run", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/scheduler/jobs/missing/run", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/scheduler/jobs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/scheduler/jobs/"+body.Jobs[0].ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.JobInfos())
}

func TestSchedulerRoutesWithoutScheduler(t *testing.T) {
	r := schedulerEngine(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/scheduler/jobs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
