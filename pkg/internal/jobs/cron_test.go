package jobs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/internal/jobs"
	"github.com/yeisme/pastevault/pkg/internal/service"
	"github.com/yeisme/pastevault/pkg/metrics"
)

type fakeStats struct {
	st  service.Stats
	err error
}

func (f fakeStats) Stats(context.Context) (service.Stats, error) { return f.st, f.err }

type fakeProber map[string]error

func (f fakeProber) HealthCheck(context.Context) map[string]error { return f }

func TestRefreshDescriptorStats(t *testing.T) {
	src := fakeStats{st: service.Stats{Counts: map[service.StatsKey]int64{
		{Type: "paste", State: service.StateActive}:       3,
		{Type: "large_paste", State: service.StatePending}: 1,
	}}}

	require.NoError(t, jobs.RefreshDescriptorStats(context.Background(), src))

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.Descriptors.WithLabelValues("paste", service.StateActive)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Descriptors.WithLabelValues("large_paste", service.StatePending)), 0)

	// 采集失败时保留上一次的值
	err := jobs.RefreshDescriptorStats(context.Background(), fakeStats{err: errors.New("kv down")})
	assert.ErrorContains(t, err, "kv down")
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.Descriptors.WithLabelValues("paste", service.StateActive)), 0)
}

func TestProbeStorage(t *testing.T) {
	err := jobs.ProbeStorage(context.Background(), fakeProber{
		"default": nil,
		"large":   errors.New("connection refused"),
	})
	assert.ErrorContains(t, err, "location large: connection refused")

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StorageUp.WithLabelValues("default")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.StorageUp.WithLabelValues("large")), 0)
}
