package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/scheduler"
)

// 每年一次，测试中只通过 RunNow 触发.
const yearly = "0 0 1 1 *"

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func jobInfo(s *scheduler.Scheduler, name string) scheduler.JobInfo {
	for _, info := range s.JobInfos() {
		if info.Name == name {
			return info
		}
	}

	return scheduler.JobInfo{}
}

func TestAddCronRejectsDuplicate(t *testing.T) {
	s := newScheduler(t)
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddCron(ctx, "b", yearly, noop))
	require.NoError(t, s.AddCron(ctx, "a", yearly, noop))
	assert.Error(t, s.AddCron(ctx, "a", yearly, noop))
	assert.Error(t, s.AddCron(ctx, "c", "not a cron", noop))

	infos := s.JobInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, scheduler.StatusScheduled, infos[0].Status)
	assert.Equal(t, yearly, infos[0].CronExpr)
}

func TestRunNowRecordsOutcome(t *testing.T) {
	s := newScheduler(t)

	var calls atomic.Int32

	require.NoError(t, s.AddCron(context.Background(), "flaky", yearly, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("kv down")
		}

		return nil
	}))
	s.Start()

	require.NoError(t, s.RunNow("flaky"))
	assert.Eventually(t, func() bool {
		return jobInfo(s, "flaky").Status == scheduler.StatusError
	}, 2*time.Second, 10*time.Millisecond)

	info := jobInfo(s, "flaky")
	assert.Equal(t, "kv down", info.Error)
	assert.True(t, info.LastSuccess.IsZero())

	require.NoError(t, s.RunNow("flaky"))
	assert.Eventually(t, func() bool {
		info := jobInfo(s, "flaky")
		return info.Status == scheduler.StatusScheduled && !info.LastSuccess.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	info = jobInfo(s, "flaky")
	assert.Equal(t, int64(2), info.Runs)
	assert.Empty(t, info.Error)
}

func TestRunNowRecoversPanic(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "boom", yearly, func(context.Context) error {
		panic("nil map")
	}))
	s.Start()

	require.NoError(t, s.RunNow("boom"))
	assert.Eventually(t, func() bool {
		return jobInfo(s, "boom").Error == "panic: nil map"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnknownJobs(t *testing.T) {
	s := newScheduler(t)

	assert.ErrorIs(t, s.RunNow("missing"), scheduler.ErrJobNotFound)
	assert.ErrorIs(t, s.RemoveJob(uuid.New()), scheduler.ErrJobNotFound)
}

func TestRemoveJob(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "gone", yearly, func(context.Context) error { return nil }))

	id, err := uuid.Parse(jobInfo(s, "gone").ID)
	require.NoError(t, err)

	require.NoError(t, s.RemoveJob(id))
	assert.Empty(t, s.JobInfos())
	assert.ErrorIs(t, s.RunNow("gone"), scheduler.ErrJobNotFound)
}
