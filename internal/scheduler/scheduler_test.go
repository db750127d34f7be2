package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // number of leading runs that fail
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("store unreachable")
	}
	return nil
}

func newTestScheduler(retries int) *Scheduler {
	return New(logger.Nop(), Options{
		Location:   time.UTC,
		MaxRetries: retries,
		RetryDelay: time.Millisecond,
	})
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "30 15 * * 1-5"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "not a cron"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestRunJobNowRetries(t *testing.T) {
	tests := []struct {
		name     string
		retries  int
		failures int32
		success  bool
		calls    int32
	}{
		{"first try", 2, 0, true, 1},
		{"recovers on retry", 2, 2, true, 3},
		{"retries exhausted", 1, 5, false, 2},
		{"no retries", 0, 1, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(tt.retries)
			job := &countingJob{name: "daily_scan", schedule: "@daily", failures: tt.failures}
			require.NoError(t, s.AddJob(job))

			result, err := s.RunJobNow(context.Background(), "daily_scan")
			require.NoError(t, err)

			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.calls, job.calls.Load())
			if !tt.success {
				assert.Equal(t, "store unreachable", result.Error)
			}

			assert.Equal(t, int(tt.calls), result.Attempts)

			history, err := s.GetJobHistory("daily_scan")
			require.NoError(t, err)
			assert.Equal(t, 1, history.Len())
		})
	}
}

func TestRunJobNowUnknown(t *testing.T) {
	s := newTestScheduler(0)
	_, err := s.RunJobNow(context.Background(), "missing")
	assert.Error(t, err)
	assert.Error(t, s.RunJob("missing"))
}

func TestRetryWaitStopsOnCancel(t *testing.T) {
	s := New(logger.Nop(), Options{MaxRetries: 5, RetryDelay: time.Hour})
	job := &countingJob{name: "daily_scan", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan JobResult, 1)
	go func() {
		result, _ := s.RunJobNow(ctx, "daily_scan")
		done <- result
	}()

	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case result := <-done:
		assert.False(t, result.Success)
		assert.Equal(t, int32(1), job.calls.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("retry wait ignored cancellation")
	}
}

func TestJobStats(t *testing.T) {
	s := newTestScheduler(0)
	job := &countingJob{name: "daily_scan", schedule: "30 15 * * 1-5", failures: 1}
	require.NoError(t, s.AddJob(job))

	_, _ = s.RunJobNow(context.Background(), "daily_scan")
	_, _ = s.RunJobNow(context.Background(), "daily_scan")

	stats := s.GetJobStats()["daily_scan"]
	assert.Equal(t, "30 15 * * 1-5", stats.Schedule)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.NextRun, "not started")

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool {
		return s.GetJobStats()["daily_scan"].NextRun != nil
	}, time.Second, 5*time.Millisecond)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Zero(t, h.SuccessRate())
	assert.Empty(t, h.Latest(5))
	_, ok := h.Last()
	assert.False(t, ok)

	base := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		h.Add(JobResult{JobName: "daily_scan", StartTime: base.AddDate(0, 0, i), Success: i%4 != 0})
	}
	assert.Equal(t, 100, h.Len())
	assert.Len(t, h.Latest(10), 10)
	assert.Equal(t, 25, h.Failures())
	assert.InDelta(t, 0.75, h.SuccessRate(), 1e-9)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, base.AddDate(0, 0, 119), last.StartTime)

	success, failure := h.lastOutcome()
	require.NotNil(t, success)
	require.NotNil(t, failure)
	assert.Equal(t, base.AddDate(0, 0, 119), *success)
	assert.Equal(t, base.AddDate(0, 0, 116), *failure)
}
