package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

func newScheduler() *Scheduler {
	return New(logger.Nop()).WithRetry(2, time.Millisecond)
}

func TestAddJob_RejectsDuplicateAndBadSchedule(t *testing.T) {
	s := newScheduler()

	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 */10 * * * *"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))
	assert.Error(t, s.AddJob(&countingJob{name: "b", schedule: "not a schedule"}))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.GetJobHistory("a")
	assert.Error(t, err)
}

func TestRunJob_RetriesUntilSuccess(t *testing.T) {
	s := newScheduler()
	job := &countingJob{name: "flaky", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(3), job.calls.Load())
	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestRunJob_RecordsFailureAfterRetries(t *testing.T) {
	s := newScheduler()
	job := &countingJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(3), job.calls.Load())
	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, "upstream unavailable", stats.LastError)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_Unknown(t *testing.T) {
	assert.Error(t, newScheduler().RunJob("missing"))
}

func TestRunJob_Async(t *testing.T) {
	s := newScheduler()
	job := &countingJob{name: "now", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("now"))
	assert.Eventually(t, func() bool {
		h, _ := s.GetJobHistory("now")
		return len(h) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStop_CancelsRetryWait(t *testing.T) {
	s := New(logger.Nop()).WithRetry(5, time.Hour)
	job := &countingJob{name: "slow", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	done := make(chan struct{})
	go func() {
		s.runJob(job)
		close(done)
	}()

	assert.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, time.Millisecond)
	s.Start()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestGetJobStats_NextRunOnceStarted(t *testing.T) {
	s := newScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))

	s.Start()
	defer s.Stop()

	stats := s.GetJobStats()["a"]
	assert.Equal(t, "@hourly", stats.Schedule)
	assert.Equal(t, 0, stats.TotalRuns)
	require.NotNil(t, stats.NextRun)
	assert.True(t, stats.NextRun.After(time.Now()))
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	for i := 0; i < historyLimit+5; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Empty(t, h.GetLatestResults(0))
	assert.Len(t, h.GetFailedResults(), historyLimit/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)

	var empty JobHistory
	assert.Equal(t, 0.0, empty.GetSuccessRate())
}

func TestInterval(t *testing.T) {
	tests := []struct {
		spec string
		want time.Duration
	}{
		{"0 */10 * * * *", 10 * time.Minute},
		{"*/30 * * * * *", 30 * time.Second},
		{"@hourly", time.Hour},
		{"@every 5m", 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Interval(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Interval("every tuesday")
	assert.Error(t, err)
}
