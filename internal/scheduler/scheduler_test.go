package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) (*Scheduler, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s, err := New("UTC", time.Minute, logger)
	require.NoError(t, err)
	return s, hook
}

func TestNewInvalidTimezone(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New("Mars/Olympus_Mons", time.Minute, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone Mars/Olympus_Mons")
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s, _ := newScheduler(t)

	err := s.AddVerifyJob("every half hour", func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule job verify")
	assert.Empty(t, s.ListJobs())
}

func TestListAndRemoveJobs(t *testing.T) {
	s, _ := newScheduler(t)
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.AddVerifyJob("*/30 * * * *", noop))
	require.NoError(t, s.AddJob("nightly", "0 3 * * *", noop))

	s.Start(context.Background())
	defer s.Stop()

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	names := []string{jobs[0].Name, jobs[1].Name}
	assert.ElementsMatch(t, []string{"verify", "nightly"}, names)
	for _, j := range jobs {
		assert.False(t, j.NextRun.IsZero(), "started scheduler should plan %s", j.Name)
	}

	s.RemoveJob("nightly")
	s.RemoveJob("does-not-exist")

	jobs = s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "verify", jobs[0].Name)
}

func TestRunNowAppliesTimeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s, err := New("UTC", 50*time.Millisecond, logger)
	require.NoError(t, err)

	err = s.RunNow(context.Background(), "verify", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	boom := errors.New("boom")
	err = s.RunNow(context.Background(), "verify", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestScheduledJobRuns(t *testing.T) {
	s, hook := newScheduler(t)

	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "@every 1s", func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return errors.New("dashboard down")
	}))

	s.Start(context.Background())
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
	<-s.Stop().Done()

	var failed bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Job failed" && e.Data["job"] == "tick" {
			failed = true
		}
	}
	assert.True(t, failed, "failed run should be logged")
}

func TestStartContextCancelsRunningJob(t *testing.T) {
	s, _ := newScheduler(t)

	started := make(chan struct{}, 1)
	result := make(chan error, 1)
	require.NoError(t, s.AddJob("slow", "@every 1s", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
			return nil
		}
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not start")
	}
	cancel()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelling the start context did not reach the job")
	}

	select {
	case <-s.Stop().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Stop waited on an aborted job")
	}
}

func TestFields(t *testing.T) {
	f := fields([]interface{}{"now", 1, "entry", 2, "dangling"})
	assert.Equal(t, logrus.Fields{"now": 1, "entry": 2}, f)
}
