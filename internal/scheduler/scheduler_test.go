package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/cerebric/cerebric/internal/audit"
	"github.com/cerebric/cerebric/internal/task"
	"github.com/cerebric/cerebric/pkg/model"
)

func newTestScheduler(t *testing.T, onDone OnJobDone) (*Scheduler, *task.Registry) {
	t.Helper()
	store, err := NewStore(t.TempDir()+"/jobs", logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	reg := task.NewRegistry()
	al := audit.New(t.TempDir()+"/audit", logr.Discard())
	cfg := DefaultConfig()
	cfg.CheckInterval = 20 * time.Millisecond
	cfg.Workers = 2
	return New(store, reg, al, logr.Discard(), cfg, onDone), reg
}

func TestScheduleOneTimeRunsAndCompletes(t *testing.T) {
	done := make(chan model.Job, 1)
	s, reg := newTestScheduler(t, func(job model.Job, err error) {
		done <- job
	})
	reg.Register("noop", task.NoopTask{ResultOut: model.Result{Summary: "ok"}})

	job, err := s.ScheduleOneTime("noop", time.Now().Add(-time.Second), nil, 5, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	select {
	case finished := <-done:
		if finished.ID != job.ID || finished.State != model.JobCompleted {
			t.Fatalf("unexpected finished job: %+v", finished)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job to complete")
	}
}

func TestJobRetriesOnFailureThenFails(t *testing.T) {
	done := make(chan model.Job, 1)
	s, reg := newTestScheduler(t, func(job model.Job, err error) { done <- job })
	reg.Register("fails", task.NoopTask{ExecuteErr: errAlways})

	_, err := s.ScheduleOneTime("fails", time.Now().Add(-time.Second), nil, 5, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	select {
	case finished := <-done:
		if finished.State != model.JobFailed {
			t.Fatalf("expected failed job, got %+v", finished)
		}
		if finished.RetryCount < 1 {
			t.Fatalf("expected at least one retry to have been attempted, got %d", finished.RetryCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job to fail")
	}
}

func TestCancelOnTerminalJobErrors(t *testing.T) {
	s, reg := newTestScheduler(t, nil)
	reg.Register("noop", task.NoopTask{})

	job, err := s.AddJob(model.Job{Task: "noop", Trigger: model.Trigger{Kind: model.TriggerOneShot, At: timePtr(time.Now().Add(time.Hour))}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Cancel(job.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Cancel(job.ID); err == nil {
		t.Fatal("expected error cancelling an already-cancelled job")
	}
}

func TestAddJobWithInvalidCronErrors(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	_, err := s.AddJob(model.Job{Task: "noop", Trigger: model.Trigger{Kind: model.TriggerCron, CronExpr: "not a cron expression"}})
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestStoreRecoversRunningJobsAsPending(t *testing.T) {
	dir := t.TempDir() + "/jobs"
	store, err := NewStore(dir, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	if err := store.Put(model.Job{ID: "j1", Task: "noop", State: model.JobRunning, StartedAt: &now, CreatedAt: now}); err != nil {
		t.Fatal(err)
	}

	recovered, err := NewStore(dir, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	job, ok := recovered.Get("j1")
	if !ok {
		t.Fatal("expected recovered job to be present")
	}
	if job.State != model.JobPending {
		t.Fatalf("expected recovered job to be requeued as pending, got %s", job.State)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

var errAlways = &staticErr{"task always fails"}

type staticErr struct{ msg string }

func (e *staticErr) Error() string { return e.msg }
