/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/cerebric/cerebric/internal/audit"
	"github.com/cerebric/cerebric/internal/cancel"
	"github.com/cerebric/cerebric/internal/metrics"
	"github.com/cerebric/cerebric/internal/retry"
	"github.com/cerebric/cerebric/internal/task"
	"github.com/cerebric/cerebric/pkg/model"
)

// Config configures the Scheduler.
type Config struct {
	// Workers is the size of the fixed worker pool. Default 5.
	Workers int
	// CheckInterval is how often the tick loop scans for due jobs. Default 5s.
	CheckInterval time.Duration
	// QueueDepth bounds the tick→worker handoff channel. Default 64.
	QueueDepth int
}

// DefaultConfig returns the spec's defaults.
func DefaultConfig() Config {
	return Config{Workers: 5, CheckInterval: 5 * time.Second, QueueDepth: 64}
}

// OnJobDone is invoked after every job execution completes, successfully or
// not — the Decision Loop / anomaly detector wiring point.
type OnJobDone func(job model.Job, err error)

// DecisionFunc orchestrates one job firing end to end (gather state,
// retrieve memories, consult the model, guardrails, policy, approval,
// then execute) and reports the resulting terminal state. "Each worker, on
// receiving a job, invokes the Decision Loop" — when set via
// WithDecisionFunc, this is that invocation; decisionloop.Loop.Run matches
// this signature exactly and is wired in unchanged at the call site. When
// unset, the Scheduler falls back to looking the task up in its own
// registry and running it directly under a Standard retry policy, which
// keeps the scheduler independently testable without a Decision Loop.
type DecisionFunc func(ctx context.Context, job model.Job) (model.JobState, model.Result, error)

// Scheduler dispatches due jobs onto a fixed worker pool and records every
// state transition. Grounded on the teacher's tick→evaluateAgent→
// triggerRun dispatch shape (internal/scheduler/scheduler.go) fused with a
// bounded-channel worker pool (the codeready-toolchain-tarsy queue
// package's WorkerPool/Worker split), generalized from CRD polling to a
// local model.Job map guarded by Store's single mutex.
type Scheduler struct {
	store    *Store
	tracker  *RunTracker
	registry *task.Registry
	auditLog *audit.Log
	log      logr.Logger
	cfg      Config
	onDone   OnJobDone

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
	queue   chan model.Job
	decide  DecisionFunc
}

// WithDecisionFunc wires fn as the per-job orchestrator and returns the
// Scheduler, mirroring the teacher's NewEngine(...).WithProtectionEngine(...)
// chaining idiom. Call before Start.
func (s *Scheduler) WithDecisionFunc(fn DecisionFunc) *Scheduler {
	s.decide = fn
	return s
}

// New wires a Scheduler. onDone may be nil.
func New(store *Store, registry *task.Registry, auditLog *audit.Log, log logr.Logger, cfg Config, onDone OnJobDone) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Second
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}
	return &Scheduler{
		store:    store,
		tracker:  NewRunTracker(),
		registry: registry,
		auditLog: auditLog,
		log:      log.WithName("scheduler"),
		cfg:      cfg,
		onDone:   onDone,
	}
}

// AddJob persists a new job in JobPending state and returns it with an
// assigned ID. Used for both schedule_cron (Trigger.Kind=cron) and
// schedule_one_time (Trigger.Kind=one_shot) — add_job is the primitive
// both convenience operations build on.
func (s *Scheduler) AddJob(job model.Job) (model.Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.State = model.JobPending
	job.CreatedAt = time.Now().UTC()

	if job.Trigger.Kind == model.TriggerCron {
		next, err := NextRun(job, job.CreatedAt)
		if err != nil {
			return model.Job{}, fmt.Errorf("invalid cron trigger: %w", err)
		}
		job.NextRunAt = &next
	} else {
		job.NextRunAt = job.Trigger.At
	}

	if err := s.store.Put(job); err != nil {
		return model.Job{}, err
	}
	s.recordTransition(job, "job created")
	return job, nil
}

// ScheduleCron is add_job specialized for a recurring cron trigger.
func (s *Scheduler) ScheduleCron(taskName, cronExpr string, inputs map[string]any, priority, maxRetries, timeoutSec int) (model.Job, error) {
	return s.AddJob(model.Job{
		Task:       taskName,
		Trigger:    model.Trigger{Kind: model.TriggerCron, CronExpr: cronExpr},
		Priority:   priority,
		Inputs:     inputs,
		MaxRetries: maxRetries,
		TimeoutSec: timeoutSec,
	})
}

// ScheduleOneTime is add_job specialized for a single fire-once trigger.
func (s *Scheduler) ScheduleOneTime(taskName string, at time.Time, inputs map[string]any, priority, maxRetries, timeoutSec int) (model.Job, error) {
	return s.AddJob(model.Job{
		Task:       taskName,
		Trigger:    model.Trigger{Kind: model.TriggerOneShot, At: &at},
		Priority:   priority,
		Inputs:     inputs,
		MaxRetries: maxRetries,
		TimeoutSec: timeoutSec,
	})
}

// Cancel transitions a pending or running job to JobCancelled. A job that
// has already reached a terminal state cannot be cancelled — its record is
// immutable once terminal, per the no-further-transition invariant.
func (s *Scheduler) Cancel(jobID string) (model.Job, error) {
	job, ok := s.store.Get(jobID)
	if !ok {
		return model.Job{}, fmt.Errorf("unknown job %q", jobID)
	}
	if job.State.Terminal() {
		return job, fmt.Errorf("job %s already in terminal state %s", jobID, job.State)
	}
	job.State = model.JobCancelled
	now := time.Now().UTC()
	job.CompletedAt = &now
	if err := s.store.Put(job); err != nil {
		return model.Job{}, err
	}
	s.recordTransition(job, "job cancelled")
	return job, nil
}

// List returns every known job.
func (s *Scheduler) List() []model.Job { return s.store.List() }

// Status reports worker-pool occupancy for a status/health endpoint.
type Status struct {
	Workers      int `json:"workers"`
	InFlight     int `json:"in_flight"`
	QueueDepth   int `json:"queue_depth"`
	QueueBacklog int `json:"queue_backlog"`
}

// Status reports current scheduler occupancy.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	backlog := 0
	if s.queue != nil {
		backlog = len(s.queue)
	}
	s.mu.Unlock()
	return Status{
		Workers:      s.cfg.Workers,
		InFlight:     s.tracker.InFlightCount(),
		QueueDepth:   s.cfg.QueueDepth,
		QueueBacklog: backlog,
	}
}

// Start launches the tick loop and the fixed worker pool. Safe to call
// once; a second call is a no-op, mirroring the teacher's idempotent Start.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue = make(chan model.Job, s.cfg.QueueDepth)
	queue := s.queue
	s.mu.Unlock()

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.runWorker(loopCtx, queue)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.tick(queue)
			}
		}
	}()

	s.log.Info("scheduler started", "workers", s.cfg.Workers, "check_interval", s.cfg.CheckInterval)
}

// Stop cancels the tick loop and worker pool and waits for in-flight jobs
// to notice cancellation and return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// tick scans every known job and enqueues the ones that are due. Mirrors
// the teacher's evaluateAgent early-return chain: terminal/not-due check →
// already-running check → pool-saturation check → enqueue.
func (s *Scheduler) tick(queue chan<- model.Job) {
	now := time.Now().UTC()
	for _, job := range s.store.List() {
		if job.State.Terminal() {
			continue
		}
		if s.tracker.IsRunning(job.ID) {
			continue
		}

		due, err := IsDue(job, now)
		if err != nil {
			s.log.Error(err, "failed to evaluate job schedule", "job", job.ID)
			continue
		}
		if !due {
			continue
		}

		if job.Trigger.Kind == model.TriggerCron && !job.Trigger.Coalesce {
			if dueAt, err := NextRun(job, job.CreatedAt); err == nil && Misfired(job, dueAt, now) {
				s.log.Info("skipping misfired cron job past its grace period", "job", job.ID)
				s.rescheduleCron(job, now)
				continue
			}
		}

		select {
		case queue <- job:
		default:
			s.log.Info("worker queue full, job will be retried next tick", "job", job.ID)
		}
	}
}

func (s *Scheduler) runWorker(ctx context.Context, queue <-chan model.Job) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-queue:
			if !ok {
				return
			}
			s.execute(ctx, job)
		}
	}
}

// execute runs one job attempt (with the job's own retry policy) and
// records the outcome. It tracks the job as running for the attempt's
// duration so max_instances=1 holds even across retries.
func (s *Scheduler) execute(ctx context.Context, job model.Job) {
	if !s.tracker.TryStart(job.ID) {
		return
	}
	defer s.tracker.Complete(job.ID)

	now := time.Now().UTC()
	job.State = model.JobRunning
	job.StartedAt = &now
	_ = s.store.Put(job)
	s.recordTransition(job, "job started")

	if job.NextRunAt != nil {
		metrics.RecordScheduleLag(job.Task, now.Sub(*job.NextRunAt))
	}

	runCtx := ctx
	var jobCancel context.CancelFunc
	if d := job.Timeout(); d > 0 {
		runCtx, jobCancel = context.WithTimeout(ctx, d)
		defer jobCancel()
	}

	var (
		finalState model.JobState
		execErr    error
	)
	if s.decide != nil {
		finalState, _, execErr = s.decide(runCtx, job)
	} else {
		finalState, execErr = s.executeDirect(runCtx, &job)
	}

	// The terminal write does not take runCtx (Store.Put takes no context),
	// so it happens even if runCtx (the job's own timeout) already expired —
	// the same guarantee as the teacher's conversationLoop
	// finalize-under-fresh-background pattern.
	completed := time.Now().UTC()
	job.CompletedAt = &completed
	job.State = finalState
	if execErr != nil {
		job.LastError = execErr.Error()
	} else {
		job.LastError = ""
	}

	if job.Trigger.Kind == model.TriggerCron {
		s.rescheduleCron(job, completed)
	}

	_ = s.store.Put(job)
	s.recordTransition(job, fmt.Sprintf("job finished: %s", job.State))

	if s.onDone != nil {
		s.onDone(job, execErr)
	}
}

// executeDirect is the decide-less fallback: look the task up in the
// scheduler's own registry and run it under a Standard retry policy, with
// no guardrail/policy/approval pipeline. Used by tests that exercise the
// scheduler in isolation and by any deployment that runs without a
// Decision Loop wired in.
func (s *Scheduler) executeDirect(ctx context.Context, job *model.Job) (model.JobState, error) {
	t, err := s.registry.Lookup(job.Task)
	if err != nil {
		return model.JobFailed, err
	}

	policy := retry.Standard
	if job.MaxRetries > 0 {
		policy.MaxAttempts = job.MaxRetries + 1
	}

	execCtx, stop, cancelToken := cancel.WithTimer(ctx, 0)
	defer stop()

	var attemptCount int
	_, execErr := retry.Do(execCtx, policy, func(ctx context.Context) (model.Result, error) {
		attemptCount++
		return t.Execute(ctx, job.Inputs, cancelToken)
	})
	job.RetryCount = attemptCount - 1
	if execErr != nil {
		return model.JobFailed, execErr
	}
	return model.JobCompleted, nil
}

func (s *Scheduler) rescheduleCron(job model.Job, now time.Time) {
	next, err := NextRun(job, now)
	if err != nil {
		s.log.Error(err, "failed to compute next cron run", "job", job.ID)
		return
	}
	job.NextRunAt = &next
	job.State = model.JobPending
	job.StartedAt = nil
	job.CompletedAt = nil
	_ = s.store.Put(job)
}

func (s *Scheduler) recordTransition(job model.Job, summary string) {
	s.auditLog.Write(model.AuditRecord{
		Tool:      "scheduler",
		Mode:      model.AuditState,
		RequestID: job.ID,
		OK:        job.State != model.JobFailed && job.State != model.JobRejected,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
		Fields:    map[string]any{"task": job.Task, "state": string(job.State)},
	})
}
