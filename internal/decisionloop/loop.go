/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package decisionloop implements the Decision Loop (C8): the per-job
// orchestration that turns a scheduler firing into gathered state,
// retrieved memory, a model-generated Decision, a guardrail/policy/
// approval gate, and finally a tool execution whose outcome is recorded to
// Memory and Audit.
//
// Grounded directly on the teacher's internal/runner.Runner.conversationLoop
// — the single richest file in the pack for this shape: the iteration-
// bounded loop becomes this package's single-pass algorithm; the
// evaluate-then-execute-or-block branch becomes the guardrail/policy/
// approval gate below; the dual-context pattern (run under the job's own
// deadline, then write the terminal outcome under a background context so
// it survives even if that deadline already passed) is reproduced in
// finalize; and extractFindings' severity-prefix line scan is reused,
// nearly verbatim, as the last-resort fallback in parseDecision below.
package decisionloop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/cerebric/cerebric/internal/approval"
	"github.com/cerebric/cerebric/internal/audit"
	"github.com/cerebric/cerebric/internal/cancel"
	"github.com/cerebric/cerebric/internal/capability"
	"github.com/cerebric/cerebric/internal/guardrail"
	llm "github.com/cerebric/cerebric/internal/model"
	"github.com/cerebric/cerebric/internal/memory"
	"github.com/cerebric/cerebric/internal/metrics"
	"github.com/cerebric/cerebric/internal/policy"
	"github.com/cerebric/cerebric/internal/retry"
	"github.com/cerebric/cerebric/internal/session"
	"github.com/cerebric/cerebric/internal/task"
	"github.com/cerebric/cerebric/internal/telemetry"
	"github.com/cerebric/cerebric/pkg/model"
)

// budgetSampleInterval is how often the runtime Budget Tracker samples
// process resource usage while a task is executing.
const budgetSampleInterval = 2 * time.Second

// Config tunes the Decision Loop's defaults. Zero values fall back to the
// spec's stated defaults via withDefaults.
type Config struct {
	TopK            int
	ApprovalTimeout time.Duration
	ModelID         string
	MaxTokens       int
	Temperature     float64
	RecoveryActions []model.RecoveryActionKind
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = 3
	}
	if c.ApprovalTimeout <= 0 {
		c.ApprovalTimeout = 30 * time.Minute
	}
	if c.ModelID == "" {
		c.ModelID = "default"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 512
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.3
	}
	if c.RecoveryActions == nil {
		c.RecoveryActions = []model.RecoveryActionKind{
			model.RecoveryAlertUser,
			model.RecoveryRollbackLastAction,
			model.RecoveryPauseAutonomy,
		}
	}
	return c
}

// Loop is the per-job orchestrator. Run's signature matches
// scheduler.DecisionFunc exactly, so a worker can be wired with
// sched.WithDecisionFunc(loop.Run) unchanged.
type Loop struct {
	tasks     *task.Registry
	caps      *capability.Registry
	guard     *guardrail.Engine
	recoverer *guardrail.Recoverer
	detector  *guardrail.Detector
	policyDoc model.PolicyDocument
	approvals *approval.Manager
	simulator *approval.Simulator
	auditLog  *audit.Log
	memStore  *memory.Store
	log       logr.Logger
	cfg       Config
	defaultSession session.Session
}

// New wires a Loop from its already-constructed collaborators.
func New(
	tasks *task.Registry,
	caps *capability.Registry,
	guard *guardrail.Engine,
	recoverer *guardrail.Recoverer,
	detector *guardrail.Detector,
	policyDoc model.PolicyDocument,
	approvals *approval.Manager,
	auditLog *audit.Log,
	memStore *memory.Store,
	log logr.Logger,
	cfg Config,
	defaultSession session.Session,
) *Loop {
	return &Loop{
		tasks:          tasks,
		caps:           caps,
		guard:          guard,
		recoverer:      recoverer,
		detector:       detector,
		policyDoc:      policyDoc,
		approvals:      approvals,
		simulator:      approval.NewSimulator(),
		auditLog:       auditLog,
		memStore:       memStore,
		log:            log.WithName("decisionloop"),
		cfg:            cfg.withDefaults(),
		defaultSession: defaultSession,
	}
}

// Run executes the full 11-step algorithm for one job firing under the
// default session and reports the resulting terminal JobState.
func (l *Loop) Run(ctx context.Context, job model.Job) (model.JobState, model.Result, error) {
	return l.RunWithSession(ctx, job, l.defaultSession)
}

// RunWithSession is Run generalized to an explicit Session — profile
// switches allocate a new Session rather than mutating shared state, per
// the capability registry's "explicit value, never a global" convention.
func (l *Loop) RunWithSession(ctx context.Context, job model.Job, sess session.Session) (model.JobState, model.Result, error) {
	ctx, jobSpan := telemetry.StartJobSpan(ctx, job.Task, string(job.Trigger))
	metrics.ActiveJobs.Inc()
	start := time.Now()

	state, result, err := l.runSteps(ctx, job, sess)

	metrics.ActiveJobs.Dec()
	metrics.RecordJobComplete(job.Task, string(state), time.Since(start))
	telemetry.EndJobSpan(jobSpan, string(state), state == model.JobRejected)
	return state, result, err
}

// runSteps runs the 11-step algorithm proper; split out from RunWithSession
// so the job-level span and metrics wrap every return path from one place.
func (l *Loop) runSteps(ctx context.Context, job model.Job, sess session.Session) (model.JobState, model.Result, error) {
	// Step 1: pre-flight safe-mode check.
	if l.guard.SafeMode.IsActive() {
		l.audit(job, model.AuditState, true, "job skipped: safe mode active", nil)
		return model.JobSkipped, model.Result{}, nil
	}

	t, err := l.tasks.Lookup(job.Task)
	if err != nil {
		l.audit(job, model.AuditState, false, "unknown task: "+err.Error(), nil)
		return model.JobFailed, model.Result{}, err
	}

	// Step 2: gather current state.
	state, err := t.GatherState(ctx)
	if err != nil {
		l.audit(job, model.AuditState, false, "failed to gather state: "+err.Error(), nil)
		return model.JobFailed, model.Result{}, err
	}

	// Step 3: retrieve relevant memories.
	hits := l.retrieveMemories(ctx, t.Describe())

	// Step 4-5: compose the autonomous prompt and invoke the model.
	decision := l.decide(ctx, job, t, state, hits)

	// Step 6: guardrail pipeline.
	estimate, err := t.EstimateResources(ctx)
	if err != nil || estimate == nil {
		estimate = conservativeEstimate(l.guard.Caps)
	}
	if err := l.guard.CheckEstimatedBudget(estimate); err != nil {
		l.finalize(job, false)
		metrics.RecordGuardrailBlock(job.Task, "budget")
		l.audit(job, model.AuditState, false, "budget check failed: "+err.Error(), map[string]any{"estimate": estimate})
		return model.JobFailed, model.Result{}, err
	}

	decision, err = l.guard.EvaluateDecision(decision)
	if err != nil {
		l.finalize(job, false)
		metrics.RecordGuardrailBlock(job.Task, "confidence")
		l.audit(job, model.AuditState, false, "guardrail rejected decision: "+err.Error(), map[string]any{"confidence": decision.Confidence})
		return model.JobRejected, model.Result{}, err
	}

	// Step 7: policy check.
	polCtx := policy.CurrentContext(job.Inputs)
	verdict := policy.Decide(l.policyDoc, job.Task, true, polCtx)
	if !verdict.Allow {
		l.finalize(job, false)
		metrics.RecordGuardrailBlock(job.Task, "policy")
		err := &model.PolicyDenied{Tool: job.Task, Reason: verdict.Reason}
		l.audit(job, model.AuditState, false, "policy denied: "+verdict.Reason, nil)
		return model.JobRejected, model.Result{}, err
	}

	var sim *model.SimulationResult
	if verdict.SimulationRequired {
		sim = l.buildSimulation(ctx, job)
	}

	// Step 8: approval.
	if decision.RequiresApproval {
		approvalState, terminal, err := l.awaitApproval(ctx, job, decision, state, sim)
		if terminal {
			l.finalize(job, false)
			metrics.RecordGuardrailBlock(job.Task, "approval")
			return approvalState, model.Result{}, err
		}
	}

	// Step 9: execute under retry + the caller-supplied deadline.
	result, execErr := l.execute(ctx, job, t, decision)

	if execErr != nil {
		l.finalize(job, false)
		l.rememberOutcome(sess, job, decision, result, false, execErr.Error())
		l.audit(job, model.AuditApply, false, "execution failed: "+execErr.Error(), map[string]any{"action": decision.Action})
		return model.JobFailed, result, execErr
	}

	// Step 10: success bookkeeping.
	l.finalize(job, true)
	l.rememberOutcome(sess, job, decision, result, true, "")
	l.audit(job, model.AuditApply, true, "execution completed: "+result.Summary, map[string]any{"action": decision.Action})
	return model.JobCompleted, result, nil
}

// execute runs the underlying task under a Standard retry policy
// (overridden by the job's own max_retries), bridging ctx's cancellation
// into Task.Execute's channel-based cancellation parameter via
// internal/cancel, and sampling the runtime Budget Tracker throughout the
// run so a mid-execution overrun aborts the task instead of only being
// caught by the pre-execution estimate check.
func (l *Loop) execute(ctx context.Context, job model.Job, t model.Task, decision model.Decision) (model.Result, error) {
	policyCfg := retry.Standard
	if job.MaxRetries > 0 {
		policyCfg.MaxAttempts = job.MaxRetries + 1
	}

	ctx, execSpan := telemetry.StartExecuteSpan(ctx, job.Task, decision.Action, string(decision.Risk))
	var execErr error
	defer func() {
		telemetry.EndExecuteSpan(execSpan, string(boolToJobState(execErr == nil)), false, "")
	}()

	execCtx, stop, cancelToken := cancel.WithTimer(ctx, 0)
	defer stop()

	var mu sync.Mutex
	var budgetErr error
	tracker := guardrail.NewTracker(l.guard.Caps, nil)
	watchCtx, stopWatch := context.WithCancel(execCtx)
	defer stopWatch()
	go tracker.Watch(watchCtx, budgetSampleInterval, func(err error) {
		mu.Lock()
		first := budgetErr == nil
		if first {
			budgetErr = err
		}
		mu.Unlock()
		if first {
			l.recoverFromBudgetExhaustion(job, err)
			stop()
		}
	})

	result, err := retry.Do(execCtx, policyCfg, func(ctx context.Context) (model.Result, error) {
		return t.Execute(ctx, job.Inputs, cancelToken)
	})

	mu.Lock()
	be := budgetErr
	mu.Unlock()
	if be != nil {
		execErr = be
		return result, be
	}
	execErr = err
	return result, err
}

func boolToJobState(ok bool) model.JobState {
	if ok {
		return model.JobCompleted
	}
	return model.JobFailed
}

// recoverFromBudgetExhaustion runs the same recovery pipeline a critical
// anomaly triggers (alert, rollback, pause) when the runtime Budget Tracker
// observes a mid-execution overrun, per the spec's requirement that budget
// exhaustion rolls back rather than just failing silently.
func (l *Loop) recoverFromBudgetExhaustion(job model.Job, err error) {
	l.log.Error(err, "runtime budget exceeded during execution", "job_id", job.ID, "task", job.Task)
	metrics.RecordAnomaly("budget_exceeded", string(model.SeverityCritical))
	if l.recoverer == nil {
		return
	}
	ev := model.AnomalyEvent{
		Type:        model.AnomalyType("budget_exceeded"),
		Severity:    model.SeverityCritical,
		Description: fmt.Sprintf("job %s (%s) exceeded its runtime budget: %s", job.ID, job.Task, err.Error()),
		Timestamp:   time.Now().UTC(),
	}
	bg, cancelBg := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelBg()
	l.recoverer.Recover(bg, ev, l.cfg.RecoveryActions)
}

// awaitApproval builds and submits an Approval Request, waits for a
// decision, and reports whether the caller should stop processing
// (terminal=true) along with the JobState to use if so.
func (l *Loop) awaitApproval(ctx context.Context, job model.Job, decision model.Decision, state map[string]any, sim *model.SimulationResult) (model.JobState, bool, error) {
	req := model.ApprovalRequest{
		Task:        job.Task,
		Action:      decision.Action,
		Confidence:  decision.Confidence,
		Risk:        decision.Risk,
		SystemState: state,
		Simulation:  sim,
	}
	if sim != nil {
		req.AffectedResources = append(append([]string{}, sim.AffectedFiles...), sim.AffectedServices...)
	}

	requiresTyped := decision.Risk == model.RiskHigh
	created, err := l.approvals.Create(req, requiresTyped, l.cfg.ApprovalTimeout)
	if err != nil {
		l.audit(job, model.AuditState, false, "failed to create approval request: "+err.Error(), nil)
		return model.JobFailed, true, err
	}

	if l.approvals.Mode() == approval.ModeAuto {
		if _, err := l.approvals.AutoDecide(created); err != nil {
			l.log.Error(err, "auto-decide failed", "approval_id", created.ID)
		}
	}

	decided, err := l.approvals.Await(ctx, created.ID)
	if err != nil {
		l.audit(job, model.AuditState, false, "approval wait ended: "+err.Error(), map[string]any{"approval_id": created.ID})
		return model.JobRejected, true, fmt.Errorf("%w: approval timed out", model.ErrApprovalRejected)
	}
	if decided.Status != model.ApprovalApproved {
		l.audit(job, model.AuditState, false, "approval not granted: "+decided.Reason, map[string]any{"approval_id": created.ID, "status": string(decided.Status)})
		return model.JobRejected, true, fmt.Errorf("%w: %s", model.ErrApprovalRejected, decided.Reason)
	}
	return "", false, nil
}

// finalize records the outcome with the anomaly detector and, on a
// critical anomaly, runs recovery. Mirrors the teacher's
// finalizeRun-under-a-fresh-context idiom: this is always called, even
// when the run's own ctx has already expired, so detector bookkeeping and
// any resulting safe-mode entry are never skipped by a timeout.
func (l *Loop) finalize(job model.Job, success bool) {
	if l.detector == nil {
		return
	}
	err := l.detector.RecordOutcome(job.ID, success)
	var anomaly *model.AnomalyDetected
	if errors.As(err, &anomaly) {
		metrics.RecordAnomaly(string(anomaly.Event.Type), string(anomaly.Event.Severity))
		metrics.SafeModeActive.Set(boolToFloat(l.guard.SafeMode.IsActive()))
		if l.recoverer != nil {
			bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			l.recoverer.Recover(bg, anomaly.Event, l.cfg.RecoveryActions)
			metrics.SafeModeActive.Set(boolToFloat(l.guard.SafeMode.IsActive()))
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (l *Loop) retrieveMemories(ctx context.Context, query string) []model.RetrievedMemory {
	retriever, err := capability.Get[memory.Retriever](l.caps, capability.Retriever)
	if err != nil {
		return nil
	}
	hits, err := retriever.Retrieve(ctx, query, l.cfg.TopK)
	if err != nil {
		l.log.Error(err, "memory retrieval failed, proceeding without context")
		return nil
	}
	return hits
}

// decide composes the autonomous prompt and invokes the model provider,
// degrading to a conservative Decision at every failure point rather than
// ever propagating a model error out of the loop.
func (l *Loop) decide(ctx context.Context, job model.Job, t model.Task, state map[string]any, hits []model.RetrievedMemory) model.Decision {
	provider, err := capability.Get[llm.Provider](l.caps, capability.ModelProvider)
	if err != nil {
		return model.ConservativeDecision(1)
	}

	ctx, promptSpan := telemetry.StartPromptSpan(ctx, job.Task)
	prompt := composePrompt(t.Describe(), state, hits, 1)
	promptSpan.End()

	ctx, llmSpan := telemetry.StartLLMCallSpan(ctx, l.cfg.ModelID, "local", 1)
	gen, err := provider.Generate(ctx, prompt, l.cfg.ModelID, l.cfg.MaxTokens, l.cfg.Temperature, llm.GenerationOptions{})
	if err != nil {
		l.log.Error(err, "model generation failed")
		telemetry.EndLLMCallSpan(llmSpan, 0, 0, false)
		return model.ConservativeDecision(1)
	}
	decision := parseDecision(gen.Text, 1)
	telemetry.EndLLMCallSpan(llmSpan, int64(gen.TokensUsed), 0, decision.RequiresApproval)
	metrics.RecordTokensUsed(job.Task, gen.ModelID, int64(gen.TokensUsed), 0)
	return decision
}

// composePrompt builds the strict-output-contract prompt the algorithm
// demands: system framing, task description, JSON-encoded state, retrieved
// memory context, and the Decision schema.
func composePrompt(taskDescription string, state map[string]any, hits []model.RetrievedMemory, step int) string {
	stateJSON, _ := json.MarshalIndent(state, "", "  ")
	var b strings.Builder
	b.WriteString("You are an autonomous maintenance agent deciding the next action.\n\n")
	fmt.Fprintf(&b, "TASK: %s\n\n", taskDescription)
	fmt.Fprintf(&b, "CURRENT STATE:\n%s\n\n", stateJSON)
	if ctx := memory.FormatContext(hits); ctx != "" {
		b.WriteString(ctx)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "STEP: %d\n\n", step)
	b.WriteString("Respond with exactly one JSON object and no other text:\n")
	b.WriteString(`{"step": <int>, "action": "<what to do>", "confidence": <0.0-1.0>, "reasoning": "<why>", "requires_approval": <bool>, "approval_reason": "<string or empty>", "risk_level": "<low|medium|high>"}`)
	return b.String()
}

// parseDecision extracts the first {...} JSON object from text and decodes
// it into a Decision, per step 5 of the algorithm. On any failure it tries
// the severity-prefix fallback (CRITICAL:/WARNING:/INFO: lines, the same
// scan internal/runner.extractFindings uses) before giving up to
// model.ConservativeDecision.
func parseDecision(text string, step int) model.Decision {
	start := strings.Index(text, "{")
	if start >= 0 {
		var raw struct {
			Step             int     `json:"step"`
			Action           string  `json:"action"`
			Confidence       float64 `json:"confidence"`
			Reasoning        string  `json:"reasoning"`
			RequiresApproval bool    `json:"requires_approval"`
			ApprovalReason   string  `json:"approval_reason"`
			RiskLevel        string  `json:"risk_level"`
		}
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&raw); err == nil && raw.Action != "" {
			d := model.Decision{
				Step:             raw.Step,
				Action:           raw.Action,
				Confidence:       raw.Confidence,
				Reasoning:        raw.Reasoning,
				RequiresApproval: raw.RequiresApproval,
				ApprovalReason:   raw.ApprovalReason,
				Risk:             model.RiskLevel(raw.RiskLevel),
			}
			if d.Step == 0 {
				d.Step = step
			}
			if d.Risk == "" {
				d.Risk = model.RiskMedium
			}
			return d
		}
	}

	if d, ok := severityFallback(text, step); ok {
		return d
	}
	return model.ConservativeDecision(step)
}

// severityFallback scans text for a CRITICAL:/WARNING:/INFO:-prefixed line
// the way extractFindings does, and synthesises a Decision from the first
// one found: any CRITICAL line forces high risk and approval, a WARNING
// forces medium risk and approval, an INFO line is treated as a low-risk
// recommendation to skip (no finding worth approving).
func severityFallback(text string, step int) (model.Decision, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "CRITICAL:"):
			return model.Decision{
				Step: step, Action: strings.TrimSpace(strings.TrimPrefix(line, "CRITICAL:")),
				Confidence: 0.2, Reasoning: "parsed from unstructured critical finding",
				RequiresApproval: true, ApprovalReason: "critical finding requires review", Risk: model.RiskHigh,
			}, true
		case strings.HasPrefix(line, "WARNING:"):
			return model.Decision{
				Step: step, Action: strings.TrimSpace(strings.TrimPrefix(line, "WARNING:")),
				Confidence: 0.4, Reasoning: "parsed from unstructured warning",
				RequiresApproval: true, ApprovalReason: "warning requires review", Risk: model.RiskMedium,
			}, true
		case strings.HasPrefix(line, "INFO:"):
			return model.Decision{
				Step: step, Action: "skip", Confidence: 0.6, Reasoning: strings.TrimSpace(strings.TrimPrefix(line, "INFO:")),
				RequiresApproval: false, Risk: model.RiskLow,
			}, true
		}
	}
	return model.Decision{}, false
}

// conservativeEstimate is used when a task supplies no estimated-resources
// map: half the configured caps, a deliberately cautious guess that still
// lets routine low-footprint tasks clear the budget check without
// understating risk to zero.
func conservativeEstimate(caps model.BudgetCaps) map[string]float64 {
	return map[string]float64{
		"cpu_percent":      caps.CPUPercent / 2,
		"memory_mb":        caps.MemoryMB / 2,
		"duration_minutes": caps.DurationMinutes / 2,
	}
}

// buildSimulation dispatches to the Dry-Run Simulator based on the shape
// of the job's inputs. Returns nil if the inputs don't match any known
// simulation shape — approval still proceeds, just without a preview.
func (l *Loop) buildSimulation(ctx context.Context, job model.Job) *model.SimulationResult {
	in := job.Inputs
	if in == nil {
		return nil
	}
	if path, ok := in["path"].(string); ok {
		content, _ := in["content"].(string)
		current, _ := in["current_content"].(string)
		_, exists := in["current_content"]
		res := l.simulator.SimulateFileWrite(path, content, current, exists)
		return &res
	}
	if cmd, ok := in["command"].(string); ok {
		dryRunFlag, _ := in["dry_run_flag"].(string)
		res := l.simulator.SimulateCommand(ctx, cmd, dryRunFlag)
		return &res
	}
	if svc, ok := in["service"].(string); ok {
		res := l.simulator.SimulateServiceRestart(svc)
		return &res
	}
	if device, ok := in["device"].(string); ok {
		hwmonPath, _ := in["hwmon_path"].(string)
		current := intInput(in, "current_rpm")
		target := intInput(in, "target_rpm")
		res := l.simulator.SimulateHardwareControl(device, hwmonPath, current, target)
		return &res
	}
	if pkgsRaw, ok := in["packages"].([]any); ok {
		manager, _ := in["manager"].(string)
		packages := make([]string, 0, len(pkgsRaw))
		for _, p := range pkgsRaw {
			if s, ok := p.(string); ok {
				packages = append(packages, s)
			}
		}
		res := l.simulator.SimulatePackageUpdate(packages, manager)
		return &res
	}
	return nil
}

func intInput(inputs map[string]any, key string) int {
	switch v := inputs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func (l *Loop) rememberOutcome(sess session.Session, job model.Job, decision model.Decision, result model.Result, success bool, failureReason string) {
	partition := sess.MemoryPartition
	if partition == "" {
		partition = memory.PartitionRuntime
	}
	entry := map[string]any{
		"job_id":  job.ID,
		"task":    job.Task,
		"action":  decision.Action,
		"success": success,
		"summary": result.Summary,
	}
	if failureReason != "" {
		entry["error"] = failureReason
	}
	if err := l.memStore.Append(partition, "action_outcomes.jsonl", entry); err != nil {
		l.log.Error(err, "failed to append task outcome to memory", "job_id", job.ID)
	}
}

func (l *Loop) audit(job model.Job, mode model.AuditMode, ok bool, summary string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["task"] = job.Task
	l.auditLog.Write(model.AuditRecord{
		Tool:      "decisionloop",
		Mode:      mode,
		RequestID: job.ID,
		OK:        ok,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
		Fields:    fields,
	})
}
