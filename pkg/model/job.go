// Package model holds the shared data types that cross component
// boundaries: jobs, decisions, approvals, simulations, policy documents,
// budgets, anomalies, memory entries, and audit records.
package model

import "time"

// JobState is a job's position in its lifecycle state machine.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
	JobSkipped   JobState = "skipped"
	JobRejected  JobState = "rejected"
)

// Terminal reports whether no further transition may ever occur.
func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// TriggerKind distinguishes a cron schedule from a one-shot instant.
type TriggerKind string

const (
	TriggerCron    TriggerKind = "cron"
	TriggerOneShot TriggerKind = "one_shot"
)

// Trigger describes when a job fires.
type Trigger struct {
	Kind           TriggerKind `json:"kind"`
	CronExpr       string      `json:"cron_expr,omitempty"`
	At             *time.Time  `json:"at,omitempty"`
	Coalesce       bool        `json:"coalesce"`
	MisfireGraceMS int64       `json:"misfire_grace_ms,omitempty"`
}

// MisfireGrace returns the configured grace period, defaulting to 60s.
func (t Trigger) MisfireGrace() time.Duration {
	if t.MisfireGraceMS <= 0 {
		return 60 * time.Second
	}
	return time.Duration(t.MisfireGraceMS) * time.Millisecond
}

// Job is an addressable unit of scheduled work.
//
// Invariants: once State is one of {completed, failed, cancelled} no later
// transition is ever written; StartedAt is set iff the job was ever running;
// Job records are never deleted, only appended to (retained for audit).
type Job struct {
	ID          string         `json:"id"`
	Task        string         `json:"task"`
	Trigger     Trigger        `json:"trigger"`
	Priority    int            `json:"priority"` // 1=highest .. 10=lowest
	Inputs      map[string]any `json:"inputs,omitempty"`
	State       JobState       `json:"state"`
	MaxRetries  int            `json:"max_retries"`
	TimeoutSec  int            `json:"timeout_sec"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	RetryCount  int            `json:"retry_count"`
	LastError   string         `json:"last_error,omitempty"`
	NextRunAt   *time.Time     `json:"next_run_at,omitempty"`
}

// Clone returns a deep-enough copy for safe handoff across goroutines.
func (j Job) Clone() Job {
	c := j
	if j.Inputs != nil {
		c.Inputs = make(map[string]any, len(j.Inputs))
		for k, v := range j.Inputs {
			c.Inputs[k] = v
		}
	}
	return c
}

// Timeout returns the configured per-job execution timeout.
func (j Job) Timeout() time.Duration {
	if j.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(j.TimeoutSec) * time.Second
}

// RiskLevel classifies the risk of a proposed Decision.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Decision is the structured output of a single ModelProvider consultation.
// Immutable once created.
type Decision struct {
	Step             int       `json:"step"`
	Action           string    `json:"action"`
	Confidence       float64   `json:"confidence"`
	Reasoning        string    `json:"reasoning"`
	RequiresApproval bool      `json:"requires_approval"`
	ApprovalReason   string    `json:"approval_reason,omitempty"`
	Risk             RiskLevel `json:"risk_level"`
}

// ConservativeDecision is synthesised when a ModelProvider response cannot
// be parsed into a valid Decision.
func ConservativeDecision(step int) Decision {
	return Decision{
		Step:             step,
		Action:           "skip",
		Confidence:       0,
		Reasoning:        "model response could not be parsed",
		RequiresApproval: true,
		ApprovalReason:   "unparseable model response",
		Risk:             RiskHigh,
	}
}
