package model

import "time"

// BudgetCaps are configured resource ceilings checked by the Guardrail
// Engine's budget checking and tracking sub-capabilities.
type BudgetCaps struct {
	CPUPercent      float64 `yaml:"cpu_percent" json:"cpu_percent"`
	MemoryMB        float64 `yaml:"memory_mb" json:"memory_mb"`
	DurationMinutes float64 `yaml:"duration_minutes" json:"duration_minutes"`
	FrequencyPerHr  int     `yaml:"frequency_per_hour" json:"frequency_per_hour"`
}

// BudgetSnapshot is a single sample taken during execution by the runtime
// Budget Tracker.
type BudgetSnapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	CPUPercent     float64   `json:"cpu_percent"`
	MemoryMB       float64   `json:"memory_mb"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	WithinBudgets  bool      `json:"within_budgets"`
}

// AnomalyType enumerates the four anomaly detection rules.
type AnomalyType string

const (
	AnomalyRepeatedFailures AnomalyType = "repeated_failures"
	AnomalyErrorRate        AnomalyType = "error_rate_exceeded"
	AnomalyCPUSpike         AnomalyType = "cpu_spike"
	AnomalyMemoryLeak       AnomalyType = "memory_leak"
)

// Severity is an Anomaly Event's severity level.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// AnomalyEvent records a single detected anomaly.
type AnomalyEvent struct {
	Type        AnomalyType    `json:"type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Metrics     map[string]any `json:"metrics,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// RecoveryAction is one configured recovery step run on a critical anomaly.
type RecoveryActionKind string

const (
	RecoveryAlertUser         RecoveryActionKind = "alert_user"
	RecoveryRollbackLastAction RecoveryActionKind = "rollback_last_action"
	RecoveryPauseAutonomy     RecoveryActionKind = "pause_autonomy"
)

// RecoveryRecord captures the outcome of one recovery action.
type RecoveryRecord struct {
	Action  RecoveryActionKind `json:"action"`
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Details map[string]any     `json:"details,omitempty"`
}
