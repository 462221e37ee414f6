/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package metrics defines Prometheus metrics for the supervisor daemon.
//
// Metric naming follows Prometheus conventions:
//   - cerebric_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registry cmd/cerebricd serves on /metrics. A package-
// level registry (rather than prometheus.DefaultRegisterer) keeps this
// package's metrics isolated from anything else sharing the process.
var Registry = prometheus.NewRegistry()

var (
	// JobsTotal counts job firings by task name and terminal JobState.
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerebric_jobs_total",
			Help: "Total number of job firings by task and terminal state.",
		},
		[]string{"task", "state"},
	)

	// JobDurationSeconds is a histogram of job execution duration by task.
	JobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cerebric_job_duration_seconds",
			Help:    "Duration of job executions in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
		},
		[]string{"task"},
	)

	// TokensUsedTotal counts tokens consumed by task and model.
	TokensUsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerebric_tokens_used_total",
			Help: "Total tokens consumed by Decision Loop model calls.",
		},
		[]string{"task", "model"},
	)

	// GuardrailBlocksTotal counts decisions blocked by guardrails, by task
	// and the gate that blocked it (confidence, budget, policy, approval).
	GuardrailBlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerebric_guardrail_blocks_total",
			Help: "Total decisions blocked by a guardrail/policy/approval gate.",
		},
		[]string{"task", "gate"},
	)

	// AnomaliesTotal counts detected anomalies by type and severity.
	AnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerebric_anomalies_total",
			Help: "Total anomalies detected by the Guardrail Engine.",
		},
		[]string{"type", "severity"},
	)

	// ScheduleLagSeconds is the delay between scheduled time and actual start.
	ScheduleLagSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cerebric_schedule_lag_seconds",
			Help: "Seconds between scheduled job time and actual trigger.",
		},
		[]string{"task"},
	)

	// ActiveJobs is the number of currently executing jobs.
	ActiveJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cerebric_active_jobs",
			Help: "Number of jobs currently executing.",
		},
	)

	// SafeModeActive is 1 when the Guardrail Engine's safe mode is active.
	SafeModeActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cerebric_safe_mode_active",
			Help: "1 if autonomy is currently paused by safe mode, 0 otherwise.",
		},
	)
)

func init() {
	Registry.MustRegister(
		JobsTotal,
		JobDurationSeconds,
		TokensUsedTotal,
		GuardrailBlocksTotal,
		AnomaliesTotal,
		ScheduleLagSeconds,
		ActiveJobs,
		SafeModeActive,
	)
}

// RecordJobComplete records metrics for one terminal job firing.
func RecordJobComplete(task, state string, duration time.Duration) {
	JobsTotal.WithLabelValues(task, state).Inc()
	JobDurationSeconds.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordTokensUsed records token usage for one model call.
func RecordTokensUsed(task, model string, tokensIn, tokensOut int64) {
	TokensUsedTotal.WithLabelValues(task, model).Add(float64(tokensIn + tokensOut))
}

// RecordGuardrailBlock records a single blocked decision.
func RecordGuardrailBlock(task, gate string) {
	GuardrailBlocksTotal.WithLabelValues(task, gate).Inc()
}

// RecordAnomaly records a single detected anomaly.
func RecordAnomaly(anomalyType, severity string) {
	AnomaliesTotal.WithLabelValues(anomalyType, severity).Inc()
}

// RecordScheduleLag records the scheduling delay for a task firing.
func RecordScheduleLag(task string, lag time.Duration) {
	ScheduleLagSeconds.WithLabelValues(task).Set(lag.Seconds())
}
