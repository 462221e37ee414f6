/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getGaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func getGaugeVecValue(gv *prometheus.GaugeVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := gv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func getHistogramCount(hv *prometheus.HistogramVec, labels ...string) uint64 {
	m := &dto.Metric{}
	observer := hv.WithLabelValues(labels...)
	// Prometheus histogram implements prometheus.Metric via the observer.
	if c, ok := observer.(prometheus.Metric); ok {
		if err := c.Write(m); err != nil {
			return 0
		}
		return m.GetHistogram().GetSampleCount()
	}
	return 0
}

func TestRecordJobComplete(t *testing.T) {
	RecordJobComplete("disk-cleanup", "completed", 42*time.Second)

	val := getCounterValue(JobsTotal, "disk-cleanup", "completed")
	if val < 1 {
		t.Errorf("JobsTotal = %f, want >= 1", val)
	}

	count := getHistogramCount(JobDurationSeconds, "disk-cleanup")
	if count < 1 {
		t.Errorf("JobDurationSeconds sample count = %d, want >= 1", count)
	}
}

func TestRecordTokensUsed(t *testing.T) {
	RecordTokensUsed("disk-cleanup", "local/llama-3", 1000, 500)

	tokens := getCounterValue(TokensUsedTotal, "disk-cleanup", "local/llama-3")
	if tokens < 1500 {
		t.Errorf("TokensUsedTotal = %f, want >= 1500", tokens)
	}
}

func TestRecordGuardrailBlock(t *testing.T) {
	RecordGuardrailBlock("package-update", "policy")
	RecordGuardrailBlock("package-update", "policy")

	val := getCounterValue(GuardrailBlocksTotal, "package-update", "policy")
	if val < 2 {
		t.Errorf("GuardrailBlocksTotal = %f, want >= 2", val)
	}
}

func TestRecordAnomaly(t *testing.T) {
	RecordAnomaly("repeated_failures", "critical")

	val := getCounterValue(AnomaliesTotal, "repeated_failures", "critical")
	if val < 1 {
		t.Errorf("AnomaliesTotal = %f, want >= 1", val)
	}
}

func TestRecordScheduleLag(t *testing.T) {
	RecordScheduleLag("log-rotate", 12*time.Second)

	val := getGaugeVecValue(ScheduleLagSeconds, "log-rotate")
	if val != 12 {
		t.Errorf("ScheduleLagSeconds = %f, want 12", val)
	}

	RecordScheduleLag("log-rotate", 3*time.Second)
	val = getGaugeVecValue(ScheduleLagSeconds, "log-rotate")
	if val != 3 {
		t.Errorf("ScheduleLagSeconds after update = %f, want 3", val)
	}
}

func TestActiveJobs(t *testing.T) {
	ActiveJobs.Set(0) // reset

	ActiveJobs.Inc()
	ActiveJobs.Inc()

	val := getGaugeValue(ActiveJobs)
	if val != 2 {
		t.Errorf("ActiveJobs = %f, want 2", val)
	}

	ActiveJobs.Dec()
	val = getGaugeValue(ActiveJobs)
	if val != 1 {
		t.Errorf("ActiveJobs after Dec = %f, want 1", val)
	}
}

func TestSafeModeActiveGauge(t *testing.T) {
	SafeModeActive.Set(1)
	if getGaugeValue(SafeModeActive) != 1 {
		t.Error("SafeModeActive should report 1 once set")
	}
	SafeModeActive.Set(0)
	if getGaugeValue(SafeModeActive) != 0 {
		t.Error("SafeModeActive should report 0 once cleared")
	}
}

func TestMultipleTasksMetricsIsolation(t *testing.T) {
	RecordJobComplete("task-a", "completed", 10*time.Second)
	RecordJobComplete("task-b", "failed", 5*time.Second)

	aCompleted := getCounterValue(JobsTotal, "task-a", "completed")
	bFailed := getCounterValue(JobsTotal, "task-b", "failed")
	aFailed := getCounterValue(JobsTotal, "task-a", "failed")

	if aCompleted < 1 {
		t.Error("task-a completed should be >= 1")
	}
	if bFailed < 1 {
		t.Error("task-b failed should be >= 1")
	}
	if aFailed != 0 {
		t.Errorf("task-a failed = %f, want 0", aFailed)
	}
}
