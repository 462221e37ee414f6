package guardrail

import (
	"sync"
	"time"

	"github.com/cerebric/cerebric/pkg/model"
)

// AnomalyConfig configures the four detection rules. Window defaults to a
// sliding 1-hour window per the spec's Open Question resolution (the
// source's config was ambiguous between a rolling count and a sliding time
// window; this implementation chooses sliding time window unless Window is
// explicitly set).
type AnomalyConfig struct {
	RepeatedFailures  int
	ErrorRateThreshold float64
	CPUSpikeThreshold  float64
	MemoryLeakMB       float64
	Window             time.Duration
}

// DefaultAnomalyConfig mirrors the teacher's DefaultConfig pattern
// (internal/anomaly/detector.go) of supplying sane defaults for every
// zero-valued field.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		RepeatedFailures:   3,
		ErrorRateThreshold: 0.5,
		CPUSpikeThreshold:  90,
		MemoryLeakMB:       512,
		Window:             time.Hour,
	}
}

func (c AnomalyConfig) withDefaults() AnomalyConfig {
	d := DefaultAnomalyConfig()
	if c.RepeatedFailures <= 0 {
		c.RepeatedFailures = d.RepeatedFailures
	}
	if c.ErrorRateThreshold <= 0 {
		c.ErrorRateThreshold = d.ErrorRateThreshold
	}
	if c.CPUSpikeThreshold <= 0 {
		c.CPUSpikeThreshold = d.CPUSpikeThreshold
	}
	if c.MemoryLeakMB <= 0 {
		c.MemoryLeakMB = d.MemoryLeakMB
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	return c
}

type outcomeSample struct {
	at      time.Time
	success bool
}

// Detector maintains rolling counters for anomaly detection: consecutive
// job failures (per job id and global), an error-rate sliding window, and
// CPU/memory spike watermarks. Grounded on the teacher's
// internal/anomaly/detector.go four-rule evaluation (detectFrequencySpike,
// detectScopeSpike, detectTargetDrift, plus its dedup-by-key event
// bookkeeping), re-targeted at the spec's four rules.
type Detector struct {
	cfg AnomalyConfig

	mu                sync.Mutex
	globalConsecutive int
	perJobConsecutive map[string]int
	outcomes          []outcomeSample // sliding window for error rate
	lastMemoryMB      float64
	events            chan model.AnomalyEvent
}

// NewDetector creates a Detector. The returned Events channel is buffered
// so recording an outcome never blocks on a slow consumer.
func NewDetector(cfg AnomalyConfig) *Detector {
	return &Detector{
		cfg:               cfg.withDefaults(),
		perJobConsecutive: map[string]int{},
		events:            make(chan model.AnomalyEvent, 64),
	}
}

// Events exposes anomaly events as a channel per §9's "model it as a
// channel/event emission rather than a throw" instruction — the one place
// in the guardrail path where an out-of-band signal is appropriate.
func (d *Detector) Events() <-chan model.AnomalyEvent {
	return d.events
}

// RecordOutcome updates the rolling counters for a finished job and
// evaluates the repeated-failures and error-rate rules. If a critical
// anomaly is detected it is both emitted on Events() and returned as an
// error wrapping the anomaly, so callers that want synchronous handling
// (the Decision Loop) do not have to poll the channel.
func (d *Detector) RecordOutcome(jobID string, success bool) error {
	now := time.Now()

	d.mu.Lock()
	if success {
		d.globalConsecutive = 0
		d.perJobConsecutive[jobID] = 0
	} else {
		d.globalConsecutive++
		d.perJobConsecutive[jobID]++
	}
	d.outcomes = append(d.outcomes, outcomeSample{at: now, success: success})
	d.outcomes = pruneOutcomes(d.outcomes, now, d.cfg.Window)
	globalConsecutive := d.globalConsecutive
	errRate := errorRate(d.outcomes)
	d.mu.Unlock()

	if globalConsecutive >= d.cfg.RepeatedFailures {
		ev := model.AnomalyEvent{
			Type:        model.AnomalyRepeatedFailures,
			Severity:    model.SeverityCritical,
			Description: "consecutive job failures exceeded threshold",
			Metrics:     map[string]any{"consecutive_failures": globalConsecutive},
			Timestamp:   now,
		}
		d.emit(ev)
		return &model.AnomalyDetected{Event: ev}
	}

	if errRate >= d.cfg.ErrorRateThreshold && len(d.outcomes) > 0 {
		ev := model.AnomalyEvent{
			Type:        model.AnomalyErrorRate,
			Severity:    model.SeverityError,
			Description: "error rate exceeded threshold over sliding window",
			Metrics:     map[string]any{"error_rate": errRate},
			Timestamp:   now,
		}
		d.emit(ev)
		// error rate is not itself one of the critical triggers, so it is
		// reported but does not force safe-mode entry by itself.
	}

	return nil
}

// RecordCPUSample evaluates the CPU-spike rule for one sample.
func (d *Detector) RecordCPUSample(cpuPercent float64) {
	if cpuPercent < d.cfg.CPUSpikeThreshold {
		return
	}
	d.emit(model.AnomalyEvent{
		Type:        model.AnomalyCPUSpike,
		Severity:    model.SeverityWarning,
		Description: "cpu usage spike",
		Metrics:     map[string]any{"cpu_percent": cpuPercent},
		Timestamp:   time.Now(),
	})
}

// RecordMemorySample evaluates the memory-leak rule: growth since the
// previous sample exceeding MemoryLeakMB. Growth is not accumulated across
// Window; a rise spread over several samples, each below MemoryLeakMB, does
// not fire the rule. The first sample only sets the baseline.
func (d *Detector) RecordMemorySample(memoryMB float64) {
	d.mu.Lock()
	growth := memoryMB - d.lastMemoryMB
	if d.lastMemoryMB == 0 {
		growth = 0
	}
	d.lastMemoryMB = memoryMB
	d.mu.Unlock()

	if growth < d.cfg.MemoryLeakMB {
		return
	}
	d.emit(model.AnomalyEvent{
		Type:        model.AnomalyMemoryLeak,
		Severity:    model.SeverityWarning,
		Description: "memory growth exceeded threshold",
		Metrics:     map[string]any{"growth_mb": growth},
		Timestamp:   time.Now(),
	})
}

func (d *Detector) emit(ev model.AnomalyEvent) {
	select {
	case d.events <- ev:
	default:
		// buffer full: drop rather than block recording (anomaly reporting
		// is best-effort, mirroring the audit/memory "never block" rule).
	}
}

func pruneOutcomes(outcomes []outcomeSample, now time.Time, window time.Duration) []outcomeSample {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(outcomes); i++ {
		if outcomes[i].at.After(cutoff) {
			break
		}
	}
	return outcomes[i:]
}

func errorRate(outcomes []outcomeSample) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	failures := 0
	for _, o := range outcomes {
		if !o.success {
			failures++
		}
	}
	return float64(failures) / float64(len(outcomes))
}
