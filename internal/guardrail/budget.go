package guardrail

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cerebric/cerebric/pkg/model"
)

// CheckBudget compares an estimated-resources map against the configured
// caps. Any violation returns an error wrapping model.ErrBudgetExceeded
// listing every violation. A nil violation list means the estimate passed
// every cap (and should be audited by the caller as a pass).
func CheckBudget(estimate map[string]float64, caps model.BudgetCaps) error {
	var violations []string

	if v, ok := estimate["cpu_percent"]; ok && caps.CPUPercent > 0 && v > caps.CPUPercent {
		violations = append(violations, fmt.Sprintf("cpu_percent %.1f > %.1f", v, caps.CPUPercent))
	}
	if v, ok := estimate["memory_mb"]; ok && caps.MemoryMB > 0 && v > caps.MemoryMB {
		violations = append(violations, fmt.Sprintf("memory_mb %.1f > %.1f", v, caps.MemoryMB))
	}
	if v, ok := estimate["duration_minutes"]; ok && caps.DurationMinutes > 0 && v > caps.DurationMinutes {
		violations = append(violations, fmt.Sprintf("duration_minutes %.1f > %.1f", v, caps.DurationMinutes))
	}
	if v, ok := estimate["frequency_per_hour"]; ok && caps.FrequencyPerHr > 0 && int(v) > caps.FrequencyPerHr {
		violations = append(violations, fmt.Sprintf("frequency_per_hour %.0f > %d", v, caps.FrequencyPerHr))
	}

	if len(violations) > 0 {
		return &model.BudgetExceeded{Violations: violations}
	}
	return nil
}

// Tracker samples process resource usage during execution of a single job.
// Sampling is grounded on the teacher's periodic-sample idiom in
// internal/controlplane/reliability/scorecard.go, adapted to the spec's
// BudgetSnapshot shape instead of a reliability scorecard.
type Tracker struct {
	caps  model.BudgetCaps
	start time.Time
	sampleFn func() (cpuPercent, memoryMB float64, err error)

	mu       sync.Mutex
	samples  []model.BudgetSnapshot
	withinOK bool
}

// NewTracker creates a Tracker. sampleFn defaults to reading process stats
// from the Go runtime (see procstats.go) when nil.
func NewTracker(caps model.BudgetCaps, sampleFn func() (float64, float64, error)) *Tracker {
	if sampleFn == nil {
		sampleFn = SampleProcess
	}
	return &Tracker{caps: caps, start: time.Now(), sampleFn: sampleFn, withinOK: true}
}

// Start begins tracking and records the first sample.
func (t *Tracker) Start() error {
	t.start = time.Now()
	_, err := t.check()
	return err
}

// Check samples current usage; returns model.ErrBudgetExceeded if any cap
// is exceeded.
func (t *Tracker) Check() (model.BudgetSnapshot, error) {
	return t.check()
}

func (t *Tracker) check() (model.BudgetSnapshot, error) {
	cpu, mem, err := t.sampleFn()
	if err != nil {
		return model.BudgetSnapshot{}, fmt.Errorf("sample process stats: %w", err)
	}

	elapsed := time.Since(t.start).Seconds()
	snap := model.BudgetSnapshot{
		Timestamp:      time.Now(),
		CPUPercent:     cpu,
		MemoryMB:       mem,
		ElapsedSeconds: elapsed,
	}

	estimate := map[string]float64{
		"cpu_percent":      cpu,
		"memory_mb":        mem,
		"duration_minutes": elapsed / 60,
	}
	cerr := CheckBudget(estimate, t.caps)
	snap.WithinBudgets = cerr == nil

	t.mu.Lock()
	t.samples = append(t.samples, snap)
	if !snap.WithinBudgets {
		t.withinOK = false
	}
	t.mu.Unlock()

	if cerr != nil {
		return snap, cerr
	}
	return snap, nil
}

// Stop returns the cumulative samples and whether every sample stayed
// within budget.
func (t *Tracker) Stop() ([]model.BudgetSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.BudgetSnapshot(nil), t.samples...), t.withinOK
}

// Watch periodically samples until ctx is done, calling onViolation for
// every sample that exceeds a budget (callers that act only once keep their
// own first-violation guard). It is intended to run in its own goroutine
// alongside a job's execution.
func (t *Tracker) Watch(ctx context.Context, interval time.Duration, onViolation func(error)) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.check(); err != nil && onViolation != nil {
				onViolation(err)
			}
		}
	}
}
