package guardrail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/cerebric/cerebric/pkg/model"
)

func TestGateConfidenceBoundaries(t *testing.T) {
	th := ConfidenceThresholds{MinAutoExecute: 0.80, MinApprovalExecute: 0.50}

	if o, err := GateConfidence(0.80, th); err != nil || o != AllowAuto {
		t.Fatalf("expected inclusive auto-allow at threshold, got outcome=%v err=%v", o, err)
	}
	if o, err := GateConfidence(0.95, th); err != nil || o != AllowAuto {
		t.Fatalf("expected auto-allow above threshold, got outcome=%v err=%v", o, err)
	}
	if o, err := GateConfidence(0.60, th); err != nil || o != RequireApproval {
		t.Fatalf("expected require-approval in [0.50,0.80), got outcome=%v err=%v", o, err)
	}
	if _, err := GateConfidence(0.30, th); !errors.Is(err, model.ErrGuardrailViolation) {
		t.Fatalf("expected guardrail violation below approval threshold, got %v", err)
	}
}

func TestCheckBudgetReportsAllViolations(t *testing.T) {
	caps := model.BudgetCaps{CPUPercent: 50, MemoryMB: 100}
	err := CheckBudget(map[string]float64{"cpu_percent": 90, "memory_mb": 200}, caps)
	if !errors.Is(err, model.ErrBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
	var be *model.BudgetExceeded
	if !errors.As(err, &be) {
		t.Fatal("expected to unwrap to *BudgetExceeded")
	}
	if len(be.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(be.Violations), be.Violations)
	}
}

func TestCheckBudgetPassesWithinCaps(t *testing.T) {
	caps := model.BudgetCaps{CPUPercent: 50, MemoryMB: 100}
	if err := CheckBudget(map[string]float64{"cpu_percent": 10, "memory_mb": 20}, caps); err != nil {
		t.Fatalf("expected no violation, got %v", err)
	}
}

func TestDetectorRaisesAnomalyAfterNConsecutiveFailures(t *testing.T) {
	d := NewDetector(AnomalyConfig{RepeatedFailures: 3})

	if err := d.RecordOutcome("job1", false); err != nil {
		t.Fatalf("unexpected anomaly on 1st failure: %v", err)
	}
	if err := d.RecordOutcome("job2", false); err != nil {
		t.Fatalf("unexpected anomaly on 2nd failure: %v", err)
	}
	err := d.RecordOutcome("job3", false)
	var ad *model.AnomalyDetected
	if !errors.As(err, &ad) {
		t.Fatalf("expected AnomalyDetected on 3rd consecutive failure, got %v", err)
	}
	if ad.Event.Type != model.AnomalyRepeatedFailures || ad.Event.Severity != model.SeverityCritical {
		t.Fatalf("unexpected event: %+v", ad.Event)
	}
}

func TestDetectorResetsOnSuccess(t *testing.T) {
	d := NewDetector(AnomalyConfig{RepeatedFailures: 2})
	_ = d.RecordOutcome("job1", false)
	_ = d.RecordOutcome("job1", true)
	if err := d.RecordOutcome("job1", false); err != nil {
		t.Fatalf("expected no anomaly after a success reset the streak, got %v", err)
	}
}

func TestSafeModeLifecycleSurvivesMarkerFile(t *testing.T) {
	dir := t.TempDir()
	marker := dir + "/safe_mode_active.flag"

	sm := NewSafeMode(marker, logr.Discard())
	if sm.IsActive() {
		t.Fatal("expected inactive initially")
	}
	if err := sm.Enter("anomaly: repeated_failures"); err != nil {
		t.Fatal(err)
	}
	if !sm.IsActive() {
		t.Fatal("expected active after Enter")
	}

	// Simulate a restart: a fresh SafeMode value reading the same marker path.
	sm2 := NewSafeMode(marker, logr.Discard())
	if !sm2.IsActive() {
		t.Fatal("expected safe mode to survive process restart via marker file")
	}

	if _, err := sm2.Exit("operator"); err != nil {
		t.Fatal(err)
	}
	if sm2.IsActive() {
		t.Fatal("expected inactive after Exit")
	}
}

func TestRecovererPauseAutonomyEntersSafeMode(t *testing.T) {
	dir := t.TempDir()
	sm := NewSafeMode(dir+"/marker.flag", logr.Discard())
	rec := NewRecoverer(logr.Discard(), nil, sm, nil)

	records := rec.Recover(context.Background(), model.AnomalyEvent{Type: model.AnomalyRepeatedFailures, Severity: model.SeverityCritical}, []model.RecoveryActionKind{
		model.RecoveryAlertUser, model.RecoveryPauseAutonomy,
	})
	if len(records) != 2 {
		t.Fatalf("expected 2 recovery records, got %d", len(records))
	}
	if !records[1].Success {
		t.Fatalf("expected pause_autonomy to succeed: %+v", records[1])
	}
	if !sm.IsActive() {
		t.Fatal("expected safe mode to be active after pause_autonomy recovery")
	}
}

func TestAnomalyEventTimestampIsSet(t *testing.T) {
	d := NewDetector(AnomalyConfig{})
	d.RecordCPUSample(99)
	select {
	case ev := <-d.Events():
		if ev.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be set")
		}
	case <-time.After(time.Second):
		t.Fatal("expected a cpu spike event")
	}
}
