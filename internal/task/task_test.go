package task

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cerebric/cerebric/pkg/model"
)

func TestRegistryLookupUnknownTaskErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Lookup("missing"); err == nil {
		t.Fatal("expected error for unknown task")
	}
}

func TestRegistryRegisterThenLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("noop", NoopTask{ResultOut: model.Result{Summary: "ok"}})
	got, err := r.Lookup("noop")
	if err != nil {
		t.Fatal(err)
	}
	res, err := got.Execute(context.Background(), nil, nil)
	if err != nil || res.Summary != "ok" {
		t.Fatalf("unexpected execute result: %+v err=%v", res, err)
	}
}

func TestHealthCheckGatherStateReturnsMetrics(t *testing.T) {
	h := HealthCheck{}
	state, err := h.GatherState(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := state["disk_percent"]; !ok {
		if _, ok := state["disk_error"]; !ok {
			t.Fatal("expected either disk_percent or disk_error in state")
		}
	}
}

func TestLogCleanupWithoutMaxAgeIsAnalysisOnly(t *testing.T) {
	dir := t.TempDir()
	l := LogCleanup{Directories: []string{dir}}
	res, err := l.Execute(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary == "" {
		t.Fatal("expected a summary")
	}
}

func TestLogCleanupRemovesFilesPastCutoff(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.log")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	oldTime := time.Now().Add(-10 * 24 * time.Hour)
	if err := os.Chtimes(old, oldTime, oldTime); err != nil {
		t.Fatal(err)
	}

	l := LogCleanup{Directories: []string{dir}}
	res, err := l.Execute(context.Background(), map[string]any{"max_age_days": float64(5)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old.log to be removed, stat err=%v", err)
	}
	if res.Summary == "" {
		t.Fatal("expected a summary describing the cleanup")
	}
}
