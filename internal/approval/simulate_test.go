package approval

import (
	"context"
	"strings"
	"testing"

	"github.com/cerebric/cerebric/pkg/model"
)

func TestSimulateFileWriteNewFileMarksCreate(t *testing.T) {
	s := NewSimulator()
	res := s.SimulateFileWrite("/etc/app/config.yml", "a: 1\n", "", false)
	if res.Changes[0].Kind != model.ChangeFileCreate {
		t.Fatalf("expected file_create, got %s", res.Changes[0].Kind)
	}
	if !res.Reversible {
		t.Fatal("new file write should be reversible (delete)")
	}
}

func TestSimulateFileWriteExistingFileMarksModify(t *testing.T) {
	s := NewSimulator()
	res := s.SimulateFileWrite("/etc/app/config.yml", "a: 2\n", "a: 1\n", true)
	if res.Changes[0].Kind != model.ChangeFileModify {
		t.Fatalf("expected file_modify, got %s", res.Changes[0].Kind)
	}
	if !strings.Contains(res.Changes[0].Diff, "-a: 1") || !strings.Contains(res.Changes[0].Diff, "+a: 2") {
		t.Fatalf("expected diff to show old/new lines, got %q", res.Changes[0].Diff)
	}
}

func TestSimulateCommandFlagsDangerousKeywords(t *testing.T) {
	s := NewSimulator()
	res := s.SimulateCommand(context.Background(), "rm -rf /var/cache", "")
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "DANGER") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a DANGER warning, got %v", res.Warnings)
	}
}

func TestSimulateServiceRestartListsService(t *testing.T) {
	s := NewSimulator()
	res := s.SimulateServiceRestart("nginx")
	if len(res.AffectedServices) != 1 || res.AffectedServices[0] != "nginx" {
		t.Fatalf("expected nginx in affected services, got %v", res.AffectedServices)
	}
	if !res.Reversible {
		t.Fatal("service restart should be reversible")
	}
}

func TestSimulateHardwareControlWarnsOnExtremes(t *testing.T) {
	s := NewSimulator()
	res := s.SimulateHardwareControl("cpu_fan", "/sys/class/hwmon/hwmon0/pwm1", 2000, 4500)
	if len(res.Warnings) == 0 {
		t.Fatal("expected a noise warning for a high target rpm")
	}
}

func TestSimulatePackageUpdateBuildsAptDryRunCommand(t *testing.T) {
	s := NewSimulator()
	res := s.SimulatePackageUpdate([]string{"curl", "jq"}, "apt")
	if !strings.Contains(res.Commands[0], "--dry-run") {
		t.Fatalf("expected apt dry-run flag, got %q", res.Commands[0])
	}
	if res.Reversible {
		t.Fatal("package update should not be marked reversible")
	}
}
