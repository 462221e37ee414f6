/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package approval

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cerebric/cerebric/pkg/model"
)

// dangerousCommandKeywords flags commands that should never be auto-approved
// regardless of their simulated dry-run output.
var dangerousCommandKeywords = []string{"rm -rf", "dd if=", "mkfs", "fdisk", ":(){:|:&};:"}

// Simulator computes SimulationResult values for the five action kinds a
// task may propose, without applying any of them. It is a pure function of
// its inputs plus (for commands) a short-lived dry-run subprocess.
type Simulator struct{}

// NewSimulator returns a ready-to-use Simulator. It holds no state.
func NewSimulator() *Simulator { return &Simulator{} }

// SimulateFileWrite mirrors the diff shown to an approver before a file is
// written. currentContent is "" when the file does not yet exist.
func (s *Simulator) SimulateFileWrite(path, newContent, currentContent string, exists bool) model.SimulationResult {
	if !exists {
		diff := "+++ " + path + " (new file)\n\n" + prefixLines(newContent, "+ ")
		return model.SimulationResult{
			Changes: []model.Change{{
				Kind: model.ChangeFileCreate,
				Target: path,
				Diff:   diff,
			}},
			AffectedFiles:     []string{path},
			Warnings:          []string{"new file will be created: " + path},
			Commands:          []string{fmt.Sprintf("write_file(%q, <content>)", path)},
			EstimatedDuration: 100 * time.Millisecond,
			Reversible:        true,
			RollbackStrategy:  "delete " + path,
		}
	}

	diff := unifiedDiff(path, currentContent, newContent)
	return model.SimulationResult{
		Changes: []model.Change{{
			Kind: model.ChangeFileModify,
			Target: path,
			Diff:   diff,
		}},
		AffectedFiles:     []string{path},
		Commands:          []string{fmt.Sprintf("write_file(%q, <content>)", path)},
		EstimatedDuration: 100 * time.Millisecond,
		Reversible:        true,
		RollbackStrategy:  "restore " + path + " from backup",
	}
}

// SimulateCommand probes command with dryRunFlag appended (if any), and
// scans for dangerous keywords regardless of whether the probe ran.
func (s *Simulator) SimulateCommand(ctx context.Context, command, dryRunFlag string) model.SimulationResult {
	var warnings []string
	for _, kw := range dangerousCommandKeywords {
		if strings.Contains(command, kw) {
			warnings = append(warnings, fmt.Sprintf("DANGER: command contains %q", kw))
		}
	}

	if dryRunFlag != "" {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		full := command + " " + dryRunFlag
		out, err := exec.CommandContext(probeCtx, "sh", "-c", full).CombinedOutput()
		if err == nil {
			return model.SimulationResult{
				Changes: []model.Change{{
					Kind:        model.ChangeCommand,
					Target:      command,
					Description: string(out),
				}},
				Commands:          []string{command},
				Warnings:          warnings,
				EstimatedDuration: time.Second,
				Reversible:        false,
			}
		}
		warnings = append(warnings, "dry-run probe failed: "+err.Error())
	}

	warnings = append(warnings, "cannot preview command output (no dry-run support)")
	return model.SimulationResult{
		Changes: []model.Change{{
			Kind:        model.ChangeCommand,
			Target:      command,
			Description: "dry-run not available for this command",
		}},
		Commands:          []string{command},
		Warnings:          warnings,
		EstimatedDuration: time.Second,
		Reversible:        false,
	}
}

// SimulateServiceRestart synthesizes the stop/wait/start/wait step sequence
// systemd would run, without invoking systemctl.
func (s *Simulator) SimulateServiceRestart(service string) model.SimulationResult {
	steps := fmt.Sprintf("1. stop %s\n2. wait for graceful shutdown (~5s)\n3. start %s\n4. wait for healthy status (~10s)", service, service)
	return model.SimulationResult{
		Changes: []model.Change{{
			Kind:        model.ChangeServiceRestart,
			Target:      service,
			Description: steps,
		}},
		AffectedServices:  []string{service},
		Warnings:          []string{fmt.Sprintf("service %q will be briefly unavailable (~15s)", service), "active connections may be dropped"},
		Commands:          []string{"systemctl restart " + service},
		EstimatedDuration: 15 * time.Second,
		Reversible:        true,
		RollbackStrategy:  "systemctl start " + service + " (if restart fails)",
	}
}

// SimulateHardwareControl converts a named hardware parameter change (e.g.
// fan speed) expressed in RPM into the PWM write it would perform against
// hwmonPath, without writing it.
func (s *Simulator) SimulateHardwareControl(device, hwmonPath string, currentRPM, targetRPM int) model.SimulationResult {
	currentPWM := int((float64(currentRPM) / 5000) * 255)
	targetPWM := int((float64(targetRPM) / 5000) * 255)

	var warnings []string
	if targetRPM > 4000 {
		warnings = append(warnings, "high fan speed may be noisy")
	}
	if targetRPM < 1000 {
		warnings = append(warnings, "low fan speed may cause overheating")
	}

	return model.SimulationResult{
		Changes: []model.Change{{
			Kind:   model.ChangeHardwareControl,
			Target: device,
			Before: fmt.Sprintf("%d RPM (PWM %d)", currentRPM, currentPWM),
			After:  fmt.Sprintf("%d RPM (PWM %d)", targetRPM, targetPWM),
		}},
		AffectedFiles:     []string{hwmonPath},
		Warnings:          warnings,
		Commands:          []string{fmt.Sprintf("echo %d > %s", targetPWM, hwmonPath)},
		EstimatedDuration: 500 * time.Millisecond,
		Reversible:        true,
		RollbackStrategy:  fmt.Sprintf("echo %d > %s", currentPWM, hwmonPath),
	}
}

// SimulatePackageUpdate builds the package-manager-appropriate dry-run
// command for a batch of packages.
func (s *Simulator) SimulatePackageUpdate(packages []string, manager string) model.SimulationResult {
	joined := strings.Join(packages, " ")
	var cmd string
	switch manager {
	case "apt":
		cmd = "apt-get install --dry-run " + joined
	case "dnf":
		cmd = "dnf update --assumeno " + joined
	case "pacman":
		cmd = "pacman -S --print " + joined
	default:
		cmd = "update " + joined
	}

	return model.SimulationResult{
		Changes: []model.Change{{
			Kind:        model.ChangePackageUpdate,
			Target:      joined,
			Description: fmt.Sprintf("%d package(s)", len(packages)),
		}},
		Warnings:          []string{fmt.Sprintf("%d package(s) will be updated", len(packages)), "system may require reboot if kernel is updated"},
		Commands:          []string{cmd},
		EstimatedDuration: 60 * time.Second,
		Reversible:        false,
		RollbackStrategy:  "package downgrade possible but complex",
	}
}

func prefixLines(content, prefix string) string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// unifiedDiff produces a minimal line-based diff good enough for an
// approver to review. It does not attempt to find a minimal edit script —
// it shows full old/new blocks, which original_source's difflib-based
// simulator approximates more tightly but which is not worth a diff
// algorithm dependency for an approval-preview string.
func unifiedDiff(path, oldContent, newContent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s (current)\n", path)
	fmt.Fprintf(&b, "+++ %s (new)\n", path)
	for _, l := range strings.Split(oldContent, "\n") {
		fmt.Fprintf(&b, "-%s\n", l)
	}
	for _, l := range strings.Split(newContent, "\n") {
		fmt.Fprintf(&b, "+%s\n", l)
	}
	return b.String()
}
