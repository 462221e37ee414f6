/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package task

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/cerebric/cerebric/pkg/model"
)

// HealthCheck gathers coarse system health (disk, load average, memory)
// and reports it as its Result — it never mutates anything, so its
// Execute always succeeds once GatherState succeeds. Grounded on
// original_source's SystemHealthCheckTask, minus the psutil dependency
// (no equivalent process-stats library appears in this project's
// dependency set, so /proc and syscall.Statfs are used directly — the
// same stdlib-only trade-off internal/guardrail/procstats.go makes).
type HealthCheck struct {
	// Root is the filesystem root to report disk usage for. Defaults to "/".
	Root string
}

// Describe implements model.Task.
func (h HealthCheck) Describe() string {
	return "system health check: disk, memory, and load average"
}

// GatherState implements model.Task.
func (h HealthCheck) GatherState(ctx context.Context) (map[string]any, error) {
	root := h.Root
	if root == "" {
		root = "/"
	}

	state := map[string]any{}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(root, &stat); err == nil {
		total := stat.Blocks * uint64(stat.Bsize)
		free := stat.Bfree * uint64(stat.Bsize)
		used := total - free
		state["disk_total_bytes"] = total
		state["disk_free_bytes"] = free
		if total > 0 {
			state["disk_percent"] = float64(used) / float64(total) * 100
		}
	} else {
		state["disk_error"] = err.Error()
	}

	if load, err := readLoadAvg(); err == nil {
		state["load_avg_1m"] = load[0]
		state["load_avg_5m"] = load[1]
		state["load_avg_15m"] = load[2]
	}

	if memTotal, memAvail, err := readMemInfo(); err == nil {
		state["memory_total_kb"] = memTotal
		state["memory_available_kb"] = memAvail
		if memTotal > 0 {
			state["memory_percent"] = float64(memTotal-memAvail) / float64(memTotal) * 100
		}
	}

	return state, nil
}

// EstimateResources implements model.Task. A health check is read-only and
// near-instant, so its resource footprint is negligible.
func (h HealthCheck) EstimateResources(ctx context.Context) (map[string]float64, error) {
	return map[string]float64{"cpu_percent": 1, "memory_mb": 10, "duration_minutes": 0.1}, nil
}

// Execute implements model.Task. It re-gathers state (the Decision Loop
// may have consulted it minutes earlier) and returns it as the outcome
// summary; there is nothing else to apply.
func (h HealthCheck) Execute(ctx context.Context, inputs map[string]any, cancel <-chan struct{}) (model.Result, error) {
	state, err := h.GatherState(ctx)
	if err != nil {
		return model.Result{}, err
	}
	return model.Result{Summary: "health check complete", Outputs: state}, nil
}

func readLoadAvg() ([3]float64, error) {
	var out [3]float64
	b, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return out, err
	}
	fields := strings.Fields(string(b))
	if len(fields) < 3 {
		return out, fmt.Errorf("unexpected /proc/loadavg format")
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func readMemInfo() (totalKB, availableKB int64, err error) {
	b, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, 0, err
	}
	for _, line := range strings.Split(string(b), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB, _ = strconv.ParseInt(fields[1], 10, 64)
		case "MemAvailable:":
			availableKB, _ = strconv.ParseInt(fields[1], 10, 64)
		}
	}
	return totalKB, availableKB, nil
}
