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
	"path/filepath"
	"time"

	"github.com/cerebric/cerebric/pkg/model"
)

// LogCleanup analyzes log directory disk usage in GatherState and, when
// Execute is invoked with an approved max_age_days input, removes files
// older than that cutoff. Grounded on original_source's LogCleanupTask,
// generalized from a fixed directory list to a configurable one.
type LogCleanup struct {
	Directories []string
}

// DefaultLogCleanup returns a LogCleanup scanning the conventional Linux
// log locations, matching original_source's default directory list.
func DefaultLogCleanup() LogCleanup {
	return LogCleanup{Directories: []string{"/var/log", "/var/log/journal", "/var/log/nginx", "/var/log/apache2"}}
}

// Describe implements model.Task.
func (l LogCleanup) Describe() string {
	return "analyze log directory usage and clean up files past their retention age"
}

// GatherState implements model.Task.
func (l LogCleanup) GatherState(ctx context.Context) (map[string]any, error) {
	var dirs []map[string]any
	for _, dir := range l.Directories {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		var totalBytes int64
		var fileCount int
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if fi, statErr := d.Info(); statErr == nil {
				totalBytes += fi.Size()
				fileCount++
			}
			return nil
		})
		dirs = append(dirs, map[string]any{
			"path":       dir,
			"size_bytes": totalBytes,
			"file_count": fileCount,
		})
	}
	return map[string]any{"directories": dirs}, nil
}

// EstimateResources implements model.Task.
func (l LogCleanup) EstimateResources(ctx context.Context) (map[string]float64, error) {
	return map[string]float64{"cpu_percent": 5, "memory_mb": 30, "duration_minutes": 2}, nil
}

// Execute implements model.Task. inputs["max_age_days"] (float64) selects
// the retention cutoff; files older than it are removed. Without that
// input, Execute performs a no-op analysis pass only — it never deletes
// anything without an explicit, approved age threshold.
func (l LogCleanup) Execute(ctx context.Context, inputs map[string]any, cancel <-chan struct{}) (model.Result, error) {
	maxAgeDays, ok := floatInput(inputs, "max_age_days")
	if !ok {
		state, err := l.GatherState(ctx)
		if err != nil {
			return model.Result{}, err
		}
		return model.Result{Summary: "log analysis only, no max_age_days provided", Outputs: state}, nil
	}

	cutoff := time.Now().Add(-time.Duration(maxAgeDays*24) * time.Hour)
	var removed []string
	var removedBytes int64

	for _, dir := range l.Directories {
		select {
		case <-cancel:
			return model.Result{}, fmt.Errorf("log cleanup cancelled")
		default:
		}
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			fi, statErr := d.Info()
			if statErr != nil || fi.ModTime().After(cutoff) {
				return nil
			}
			if rmErr := os.Remove(path); rmErr == nil {
				removed = append(removed, path)
				removedBytes += fi.Size()
			}
			return nil
		})
	}

	return model.Result{
		Summary: fmt.Sprintf("removed %d file(s) older than %.1f days", len(removed), maxAgeDays),
		Outputs: map[string]any{"removed_files": removed, "removed_bytes": removedBytes},
	}, nil
}

func floatInput(inputs map[string]any, key string) (float64, bool) {
	v, ok := inputs[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
