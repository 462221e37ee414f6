/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package scheduler

import "sync"

// RunTracker enforces max_instances=1 per job and a process-wide worker
// cap. Grounded on the teacher's cmdtracker.Tracker map+mutex shape, minus
// the result-channel plumbing (a scheduler job result is persisted to the
// Store rather than delivered to a waiting caller).
type RunTracker struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// NewRunTracker returns an empty RunTracker.
func NewRunTracker() *RunTracker {
	return &RunTracker{running: map[string]struct{}{}}
}

// TryStart marks jobID as running if it is not already. Returns false if
// another instance of the same job is already in flight.
func (t *RunTracker) TryStart(jobID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[jobID]; ok {
		return false
	}
	t.running[jobID] = struct{}{}
	return true
}

// Complete marks jobID as no longer running.
func (t *RunTracker) Complete(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.running, jobID)
}

// IsRunning reports whether jobID currently has an instance in flight.
func (t *RunTracker) IsRunning(jobID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[jobID]
	return ok
}

// InFlightCount returns the number of jobs currently running.
func (t *RunTracker) InFlightCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.running)
}
