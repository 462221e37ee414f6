/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package task provides the built-in Task implementations the scheduler
// dispatches by name, plus a small registry tying a job's Task string to
// the value that implements it.
package task

import (
	"fmt"
	"sync"

	"github.com/cerebric/cerebric/pkg/model"
)

// Registry maps a job's Task name to the model.Task implementing it.
// Concurrency-safe for read-mostly use: tasks are normally registered once
// at startup and looked up frequently thereafter.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: map[string]model.Task{}}
}

// Register adds or replaces the Task bound to name.
func (r *Registry) Register(name string, t model.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = t
}

// Lookup returns the Task bound to name, or an error naming it if absent —
// the scheduler treats an unknown task name as a job configuration error,
// not a transient failure worth retrying.
func (r *Registry) Lookup(name string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("unknown task %q", name)
	}
	return t, nil
}

// Names returns the currently registered task names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tasks))
	for n := range r.tasks {
		out = append(out, n)
	}
	return out
}
