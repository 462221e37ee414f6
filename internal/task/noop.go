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

	"github.com/cerebric/cerebric/pkg/model"
)

// NoopTask does nothing; it exists so scheduler and decision-loop tests
// can exercise the full pipeline without touching the real filesystem or
// system state.
type NoopTask struct {
	StateOut     map[string]any
	EstimateOut  map[string]float64
	ResultOut    model.Result
	GatherErr    error
	EstimateErr  error
	ExecuteErr   error
}

// Describe implements model.Task.
func (n NoopTask) Describe() string { return "no-op task" }

// GatherState implements model.Task.
func (n NoopTask) GatherState(ctx context.Context) (map[string]any, error) {
	return n.StateOut, n.GatherErr
}

// EstimateResources implements model.Task.
func (n NoopTask) EstimateResources(ctx context.Context) (map[string]float64, error) {
	return n.EstimateOut, n.EstimateErr
}

// Execute implements model.Task.
func (n NoopTask) Execute(ctx context.Context, inputs map[string]any, cancel <-chan struct{}) (model.Result, error) {
	if n.ExecuteErr != nil {
		return model.Result{}, n.ExecuteErr
	}
	return n.ResultOut, nil
}
