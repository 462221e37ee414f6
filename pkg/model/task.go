package model

import "context"

// Result is what a Task.Execute call produces on success.
type Result struct {
	Summary string         `json:"summary"`
	Outputs map[string]any `json:"outputs,omitempty"`
}

// Task is the interface implemented by each autonomous task as a plain
// value, replacing the source's AutonomousTask base class. The Decision
// Loop is the only code that orchestrates Tasks; a Task contributes only
// these pure methods.
type Task interface {
	// Describe returns the task description used to build the autonomous
	// prompt and to query the Retriever.
	Describe() string

	// GatherState samples the task-defined current system state (e.g. CPU,
	// memory, disk for a health check; log directory sizes for cleanup).
	GatherState(ctx context.Context) (map[string]any, error)

	// EstimateResources returns an estimated-resources map checked against
	// the configured budget caps before execution.
	EstimateResources(ctx context.Context) (map[string]float64, error)

	// Execute performs the underlying operation. cancel is closed when the
	// cooperative cancellation token fires.
	Execute(ctx context.Context, inputs map[string]any, cancel <-chan struct{}) (Result, error)
}
