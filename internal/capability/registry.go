/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package capability is a startup-time registry of optional collaborators
// (ModelProvider, Retriever) that the Decision Loop consults by name. No
// teacher file corresponds directly — the teacher always runs against a
// live Kubernetes API server and never needs to ask "is this collaborator
// even configured" — but the registry follows the teacher's
// constructor-plus-With*-method idiom from internal/engine.Engine
// (NewEngine(...).WithProtectionEngine(...).WithToolRegistry(...)),
// applied here to registering named capabilities instead of chaining
// fields onto one struct.
package capability

import (
	"fmt"
	"sync"

	"github.com/cerebric/cerebric/pkg/model"
)

// Registry holds named capability values, typed by the caller at lookup
// time via Get's generic parameter. A capability absent from the registry
// is reported as model.ErrCapabilityUnavailable rather than a nil
// interface, so callers branch on the typed error instead of a null check.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]any
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: map[string]any{}}
}

// Register associates name with impl, overwriting any prior registration.
// Register returns the Registry so callers can chain it the way the
// teacher chains With* calls off Engine.
func (r *Registry) Register(name string, impl any) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[name] = impl
	return r
}

// Names reports every registered capability name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.capabilities))
	for n := range r.capabilities {
		out = append(out, n)
	}
	return out
}

// Get looks up name and type-asserts it to T. A missing registration or a
// type mismatch both return model.ErrCapabilityUnavailable wrapped with
// the offending name.
func Get[T any](r *Registry, name string) (T, error) {
	var zero T
	r.mu.RLock()
	impl, ok := r.capabilities[name]
	r.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: %q not registered", model.ErrCapabilityUnavailable, name)
	}
	typed, ok := impl.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q registered with unexpected type", model.ErrCapabilityUnavailable, name)
	}
	return typed, nil
}

// Well-known capability names the Decision Loop looks up.
const (
	ModelProvider = "model_provider"
	Retriever     = "retriever"
	Alerter       = "alerter"
)
