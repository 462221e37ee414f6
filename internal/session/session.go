/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package session replaces the source's global mutable current-profile
// state with an explicit value threaded through the Decision Loop,
// following the teacher's dependency-injected-struct style: a Runner is
// built once with its collaborators and passed explicit per-call config,
// never global state (internal/runner.Runner{client, assembler, log}).
// Here, switching the active profile allocates a new Session rather than
// mutating a shared global.
package session

import (
	"text/template"

	"github.com/cerebric/cerebric/internal/model"
)

// Session bundles everything that varies by active profile: which prompt
// template composes the autonomous prompt, which memory partition
// receives outcomes, and which model adapter answers Generate calls.
// Process-wide safe-mode is deliberately not part of Session — it remains
// a single atomic flag shared by every profile, per §9.
type Session struct {
	Profile         string
	PromptTemplate  *template.Template
	MemoryPartition string
	ModelAdapter    model.Provider
}

// New builds a Session for profile, setting MemoryPartition to the
// profile's own partition, profiles/<profile> (the memory store's
// per-profile partition layout at <data-dir>/memory/profiles/<profile>/).
func New(profile string, tmpl *template.Template, adapter model.Provider) Session {
	return Session{
		Profile:         profile,
		PromptTemplate:  tmpl,
		MemoryPartition: "profiles/" + profile,
		ModelAdapter:    adapter,
	}
}

// WithMemoryPartition returns a copy of s with MemoryPartition overridden,
// for callers that want a session's model/prompt but a different memory
// scope (e.g. writing to "shared" instead of the profile's own partition).
func (s Session) WithMemoryPartition(partition string) Session {
	s.MemoryPartition = partition
	return s
}
