/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package main

import (
	"fmt"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/cerebric/cerebric/internal/approval"
	"github.com/cerebric/cerebric/internal/audit"
	"github.com/cerebric/cerebric/internal/config"
	"github.com/cerebric/cerebric/internal/guardrail"
	"github.com/cerebric/cerebric/internal/memory"
	"github.com/cerebric/cerebric/internal/scheduler"
)

// loadConfig reads cerebricd's config the same way the daemon does, so
// the CLI always agrees with the daemon about where state lives.
func loadConfig() (config.Config, error) {
	return config.Load(configDirFlag)
}

func openScheduler(cfg config.Config, log logr.Logger) (*scheduler.Scheduler, error) {
	store, err := scheduler.NewStore(filepath.Join(cfg.Server.DataDir, "scheduler"), log.WithName("scheduler-store"))
	if err != nil {
		return nil, fmt.Errorf("open scheduler store: %w", err)
	}
	return scheduler.New(store, nil, audit.New(filepath.Join(cfg.Server.DataDir, "audit"), log), log.WithName("scheduler"), scheduler.Config{
		Workers:       cfg.Scheduler.Workers,
		CheckInterval: cfg.Scheduler.CheckInterval,
		QueueDepth:    cfg.Scheduler.QueueDepth,
	}, nil), nil
}

func openApproval(cfg config.Config, log logr.Logger) *approval.Manager {
	mode := approval.Mode(cfg.Approval.Mode)
	if mode == "" {
		mode = approval.ModeCLI
	}
	return approval.NewManager(filepath.Join(cfg.Server.DataDir, "approval"), log.WithName("approval"), mode)
}

func openMemory(cfg config.Config) *memory.Store {
	return memory.New(filepath.Join(cfg.Server.DataDir, "memory"), "admin")
}

func openSafeMode(cfg config.Config, log logr.Logger) *guardrail.SafeMode {
	return guardrail.NewSafeMode(filepath.Join(cfg.Server.DataDir, "safe_mode_active.flag"), log.WithName("safemode"))
}

func noopLogger() logr.Logger {
	return logr.Discard()
}
