/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.ListenAddr != ":8090" {
		t.Errorf("ListenAddr = %q, want :8090", cfg.Server.ListenAddr)
	}
	if cfg.Scheduler.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Scheduler.Workers)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  listen_addr: ":9999"
scheduler:
  workers: 9
approval:
  mode: auto
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", cfg.Server.ListenAddr)
	}
	if cfg.Scheduler.Workers != 9 {
		t.Errorf("Workers = %d, want 9", cfg.Scheduler.Workers)
	}
	if cfg.Approval.Mode != "auto" {
		t.Errorf("Approval.Mode = %q, want auto", cfg.Approval.Mode)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "server:\n  listen_addr: \":9999\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CEREBRIC_SERVER_LISTEN_ADDR", ":7000")
	t.Setenv("CEREBRIC_SCHEDULER_WORKERS", "3")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.ListenAddr != ":7000" {
		t.Errorf("ListenAddr = %q, want :7000 (env override)", cfg.Server.ListenAddr)
	}
	if cfg.Scheduler.Workers != 3 {
		t.Errorf("Workers = %d, want 3 (env override)", cfg.Scheduler.Workers)
	}
}
