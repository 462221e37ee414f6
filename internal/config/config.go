/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package config loads cerebricd's on-disk configuration. Sources, in
// priority order: environment variables > YAML config file > defaults,
// mirroring the teacher's own env-over-file-over-default layering
// (internal/controlplane/config.Load).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cerebric/cerebric/pkg/model"
)

// Config holds every section cerebricd needs to wire its collaborators.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Guardrail GuardrailConfig `yaml:"guardrail"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Approval  ApprovalConfig  `yaml:"approval"`
	Decision  DecisionConfig  `yaml:"decision"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig locates cerebricd's on-disk state and its /healthz+/metrics
// listener.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`
	LogDir     string `yaml:"log_dir"`
	LogLevel   string `yaml:"log_level"`
	PolicyFile string `yaml:"policy_file"`
}

// GuardrailConfig configures the Guardrail Engine's budget caps, confidence
// thresholds, and anomaly-detection tuning.
type GuardrailConfig struct {
	Caps               model.BudgetCaps `yaml:"caps"`
	MinAutoExecute     float64          `yaml:"min_auto_execute"`
	MinApprovalExecute float64          `yaml:"min_approval_execute"`
	RepeatedFailures   int              `yaml:"repeated_failures"`
	ErrorRateThreshold float64          `yaml:"error_rate_threshold"`
	CPUSpikeThreshold  float64          `yaml:"cpu_spike_threshold"`
	MemoryLeakMB       float64          `yaml:"memory_leak_mb"`
	AnomalyWindow      time.Duration    `yaml:"anomaly_window"`
}

// SchedulerConfig tunes the scheduler's worker pool and polling cadence.
type SchedulerConfig struct {
	Workers       int           `yaml:"workers"`
	CheckInterval time.Duration `yaml:"check_interval"`
	QueueDepth    int           `yaml:"queue_depth"`
}

// ApprovalConfig selects the Approval Protocol's interaction mode and
// default timeout.
type ApprovalConfig struct {
	Mode    string        `yaml:"mode"` // cli | dashboard | auto
	Timeout time.Duration `yaml:"timeout"`
}

// DecisionConfig tunes the Decision Loop's model call defaults.
type DecisionConfig struct {
	TopK        int     `yaml:"top_k"`
	ModelID     string  `yaml:"model_id"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// TelemetryConfig configures the OTLP trace exporter.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Default returns Config populated with the same defaults
// decisionloop.Config.withDefaults/scheduler.DefaultConfig/
// guardrail.DefaultAnomalyConfig already fall back to, so a missing config
// file still produces a fully workable daemon.
func Default() Config {
	dataDir := filepath.Join(defaultConfigDir(), "..", "data")
	return Config{
		Server: ServerConfig{
			ListenAddr: ":8090",
			DataDir:    dataDir,
			LogDir:     filepath.Join(dataDir, "logs"),
			LogLevel:   "info",
			PolicyFile: filepath.Join(defaultConfigDir(), "policy.yaml"),
		},
		Guardrail: GuardrailConfig{
			Caps: model.BudgetCaps{
				CPUPercent:      50,
				MemoryMB:        512,
				DurationMinutes: 15,
				FrequencyPerHr:  12,
			},
			MinAutoExecute:     0.85,
			MinApprovalExecute: 0.5,
			RepeatedFailures:   3,
			ErrorRateThreshold: 0.5,
			CPUSpikeThreshold:  90,
			MemoryLeakMB:       512,
			AnomalyWindow:      time.Hour,
		},
		Scheduler: SchedulerConfig{
			Workers:       5,
			CheckInterval: 5 * time.Second,
			QueueDepth:    64,
		},
		Approval: ApprovalConfig{
			Mode:    "cli",
			Timeout: 30 * time.Minute,
		},
		Decision: DecisionConfig{
			TopK:        3,
			ModelID:     "default",
			MaxTokens:   512,
			Temperature: 0.3,
		},
	}
}

// defaultConfigDir mirrors CEREBRIC_CONFIG_DIR's own default:
// $XDG_CONFIG_HOME/cerebric, falling back to ~/.config/cerebric.
func defaultConfigDir() string {
	if dir := os.Getenv("CEREBRIC_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cerebric")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cerebric"
	}
	return filepath.Join(home, ".config", "cerebric")
}

// Load reads config.yaml from dir (or the default config dir if dir is
// empty), then overlays CEREBRIC_<SECTION>_<KEY> environment variables. A
// missing file is not an error — Default() alone is returned, overlaid by
// env.
func Load(dir string) (Config, error) {
	cfg := Default()

	if dir == "" {
		dir = defaultConfigDir()
	}
	path := filepath.Join(dir, "config.yaml")

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays the CEREBRIC_<SECTION>_<KEY> environment variables the
// spec's external interface names, following the teacher's flat
// one-if-per-variable style rather than a generic reflection-based walker.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CEREBRIC_SERVER_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("CEREBRIC_DATA_DIR"); v != "" {
		cfg.Server.DataDir = v
	}
	if v := os.Getenv("CEREBRIC_LOG_DIR"); v != "" {
		cfg.Server.LogDir = v
	}
	if v := os.Getenv("CEREBRIC_SERVER_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("CEREBRIC_SERVER_POLICY_FILE"); v != "" {
		cfg.Server.PolicyFile = v
	}
	if v := os.Getenv("CEREBRIC_GUARDRAIL_CPU_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Guardrail.Caps.CPUPercent = f
		}
	}
	if v := os.Getenv("CEREBRIC_GUARDRAIL_MEMORY_MB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Guardrail.Caps.MemoryMB = f
		}
	}
	if v := os.Getenv("CEREBRIC_GUARDRAIL_MIN_AUTO_EXECUTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Guardrail.MinAutoExecute = f
		}
	}
	if v := os.Getenv("CEREBRIC_GUARDRAIL_MIN_APPROVAL_EXECUTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Guardrail.MinApprovalExecute = f
		}
	}
	if v := os.Getenv("CEREBRIC_SCHEDULER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.Workers = n
		}
	}
	if v := os.Getenv("CEREBRIC_APPROVAL_MODE"); v != "" {
		cfg.Approval.Mode = v
	}
	if v := os.Getenv("CEREBRIC_DECISION_MODEL_ID"); v != "" {
		cfg.Decision.ModelID = v
	}
	if v := os.Getenv("CEREBRIC_TELEMETRY_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
}
