/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// cerebricd is the supervisor daemon: it loads configuration, wires every
// collaborator the Decision Loop needs (guardrails, memory, approval,
// audit, the task registry, MCP tool servers), starts the scheduler, and
// serves /healthz and /metrics for cerebric-probe and Prometheus.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/template"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cerebric/cerebric/internal/approval"
	"github.com/cerebric/cerebric/internal/audit"
	"github.com/cerebric/cerebric/internal/capability"
	"github.com/cerebric/cerebric/internal/config"
	"github.com/cerebric/cerebric/internal/decisionloop"
	"github.com/cerebric/cerebric/internal/guardrail"
	llm "github.com/cerebric/cerebric/internal/model"
	"github.com/cerebric/cerebric/internal/mcp"
	"github.com/cerebric/cerebric/internal/memory"
	"github.com/cerebric/cerebric/internal/metrics"
	"github.com/cerebric/cerebric/internal/notify"
	"github.com/cerebric/cerebric/internal/policy"
	"github.com/cerebric/cerebric/internal/scheduler"
	"github.com/cerebric/cerebric/internal/session"
	"github.com/cerebric/cerebric/internal/task"
	"github.com/cerebric/cerebric/internal/telemetry"
	"github.com/cerebric/cerebric/internal/tool"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configDir := flag.String("config-dir", "", "directory holding config.yaml (defaults to $XDG_CONFIG_HOME/cerebric)")
	flag.Parse()

	zapLog, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := zapr.NewLogger(zapLog).WithName("cerebricd")

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Error(err, "failed to load config")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(err, "cerebricd exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logr.Logger) error {
	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	shutdownTracing, err := telemetry.InitTraceProvider(ctx, cfg.Telemetry.OTLPEndpoint, version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	auditLog := audit.New(filepath.Join(cfg.Server.DataDir, "audit"), log)
	memStore := memory.New(filepath.Join(cfg.Server.DataDir, "memory"), "admin")
	retriever := memory.NewNaiveRetriever(memStore, memory.PartitionRuntime, "action_outcomes.jsonl", "anomalies.jsonl")

	safeMode := guardrail.NewSafeMode(filepath.Join(cfg.Server.DataDir, "safe_mode_active.flag"), log.WithName("safemode"))
	detector := guardrail.NewDetector(guardrail.AnomalyConfig{
		RepeatedFailures:   cfg.Guardrail.RepeatedFailures,
		ErrorRateThreshold: cfg.Guardrail.ErrorRateThreshold,
		CPUSpikeThreshold:  cfg.Guardrail.CPUSpikeThreshold,
		MemoryLeakMB:       cfg.Guardrail.MemoryLeakMB,
		Window:             cfg.Guardrail.AnomalyWindow,
	})
	thresholds := guardrail.ConfidenceThresholds{
		MinAutoExecute:     cfg.Guardrail.MinAutoExecute,
		MinApprovalExecute: cfg.Guardrail.MinApprovalExecute,
	}
	guard := guardrail.NewEngine(thresholds, cfg.Guardrail.Caps, detector, safeMode)

	notifyRouter := notify.NewRouter(notify.SeverityRoute{}, notify.NewRateLimiter(20), log.WithName("notify"))
	recoverer := guardrail.NewRecoverer(log.WithName("recovery"), notifyRouter, safeMode, nil)

	approvalMode := approval.Mode(cfg.Approval.Mode)
	if approvalMode == "" {
		approvalMode = approval.ModeCLI
	}
	approvals := approval.NewManager(filepath.Join(cfg.Server.DataDir, "approval"), log.WithName("approval"), approvalMode)

	policyDoc, err := policy.Load(cfg.Server.PolicyFile)
	if err != nil {
		log.Info("no policy document loaded, every action governed only by guardrails", "path", cfg.Server.PolicyFile, "reason", err.Error())
	}

	if watcher, err := config.NewWatcher(cfg.Server.PolicyFile, log); err != nil {
		log.Info("policy hot-reload disabled", "reason", err.Error())
	} else {
		defer watcher.Close()
		go watcher.Run(ctx, func() {
			reloaded, err := policy.Load(cfg.Server.PolicyFile)
			if err != nil {
				log.Error(err, "policy reload failed, keeping previous document")
				return
			}
			policyDoc = reloaded
			log.Info("policy document reloaded", "path", cfg.Server.PolicyFile)
		})
	}

	tasks := task.NewRegistry()
	tasks.Register("health_check", task.HealthCheck{})
	tasks.Register("log_cleanup", task.DefaultLogCleanup())
	tasks.Register("noop", task.NoopTask{})

	caps := capability.NewRegistry()
	caps.Register(capability.ModelProvider, llm.Provider(llm.Stub{}))
	caps.Register(capability.Retriever, memory.Retriever(retriever))
	caps.Register(capability.Alerter, notifyRouter)

	toolRegistry := tool.NewRegistry()
	mcpManager := mcp.NewManager(log.WithName("mcp"))
	if err := mcpManager.ConnectAll(ctx, map[string]mcp.ServerSpec{}); err != nil {
		log.Info("mcp server connection pass reported errors", "reason", err.Error())
	}
	defer mcpManager.Close()
	toolCount := mcpManager.RegisterTools(toolRegistry)
	log.Info("mcp tools registered", "count", toolCount)

	defaultSession := session.New("admin", template.New("default"), llm.Stub{}).WithMemoryPartition(memory.PartitionRuntime)

	store, err := scheduler.NewStore(filepath.Join(cfg.Server.DataDir, "scheduler"), log.WithName("scheduler-store"))
	if err != nil {
		return fmt.Errorf("open scheduler store: %w", err)
	}

	loop := decisionloop.New(
		tasks,
		caps,
		guard,
		recoverer,
		detector,
		policyDoc,
		approvals,
		auditLog,
		memStore,
		log.WithName("decisionloop"),
		decisionloop.Config{
			TopK:            cfg.Decision.TopK,
			ApprovalTimeout: cfg.Approval.Timeout,
			ModelID:         cfg.Decision.ModelID,
			MaxTokens:       cfg.Decision.MaxTokens,
			Temperature:     cfg.Decision.Temperature,
		},
		defaultSession,
	)

	sched := scheduler.New(store, tasks, auditLog, log.WithName("scheduler"), scheduler.Config{
		Workers:       cfg.Scheduler.Workers,
		CheckInterval: cfg.Scheduler.CheckInterval,
		QueueDepth:    cfg.Scheduler.QueueDepth,
	}, nil).WithDecisionFunc(loop.Run)

	sched.Start(ctx)
	defer sched.Stop()

	srv := newHTTPServer(cfg.Server.ListenAddr, sched, safeMode)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "http server stopped unexpectedly")
		}
	}()
	log.Info("cerebricd started", "version", version, "commit", commit, "built", date, "listen_addr", cfg.Server.ListenAddr)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func newHTTPServer(addr string, sched *scheduler.Scheduler, safeMode *guardrail.SafeMode) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := sched.Status()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"safe_mode":   safeMode.IsActive(),
			"in_flight":   status.InFlight,
			"queue_depth": status.QueueBacklog,
		})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux}
}
