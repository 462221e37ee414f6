/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package approval implements the human-in-the-loop approval workflow for
// actions a Decision carries with RequiresApproval set. A request is
// persisted to disk as pending, a human decides it out of band (cli,
// dashboard, or an auto-approve policy for tests), and Manager.Await polls
// for the terminal state exactly the way the teacher's approval.Manager
// polls an ApprovalRequest CRD — minus the Kubernetes API server, since a
// single-host agent has no cluster to poll.
package approval

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/cerebric/cerebric/pkg/model"
)

// Mode selects how a pending request is expected to be decided.
type Mode string

const (
	ModeCLI       Mode = "cli"
	ModeDashboard Mode = "dashboard"
	ModeAuto      Mode = "auto"
)

// Manager creates, persists, and polls ApprovalRequests under dataDir.
// Requests live at <dataDir>/requests/<id>.json while pending; once
// decided they move to <dataDir>/history/<id>_<timestamp>.json, mirroring
// the teacher's pattern of keeping a small live set and an append-only
// archive.
type Manager struct {
	dataDir      string
	log          logr.Logger
	pollInterval time.Duration
	mode         Mode
}

// NewManager wires a Manager rooted at dataDir (typically
// <data-dir>/approval). mode governs default behavior when nothing ever
// decides the request explicitly — ModeAuto approves low/medium risk and
// denies high risk automatically, for headless operation and tests.
func NewManager(dataDir string, log logr.Logger, mode Mode) *Manager {
	return &Manager{dataDir: dataDir, log: log, pollInterval: 2 * time.Second, mode: mode}
}

func (m *Manager) requestPath(id string) string {
	return filepath.Join(m.dataDir, "requests", id+".json")
}

func (m *Manager) historyPath(id string, ts time.Time) string {
	return filepath.Join(m.dataDir, "history", fmt.Sprintf("%s_%d.json", id, ts.UnixNano()))
}

// Create persists a new pending ApprovalRequest and returns it. requiresTyped
// controls whether a typed-confirmation token is attached — per P4, high
// risk and destructive-mutation-shaped actions require one.
func (m *Manager) Create(req model.ApprovalRequest, requiresTyped bool, timeout time.Duration) (model.ApprovalRequest, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = model.ApprovalPending
	req.RequestedAt = time.Now().UTC()
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	req.ExpiresAt = req.RequestedAt.Add(timeout)

	if requiresTyped {
		token, err := generateTypedConfirmationToken()
		if err != nil {
			return model.ApprovalRequest{}, fmt.Errorf("generate typed confirmation token: %w", err)
		}
		req.TypedConfirmationToken = token
	}

	if err := writeJSONAtomic(m.requestPath(req.ID), req); err != nil {
		return model.ApprovalRequest{}, err
	}
	m.log.Info("approval request created", "id", req.ID, "task", req.Task, "action", req.Action, "typed_confirmation", requiresTyped)
	return req, nil
}

// Await blocks until req reaches a terminal state (approved, rejected, or
// expired) or ctx is cancelled, polling the on-disk request file for a
// decision the way the teacher polls an ApprovalRequest's status subresource.
func (m *Manager) Await(ctx context.Context, id string) (model.ApprovalRequest, error) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		cur, err := m.load(id)
		if err != nil {
			return model.ApprovalRequest{}, err
		}

		if cur.Status != model.ApprovalPending {
			return cur, nil
		}
		if cur.Expired(time.Now()) {
			return m.expire(cur)
		}

		select {
		case <-ctx.Done():
			expired, _ := m.expire(cur)
			return expired, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Decide applies an approve/reject decision to a pending request. For
// approvals requiring typed confirmation, typedConfirmation must match the
// stored token exactly.
func (m *Manager) Decide(id string, approve bool, decidedBy, reason, typedConfirmation string) (model.ApprovalRequest, error) {
	cur, err := m.load(id)
	if err != nil {
		return model.ApprovalRequest{}, err
	}
	if cur.Status != model.ApprovalPending {
		return cur, fmt.Errorf("approval %s already decided: %s", id, cur.Status)
	}
	if cur.Expired(time.Now()) {
		return m.expire(cur)
	}

	if approve && cur.TypedConfirmationToken != "" {
		if err := validateTypedConfirmation(cur, typedConfirmation, time.Now()); err != nil {
			return cur, err
		}
	}

	now := time.Now().UTC()
	cur.DecidedAt = &now
	cur.DecidedBy = decidedBy
	cur.Reason = reason
	if approve {
		cur.Status = model.ApprovalApproved
	} else {
		cur.Status = model.ApprovalRejected
	}
	return m.settle(cur)
}

// AutoDecide applies the ModeAuto policy: approve everything below high
// risk, reject high risk. Used when no human approver is configured (e.g.
// an unattended recovery run) and mode is ModeAuto.
func (m *Manager) AutoDecide(cur model.ApprovalRequest) (model.ApprovalRequest, error) {
	if cur.Risk == model.RiskHigh {
		return m.Decide(cur.ID, false, "auto", "auto-reject: high risk requires a human decision", "")
	}
	return m.Decide(cur.ID, true, "auto", "auto-approved under configured autonomy policy", "")
}

// Mode reports the configured decision mode.
func (m *Manager) Mode() Mode { return m.mode }

// ListPending returns every still-pending request, sorted by RequestedAt.
// Used by the CLI's "approval list" subcommand; the history archive is
// deliberately not included since it grows unbounded.
func (m *Manager) ListPending() ([]model.ApprovalRequest, error) {
	dir := filepath.Join(m.dataDir, "requests")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list approval requests: %w", err)
	}

	var out []model.ApprovalRequest
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		req, err := m.load(id)
		if err != nil {
			m.log.Error(err, "skipping unreadable approval request", "file", e.Name())
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (m *Manager) load(id string) (model.ApprovalRequest, error) {
	b, err := os.ReadFile(m.requestPath(id))
	if os.IsNotExist(err) {
		// A settled request lives only in history; its newest record holds
		// the terminal state.
		if matches, _ := filepath.Glob(filepath.Join(m.dataDir, "history", id+"_*.json")); len(matches) > 0 {
			sort.Strings(matches)
			b, err = os.ReadFile(matches[len(matches)-1])
		}
	}
	if err != nil {
		return model.ApprovalRequest{}, fmt.Errorf("load approval request %s: %w", id, err)
	}
	var req model.ApprovalRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return model.ApprovalRequest{}, fmt.Errorf("decode approval request %s: %w", id, err)
	}
	return req, nil
}

func (m *Manager) expire(cur model.ApprovalRequest) (model.ApprovalRequest, error) {
	cur.Status = model.ApprovalExpired
	return m.settle(cur)
}

// settle writes the decided request to the history archive and removes the
// live pending file, mirroring the teacher's status-subresource update
// followed by (in this file-based rendition) archival instead of leaving
// the CRD to be garbage-collected.
func (m *Manager) settle(cur model.ApprovalRequest) (model.ApprovalRequest, error) {
	if err := writeJSONAtomic(m.historyPath(cur.ID, time.Now()), cur); err != nil {
		return cur, err
	}
	if err := os.Remove(m.requestPath(cur.ID)); err != nil && !os.IsNotExist(err) {
		m.log.Error(err, "failed to remove settled approval request file", "id", cur.ID)
	}
	m.log.Info("approval request settled", "id", cur.ID, "status", cur.Status, "decided_by", cur.DecidedBy)
	return cur, nil
}

// writeJSONAtomic writes v to path via a temp file + rename so a reader
// never observes a partially-written request.
func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func generateTypedConfirmationToken() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "CONFIRM-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

func validateTypedConfirmation(req model.ApprovalRequest, provided string, now time.Time) error {
	provided = strings.TrimSpace(provided)
	if provided == "" {
		return fmt.Errorf("typed confirmation required")
	}
	if provided != req.TypedConfirmationToken {
		return fmt.Errorf("typed confirmation mismatch")
	}
	if now.After(req.ExpiresAt) {
		return fmt.Errorf("typed confirmation expired")
	}
	return nil
}
