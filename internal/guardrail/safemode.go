package guardrail

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/cerebric/cerebric/pkg/model"
)

// SafeMode is a process-wide flag backed by an on-disk marker file so the
// active state survives a process restart.
type SafeMode struct {
	markerPath string
	log        logr.Logger

	active atomic.Bool
}

// NewSafeMode creates a SafeMode backed by markerPath (typically
// <data-dir>/safe_mode_active.flag). It loads the current state from disk
// so a restarted process observes whatever was active before the restart.
func NewSafeMode(markerPath string, log logr.Logger) *SafeMode {
	s := &SafeMode{markerPath: markerPath, log: log}
	if _, err := os.Stat(markerPath); err == nil {
		s.active.Store(true)
	}
	return s
}

// IsActive returns true if either the in-process flag or the marker file
// is set.
func (s *SafeMode) IsActive() bool {
	if s.active.Load() {
		return true
	}
	_, err := os.Stat(s.markerPath)
	return err == nil
}

// Enter sets both the flag and the marker file with reason as its
// contents.
func (s *SafeMode) Enter(reason string) error {
	s.active.Store(true)
	if err := os.MkdirAll(filepath.Dir(s.markerPath), 0o755); err != nil {
		return fmt.Errorf("mkdir safe mode marker dir: %w", err)
	}
	if err := os.WriteFile(s.markerPath, []byte(reason), 0o644); err != nil {
		return fmt.Errorf("write safe mode marker: %w", err)
	}
	s.log.Info("entered safe mode", "reason", reason)
	return nil
}

// Exit clears both the flag and the marker file, and returns an audit
// record describing who exited and when.
func (s *SafeMode) Exit(user string) (model.AuditRecord, error) {
	s.active.Store(false)
	if err := os.Remove(s.markerPath); err != nil && !os.IsNotExist(err) {
		return model.AuditRecord{}, fmt.Errorf("remove safe mode marker: %w", err)
	}
	rec := model.AuditRecord{
		Tool:      "safe_mode",
		Mode:      model.AuditState,
		OK:        true,
		Summary:   "safe mode exited",
		Timestamp: time.Now().UTC(),
		Fields:    map[string]any{"exited_by": user},
	}
	s.log.Info("exited safe mode", "user", user)
	return rec, nil
}

// Reason returns the marker file's contents, or "" if safe mode is not
// active or the marker cannot be read.
func (s *SafeMode) Reason() string {
	b, err := os.ReadFile(s.markerPath)
	if err != nil {
		return ""
	}
	return string(b)
}
