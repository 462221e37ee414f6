// Package audit provides the append-only audit log: one JSON object per
// line, appended to a file that rotates by UTC date. Every field is
// optional except tool, mode, and ts, which the writer inserts if absent.
// A write that cannot reach disk is logged and dropped — audit failures
// must never block a running tool.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/cerebric/cerebric/pkg/model"
)

// Log writes audit records to date-rotated JSONL files under dir.
type Log struct {
	dir string
	log logr.Logger

	mu      sync.Mutex
	clockFn func() time.Time
}

// New creates a Log rooted at dir (typically <data-dir>/audit).
func New(dir string, log logr.Logger) *Log {
	return &Log{dir: dir, log: log, clockFn: time.Now}
}

func (l *Log) now() time.Time {
	if l.clockFn != nil {
		return l.clockFn()
	}
	return time.Now()
}

// Write appends one record. It never returns an error to the caller: on
// any failure it logs a warning and drops the record, per the contract
// that audit writes are best-effort and never block execution.
func (l *Log) Write(rec model.AuditRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}
	if rec.RequestID == "" {
		rec.RequestID = uuid.New().String()
	}

	path := l.pathFor(rec.Timestamp)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.appendLine(path, rec); err != nil {
		l.log.Error(err, "audit write failed, dropping record", "tool", rec.Tool, "mode", rec.Mode)
	}
}

func (l *Log) pathFor(ts time.Time) string {
	name := fmt.Sprintf("audit-%s.jsonl", ts.UTC().Format("2006-01-02"))
	return filepath.Join(l.dir, name)
}

func (l *Log) appendLine(path string, rec model.AuditRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	b = append(b, '\n')
	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Filter selects which records Query returns.
type Filter struct {
	Tool  string
	Mode  model.AuditMode
	Since time.Time
	Until time.Time
	Limit int
}

// Query scans every file in the audit directory and returns the records
// whose timestamps fall within [Since, Until], oldest first within each
// file. A zero Since or Until leaves that side of the range open.
func (l *Log) Query(f Filter) ([]model.AuditRecord, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit dir: %w", err)
	}

	var out []model.AuditRecord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		recs, err := l.readFile(filepath.Join(l.dir, e.Name()))
		if err != nil {
			l.log.Error(err, "skipping unreadable audit file", "file", e.Name())
			continue
		}
		for _, r := range recs {
			if !matches(r, f) {
				continue
			}
			out = append(out, r)
			if f.Limit > 0 && len(out) >= f.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func matches(r model.AuditRecord, f Filter) bool {
	if f.Tool != "" && r.Tool != f.Tool {
		return false
	}
	if f.Mode != "" && r.Mode != f.Mode {
		return false
	}
	if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.Timestamp.After(f.Until) {
		return false
	}
	return true
}

func (l *Log) readFile(path string) ([]model.AuditRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []model.AuditRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var rec model.AuditRecord
		if err := dec.Decode(&rec); err != nil {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}
