// Package memory implements the append-only, partition-based memory store
// (C2): a set of partitions, each a directory of append-only JSONL files.
//
// Partitions are fixed: core/* (protected, never purged), runtime/* (action
// outcomes, anomalies, confidence histories), shared/* (user profile), and
// profiles/<name>/* (isolated per profile). core and the active
// administrative profile are never purgeable.
package memory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cerebric/cerebric/pkg/model"
)

const (
	PartitionCore    = "core"
	PartitionRuntime = "runtime"
	PartitionShared  = "shared"
	profilesPrefix   = "profiles/"
)

// Store is a JSONL-per-partition append-only memory store rooted at dir
// (typically <data-dir>/memory).
type Store struct {
	dir string

	mu              sync.Mutex
	adminProfile    string // the profile bound to the default administrative persona
}

// New creates a Store rooted at dir. adminProfile names the profile that,
// like core, is never purgeable.
func New(dir, adminProfile string) *Store {
	return &Store{dir: dir, adminProfile: adminProfile}
}

// Protected reports whether partition can never be purged.
func (s *Store) Protected(partition string) bool {
	if partition == PartitionCore {
		return true
	}
	if s.adminProfile != "" && partition == profilesPrefix+s.adminProfile {
		return true
	}
	return false
}

// Append appends entry to <dir>/<partition>/<filename>, inserting ts if
// absent. No deduplication is performed — callers may intentionally
// produce duplicate entries.
func (s *Store) Append(partition, filename string, entry map[string]any) error {
	if entry == nil {
		entry = map[string]any{}
	}
	if _, ok := entry["ts"]; !ok {
		entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	path := filepath.Join(s.dir, filepath.FromSlash(partition), filename)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir memory partition: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open memory file: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal memory entry: %w", err)
	}
	b = append(b, '\n')
	_, err = f.Write(b)
	return err
}

// ListEntries returns the ordered, restartable sequence of entries in a
// partition file. A missing file is treated as an empty partition, not an
// error.
func (s *Store) ListEntries(partition, filename string) ([]map[string]any, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(partition), filename)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open memory file: %w", err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue // quarantine malformed lines rather than fail the whole read
		}
		out = append(out, entry)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("scan memory file: %w", err)
	}
	return out, nil
}

// Purge removes profile's directory tree. It refuses if profile resolves
// to a protected partition.
func (s *Store) Purge(profile string) error {
	partition := profilesPrefix + profile
	if s.Protected(partition) || s.Protected(profile) {
		return fmt.Errorf("%w: %s", model.ErrProtectedPartition, profile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, filepath.FromSlash(partition))
	return os.RemoveAll(path)
}

// Export concatenates every JSONL file under a profile's directory into a
// single JSONL stream written to path.
func (s *Store) Export(profile, path string) error {
	root := filepath.Join(s.dir, filepath.FromSlash(profilesPrefix+profile))

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer out.Close()

	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, ".jsonl") {
			return nil
		}
		in, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		defer in.Close()
		_, err = io.Copy(out, in)
		return err
	})
}
