/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package scheduler runs the persistent job queue: cron and one-shot
// triggers, a bounded worker pool, retry on failure, and crash recovery of
// jobs that were mid-flight when the process last stopped.
package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-logr/logr"

	"github.com/cerebric/cerebric/pkg/model"
)

// Store persists one JSON file per job under dir, written via
// write-to-temp-then-rename so a reader never observes a half-written job
// record, and reloads them on startup — the file-backed analogue of the
// teacher's SQLite jobs table (database/sql was dropped here: a
// single-host file store needs no relational engine, and the driver the
// teacher used, modernc.org/sqlite, is not present in this project's
// dependency set).
type Store struct {
	dir string
	log logr.Logger

	mu   sync.Mutex
	jobs map[string]model.Job
}

// NewStore opens (creating if necessary) a job store rooted at dir.
func NewStore(dir string, log logr.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir job store dir: %w", err)
	}
	s := &Store{dir: dir, log: log, jobs: map[string]model.Job{}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// load reads every job file on disk. Any job found in JobRunning is
// requeued to JobPending with a LastError note and a log line — it was
// running when the process died, so its outcome is unknown and must not be
// silently dropped nor resumed mid-execution. No audit record is written
// for the requeue; the Store holds no audit log.
func (s *Store) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read job store dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.log.Error(err, "failed to read job file", "file", e.Name())
			continue
		}
		var job model.Job
		if err := json.Unmarshal(b, &job); err != nil {
			s.log.Error(err, "failed to decode job file, skipping", "file", e.Name())
			continue
		}
		if job.State == model.JobRunning {
			s.log.Info("recovering job that was running at last shutdown", "job", job.ID)
			job.State = model.JobPending
			job.LastError = "recovered after process restart: in-flight state unknown"
		}
		s.jobs[job.ID] = job
	}
	return nil
}

// Put persists job, creating or overwriting its file.
func (s *Store) Put(job model.Job) error {
	s.mu.Lock()
	s.jobs[job.ID] = job.Clone()
	s.mu.Unlock()
	return s.write(job)
}

func (s *Store) write(job model.Job) error {
	b, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	tmp := s.path(job.ID) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write job file: %w", err)
	}
	return os.Rename(tmp, s.path(job.ID))
}

// Get returns a copy of the job with id, or ok=false if unknown.
func (s *Store) Get(id string) (model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return job.Clone(), true
}

// List returns every known job, sorted by ID for deterministic output.
func (s *Store) List() []model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Remove deletes a job's record entirely. Nothing in the scheduler calls
// it: Scheduler.Cancel keeps the record with state=cancelled, per the
// no-delete-after-run invariant.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove job file: %w", err)
	}
	return nil
}
