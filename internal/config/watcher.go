/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// Watcher reports changes to a watched file on disk (cmd/cerebricd uses it
// to reload the policy document), grounded on original_source's
// ConfigWatcher. Where that watcher falls back to polling when its event
// backend is unavailable, this one has no fallback: fsnotify.NewWatcher's
// error is simply returned.
type Watcher struct {
	watcher *fsnotify.Watcher
	log     logr.Logger
}

// NewWatcher starts watching path (typically Server.PolicyFile); Run then
// invokes its onChange callback every time the file is written, created,
// or renamed into place.
func NewWatcher(path string, log logr.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{watcher: w, log: log.WithName("config-watcher")}, nil
}

// Run blocks, invoking onChange on every relevant fsnotify event, until ctx
// is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error(err, "config watcher error")
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
