//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package rollwriter provides a rolling file writer for logs.
// Files roll by time pattern and optionally by size, and old backups are
// cleaned in the background.
package rollwriter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/strftime"
)

const backupTimeFormat = "20060102150405"

// Options are the RollWriter options.
type Options struct {
	// MaxSize is the roll size of one file in MB, 0 disables size rolling.
	MaxSize int
	// MaxBackups is how many rolled files are kept, 0 keeps all.
	MaxBackups int
	// TimeFormat is the strftime pattern appended to the file path, e.g.
	// ".%Y%m%d" rolls daily. Empty disables time rolling.
	TimeFormat string
}

// Option modifies the Options.
type Option func(*Options)

// WithMaxSize sets the roll size in MB.
func WithMaxSize(mb int) Option {
	return func(o *Options) {
		o.MaxSize = mb
	}
}

// WithMaxBackups sets how many rolled files are kept.
func WithMaxBackups(n int) Option {
	return func(o *Options) {
		o.MaxBackups = n
	}
}

// WithTimeFormat sets the strftime roll pattern.
func WithTimeFormat(f string) Option {
	return func(o *Options) {
		o.TimeFormat = f
	}
}

// RollWriter is an io.Writer whose target file rolls by time pattern and
// size. Write is safe for concurrent use.
type RollWriter struct {
	filePath string
	opts     *Options

	pattern  *strftime.Strftime
	currPath string
	currFile *os.File
	currSize int64

	mu        sync.Mutex
	cleanOnce sync.Once
	cleanCh   chan struct{}
}

// NewRollWriter creates a RollWriter logging to filePath.
func NewRollWriter(filePath string, opt ...Option) (*RollWriter, error) {
	opts := &Options{}
	for _, o := range opt {
		o(opts)
	}
	if filePath == "" {
		return nil, errors.New("rollwriter: invalid empty file path")
	}
	pattern, err := strftime.New(filePath + opts.TimeFormat)
	if err != nil {
		return nil, fmt.Errorf("rollwriter: invalid time pattern: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}
	return &RollWriter{
		filePath: filePath,
		opts:     opts,
		pattern:  pattern,
	}, nil
}

// Write implements io.Writer.
func (w *RollWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reopenIfNeeded(); err != nil {
		return 0, err
	}
	n, err := w.currFile.Write(p)
	atomic.AddInt64(&w.currSize, int64(n))
	if w.opts.MaxSize > 0 && atomic.LoadInt64(&w.currSize) >= int64(w.opts.MaxSize)*1024*1024 {
		w.backupFile()
	}
	return n, err
}

// Close closes the current file.
func (w *RollWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currFile == nil {
		return nil
	}
	err := w.currFile.Close()
	w.currFile = nil
	w.currPath = ""
	return err
}

// reopenIfNeeded opens the file the time pattern currently names, rolling
// over from the previous one when the pattern output changes.
func (w *RollWriter) reopenIfNeeded() error {
	path := w.pattern.FormatString(time.Now())
	if w.currFile != nil && path == w.currPath {
		return nil
	}
	if w.currFile != nil {
		w.currFile.Close()
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	w.currFile = f
	w.currPath = path
	atomic.StoreInt64(&w.currSize, st.Size())
	w.notifyClean()
	return nil
}

// backupFile renames the full current file away and starts a fresh one.
// Caller holds the mutex.
func (w *RollWriter) backupFile() {
	w.currFile.Close()
	backup := w.currPath + "." + time.Now().Format(backupTimeFormat)
	_ = os.Rename(w.currPath, backup)
	f, err := os.OpenFile(w.currPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		w.currFile = nil
		w.currPath = ""
		return
	}
	w.currFile = f
	atomic.StoreInt64(&w.currSize, 0)
	w.notifyClean()
}

// notifyClean kicks the background backup cleaner.
func (w *RollWriter) notifyClean() {
	if w.opts.MaxBackups <= 0 {
		return
	}
	w.cleanOnce.Do(func() {
		w.cleanCh = make(chan struct{}, 1)
		go w.runClean()
	})
	select {
	case w.cleanCh <- struct{}{}:
	default:
	}
}

func (w *RollWriter) runClean() {
	for range w.cleanCh {
		w.cleanBackups()
	}
}

// cleanBackups removes the oldest rolled files beyond MaxBackups.
func (w *RollWriter) cleanBackups() {
	dir := filepath.Dir(w.filePath)
	base := filepath.Base(w.filePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	type backup struct {
		path string
		mod  time.Time
	}
	var backups []backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), base) || e.Name() == base {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	if len(backups) <= w.opts.MaxBackups {
		return
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].mod.Before(backups[j].mod) })
	for _, b := range backups[:len(backups)-w.opts.MaxBackups] {
		os.Remove(b.path)
	}
}
