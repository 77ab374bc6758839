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

package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"trpc.group/trpc-go/streambuf/log"
)

// ProviderCallback is the callback run when watched data changes.
type ProviderCallback func(path string, data []byte)

// DataProvider fetches raw config data and reports changes.
type DataProvider interface {
	// Name returns the provider name.
	Name() string
	// Read reads the data at path.
	Read(path string) ([]byte, error)
	// Watch registers a change callback.
	Watch(cb ProviderCallback)
}

// FileProvider reads config from the filesystem and watches read files via
// fsnotify.
type FileProvider struct {
	mu      sync.RWMutex
	cbs     []ProviderCallback
	watched map[string]string // absolute path -> path as read

	watcher   *fsnotify.Watcher
	watchErr  error
	watchOnce sync.Once
}

func newFileProvider() *FileProvider {
	return &FileProvider{watched: make(map[string]string)}
}

// Name returns the file provider's name.
func (*FileProvider) Name() string { return "file" }

// Read reads the file at path and enrolls it for watching.
func (fp *FileProvider) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fp.enroll(path)
	return data, nil
}

// Watch registers a change callback.
func (fp *FileProvider) Watch(cb ProviderCallback) {
	fp.mu.Lock()
	fp.cbs = append(fp.cbs, cb)
	fp.mu.Unlock()
}

func (fp *FileProvider) enroll(path string) {
	fp.watchOnce.Do(func() {
		fp.watcher, fp.watchErr = fsnotify.NewWatcher()
		if fp.watchErr != nil {
			log.Errorf("config: file watcher setup: %v", fp.watchErr)
			return
		}
		go fp.run()
	})
	if fp.watcher == nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	fp.mu.Lock()
	fp.watched[abs] = path
	fp.mu.Unlock()
	// watch the directory so rename-based rewrites keep firing
	if err := fp.watcher.Add(filepath.Dir(abs)); err != nil {
		log.Errorf("config: watch %s: %v", path, err)
	}
}

func (fp *FileProvider) run() {
	for {
		select {
		case ev, ok := <-fp.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fp.notify(ev.Name)
		case err, ok := <-fp.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("config: file watcher: %v", err)
		}
	}
}

func (fp *FileProvider) notify(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}
	fp.mu.RLock()
	path, ok := fp.watched[abs]
	cbs := make([]ProviderCallback, len(fp.cbs))
	copy(cbs, fp.cbs)
	fp.mu.RUnlock()
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("config: reread %s: %v", path, err)
		return
	}
	for _, cb := range cbs {
		cb(path, data)
	}
}
