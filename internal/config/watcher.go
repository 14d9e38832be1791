// Copyright 2026 The TrustCart Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher hot-reloads the configuration file. Only settings that are safe
// to change at runtime (scoring weights, debug level) should be applied by
// the callback; host, port and store backend need a restart.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*Config)
	stop     chan struct{}
}

// NewWatcher watches the config file at path and invokes onReload with the
// freshly loaded configuration after each change. Watching the directory
// rather than the file survives editor rename-and-replace saves.
func NewWatcher(path string, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		watcher:  fw,
		onReload: onReload,
		stop:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Let the writer finish before reading.
			time.Sleep(100 * time.Millisecond)
			cfg, err := Load(w.path)
			if err != nil {
				log.Errorf("config reload failed, keeping previous configuration: %v", err)
				continue
			}
			log.Infof("configuration reloaded from %s", w.path)
			w.onReload(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("config watcher error: %v", err)
		case <-w.stop:
			return
		}
	}
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() error {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	return w.watcher.Close()
}
