/*
DESCRIPTION
  watch.go calls back when the config file changes.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/utils/logging"
)

// Editors write files in bursts, so changes are collected for this long.
const debouncePeriod = 500 * time.Millisecond

// watcher calls reload after the file it watches is written.
type watcher struct {
	path   string
	w      *fsnotify.Watcher
	log    logging.Logger
	reload func()

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// newWatcher watches the directory holding path, so that files replaced by
// rename are still seen.
func newWatcher(path string, l logging.Logger, reload func()) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create watcher: %w", err)
	}
	err = fw.Add(filepath.Dir(path))
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("could not watch %s: %w", path, err)
	}
	w := &watcher{path: filepath.Clean(path), w: fw, log: l, reload: reload, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *watcher) loop() {
	defer close(w.done)
	for {
		select {
		case e, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path || !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				continue
			}
			w.log.Debug(pkg+"config file changed", "op", e.Op.String())
			w.schedule()
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.log.Warning(pkg+"config watcher error", "error", err.Error())
		}
	}
}

func (w *watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debouncePeriod, func() {
		w.log.Info(pkg+"reloading config", "path", w.path)
		w.reload()
	})
}

func (w *watcher) close() error {
	err := w.w.Close()
	<-w.done
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}
