/*
NAME
  watch.go

DESCRIPTION
  Watcher hot-reloads a mask file when it changes on disk, for
  Config.WatchMasks. Grounded on fsnotify's standard single-file watch
  idiom (watch the containing directory, filter events by base name,
  since some editors replace a file via rename rather than writing it
  in place, which a direct file watch would miss).

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mask

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/utils/logging"
)

// Watcher reloads a mask from disk whenever it changes, delivering the
// new mask on Updates. Callers must call Close when done.
type Watcher struct {
	w    *fsnotify.Watcher
	path string

	Updates chan []byte
}

// Watch starts watching path for changes, resizing reloads to w x h.
// log may be nil.
func Watch(path string, w, h int, log logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	wt := &Watcher{w: fw, path: filepath.Clean(path), Updates: make(chan []byte, 1)}
	go wt.loop(w, h, log)
	return wt, nil
}

func (wt *Watcher) loop(w, h int, log logging.Logger) {
	for {
		select {
		case ev, ok := <-wt.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != wt.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			m, err := Load(wt.path, w, h, log)
			if err != nil {
				if log != nil {
					log.Warning("mask reload failed", "path", wt.path, "error", err.Error())
				}
				continue
			}
			select {
			case wt.Updates <- m:
			default:
				// Drop a stale pending update in favour of the fresh one.
				select {
				case <-wt.Updates:
				default:
				}
				wt.Updates <- m
			}
		case _, ok := <-wt.w.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher.
func (wt *Watcher) Close() error {
	return wt.w.Close()
}
