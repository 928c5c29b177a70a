/*
DESCRIPTION
  watch.go implements Watch, a host-supervisor convenience for hot-reloading
  a serialized Config between Controller lifetimes.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch installs a filesystem watch on path and invokes onChange every time
// the file is written or created. A Controller itself never reloads its own
// Config — this is purely a convenience for a host process that wants to
// re-create the Controller (via aenc.New) when an operator edits the on-disk
// config. The watch runs until stop is called or the watcher's channels are
// closed; watcher errors are discarded and do not end it.
func Watch(path string, onChange func()) (stop func() error, err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "config: new watcher")
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "config: watch %s", path)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					onChange()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() error {
		close(done)
		return w.Close()
	}, nil
}
