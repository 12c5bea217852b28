package workspace

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

// Watcher watches a workspace root's Composer manifests and invokes
// onChange (re-load autoload map, re-scan) when they're modified.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// Watch starts watching root's composer.json and vendor/composer directory
// (when present) for changes, calling onChange on any create/write/remove
// event. The returned Watcher must be closed by the caller.
func Watch(root string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	logger := commonlog.GetLoggerf("phpls.workspace")

	if err := fsw.Add(root); err != nil {
		logger.Warningf("could not watch workspace root %s: %v", root, err)
	}
	vendorComposer := filepath.Join(root, "vendor", "composer")
	if err := fsw.Add(vendorComposer); err != nil {
		logger.Debugf("not watching %s: %v", vendorComposer, err)
	}

	w := &Watcher{fsw: fsw}
	go func() {
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				base := filepath.Base(ev.Name)
				if base == "composer.json" || base == "installed.json" {
					if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
						onChange()
					}
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warningf("workspace watcher error: %v", err)
			}
		}
	}()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
