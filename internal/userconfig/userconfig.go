// Package userconfig loads a user-supplied parameter override file and
// watches it for changes, reloading into a params.Parameters instance
// on every write.
package userconfig

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/crowbarz/avrctl-go/internal/params"
)

// Watcher watches a parameter-override JSON file and keeps a
// params.Parameters instance's user layer in sync with it.
type Watcher struct {
	path    string
	params  *params.Parameters
	watcher *fsnotify.Watcher
}

// New loads path (if present) into p's user-override layer and starts
// watching it for changes. A missing file is not an error; a corrupt
// file logs a warning and leaves the previous overrides in place.
func New(path string, p *params.Parameters) (*Watcher, error) {
	w := &Watcher{path: path, params: p}

	if err := w.reload(); err != nil {
		slog.Warn("userconfig: failed to load overrides", "path", path, "err", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("userconfig: could not create fsnotify watcher", "err", err)
		return w, nil
	}
	w.watcher = fw

	if err := fw.Add(filepath.Dir(path)); err != nil {
		slog.Warn("userconfig: could not watch config dir", "err", err)
	}

	go w.watchLoop()
	return w, nil
}

func (w *Watcher) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var overrides map[string]any
	if err := json.Unmarshal(data, &overrides); err != nil {
		return err
	}

	w.params.SetUserAll(overrides)
	slog.Debug("userconfig: reloaded overrides", "path", w.path, "count", len(overrides))
	return nil
}

func (w *Watcher) watchLoop() {
	if w.watcher == nil {
		return
	}
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name == w.path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				if err := w.reload(); err != nil {
					slog.Warn("userconfig: failed to reload overrides", "err", err)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("userconfig: watcher error", "err", err)
		}
	}
}

// Close stops the file watcher.
func (w *Watcher) Close() {
	if w.watcher != nil {
		w.watcher.Close()
	}
}
