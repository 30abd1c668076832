package detect

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 750 * time.Millisecond

// Watcher reports changes to the files a Locator reads. Cursor rewrites
// state.vscdb on sign-in and sign-out, so a change there usually means the
// cached credential is stale.
type Watcher struct {
	paths    map[string]bool
	debounce time.Duration
	onChange func(path string)
}

// NewWatcher watches the given files. onChange is called once per burst of
// writes, with the last path that changed.
func NewWatcher(onChange func(path string), paths ...string) *Watcher {
	w := &Watcher{paths: make(map[string]bool), debounce: defaultDebounce, onChange: onChange}
	for _, p := range paths {
		if p != "" {
			w.paths[filepath.Clean(p)] = true
		}
	}
	return w
}

// Run blocks until ctx is done. Parent directories are watched so the
// SQLite WAL and journal files and atomically replaced files are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	dirs := make(map[string]bool)
	for p := range w.paths {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			log.Printf("[detect] not watching %s: %v", dir, err)
			continue
		}
		dirs[dir] = true
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no watchable directories")
	}

	var (
		timer   *time.Timer
		pending string
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			path, relevant := w.match(ev)
			if !relevant {
				continue
			}
			pending = path
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[detect] watcher: %v", err)
		case <-fire:
			fire = nil
			if w.onChange != nil {
				w.onChange(pending)
			}
		}
	}
}

// match maps an event to the watched file it concerns. Writes to
// state.vscdb-wal and state.vscdb-journal count as writes to state.vscdb.
func (w *Watcher) match(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	name := filepath.Clean(ev.Name)
	if w.paths[name] {
		return name, true
	}
	for _, suffix := range []string{"-wal", "-journal"} {
		if base, ok := strings.CutSuffix(name, suffix); ok && w.paths[base] {
			return base, true
		}
	}
	return "", false
}
