package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdincl/internal/logfields"
	"git.home.luguber.info/inful/mdincl/internal/metrics"
	"github.com/fsnotify/fsnotify"
)

// Watcher observes a documentation tree recursively and turns bursts of
// filesystem events into single debounced scan requests.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	rec      metrics.Recorder
}

// NewWatcher registers root and every directory below it. Dot-directories
// are left unwatched.
func NewWatcher(root string, debounce time.Duration, rec metrics.Recorder) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	w := &Watcher{watcher: fsw, root: root, debounce: debounce, rec: rec}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run forwards debounced change notifications into scans until ctx ends.
// The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, scans chan<- string) {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.rec.IncWatchEvent(strings.ToLower(event.Op.String()))
			slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))

			// New directories join the watch so files created inside
			// them are seen too.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Could not watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case scans <- CauseWatch:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Watcher error", logfields.Error(err))
		}
	}
}

// relevant filters events down to documentation files and directories. For
// removed entries only the name is left to judge by, so extension checks
// come first.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
		return true
	}
	return false
}
