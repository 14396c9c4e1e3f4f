package file

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

// DefaultDebounce folds the burst of events an editor save produces into a
// single reload.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads the catalog after descriptor files below its directory are
// created, written, removed or renamed. It returns once the watch is set up;
// watching stops when ctx is done.
//
// report, when non-nil, is called from the watch goroutine after every
// reload with its result, and with watcher errors. A failed reload keeps the
// previous entity set.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration, report func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "watch %s", c.dir)
	}
	if err := addDirs(w, c.dir); err != nil {
		w.Close()
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if report == nil {
		report = func(error) {}
	}
	go c.watch(ctx, w, debounce, report)
	return nil
}

func (c *Catalog) watch(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, report func(error)) {
	defer w.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !hidden(ev.Name) {
					_ = addDirs(w, ev.Name)
				}
			}
			if relevant(ev) {
				pending = time.After(debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			report(errors.Wrap(errors.ErrCodeInternal, err, "watch %s", c.dir))

		case <-pending:
			pending = nil
			report(c.Reload(ctx))
		}
	}
}

// relevant reports whether ev can change the loaded entity set: a
// descriptor changed, or a directory that may hold descriptors came or went.
func relevant(ev fsnotify.Event) bool {
	if hidden(ev.Name) || ev.Op == fsnotify.Chmod {
		return false
	}
	if isDescriptor(ev.Name) {
		return true
	}
	return filepath.Ext(ev.Name) == "" && (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename))
}

// addDirs watches root and every non-hidden directory below it.
func addDirs(w *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if path != root && hidden(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", root)
	}
	return nil
}
