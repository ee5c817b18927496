// Package watch records the files a build command writes into the output
// tree, for hosts that cannot report outputs themselves.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// OnOutputFunc is called once per distinct file seen under the root.
type OnOutputFunc func(path string) error

// Watcher watches a directory tree for created and written files.
//
// fsnotify can drop events (queue overflow, files written before a new
// directory's watch was added), so Stop finishes with a walk that reports
// every file that is new or changed relative to a snapshot taken by New.
type Watcher struct {
	root     string
	baseline map[string]stamp
	onOutput OnOutputFunc
	log      *slog.Logger
	fs       *fsnotify.Watcher

	mu   sync.Mutex
	seen map[string]struct{}
	errs []error

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates the root if needed and starts watching it recursively.
// Events are processed until Stop is called.
func New(root string, onOutput OnOutputFunc, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create watch root: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     absRoot,
		baseline: make(map[string]stamp),
		onOutput: onOutput,
		log:      log,
		fs:       fsWatcher,
		seen:     make(map[string]struct{}),
	}

	if err := w.addRecursive(absRoot); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", absRoot, err)
	}
	w.walkFiles(absRoot, func(path string, info fs.FileInfo) bool {
		w.baseline[path] = stampOf(info)
		return false
	})

	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Stop closes the watcher, reports files the event stream missed and returns
// the callback errors seen, joined. Calling Stop more than once is safe.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		if err := w.fs.Close(); err != nil {
			w.log.Debug("close fsnotify watcher", "error", err)
		}
		w.wg.Wait()
		w.reconcile()
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

// Seen returns how many distinct files were reported.
func (w *Watcher) Seen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Debug("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Lstat(event.Name)
	if err != nil {
		return
	}
	if !info.IsDir() {
		w.report(event.Name)
		return
	}

	// Files can land in a new directory before its watch is in place.
	if err := w.addRecursive(event.Name); err != nil {
		w.log.Debug("watch new directory", "path", event.Name, "error", err)
	}
	w.walkFiles(event.Name, func(string, fs.FileInfo) bool { return true })
}

// addRecursive watches dir and every directory beneath it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			if path == dir {
				return err
			}
			w.log.Debug("watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// stamp identifies one version of a file.
type stamp struct {
	modTime time.Time
	size    int64
}

func stampOf(info fs.FileInfo) stamp {
	return stamp{modTime: info.ModTime(), size: info.Size()}
}

// reconcile reports files that are new or changed since New.
func (w *Watcher) reconcile() {
	w.walkFiles(w.root, func(path string, info fs.FileInfo) bool {
		before, ok := w.baseline[path]
		return !ok || !before.modTime.Equal(info.ModTime()) || before.size != info.Size()
	})
}

func (w *Watcher) walkFiles(dir string, keep func(string, fs.FileInfo) bool) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if keep(path, info) {
			w.report(path)
		}
		return nil
	})
}

// report invokes the callback the first time path is seen.
func (w *Watcher) report(path string) {
	w.mu.Lock()
	if _, ok := w.seen[path]; ok {
		w.mu.Unlock()
		return
	}
	w.seen[path] = struct{}{}
	w.mu.Unlock()

	if w.onOutput == nil {
		return
	}
	if err := w.onOutput(path); err != nil {
		w.log.Warn("record output", "path", path, "error", err)
		w.mu.Lock()
		w.errs = append(w.errs, fmt.Errorf("record %s: %w", path, err))
		w.mu.Unlock()
	}
}
