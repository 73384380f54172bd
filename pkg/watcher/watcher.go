// Package watcher keeps a scan tree under observation and batches change
// notifications, so watch mode can rerun a full scan after the tree
// settles instead of once per write.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var watchLog = log.New(os.Stderr, "[checkfiles:watch] ", log.Ltime)

// DefaultDebounceDelay is how long the tree must stay quiet before pending
// changes are flushed to handlers.
const DefaultDebounceDelay = 2 * time.Second

// Config controls what gets watched.
type Config struct {
	// Paths are the roots to watch. Empty means the working directory.
	Paths []string
	// DebounceDelay overrides DefaultDebounceDelay when non-zero.
	DebounceDelay time.Duration
	// SkipDirs are directory names never watched. Hidden directories are
	// skipped regardless.
	SkipDirs []string
	// DirFilter limits which directories are watched beyond SkipDirs:
	// returning false prunes the directory and everything under it. Nil
	// keeps all. The walk roots themselves are never filtered.
	DirFilter func(path string) bool
	// FileFilter limits which file events queue a change. Nil keeps all.
	FileFilter func(path string) bool
}

// FileChangeHandler receives each debounced batch of changes.
type FileChangeHandler interface {
	OnChanges(files map[string]fsnotify.Op)
}

// FileChangeHandlerFunc adapts a function to FileChangeHandler.
type FileChangeHandlerFunc func(files map[string]fsnotify.Op)

func (f FileChangeHandlerFunc) OnChanges(files map[string]fsnotify.Op) {
	f(files)
}

// Watcher watches directory trees and dispatches debounced change batches.
type Watcher struct {
	fsnotify  *fsnotify.Watcher
	config    Config
	skipSet   map[string]bool
	handlers  []FileChangeHandler
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	startTime time.Time

	mu           sync.Mutex
	pending      map[string]fsnotify.Op
	debounceOnce sync.Once
	watchPaths   []string
	dirsWatched  int
}

// New creates a Watcher. Start must be called before events flow.
func New(config Config, handlers ...FileChangeHandler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if config.DebounceDelay == 0 {
		config.DebounceDelay = DefaultDebounceDelay
	}

	skipSet := make(map[string]bool, len(config.SkipDirs))
	for _, d := range config.SkipDirs {
		skipSet[d] = true
	}

	return &Watcher{
		fsnotify: fsWatcher,
		config:   config,
		skipSet:  skipSet,
		handlers: handlers,
		stop:     make(chan struct{}),
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// AddHandler registers another change handler.
func (w *Watcher) AddHandler(h FileChangeHandler) {
	w.handlers = append(w.handlers, h)
}

// Debounce returns the effective debounce delay.
func (w *Watcher) Debounce() time.Duration {
	return w.config.DebounceDelay
}

// Start registers watches for every non-skipped directory under the
// configured paths and begins dispatching events.
func (w *Watcher) Start() error {
	paths := w.config.Paths
	if len(paths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		paths = []string{cwd}
	}

	w.watchPaths = paths

	for _, root := range paths {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if w.skipDir(info.Name()) {
					return filepath.SkipDir
				}
				if path != root && w.config.DirFilter != nil && !w.config.DirFilter(path) {
					return filepath.SkipDir
				}
				if err := w.fsnotify.Add(path); err == nil {
					w.dirsWatched++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	w.startTime = time.Now()
	w.wg.Add(1)
	go w.processEvents()

	watchLog.Printf("watching %d directories in %v (debounce: %v)", w.dirsWatched, paths, w.config.DebounceDelay)
	return nil
}

// Stop halts event processing and releases the underlying watches.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
	return w.fsnotify.Close()
}

// Stats reports the watcher's current state.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	pending := len(w.pending)
	w.mu.Unlock()

	return WatcherStats{
		Paths:        w.watchPaths,
		DirsWatched:  w.dirsWatched,
		Debounce:     w.config.DebounceDelay,
		PendingFiles: pending,
		Uptime:       time.Since(w.startTime),
	}
}

// WatcherStats describes a running Watcher.
type WatcherStats struct {
	Paths        []string
	DirsWatched  int
	Debounce     time.Duration
	PendingFiles int
	Uptime       time.Duration
}

// skipDir reports whether a directory name is excluded from watching.
// The walk root itself ("." when watching the working directory) is never
// skipped by the hidden-name rule.
func (w *Watcher) skipDir(name string) bool {
	return w.skipSet[name] || (len(name) > 1 && name[0] == '.')
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.skipDir(filepath.Base(event.Name)) &&
						(w.config.DirFilter == nil || w.config.DirFilter(event.Name)) {
						if err := w.fsnotify.Add(event.Name); err == nil {
							w.dirsWatched++
							watchLog.Printf("watching new directory: %s", event.Name)
						}
					}
					continue
				}
			}

			if w.config.FileFilter != nil && !w.config.FileFilter(event.Name) {
				continue
			}

			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
				strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".tmp") {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.queueChange(event.Name, event.Op)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			watchLog.Printf("error: %v", err)
		}
	}
}

func (w *Watcher) queueChange(path string, op fsnotify.Op) {
	w.mu.Lock()
	w.pending[path] = op
	w.debounceOnce.Do(func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			select {
			case <-time.After(w.config.DebounceDelay):
				w.flushPending()
			case <-w.stop:
				return
			}
		}()
	})
	w.mu.Unlock()
}

func (w *Watcher) flushPending() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.debounceOnce = sync.Once{}
	w.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	watchLog.Printf("processing %d file changes", len(pending))

	for _, h := range w.handlers {
		h.OnChanges(pending)
	}
}
