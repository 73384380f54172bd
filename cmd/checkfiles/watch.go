package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/checkfiles/pkg/integrity"
	"github.com/jmylchreest/checkfiles/pkg/watcher"
)

// runWatch runs an initial scan, then rescans after each debounced batch
// of tree changes until SIGINT or SIGTERM. The returned status is that of
// the last completed scan.
func runWatch(opts options, policy integrity.Policy, ignore integrity.Ignorer) (int, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	last, err := runScan(opts, policy, ignore)
	if err != nil {
		return last, err
	}

	var mu sync.Mutex
	rescan := func(files map[string]fsnotify.Op) {
		// Rescans never overlap. A batch arriving mid-scan waits here and
		// then runs against the newer tree state.
		mu.Lock()
		defer mu.Unlock()
		scanLog.Printf("%d changed path(s), rescanning", len(files))
		status, err := runScan(opts, policy, ignore)
		if err != nil {
			scanLog.Printf("rescan failed: %v", err)
			return
		}
		last = status
	}

	w, err := watcher.New(watchConfig(opts, policy, ignore), watcher.FileChangeHandlerFunc(rescan))
	if err != nil {
		return last, err
	}

	scanLog.Printf("watching for changes (debounce %s), Ctrl+C to stop", w.Debounce())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		return w.Stop()
	})
	err = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	return last, err
}

// watchConfig translates the scan policy into watcher terms. Directories
// are kept or pruned by the same decision the walk makes (excluded names,
// root-relative excluded paths, the ignore overlay), so excluded trees are
// never watched and never trigger rescans.
func watchConfig(opts options, policy integrity.Policy, ignore integrity.Ignorer) watcher.Config {
	return watcher.Config{
		Paths:         []string{"."},
		DebounceDelay: opts.watchDebounce,
		SkipDirs:      policy.ExcludedDirectories,
		DirFilter: func(path string) bool {
			if policy.PrunesDir(path) {
				return false
			}
			return ignore == nil || !ignore.ShouldIgnore(path, true)
		},
		FileFilter: func(path string) bool {
			// Event paths arrive without the walk's "./" prefix; restore
			// it so suffix rules see the same path shape either way.
			if !strings.HasPrefix(path, "./") {
				path = "./" + path
			}
			return policy.SelectsFile(path)
		},
	}
}
