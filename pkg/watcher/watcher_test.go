package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestSkipDir(t *testing.T) {
	w, err := New(Config{SkipDirs: []string{"node_modules", "mbed-os"}})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	cases := map[string]bool{
		"node_modules": true,
		"mbed-os":      true,
		".git":         true, // hidden names skip regardless
		".cache":       true,
		".":            false, // the walk root itself
		"src":          false,
	}
	for name, want := range cases {
		if got := w.skipDir(name); got != want {
			t.Errorf("skipDir(%q) = %v; want %v", name, got, want)
		}
	}
}

func TestQueueAndFlush(t *testing.T) {
	got := make(chan map[string]fsnotify.Op, 1)
	w, err := New(Config{DebounceDelay: time.Hour}, FileChangeHandlerFunc(func(files map[string]fsnotify.Op) {
		got <- files
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	w.queueChange("a.c", fsnotify.Write)
	w.queueChange("b.c", fsnotify.Create)
	w.queueChange("a.c", fsnotify.Remove) // same path collapses to the last op

	if s := w.Stats(); s.PendingFiles != 2 {
		t.Errorf("PendingFiles = %d; want 2", s.PendingFiles)
	}

	w.flushPending()
	select {
	case files := <-got:
		if len(files) != 2 {
			t.Errorf("batch size = %d; want 2: %v", len(files), files)
		}
		if files["a.c"] != fsnotify.Remove {
			t.Errorf("a.c op = %v; want Remove", files["a.c"])
		}
	default:
		t.Fatal("handler not invoked by flush")
	}

	if s := w.Stats(); s.PendingFiles != 0 {
		t.Errorf("PendingFiles after flush = %d; want 0", s.PendingFiles)
	}

	// Flushing with nothing queued stays silent.
	w.flushPending()
	select {
	case files := <-got:
		t.Errorf("empty flush invoked handlers with %v", files)
	default:
	}
}

func TestDebounceDefault(t *testing.T) {
	w, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if w.Debounce() != DefaultDebounceDelay {
		t.Errorf("Debounce = %v; want %v", w.Debounce(), DefaultDebounceDelay)
	}
}

func TestWatchDispatchesChanges(t *testing.T) {
	dir := t.TempDir()
	got := make(chan map[string]fsnotify.Op, 4)

	w, err := New(Config{
		Paths:         []string{dir},
		DebounceDelay: 50 * time.Millisecond,
	}, FileChangeHandlerFunc(func(files map[string]fsnotify.Op) {
		got <- files
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if s := w.Stats(); s.DirsWatched < 1 {
		t.Errorf("DirsWatched = %d; want at least 1", s.DirsWatched)
	}

	if err := os.WriteFile(filepath.Join(dir, "code.c"), []byte("int x;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case files := <-got:
		found := false
		for path := range files {
			if filepath.Base(path) == "code.c" {
				found = true
			}
		}
		if !found {
			t.Errorf("batch %v does not contain code.c", files)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change batch within 3s")
	}
}

func TestFileFilter(t *testing.T) {
	dir := t.TempDir()
	got := make(chan map[string]fsnotify.Op, 4)

	w, err := New(Config{
		Paths:         []string{dir},
		DebounceDelay: 50 * time.Millisecond,
		FileFilter: func(path string) bool {
			return filepath.Ext(path) == ".c"
		},
	}, FileChangeHandlerFunc(func(files map[string]fsnotify.Op) {
		got <- files
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "x.txt"), []byte("no\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "y.c"), []byte("int y;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case files := <-got:
			for path := range files {
				if filepath.Base(path) == "x.txt" {
					t.Fatalf("filtered file leaked into batch: %v", files)
				}
				if filepath.Base(path) == "y.c" {
					return
				}
			}
		case <-deadline:
			t.Fatal("no batch containing y.c within 3s")
		}
	}
}

func TestDirFilter(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"examples", "src"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	got := make(chan map[string]fsnotify.Op, 4)

	w, err := New(Config{
		Paths:         []string{dir},
		DebounceDelay: 50 * time.Millisecond,
		DirFilter: func(path string) bool {
			return filepath.Base(path) != "examples"
		},
	}, FileChangeHandlerFunc(func(files map[string]fsnotify.Op) {
		got <- files
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// The pruned directory is never registered: root and src only.
	if s := w.Stats(); s.DirsWatched != 2 {
		t.Errorf("DirsWatched = %d; want 2", s.DirsWatched)
	}

	if err := os.WriteFile(filepath.Join(dir, "examples", "demo.c"), []byte("int d;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "ok.c"), []byte("int k;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case files := <-got:
			for path := range files {
				if filepath.Base(path) == "demo.c" {
					t.Fatalf("change under pruned directory dispatched: %v", files)
				}
				if filepath.Base(path) == "ok.c" {
					return
				}
			}
		case <-deadline:
			t.Fatal("no batch containing ok.c within 3s")
		}
	}
}
