package integrity

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"
)

var checkLog = log.New(os.Stderr, "[checkfiles:integrity] ", log.Ltime)

// ErrNotProjectRoot reports a working directory that lacks the expected
// project landmarks.
var ErrNotProjectRoot = errors.New("not run from the project root")

// Ignorer is the optional exclusion overlay consulted during the walk.
type Ignorer interface {
	ShouldIgnore(path string, isDir bool) bool
}

// Checker drives one scan over the working directory: precondition check,
// prune-aware walk, tracker dispatch, and report emission. Trackers keep
// their findings between CheckFiles and OutputIssues, so a Checker is good
// for exactly one scan; build a fresh one to rescan.
type Checker struct {
	policy   Policy
	trackers []Tracker
	ignore   Ignorer
}

// NewChecker builds a Checker for the tree rooted at the working
// directory. ignore may be nil.
func NewChecker(policy Policy, ignore Ignorer) *Checker {
	return &Checker{
		policy:   policy,
		trackers: NewTrackers(policy),
		ignore:   ignore,
	}
}

// Trackers returns the tracker set in report order.
func (c *Checker) Trackers() []Tracker {
	return c.trackers
}

// CheckRepoPath verifies that the working directory directly contains
// every root marker subdirectory. Scans must not start anywhere else: half
// the policy is relative paths that only mean something at the root.
func (c *Checker) CheckRepoPath() error {
	for _, marker := range c.policy.RootMarkers {
		fi, err := os.Stat(marker)
		if err != nil || !fi.IsDir() {
			return fmt.Errorf("%w: %s/ not found (expected subdirectories: %s)",
				ErrNotProjectRoot, marker, strings.Join(c.policy.RootMarkers, ", "))
		}
	}
	return nil
}

// CheckFiles walks the tree and dispatches every selected file to the
// tracker set. A directory's files are processed (sorted) before its
// subdirectories (sorted); excluded and ignored directories are pruned.
// The walk is depth-first and fully sequential. The first I/O error aborts
// it; findings never do.
func (c *Checker) CheckFiles() (Stats, error) {
	start := time.Now()
	var stats Stats
	if err := c.walkDir(".", &stats); err != nil {
		return stats, err
	}
	stats.Issues = CountIssues(c.trackers)
	stats.Duration = time.Since(start)
	return stats, nil
}

// walkDir processes one directory. dir is the walk path joined from ".",
// which doubles as the path reported for findings: every file under the
// root appears as "./sub/name", and basename rules like "/Makefile" match
// at the top level because of the prefix.
func (c *Checker) walkDir(dir string, stats *Stats) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directories are skipped; unreadable files stay
		// fatal.
		checkLog.Printf("skipping unreadable directory %s: %v", dir, err)
		return nil
	}

	// os.ReadDir returns entries sorted by name, so files and subdirs
	// each stay sorted.
	var files, subdirs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if !c.pruneBranch(dir, name) {
				subdirs = append(subdirs, name)
			}
			continue
		}
		if e.Type()&fs.ModeSymlink != 0 {
			if fi, err := os.Stat(dir + "/" + name); err == nil && fi.IsDir() {
				// A symlink resolving to a directory counts as a
				// directory but is never descended into. Broken
				// symlinks fall through as files.
				continue
			}
		}
		files = append(files, name)
	}

	for _, name := range files {
		if err := c.checkFile(dir+"/"+name, stats); err != nil {
			return err
		}
	}
	for _, name := range subdirs {
		if err := c.walkDir(dir+"/"+name, stats); err != nil {
			return err
		}
	}
	return nil
}

// pruneBranch reports whether the subdirectory name under parent is
// excluded from the walk: by bare name, by root-relative path, or by the
// ignore overlay. Watch mode applies the same decision to choose what it
// watches.
func (c *Checker) pruneBranch(parent, name string) bool {
	path := parent + "/" + name
	if c.policy.PrunesDir(path) {
		return true
	}
	return c.ignore != nil && c.ignore.ShouldIgnore(path, true)
}

// checkFile runs every applicable tracker over one file.
func (c *Checker) checkFile(path string, stats *Stats) error {
	if !c.policy.SelectsFile(path) {
		return nil
	}
	if c.ignore != nil && c.ignore.ShouldIgnore(path, false) {
		return nil
	}
	stats.FilesChecked++
	for _, t := range c.trackers {
		if !t.ShouldCheckFile(path) {
			continue
		}
		if err := t.CheckFile(path); err != nil {
			return fmt.Errorf("check %s: %w", path, err)
		}
	}
	return nil
}

// OutputIssues writes every tracker's report block to r in tracker order
// and returns the exit status: 1 if any tracker recorded findings, else 0.
func (c *Checker) OutputIssues(r *Reporter) int {
	status := 0
	for _, t := range c.trackers {
		if t.HasIssues() {
			status = 1
		}
		t.WriteIssues(r)
	}
	return status
}

// CountIssues sums findings across trackers: one per offending line plus
// one per whole-file finding.
func CountIssues(trackers []Tracker) int {
	total := 0
	for _, t := range trackers {
		for _, lines := range t.Issues() {
			if len(lines) == 0 {
				total++
			} else {
				total += len(lines)
			}
		}
	}
	return total
}
