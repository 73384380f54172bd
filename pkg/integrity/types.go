// Package integrity checks a source tree for file hygiene issues:
// incorrect permissions, missing final newlines, UTF-8 BOMs, wrong line
// endings, trailing whitespace, tab characters, and leftover merge markers.
//
// A Checker walks the tree from the working directory, applies a fixed,
// ordered set of trackers to every file of interest, and writes a grouped
// report to a Reporter. The scan is sequential, and findings never
// interrupt it. An unreadable file aborts the scan; an unreadable
// directory is logged and skipped.
package integrity

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Tracker is implemented by every issue tracker. A tracker accumulates
// findings keyed by file path; whole-file findings carry a nil line slice.
type Tracker interface {
	// Name is a short stable identifier (used for summaries and exports).
	Name() string

	// Heading is the report heading for this issue kind.
	Heading() string

	// ShouldCheckFile reports whether path is subject to this tracker.
	ShouldCheckFile(path string) bool

	// CheckFile inspects the file at path and records any findings.
	// A returned error is fatal to the scan.
	CheckFile(path string) error

	// HasIssues reports whether any findings were recorded.
	HasIssues() bool

	// Issues returns recorded findings as file path to 1-based line
	// numbers, nil for whole-file findings. The map is the tracker's own;
	// callers must not modify it.
	Issues() map[string][]int

	// WriteIssues emits this tracker's report block, if any.
	WriteIssues(r *Reporter)
}

// Policy carries the data that drives a scan: which files are of interest,
// which subtrees are pruned, and the per-tracker exemption tables. Zero
// values are not usable; start from DefaultPolicy.
type Policy struct {
	ExtensionsToCheck    []string `koanf:"extensions"`
	ExcludedDirectories  []string `koanf:"excluded_directories"`
	ExcludedPaths        []string `koanf:"excluded_paths"`
	RootMarkers          []string `koanf:"root_markers"`
	ExecutableExtensions []string `koanf:"executable_extensions"`
	WindowsExtensions    []string `koanf:"windows_extensions"`
	BomExemptions        []string `koanf:"bom_exemptions"`
	WhitespaceExemptions []string `koanf:"whitespace_exemptions"`
	TabExemptions        []string `koanf:"tab_exemptions"`
}

// DefaultPolicy returns the stock scan policy.
func DefaultPolicy() Policy {
	return Policy{
		ExtensionsToCheck:    DefaultExtensionsToCheck,
		ExcludedDirectories:  DefaultExcludedDirectories,
		ExcludedPaths:        DefaultExcludedPaths,
		RootMarkers:          DefaultRootMarkers,
		ExecutableExtensions: DefaultExecutableExtensions,
		WindowsExtensions:    DefaultWindowsExtensions,
		BomExemptions:        DefaultBomExemptions,
		WhitespaceExemptions: DefaultWhitespaceExemptions,
		TabExemptions:        DefaultTabExemptions,
	}
}

// SelectsFile reports whether path ends with one of the extensions of
// interest and would therefore be checked.
func (p Policy) SelectsFile(path string) bool {
	return hasAnySuffix(path, p.ExtensionsToCheck)
}

// PrunesDir reports whether the directory at the walked path is excluded
// from scanning, either by bare name or by its root-relative cleaned path.
// Both sides of the path comparison are cleaned, so the predicate accepts
// walk paths ("./examples"), event paths, and configured values alike.
// The ignore overlay is layered on top by the caller.
func (p Policy) PrunesDir(path string) bool {
	name := filepath.Base(path)
	for _, d := range p.ExcludedDirectories {
		if name == d {
			return true
		}
	}
	cleaned := filepath.Clean(path)
	for _, ep := range p.ExcludedPaths {
		if cleaned == filepath.Clean(ep) {
			return true
		}
	}
	return false
}

// Stats summarizes one completed scan.
type Stats struct {
	FilesChecked int
	Issues       int
	Duration     time.Duration
}

// tracker holds the state and behavior shared by all trackers.
type tracker struct {
	name       string
	heading    string
	exemptions []string
	issues     map[string][]int
}

func newTracker(name, heading string, exemptions []string) tracker {
	return tracker{
		name:       name,
		heading:    heading,
		exemptions: exemptions,
		issues:     make(map[string][]int),
	}
}

func (t *tracker) Name() string    { return t.name }
func (t *tracker) Heading() string { return t.heading }

// ShouldCheckFile reports whether the file is subject to this tracker.
// Files whose path ends with one of the exemption suffixes are skipped.
// Matching is plain suffix comparison, not globbing.
func (t *tracker) ShouldCheckFile(path string) bool {
	return !hasAnySuffix(path, t.exemptions)
}

// recordLine records an issue on one line of a file. Line numbers
// accumulate in encounter order.
func (t *tracker) recordLine(path string, line int) {
	t.issues[path] = append(t.issues[path], line)
}

// recordFile records an issue against a file as a whole.
func (t *tracker) recordFile(path string) {
	t.issues[path] = nil
}

func (t *tracker) HasIssues() bool { return len(t.issues) > 0 }

func (t *tracker) Issues() map[string][]int { return t.issues }

// WriteIssues emits the report block: the heading, one line per affected
// file in sorted path order, then a blank line. Whole-file findings print
// the bare path, line findings print "path: 1, 2, 3".
func (t *tracker) WriteIssues(r *Reporter) {
	if len(t.issues) == 0 {
		return
	}
	r.Heading(t.heading)
	paths := make([]string, 0, len(t.issues))
	for p := range t.issues {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if lines := t.issues[p]; len(lines) > 0 {
			nums := make([]string, len(lines))
			for i, n := range lines {
				nums[i] = strconv.Itoa(n)
			}
			r.Line(p + ": " + strings.Join(nums, ", "))
		} else {
			r.Line(p)
		}
	}
	r.Blank()
}

// checkLines applies issue to every line of the file. Lines are split on LF
// with terminators kept; a trailing chunk without a final LF still counts
// as a line, and an empty file has no lines. Line numbers are 1-based.
func (t *tracker) checkLines(path string, issue func(line []byte, path string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for n := 1; ; n++ {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 && issue(line, path) {
			t.recordLine(path, n)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// hasAnySuffix reports whether path ends with any of the given suffixes.
func hasAnySuffix(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}
