// Package checkignore provides gitignore-style exclusion matching for
// checkfiles.
//
// Patterns come from an optional .checkfilesignore file in the scan root.
// They are purely additive: the scanner's built-in excluded directories and
// paths apply regardless, and without the file nothing extra is ignored.
//
// Pattern syntax mirrors .gitignore:
//
//	# comment
//	*.generated.c    match files by extension
//	build/           match directories by name (trailing slash)
//	**/fixtures/     match at any depth
//	!keep.c          negate a previous pattern
//	/scripts         anchored to the scan root (leading slash)
package checkignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName is the per-tree exclusion file read from the scan root.
const IgnoreFileName = ".checkfilesignore"

// Matcher tests whether a path should be excluded from a scan.
type Matcher struct {
	rules []rule
}

type rule struct {
	pattern  string
	negation bool
	dirOnly  bool
	anchored bool // pattern contains '/' (other than trailing), anchored to root
}

// New creates a Matcher from the .checkfilesignore file under root. A
// missing file yields an empty Matcher that ignores nothing.
func New(root string) (*Matcher, error) {
	m := &Matcher{}
	if err := m.loadFile(filepath.Join(root, IgnoreFileName)); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return m, nil
}

// NewEmpty creates a Matcher with no rules at all; nothing is ignored.
func NewEmpty() *Matcher {
	return &Matcher{}
}

// ShouldIgnore reports whether the given path (relative to the scan root)
// should be excluded. isDir must be true when path refers to a directory.
//
// The path should use forward slashes; a leading "./" and a trailing slash
// are stripped internally.
func (m *Matcher) ShouldIgnore(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	path = strings.TrimSuffix(path, "/")

	if path == "" || path == "." {
		return false
	}

	// Evaluate rules in order; last matching rule wins.
	ignored := false
	matched := false // whether any rule matched this exact path
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.match(path) {
			ignored = !r.negation
			matched = true
		}
	}

	if ignored {
		return true
	}

	// A negation that matched this exact path overrides the parent
	// directory check, so "!fixtures/keep.c" can survive "fixtures/".
	if matched {
		return false
	}

	// A file under an ignored directory is itself ignored. The walk prunes
	// matched directories, but watch-mode events arrive as bare file paths
	// and must get the same answer.
	if !isDir {
		parts := strings.Split(path, "/")
		for i := 1; i <= len(parts)-1; i++ {
			if m.ShouldIgnore(strings.Join(parts[:i], "/"), true) {
				return true
			}
		}
	}

	return false
}

// ShouldIgnoreDir is a convenience for ShouldIgnore(path, true).
func (m *Matcher) ShouldIgnoreDir(path string) bool {
	return m.ShouldIgnore(path, true)
}

// ShouldIgnoreFile is a convenience for ShouldIgnore(path, false).
func (m *Matcher) ShouldIgnoreFile(path string) bool {
	return m.ShouldIgnore(path, false)
}

// Len returns the number of loaded rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// loadFile reads patterns from an ignore file.
func (m *Matcher) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m.rules = append(m.rules, parsePattern(line))
	}
	return scanner.Err()
}

// parsePattern converts a gitignore-style pattern string into a rule.
func parsePattern(pattern string) rule {
	r := rule{}

	if strings.HasPrefix(pattern, "!") {
		r.negation = true
		pattern = pattern[1:]
	}

	// Trailing slash restricts the rule to directories.
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	// Leading slash anchors to the scan root.
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}

	// Any other slash also anchors, per gitignore rules. Slash-free
	// patterns match basenames at any depth.
	if !r.anchored && strings.Contains(pattern, "/") {
		r.anchored = true
	}

	r.pattern = pattern
	return r
}

// match tests whether a rule matches the given path. The path is relative
// to the scan root, forward-slash separated, with no trailing slash. An
// invalid pattern never matches.
func (r *rule) match(path string) bool {
	pattern := r.pattern

	// "<prefix>/**" also covers the prefix directory itself.
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if r.anchored {
		ok, err := doublestar.Match(pattern, path)
		return err == nil && ok
	}

	// Unanchored: match the trailing path components at any depth.
	ok, err := doublestar.Match("**/"+pattern, path)
	return err == nil && ok
}
