package checkignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmptyMatcherIgnoresNothing(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d; want 0 without an ignore file", m.Len())
	}

	// No builtins: tree pruning is the scanner's job, not this package's.
	if m.ShouldIgnoreDir(".git") {
		t.Error("empty matcher should not ignore .git")
	}
	if m.ShouldIgnoreFile("main.c") {
		t.Error("empty matcher should not ignore main.c")
	}
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		input    string
		pattern  string
		negation bool
		dirOnly  bool
		anchored bool
	}{
		{"*.log", "*.log", false, false, false},
		{"build/", "build", false, true, false},
		{"!keep.c", "keep.c", true, false, false},
		{"/scripts", "scripts", false, false, true},
		{"sub/dir", "sub/dir", false, false, true}, // inner slash anchors too
		{"!testdata/", "testdata", true, true, false},
		{"**/fixtures/", "**/fixtures", false, true, true},
	}

	for _, tt := range tests {
		got := parsePattern(tt.input)
		if got.pattern != tt.pattern || got.negation != tt.negation ||
			got.dirOnly != tt.dirOnly || got.anchored != tt.anchored {
			t.Errorf("parsePattern(%q) = %+v; want pattern=%q negation=%v dirOnly=%v anchored=%v",
				tt.input, got, tt.pattern, tt.negation, tt.dirOnly, tt.anchored)
		}
	}
}

func TestDirOnlyPattern(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("build/"))

	if m.ShouldIgnoreFile("build") {
		t.Error("dir-only pattern 'build/' should not match a file named 'build'")
	}
	if !m.ShouldIgnoreDir("build") {
		t.Error("dir-only pattern 'build/' should match a directory named 'build'")
	}
}

func TestNegation(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("*.gen.c"))
	m.rules = append(m.rules, parsePattern("!keep.gen.c"))

	if !m.ShouldIgnoreFile("api.gen.c") {
		t.Error("expected api.gen.c to be ignored")
	}
	if m.ShouldIgnoreFile("keep.gen.c") {
		t.Error("expected keep.gen.c to be un-ignored by negation")
	}
}

func TestAnchoredPattern(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("/rootfile.c"))

	if !m.ShouldIgnoreFile("rootfile.c") {
		t.Error("expected anchored pattern to match root file")
	}
	if m.ShouldIgnoreFile("sub/rootfile.c") {
		t.Error("expected anchored pattern to NOT match nested file")
	}
}

func TestUnanchoredPattern(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("*.log"))

	if !m.ShouldIgnoreFile("error.log") {
		t.Error("expected *.log to match root-level file")
	}
	if !m.ShouldIgnoreFile("logs/error.log") {
		t.Error("expected *.log to match nested file")
	}
}

func TestDoubleStarDirPattern(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("**/fixtures/"))

	if !m.ShouldIgnoreDir("fixtures") {
		t.Error("expected **/fixtures/ to match top-level fixtures dir")
	}
	if !m.ShouldIgnoreDir("tests/data/fixtures") {
		t.Error("expected **/fixtures/ to match nested fixtures dir")
	}
}

func TestDoubleStarSuffix(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("generated/**"))

	// The prefix directory itself is covered, not just its contents.
	if !m.ShouldIgnoreDir("generated") {
		t.Error("expected generated/** to match the directory itself")
	}
	if !m.ShouldIgnoreFile("generated/api.c") {
		t.Error("expected generated/** to match contained files")
	}
	if m.ShouldIgnoreFile("generated.c") {
		t.Error("generated/** must not match a similarly named file")
	}
}

func TestDirChildPaths(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("third_party/"))

	// Watch-mode events arrive as bare file paths, so files inside an
	// ignored directory must get the same answer the pruned walk would give.
	if !m.ShouldIgnoreFile("third_party/lib/code.c") {
		t.Error("expected file inside ignored dir to be ignored")
	}
	if !m.ShouldIgnoreFile("vendor/third_party/code.c") {
		t.Error("expected file inside nested ignored dir to be ignored")
	}
	if m.ShouldIgnoreFile("third_party_notes.md") {
		t.Error("similarly named sibling file must not be ignored")
	}
}

func TestNegationBlocksParentPropagation(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("fixtures/"))
	m.rules = append(m.rules, parsePattern("!fixtures/keep.c"))

	if !m.ShouldIgnoreFile("fixtures/other.c") {
		t.Error("expected fixtures/other.c to be ignored via its directory")
	}
	if m.ShouldIgnoreFile("fixtures/keep.c") {
		t.Error("expected fixtures/keep.c to survive via negation")
	}
}

func TestPathNormalization(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("build/"))

	// Walk paths carry a leading "./"; directory paths may carry a
	// trailing slash.
	if !m.ShouldIgnore("./build", true) {
		t.Error("expected ./build to normalize and match")
	}
	if !m.ShouldIgnore("build/", true) {
		t.Error("expected build/ to normalize and match")
	}
	if m.ShouldIgnore("./", true) {
		t.Error("the root itself is never ignored")
	}
}

func TestInvalidPatternNeverMatches(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("[")) // malformed character class

	if m.ShouldIgnoreFile("[") {
		t.Error("invalid pattern should never match")
	}
	if m.ShouldIgnoreFile("anything.c") {
		t.Error("invalid pattern should never match")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `# generated artifacts
*.generated.c
fixtures/
!fixtures/keep.c

/scripts
`
	if err := os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 4 {
		t.Errorf("Len = %d; want 4 (comments and blanks skipped)", m.Len())
	}

	if !m.ShouldIgnoreFile("api.generated.c") {
		t.Error("expected *.generated.c to be ignored")
	}
	if !m.ShouldIgnoreDir("fixtures") {
		t.Error("expected fixtures/ to be ignored")
	}
	if m.ShouldIgnoreFile("fixtures/keep.c") {
		t.Error("expected fixtures/keep.c to be un-ignored")
	}
	if !m.ShouldIgnoreDir("scripts") {
		t.Error("expected /scripts to match at the root")
	}
	if m.ShouldIgnoreDir("deep/scripts") {
		t.Error("expected /scripts to NOT match nested dirs")
	}
}

func TestNewEmpty(t *testing.T) {
	m := NewEmpty()
	if m.Len() != 0 {
		t.Errorf("Len = %d; want 0", m.Len())
	}
	if m.ShouldIgnoreFile("anything.c") {
		t.Error("NewEmpty matcher must ignore nothing")
	}
}
