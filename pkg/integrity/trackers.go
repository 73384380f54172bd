package integrity

import (
	"bytes"
	"os"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// trailingWhitespaceSet is the byte set a full right-strip removes.
const trailingWhitespaceSet = " \t\n\r\v\f"

// NewTrackers builds the complete tracker set in report order. The order is
// fixed: reports group by issue kind in exactly this sequence.
func NewTrackers(p Policy) []Tracker {
	return []Tracker{
		NewPermissionTracker(p),
		NewEndOfFileNewlineTracker(),
		NewUtf8BomTracker(p),
		NewUnixLineEndingTracker(p),
		NewWindowsLineEndingTracker(p),
		NewTrailingWhitespaceTracker(p),
		NewTabTracker(p),
		NewMergeArtifactTracker(),
	}
}

// extOf returns the path's extension. Leading dots of the basename belong
// to the root, so a dotfile like ".profile" has no extension.
func extOf(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return ""
	}
	for i := 0; i < dot; i++ {
		if base[i] != '.' {
			return base[dot:]
		}
	}
	return ""
}

// isWindowsFile classifies a path by extension. Windows-specific files get
// the Windows line-ending tracker instead of the Unix one.
func isWindowsFile(path string, windowsExtensions []string) bool {
	ext := extOf(path)
	for _, w := range windowsExtensions {
		if ext == w {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Whole-file trackers
// -----------------------------------------------------------------------------

// PermissionTracker flags files whose executable bit does not match their
// role: scripts must be executable, everything else must not be.
type PermissionTracker struct {
	tracker
	executableExtensions []string
}

func NewPermissionTracker(p Policy) *PermissionTracker {
	return &PermissionTracker{
		tracker:              newTracker("permissions", "Incorrect permissions:", nil),
		executableExtensions: p.ExecutableExtensions,
	}
}

func (t *PermissionTracker) CheckFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	isExecutable := fi.Mode()&0o111 != 0
	shouldBeExecutable := hasAnySuffix(path, t.executableExtensions)
	if isExecutable != shouldBeExecutable {
		t.recordFile(path)
	}
	return nil
}

// EndOfFileNewlineTracker flags files whose last line is incomplete. An
// empty file counts: it does not end with a newline.
type EndOfFileNewlineTracker struct {
	tracker
}

func NewEndOfFileNewlineTracker() *EndOfFileNewlineTracker {
	return &EndOfFileNewlineTracker{newTracker("eof-newline", "Missing newline at end of file:", nil)}
}

func (t *EndOfFileNewlineTracker) CheckFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		t.recordFile(path)
	}
	return nil
}

// Utf8BomTracker flags files that start with a UTF-8 byte order mark.
// Checked files should be ASCII or BOM-less UTF-8.
type Utf8BomTracker struct {
	tracker
}

func NewUtf8BomTracker(p Policy) *Utf8BomTracker {
	return &Utf8BomTracker{newTracker("utf8-bom", "UTF-8 BOM present:", p.BomExemptions)}
}

func (t *Utf8BomTracker) CheckFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if bytes.HasPrefix(data, utf8BOM) {
		t.recordFile(path)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Line trackers
// -----------------------------------------------------------------------------

// UnixLineEndingTracker flags CR bytes in files that are not
// Windows-specific. Applicability is decided by classification alone; the
// exemption mechanism does not apply.
type UnixLineEndingTracker struct {
	tracker
	windowsExtensions []string
}

func NewUnixLineEndingTracker(p Policy) *UnixLineEndingTracker {
	return &UnixLineEndingTracker{
		tracker:           newTracker("unix-line-endings", "Non-Unix line endings:", nil),
		windowsExtensions: p.WindowsExtensions,
	}
}

func (t *UnixLineEndingTracker) ShouldCheckFile(path string) bool {
	return !isWindowsFile(path, t.windowsExtensions)
}

func (t *UnixLineEndingTracker) issueWithLine(line []byte, _ string) bool {
	return bytes.ContainsRune(line, '\r')
}

func (t *UnixLineEndingTracker) CheckFile(path string) error {
	return t.checkLines(path, t.issueWithLine)
}

// WindowsLineEndingTracker flags lines in Windows-specific files that are
// not CRLF-terminated or that hide a stray CR before the terminator.
type WindowsLineEndingTracker struct {
	tracker
	windowsExtensions []string
}

func NewWindowsLineEndingTracker(p Policy) *WindowsLineEndingTracker {
	return &WindowsLineEndingTracker{
		tracker:           newTracker("windows-line-endings", "Non-Windows line endings:", nil),
		windowsExtensions: p.WindowsExtensions,
	}
}

func (t *WindowsLineEndingTracker) ShouldCheckFile(path string) bool {
	return isWindowsFile(path, t.windowsExtensions)
}

func (t *WindowsLineEndingTracker) issueWithLine(line []byte, _ string) bool {
	// Short-circuit keeps the slice in bounds: a line that passes the
	// suffix test is at least two bytes long.
	return !bytes.HasSuffix(line, []byte("\r\n")) || bytes.ContainsRune(line[:len(line)-2], '\r')
}

func (t *WindowsLineEndingTracker) CheckFile(path string) error {
	return t.checkLines(path, t.issueWithLine)
}

// TrailingWhitespaceTracker flags lines carrying whitespace between their
// content and their terminator.
type TrailingWhitespaceTracker struct {
	tracker
}

func NewTrailingWhitespaceTracker(p Policy) *TrailingWhitespaceTracker {
	return &TrailingWhitespaceTracker{newTracker("trailing-whitespace", "Trailing whitespace:", p.WhitespaceExemptions)}
}

func (t *TrailingWhitespaceTracker) issueWithLine(line []byte, _ string) bool {
	stripped := bytes.TrimRight(line, "\r\n")
	return !bytes.Equal(stripped, bytes.TrimRight(line, trailingWhitespaceSet))
}

func (t *TrailingWhitespaceTracker) CheckFile(path string) error {
	return t.checkLines(path, t.issueWithLine)
}

// TabTracker flags tab characters.
type TabTracker struct {
	tracker
}

func NewTabTracker(p Policy) *TabTracker {
	return &TabTracker{newTracker("tabs", "Tabs present:", p.TabExemptions)}
}

func (t *TabTracker) issueWithLine(line []byte, _ string) bool {
	return bytes.ContainsRune(line, '\t')
}

func (t *TabTracker) CheckFile(path string) error {
	return t.checkLines(path, t.issueWithLine)
}

// MergeArtifactTracker flags leftovers of a git merge that was not fully
// edited.
type MergeArtifactTracker struct {
	tracker
}

func NewMergeArtifactTracker() *MergeArtifactTracker {
	return &MergeArtifactTracker{newTracker("merge-artifacts", "Merge artifact:", nil)}
}

func (t *MergeArtifactTracker) issueWithLine(line []byte, path string) bool {
	if bytes.HasPrefix(line, []byte("<<<<<<< ")) || bytes.HasPrefix(line, []byte(">>>>>>> ")) {
		return true
	}
	// merge.conflictStyle=diff3 adds a base section marker.
	if bytes.HasPrefix(line, []byte("||||||| ")) {
		return true
	}
	// A bare ======= is a conflict separator, except in Markdown where it
	// underlines a setext heading.
	if bytes.Equal(bytes.TrimRight(line, "\r\n"), []byte("=======")) && !strings.HasSuffix(path, ".md") {
		return true
	}
	return false
}

func (t *MergeArtifactTracker) CheckFile(path string) error {
	return t.checkLines(path, t.issueWithLine)
}
