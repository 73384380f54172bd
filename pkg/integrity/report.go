package integrity

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

// Reporter is the sink the findings report is written to. Report lines are
// bare: no prefixes, no timestamps. Headings may be colored on interactive
// consoles; the byte content of the report is the same either way.
type Reporter struct {
	w       io.Writer
	heading *color.Color
	file    *os.File
	lock    *flock.Flock
}

// NewReporter wraps an arbitrary writer. No color.
func NewReporter(w io.Writer) *Reporter {
	h := color.New(color.FgYellow, color.Bold)
	h.DisableColor()
	return &Reporter{w: w, heading: h}
}

// NewConsoleReporter reports to stderr, with colored headings when stderr
// is a terminal and NO_COLOR is unset.
func NewConsoleReporter() *Reporter {
	r := NewReporter(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("NO_COLOR") == "" {
		r.heading.EnableColor()
	}
	return r
}

// NewFileReporter appends to the log file at path, creating it if needed.
// An advisory lock on path+".lock" is held until Close so that concurrent
// runs sharing a log do not interleave their reports.
func NewFileReporter(path string) (*Reporter, error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open log file: %w", err)
	}
	r := NewReporter(f)
	r.file = f
	r.lock = lock
	return r, nil
}

// Close releases the file handle and lock, if any. Console reporters close
// to a no-op.
func (r *Reporter) Close() error {
	var first error
	if r.file != nil {
		first = r.file.Close()
		r.file = nil
	}
	if r.lock != nil {
		if err := r.lock.Unlock(); err != nil && first == nil {
			first = err
		}
		r.lock = nil
	}
	return first
}

// Heading writes a tracker heading line.
func (r *Reporter) Heading(s string) {
	r.heading.Fprintln(r.w, s)
}

// Line writes one report line.
func (r *Reporter) Line(s string) {
	fmt.Fprintln(r.w, s)
}

// Blank writes an empty line.
func (r *Reporter) Blank() {
	fmt.Fprintln(r.w)
}

// WriteSummary renders a per-tracker summary table to w. This is
// operational output: it never goes to the report sink.
func WriteSummary(w io.Writer, trackers []Tracker) error {
	table := tablewriter.NewTable(w)
	table.Header([]string{"CHECK", "FILES", "LINES"})
	for _, t := range trackers {
		files := 0
		lines := 0
		for _, ls := range t.Issues() {
			files++
			lines += len(ls)
		}
		if err := table.Append([]string{t.Name(), strconv.Itoa(files), strconv.Itoa(lines)}); err != nil {
			return err
		}
	}
	return table.Render()
}
