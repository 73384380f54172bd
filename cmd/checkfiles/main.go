// Package main provides the checkfiles CLI, a file hygiene gate for
// source trees.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/checkfiles/internal/config"
	"github.com/jmylchreest/checkfiles/internal/version"
	"github.com/jmylchreest/checkfiles/pkg/checkignore"
	"github.com/jmylchreest/checkfiles/pkg/integrity"
)

var scanLog = log.New(os.Stderr, "[checkfiles:scan] ", log.Ltime)

// options are the runtime toggles beyond the scan policy. Everything but
// the log file arrives via CHECKFILES_* environment variables; the report
// destination is the one flag.
type options struct {
	logFile       string
	configFile    string
	sarifOut      string
	summary       bool
	watch         bool
	watchDebounce time.Duration
}

func main() {
	var logFile string
	var showVersion bool
	flag.StringVar(&logFile, "l", "", "append the report to this file instead of stderr")
	flag.StringVar(&logFile, "log-file", "", "append the report to this file instead of stderr")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Usage = printUsage
	flag.Parse()
	if showVersion {
		fmt.Println(versionLine())
		os.Exit(0)
	}
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", flag.Arg(0))
		printUsage()
		os.Exit(2)
	}

	opts := optionsFromEnv()
	if logFile != "" {
		opts.logFile = logFile
	}

	policy, err := config.Load(opts.configFile)
	if err != nil {
		fatal("%v", err)
	}

	ignore, err := checkignore.New(".")
	if err != nil {
		fatal("load %s: %v", checkignore.IgnoreFileName, err)
	}

	var status int
	if opts.watch {
		status, err = runWatch(opts, policy, ignore)
	} else {
		status, err = runScan(opts, policy, ignore)
	}
	if err != nil {
		if errors.Is(err, integrity.ErrNotProjectRoot) {
			if root := projectRootHint(); root != "" {
				fatal("%v; repository root looks like %s", err, root)
			}
		}
		fatal("%v", err)
	}
	os.Exit(status)
}

// runScan performs one complete scan with fresh trackers and reports to
// the configured sink. It returns the gate status: 1 when anything was
// found, 0 otherwise.
func runScan(opts options, policy integrity.Policy, ignore integrity.Ignorer) (int, error) {
	runID := ulid.Make().String()

	checker := integrity.NewChecker(policy, ignore)
	if err := checker.CheckRepoPath(); err != nil {
		return 1, err
	}

	// The sink opens before the walk so an unusable log file fails fast,
	// and so the report lock covers the whole run.
	reporter, err := newReporter(opts.logFile)
	if err != nil {
		return 1, err
	}

	head := ""
	if sha := headShortSHA(); sha != "" {
		head = " at " + sha
	}
	scanLog.Printf("checkfiles %s starting run %s%s", version.Short(), runID, head)

	stats, err := checker.CheckFiles()
	if err != nil {
		reporter.Close()
		return 1, err
	}

	status := checker.OutputIssues(reporter)
	if err := reporter.Close(); err != nil {
		return 1, err
	}

	if opts.sarifOut != "" {
		if err := integrity.ExportSARIF(opts.sarifOut, checker.Trackers(), runID, version.Short()); err != nil {
			return 1, fmt.Errorf("write SARIF: %w", err)
		}
		scanLog.Printf("wrote SARIF to %s", opts.sarifOut)
	}

	if opts.summary {
		if err := integrity.WriteSummary(os.Stderr, checker.Trackers()); err != nil {
			return 1, err
		}
	}

	scanLog.Printf("scan complete: %d files checked, %d issues in %s (run %s)",
		stats.FilesChecked, stats.Issues, stats.Duration.Round(time.Millisecond), runID)

	return status, nil
}

// newReporter opens the report sink: the log file in append mode when set,
// otherwise the console.
func newReporter(logFile string) (*integrity.Reporter, error) {
	if logFile != "" {
		return integrity.NewFileReporter(logFile)
	}
	return integrity.NewConsoleReporter(), nil
}

// optionsFromEnv reads the CHECKFILES_* toggles.
func optionsFromEnv() options {
	opts := options{
		logFile:    os.Getenv("CHECKFILES_LOG_FILE"),
		configFile: os.Getenv("CHECKFILES_CONFIG"),
		sarifOut:   os.Getenv("CHECKFILES_SARIF"),
		summary:    envBool("CHECKFILES_SUMMARY"),
		watch:      envBool("CHECKFILES_WATCH"),
	}
	if v := os.Getenv("CHECKFILES_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			opts.watchDebounce = d
		}
	}
	return opts
}

func printUsage() {
	fmt.Printf(`checkfiles %s - source tree file hygiene gate

Scans the tree under the current directory for incorrect file permissions,
missing final newlines, UTF-8 BOMs, wrong line endings, trailing
whitespace, tabs, and leftover merge markers, then reports findings
grouped by issue. Exits 1 when anything is found.

Must be run from the project root: the directory containing include/,
library/, and tests/.

Usage:
  checkfiles [-l FILE] [--version]

Flags:
  -l, --log-file FILE   append the report to FILE instead of stderr
  --version             print version information and exit

Environment:
  CHECKFILES_CONFIG           policy override file (default: .checkfiles.json)
  CHECKFILES_LOG_FILE         report log file (the -l flag wins)
  CHECKFILES_SARIF            write findings as SARIF 2.1.0 to this path
  CHECKFILES_SUMMARY=1        print a per-check summary table to stderr
  CHECKFILES_WATCH=1          stay alive and rescan on tree changes
  CHECKFILES_WATCH_DEBOUNCE   rescan debounce delay (default: 2s)

Scan policy keys (config file or CHECKFILES_* environment):
  extensions, excluded_directories, excluded_paths, root_markers,
  executable_extensions, windows_extensions, bom_exemptions,
  whitespace_exemptions, tab_exemptions

An optional %s file in the scan root adds gitignore-style
exclusions on top of the policy.
`, version.Short(), checkignore.IgnoreFileName)
}
