package main

import (
	"fmt"
	"os"

	"github.com/jmylchreest/checkfiles/internal/version"
)

// fatal prints an error message and exits with status 1.
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// envBool reports whether an environment variable is set to "1".
func envBool(key string) bool {
	return os.Getenv(key) == "1"
}

// versionLine is what --version prints: the full build identity, with a
// marker for builds that never got a release version stamped in.
func versionLine() string {
	s := version.String()
	if version.IsSnapshot() {
		s += "\ndevelopment build"
	}
	return s
}
