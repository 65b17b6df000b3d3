// Package logger provides verbose diagnostics for citecheck.
// Nothing is written unless verbose mode is enabled with --verbose.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log lines, mainly for tests
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		_, _ = fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
	}
}

// Debug logs request-level detail
func Debug(format string, args ...any) { logf("DEBUG", format, args...) }

// Info logs progress through a run
func Info(format string, args ...any) { logf("INFO", format, args...) }

// Warn logs recoverable problems
func Warn(format string, args ...any) { logf("WARN", format, args...) }

// Section prints a header separating phases of a run
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		_, _ = fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
