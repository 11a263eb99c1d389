// Package debug provides the verbose-mode logging sink. Disabled by
// default; enabling it never changes the evaluator's result stream, only
// whether per-file errors (§7: FileAccessError, ParseTreeError) are
// reported alongside it.
package debug

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	output  io.Writer
	enabled bool
)

// Enable turns on verbose logging to w. Passing a nil writer disables it.
func Enable(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	enabled = w != nil
}

// Enabled reports whether verbose logging is currently active.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Logf writes a timestamped verbose-mode line. A no-op when disabled.
func Logf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || output == nil {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(output, "[%s] %s\n", ts, fmt.Sprintf(format, args...))
}
