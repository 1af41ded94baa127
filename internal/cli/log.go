// Package cli implements the mvnpack command-line interface.
//
// The commands wire the library packages together explicitly: the metadata
// store feeds the resolver, and the resolver, packaging rules and plugin
// loader feed the installation reactor.
//
// # Commands
//
// The main commands are:
//   - install: Run an installation plan and write packages and file lists
//   - resolve: Resolve artifact coordinates against system metadata
//   - rules: Show the effective packaging rule for coordinates
//   - graph: Render installed metadata as a dependency diagram
//   - cache: Manage the resolution cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time, rounded to the
// millisecond.
// Example output: "Loaded metadata fragments=12 entries=480 took=41ms"
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
