// Package cli implements the systemgraph command-line interface.
//
// Commands draw catalog systems as node-link diagrams, inspect the graph
// behind a diagram, serve the HTTP API and manage the local cache and
// catalog. The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - render: Write SVG, PNG, PDF, DOT or JSON files for a system
//   - graph: Print the nodes and edges of a system
//   - systems: List systems, or pick one interactively with --pick
//   - view: Interactive summary of a system
//   - serve: Run the HTTP API
//   - catalog: Validate descriptor files or import them into MongoDB
//   - cache, config: Manage local state
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
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level along with the elapsed time.
// Example output: "Rendered 3 files (1.234s)"
func (p *progress) done(format string, args ...any) {
	p.logger.Infof(format+" (%s)", append(args, p.elapsed())...)
}

// debug is like done at debug level.
func (p *progress) debug(format string, args ...any) {
	p.logger.Debugf(format+" (%s)", append(args, p.elapsed())...)
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}
