package prompt

import (
	"io"
	"log/slog"
)

// OutputFormat controls how collected state is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits a JSON object keyed by state path.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatPrettyText emits one "Label: value" line per field.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// createChoice is appended to selects that can create options. createKey
// marks it among the picked keys and never collides with a coerced key.
const (
	createChoice = "+ Create new option"
	createKey    = "\x00create"
)

// Option configures the Runner.
type Option func(*Runner)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Runner) {
		if format != "" {
			r.format = format
		}
	}
}

// WithPageSize caps the rows shown by select prompts.
func WithPageSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
