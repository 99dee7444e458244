// Package ports defines interfaces for external dependencies.
package ports

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug is for detailed debugging information.
	// Used for per-frame and subprocess details.
	LevelDebug LogLevel = iota
	// LevelInfo is for informational messages.
	// Used for orchestration-level progress.
	LevelInfo
	// LevelWarn is for warning messages.
	// Used for recoverable problems that don't stop processing.
	LevelWarn
	// LevelError is for error messages.
	// Used for unrecoverable problems that stop processing.
	LevelError
	// LevelQuiet suppresses all log output.
	LevelQuiet
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a string into a LogLevel.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "quiet":
		return LevelQuiet
	default:
		return LevelInfo
	}
}

// Logger abstracts logging operations with multi-language support.
// Messages are lexicon keys; callers usually pass text already built with
// l10n.F and no args. Every level is written to stderr.
type Logger interface {
	// Debug logs per-frame and subprocess details.
	Debug(msg string, args ...interface{})

	// Info logs pipeline progress.
	Info(msg string, args ...interface{})

	// Warn logs recoverable conditions such as a short box track.
	Warn(msg string, args ...interface{})

	// Error logs the failure that ends a run.
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger prefixing messages with a component
	// name such as "source", "encoder" or "boxtrack".
	WithComponent(component string) Logger
}
