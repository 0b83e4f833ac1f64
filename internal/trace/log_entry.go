package trace

import (
	"fmt"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "NONE"
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Component identifies the compiler stage that produced a log entry.
type Component string

const (
	ComponentLexer       Component = "Lexer"
	ComponentSequence    Component = "Sequence"
	ComponentParser      Component = "Parser"
	ComponentTimeline    Component = "Timeline"
	ComponentDiagnostics Component = "Diagnostics"
)

// LogEntry is a single trace record.
type LogEntry struct {
	Timestamp time.Time
	Component Component
	Level     LogLevel
	Message   string
	Data      map[string]interface{}
}

// Format renders the entry the way a terminal tracer would print it.
func (e *LogEntry) Format() string {
	timestamp := e.Timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] [%s] %s: %s", timestamp, e.Component, e.Level, e.Message)
}
