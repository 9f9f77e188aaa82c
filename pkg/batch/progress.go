package batch

import (
	"github.com/rs/zerolog"
)

// Progress is emitted once per processed item.
type Progress struct {
	Index   int // items processed so far, 1-based
	Total   int
	Percent int // rounded to nearest integer
}

// EventLevel is the severity of a workflow log event.
type EventLevel string

const (
	// EventInfo marks normal workflow steps.
	EventInfo EventLevel = "info"

	// EventSuccess marks completed items.
	EventSuccess EventLevel = "success"

	// EventError marks failed items and aborts.
	EventError EventLevel = "error"
)

// Reporter observes a workflow run: one Progress per processed item, discrete
// timestamped events, and the terminal report via the workflow return value.
// Rendering is the caller's concern.
type Reporter interface {
	Progress(p Progress)
	Event(level EventLevel, message string)
}

// NopReporter discards all observations.
type NopReporter struct{}

// Progress implements Reporter.
func (NopReporter) Progress(Progress) {}

// Event implements Reporter.
func (NopReporter) Event(EventLevel, string) {}

// LogReporter adapts the reporting contract onto a zerolog logger.
type LogReporter struct {
	Logger zerolog.Logger
}

// Progress implements Reporter.
func (r *LogReporter) Progress(p Progress) {
	r.Logger.Info().
		Int("processed", p.Index).
		Int("total", p.Total).
		Int("percent", p.Percent).
		Msg("Progress")
}

// Event implements Reporter.
func (r *LogReporter) Event(level EventLevel, message string) {
	switch level {
	case EventError:
		r.Logger.Warn().Str("event", string(level)).Msg(message)
	default:
		r.Logger.Info().Str("event", string(level)).Msg(message)
	}
}
