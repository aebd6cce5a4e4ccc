package queuefile

import (
	"github.com/radarbase/queuefile/internal/logging"
	"github.com/radarbase/queuefile/internal/metrics"
)

// Logger is the interface a caller implements to receive structured
// diagnostics (growth, shrink, corruption) from a QueueFile.
type Logger = logging.Logger

// LogLevel is the severity of a log message.
type LogLevel = logging.Level

// Log levels, re-exported for callers configuring a DefaultLogger.
const (
	LevelDebug = logging.LevelDebug
	LevelInfo  = logging.LevelInfo
	LevelWarn  = logging.LevelWarn
	LevelError = logging.LevelError
)

// Field is a structured logging key/value pair.
type Field = logging.Field

// F builds a structured logging Field.
func F(key string, value interface{}) Field {
	return logging.F(key, value)
}

// NoopLogger discards everything logged to it. It is the default
// when no Logger is supplied to Open.
type NoopLogger = logging.NoopLogger

// NewDefaultLogger returns a Logger that writes to stderr, filtering
// out messages below minLevel.
func NewDefaultLogger(minLevel LogLevel) Logger {
	return logging.NewDefaultLogger(minLevel)
}

// Metrics is the interface a caller implements, or obtains from
// NewMetricsCollector, to receive operation counters and gauges from
// a QueueFile.
type Metrics = metrics.Recorder

// MetricsSnapshot is a point-in-time view of a Collector's counters
// and gauges.
type MetricsSnapshot = metrics.Snapshot

// MetricsCollector tracks queue operations in memory without
// requiring an external metrics client library. Read its state with
// GetSnapshot at whatever cadence a caller's monitoring stack wants.
type MetricsCollector = metrics.Collector

// NewMetricsCollector creates a MetricsCollector for a single queue
// file, identified by name for disambiguation when a process hosts
// several.
func NewMetricsCollector(name string) *MetricsCollector {
	return metrics.NewCollector(name)
}

// NoopMetrics discards everything recorded to it. It is the default
// when no Metrics is supplied to Open.
type NoopMetrics = metrics.NoopCollector
