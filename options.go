package queuefile

import "github.com/radarbase/queuefile/internal/engine"

// Option is a functional option for configuring a QueueFile at Open
// time.
type Option func(*engine.Config)

// WithMaxSize sets the hard cap, in bytes, on the backing file's
// length. It must be at least MinimumSize. If not supplied, the
// backing file may grow without an engine-enforced cap.
func WithMaxSize(n int64) Option {
	return func(c *engine.Config) { c.MaxSize = n }
}

// WithLogger sets the Logger that receives structured diagnostics
// (growth, shrink, corruption). Defaults to NoopLogger.
func WithLogger(l Logger) Option {
	return func(c *engine.Config) { c.Logger = l }
}

// WithMetrics sets the Metrics sink that receives operation counters
// and gauges. Defaults to NoopMetrics.
func WithMetrics(m Metrics) Option {
	return func(c *engine.Config) { c.Metrics = m }
}

// WithName sets the name used to identify this queue file in log
// lines and metrics. Defaults to the path passed to Open.
func WithName(name string) Option {
	return func(c *engine.Config) { c.Name = name }
}
