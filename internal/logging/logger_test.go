package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	var l NoopLogger
	l.Debug("x")
	l.Info("x", F("k", "v"))
	l.Warn("x")
	l.Error("x", F("err", "boom"))
}

func TestDefaultLoggerFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := &DefaultLogger{minLevel: LevelWarn, logger: log.New(&buf, "", 0)}

	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("a warning", F("attempt", 3))
	l.Error("an error")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "attempt=3")
	assert.Contains(t, out, "ERROR")
}

func TestNewDefaultLoggerRespectsMinLevel(t *testing.T) {
	l := NewDefaultLogger(LevelInfo)
	assert.Equal(t, LevelInfo, l.minLevel)
}

func TestFieldFormatting(t *testing.T) {
	f := F("count", 42)
	assert.Equal(t, "count", f.Key)
	assert.Equal(t, 42, f.Value)
	assert.True(t, strings.Contains(f.Key, "count"))
}
