// logger/logger_test.go
package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseLogLevelFromString tests the string-to-level conversion used by config files.
func TestParseLogLevelFromString(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevelFromString("LogLevelDebug"))
	assert.Equal(t, LogLevelWarn, ParseLogLevelFromString("LogLevelWarn"))
	assert.Equal(t, LogLevel(LogLevelNone), ParseLogLevelFromString("nonsense"))
}

// TestBuildLogger tests that loggers build for both encodings without panicking.
func TestBuildLogger(t *testing.T) {
	jsonLogger := BuildLogger(LogLevelInfo, "json", "")
	assert.Equal(t, LogLevelInfo, jsonLogger.GetLogLevel())

	consoleLogger := BuildLogger(LogLevelDebug, "console", "\t")
	assert.Equal(t, LogLevelDebug, consoleLogger.GetLogLevel())

	consoleLogger.SetLevel(LogLevelError)
	assert.Equal(t, LogLevelError, consoleLogger.GetLogLevel())
}

// TestNopLogger tests that the no-op logger swallows everything quietly.
func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Debug("ignored")
	log.Info("ignored")
	log.Warn("ignored")
	assert.Error(t, log.Error("still returns an error"), "Error should hand back a usable error value")
}
