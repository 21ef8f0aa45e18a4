package common

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a logger recording every entry so that tests can make
// assertions against them. Entries are read in order, one line at a
// time, as "<level> <message>".
type TestLogger struct {
	*zap.Logger

	logs   *observer.ObservedLogs
	cursor int
	t      testing.TB
}

// NewTestLogger constructs a test logger we can make assertions against
func NewTestLogger(t testing.TB) *TestLogger {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestLogger{
		Logger: zap.New(core),
		logs:   logs,
		t:      t,
	}
}

func (tl *TestLogger) next() observer.LoggedEntry {
	entries := tl.logs.All()
	require.Greater(tl.t, len(entries), tl.cursor, "no more log lines")
	e := entries[tl.cursor]
	tl.cursor++
	return e
}

// SkipLogLine will jump over a log line we don't care about. If there
// is no line left the test will fail.
func (tl *TestLogger) SkipLogLine(reason string) {
	tl.next()
	tl.t.Logf("Skipping log line: %s", reason)
}

// LogLineMatches checks the next log line against the match regexp.
func (tl *TestLogger) LogLineMatches(match string) {
	e := tl.next()
	require.Regexp(tl.t, regexp.MustCompile(match), e.Level.String()+" "+e.Message)
}

// Count returns the number of entries logged with the given message.
func (tl *TestLogger) Count(msg string) int {
	return tl.logs.FilterMessage(msg).Len()
}

// Entries returns every entry logged so far.
func (tl *TestLogger) Entries() []observer.LoggedEntry {
	return tl.logs.All()
}
