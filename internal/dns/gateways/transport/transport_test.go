package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReplyBuilder implements responder.ReplyBuilder for testing
type MockReplyBuilder struct {
	mock.Mock
}

func (m *MockReplyBuilder) BuildReply(raw []byte) ([]byte, error) {
	args := m.Called(raw)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

// replyFunc adapts a function to responder.ReplyBuilder.
type replyFunc func([]byte) ([]byte, error)

func (f replyFunc) BuildReply(raw []byte) ([]byte, error) { return f(raw) }

type logEntry struct {
	level  string
	fields map[string]any
	msg    string
}

// recordingLogger keeps every entry so tests can wait for one.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level string, fields map[string]any, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, fields: fields, msg: msg})
}

func (l *recordingLogger) Info(f map[string]any, msg string)  { l.add("info", f, msg) }
func (l *recordingLogger) Error(f map[string]any, msg string) { l.add("error", f, msg) }
func (l *recordingLogger) Debug(f map[string]any, msg string) { l.add("debug", f, msg) }
func (l *recordingLogger) Warn(f map[string]any, msg string)  { l.add("warn", f, msg) }
func (l *recordingLogger) Panic(f map[string]any, msg string) { l.add("panic", f, msg) }
func (l *recordingLogger) Fatal(f map[string]any, msg string) { l.add("fatal", f, msg) }

func (l *recordingLogger) find(level, msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func (l *recordingLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			n++
		}
	}
	return n
}

// waitFor blocks until an entry with level and msg is logged.
func (l *recordingLogger) waitFor(t *testing.T, level, msg string) logEntry {
	t.Helper()
	var entry logEntry
	require.Eventually(t, func() bool {
		var ok bool
		entry, ok = l.find(level, msg)
		return ok
	}, 2*time.Second, 5*time.Millisecond, "no %s entry %q", level, msg)
	return entry
}

func stopTransport(t *testing.T, tr ServerTransport) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tr.Stop(ctx))
}

func TestWaitGroup(t *testing.T) {
	var wg sync.WaitGroup
	assert.NoError(t, waitGroup(context.Background(), &wg))

	wg.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := waitGroup(ctx, &wg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	wg.Done()
}

func TestOptions_Defaults(t *testing.T) {
	assert.Equal(t, DefaultMaxInflight, Options{}.maxInflight())
	assert.Equal(t, DefaultMaxInflight, Options{MaxInflight: -3}.maxInflight())
	assert.Equal(t, 7, Options{MaxInflight: 7}.maxInflight())
}

func TestIgnoreClosed(t *testing.T) {
	assert.NoError(t, ignoreClosed(nil))
	other := errors.New("boom")
	assert.Equal(t, other, ignoreClosed(other))
}
