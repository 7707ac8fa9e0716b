package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	Reset()
	SetBase(zap.New(core))
	t.Cleanup(Reset)
	return logs
}

func TestNoopBeforeInitialize(t *testing.T) {
	Reset()
	// Must not panic with the default no-op base.
	Advice("hello %s", "world")
	PileDebug("grow %d", 3)
	StoreError("boom")
}

func TestCategoryLoggerNamesEntries(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Advice("advice for %s", "laptop")
	PileDebug("grow: %d", 4)
	ServerWarn("slow")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "advice", entries[0].LoggerName)
	assert.Equal(t, "advice for laptop", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "pile", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	PileDebug("dropped")
	Pile("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestDisabledCategory(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)
	mu.Lock()
	categories = map[string]bool{"pile": false, "advice": true}
	mu.Unlock()

	Pile("hidden")
	Advice("shown")
	Store("unlisted categories stay on")

	require.Equal(t, 2, logs.Len())
	assert.False(t, IsCategoryEnabled(CategoryPile))
	assert.True(t, IsCategoryEnabled(CategoryStore))
}

func TestRequestLoggerFields(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	WithRequestID(CategoryServer, "req-42").WithField("item", "boat").Info("handled in %dms", 12)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "handled in 12ms", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "req-42", ctx["req"])
	assert.Equal(t, "boat", ctx["item"])
}

func TestTimerThreshold(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	timer := StartTimer(CategoryAPI, "complete")
	time.Sleep(2 * time.Millisecond)
	elapsed := timer.StopWithThreshold(time.Nanosecond)

	assert.Greater(t, elapsed, time.Duration(0))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.True(t, strings.HasPrefix(logs.All()[0].Message, "complete took"))
}

func TestInitializeWritesFile(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "shouldibuy.log")

	_, err := Initialize(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	Boot("started on %s", ":8787")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "started on :8787")
	assert.Contains(t, string(data), `"logger":"boot"`)
}

func TestInitializeRejectsBadLevel(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	_, err := Initialize(Options{Level: "loud"})
	assert.Error(t, err)
}
