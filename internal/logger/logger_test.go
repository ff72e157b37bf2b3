package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONWithTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New(Config{Level: "debug", Encoding: "json", OutputPath: path})
	require.NoError(t, err)
	l.Info("Deck generated", zap.Int("slides", 5))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, `"timestamp"`)
	assert.Contains(t, line, `"level":"INFO"`)
	assert.Contains(t, line, `"slides":5`)
	assert.NotContains(t, line, `"caller"`)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New(Config{Level: "verbose", Encoding: "weird", OutputPath: path})
	require.NoError(t, err)
	l.Debug("hidden")
	l.Info("visible")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "hidden"))
	assert.True(t, strings.Contains(string(data), "visible"))
}

func TestNew_CallerAndDevelopmentFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New(Config{Level: "info", Encoding: "json", OutputPath: path, Caller: true})
	require.NoError(t, err)
	l.Info("with caller")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"caller":"logger/logger_test.go`)

	devPath := filepath.Join(t.TempDir(), "dev.log")
	dev, err := New(Config{Level: "debug", OutputPath: devPath, Development: true})
	require.NoError(t, err)
	dev.Warn("slow subscriber")
	_ = dev.Sync()

	data, err = os.ReadFile(devPath)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "slow subscriber")
	assert.NotContains(t, out, `"level"`, "development mode defaults to console encoding")
	assert.Contains(t, out, "TestNew_CallerAndDevelopmentFromConfig", "warn carries a stacktrace")
	assert.Panics(t, func() { dev.DPanic("boom") })
}
