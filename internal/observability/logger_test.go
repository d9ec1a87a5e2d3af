// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

// syncBuffer is a bytes.Buffer that satisfies zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("console format colorizes levels", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		buf := &syncBuffer{}

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.AddSync(buf))

		GetLogger().Info("navigating", zap.String("url", "https://example.com"))
		Sync()

		out := buf.String()
		assert.Contains(t, out, ansiColors["green"]+"INFO"+colorReset)
		assert.Contains(t, out, "TestService.")
		assert.Contains(t, out, "navigating")
		assert.Contains(t, out, "https://example.com")
	})

	t.Run("json format", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		buf := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(buf))
		GetLogger().Warn("load timed out")
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "load timed out", entry["msg"])
	})

	t.Run("level filtering and invalid level fallback", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		buf := &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "not-a-level", Format: "json"}, zapcore.AddSync(buf))
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("file output is JSON", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		logFile := filepath.Join(t.TempDir(), "visioncrawl.log")

		Initialize(config.LoggerConfig{Level: "info", Format: "console", LogFile: logFile, MaxSize: 1}, zapcore.AddSync(&syncBuffer{}))
		GetLogger().Info("written to file")
		Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		line := strings.TrimSpace(string(data))
		assert.True(t, strings.HasPrefix(line, "{"), "file core should encode JSON")
		assert.Contains(t, line, "written to file")
	})

	t.Run("only the first call takes effect", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		first, second := &syncBuffer{}, &syncBuffer{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(first))
		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(second))
		GetLogger().Info("once")
		Sync()

		assert.Contains(t, first.String(), "once")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	assert.NotNil(t, GetLogger())
}

func TestIsUnsyncable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("sync /dev/stderr: invalid argument"), true},
		{errors.New("sync /dev/pts/0: inappropriate ioctl for device"), true},
		{errors.New("write visioncrawl.log: no space left on device"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isUnsyncable(tt.err), tt.err.Error())
	}
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFor("debug").Level())
	assert.Equal(t, zapcore.InfoLevel, levelFor("verbose").Level())
}
