// File: internal/observability/logger.go
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

const colorReset = "\x1b[0m"

// ansiColors maps the color names allowed under logger.colors.
var ansiColors = map[string]string{
	"black":   "\x1b[30m",
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// Fragments of Sync errors returned by terminals and pipes, which can't be synced.
var unsyncableErrors = []string{
	"/dev/stderr",
	"invalid argument",
	"inappropriate ioctl",
	"operation not supported",
}

// Initialize builds the process logger. Entries go to consoleWriter, and also
// to cfg.LogFile as JSON when it is set. Later calls are ignored.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		level := levelFor(cfg.Level)

		cores := []zapcore.Core{zapcore.NewCore(newEncoder(cfg), consoleWriter, level)}
		if cfg.LogFile != "" {
			cores = append(cores, fileCore(cfg, level))
		}

		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}

		logger := zap.New(zapcore.NewTee(cores...), options...)
		if cfg.ServiceName != "" {
			logger = logger.Named(cfg.ServiceName)
		}
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
	})
}

// InitializeLogger logs to stderr. Stdout carries the chat.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stderr))
}

// ResetForTest drops the process logger so the next Initialize takes effect.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// levelFor parses name, defaulting to info.
func levelFor(name string) zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(name)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}
	return level
}

// fileCore writes JSON lines to a lumberjack-rotated file.
func fileCore(cfg config.LoggerConfig, level zapcore.LevelEnabler) zapcore.Core {
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
	return zapcore.NewCore(newEncoder(config.LoggerConfig{Format: "json"}), writer, level)
}

func colorizedLevelEncoder(colors config.ColorConfig) zapcore.LevelEncoder {
	byLevel := map[zapcore.Level]string{
		zapcore.DebugLevel:  colors.Debug,
		zapcore.InfoLevel:   colors.Info,
		zapcore.WarnLevel:   colors.Warn,
		zapcore.ErrorLevel:  colors.Error,
		zapcore.DPanicLevel: colors.Fatal,
		zapcore.PanicLevel:  colors.Fatal,
		zapcore.FatalLevel:  colors.Fatal,
	}
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		name := strings.ToUpper(level.String())
		if code, ok := ansiColors[byLevel[level]]; ok {
			enc.AppendString(code + name + colorReset)
			return
		}
		enc.AppendString(name)
	}
}

// newEncoder returns the colored console encoder for format "console" and JSON
// for anything else.
func newEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if cfg.Format != "console" {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(ec)
	}

	ec.EncodeLevel = colorizedLevelEncoder(cfg.Colors)
	ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	return zapcore.NewConsoleEncoder(ec)
}

// GetLogger returns the process logger. Before Initialize it hands out a
// development logger named "fallback".
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	l.Warn("Logger used before initialization")
	return l.Named("fallback")
}

// Sync flushes buffered entries before the process exits.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil && !isUnsyncable(err) {
		fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
	}
}

func isUnsyncable(err error) bool {
	msg := err.Error()
	for _, frag := range unsyncableErrors {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
