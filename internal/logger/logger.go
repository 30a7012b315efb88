package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogger *zap.SugaredLogger
	initOnce      sync.Once
)

// Init initializes the global logger
func Init(level string, json bool) {
	encoding := "console"
	if json {
		encoding = "json"
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		// Fallback to example logger instead of panicking
		defaultLogger = zap.NewExample().Sugar()
		defaultLogger.Warnw("failed to initialize logger, using fallback", "error", err)
		return
	}
	defaultLogger = l.Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Get returns the default logger
func Get() *zap.SugaredLogger {
	initOnce.Do(func() {
		if defaultLogger == nil {
			Init("info", false)
		}
	})
	return defaultLogger
}

// Info logs at info level
func Info(msg string, args ...any) {
	Get().Infow(msg, args...)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Get().Debugw(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Get().Warnw(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Get().Errorw(msg, args...)
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	Get().Errorw(msg, args...)
	Sync()
	os.Exit(1)
}

// With returns a logger with the given attributes
func With(args ...any) *zap.SugaredLogger {
	return Get().With(args...)
}

// Sync flushes buffered log entries
func Sync() {
	if defaultLogger != nil {
		_ = defaultLogger.Sync()
	}
}
