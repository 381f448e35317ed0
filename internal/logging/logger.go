// Package logging sets up and carries the zap logger through contexts.
package logging

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const loggerKey = contextKey("logger")

var (
	defaultLogger     *zap.SugaredLogger
	defaultLoggerOnce sync.Once
)

// Options tune the logger built by NewLogger.
type Options struct {
	Debug bool
	Level string
	// File tees output to a rotating file when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// NewLogger creates a new logger with the given options.
func NewLogger(opts Options) *zap.SugaredLogger {
	var encoderCfg zapcore.EncoderConfig
	if opts.Debug {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
	}
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := levelFor(opts.Level, opts.Debug)

	var encoder zapcore.Encoder
	if opts.Debug {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}
	if opts.File != "" {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), w, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// NewLoggerFromEnv reads LOG_LEVEL, TIEBREAK_LOG_DEBUG and TIEBREAK_LOG_FILE.
func NewLoggerFromEnv() *zap.SugaredLogger {
	return NewLogger(Options{
		Debug:      strings.ToLower(strings.TrimSpace(os.Getenv("TIEBREAK_LOG_DEBUG"))) == "true",
		Level:      os.Getenv("LOG_LEVEL"),
		File:       os.Getenv("TIEBREAK_LOG_FILE"),
		MaxSizeMB:  100,
		MaxBackups: 3,
	})
}

// DefaultLogger returns the default logger for the package.
func DefaultLogger() *zap.SugaredLogger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLoggerFromEnv()
	})
	return defaultLogger
}

// WithLogger creates a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in the context. If no such logger
// exists, a default logger is returned.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok {
		return logger
	}
	return DefaultLogger()
}

func levelFor(s string, debug bool) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil || s == "" {
		if debug {
			return zapcore.DebugLevel
		}
		return zapcore.InfoLevel
	}
	return level
}
