package logging

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestFromContext(t *testing.T) {
	ctx := context.Background()
	if got := FromContext(ctx); got != DefaultLogger() {
		t.Errorf("logger without context value must be the default logger")
	}

	logger := NewLogger(Options{Debug: true})
	ctx = WithLogger(ctx, logger)
	if got := FromContext(ctx); got != logger {
		t.Errorf("logger from context got: %p, expected: %p", got, logger)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		debug    bool
		expected zapcore.Level
	}{
		{name: "empty", level: "", expected: zapcore.InfoLevel},
		{name: "empty_debug", level: "", debug: true, expected: zapcore.DebugLevel},
		{name: "warn", level: "WARN", expected: zapcore.WarnLevel},
		{name: "garbage", level: "loud", expected: zapcore.InfoLevel},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := levelFor(test.level, test.debug); got != test.expected {
				t.Errorf("level got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestNewLogger_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tiebreak.log")
	logger := NewLogger(Options{File: file, MaxSizeMB: 1})
	logger.Infow("written", "key", 1)
	_ = logger.Sync()
}
