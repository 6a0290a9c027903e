// Package logger configures the process-wide zap logger. Level and format
// come from the environment so deployments can switch to JSON output
// without a rebuild.
package logger

import (
	"sync"

	"github.com/formworks/licensing/internal/pkg/env"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.Logger
	once   sync.Once
)

// New builds a zap logger for the given level ("debug", "info", "warn",
// "error") and format ("json" or "console").
func New(levelStr, format string) *zap.Logger {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := cfg.Build()
	return logger
}

// Get returns the process-wide logger, building it from LOG_LEVEL and
// LOG_FORMAT on first use.
func Get() *zap.Logger {
	once.Do(func() {
		global = New(env.GetEnv("LOG_LEVEL", "info"), env.GetEnv("LOG_FORMAT", "console"))
	})
	return global
}
