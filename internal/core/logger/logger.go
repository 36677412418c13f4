// Package logger holds the process-wide zap logger shared by the API, the
// mailer and the portal CLI.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service is attached to every entry so the binaries can share one sink.
const Service = "freightdesk"

var globalLogger *zap.Logger

// Init builds the global logger. "production" writes JSON with ISO 8601
// timestamps; anything else writes coloured console output. An unknown level
// keeps the environment's default. fields are added to every entry, e.g.
// the binary name.
func Init(environment string, level string, fields ...zap.Field) error {
	var cfg zap.Config

	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	// Stdout belongs to command output (CSV exports, JSON results).
	cfg.OutputPaths = []string{"stderr"}

	if l, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(l)
	}

	base := append([]zap.Field{zap.String("service", Service)}, fields...)
	l, err := cfg.Build(zap.Fields(base...))
	if err != nil {
		return err
	}

	globalLogger = l
	return nil
}

// Get returns the global logger, or a no-op logger before Init.
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// Named returns a child of the global logger scoped to a component
// (e.g. "shipments", "mailer").
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

// Sync flushes any buffered log entries.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
