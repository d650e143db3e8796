// Package log holds the zap logger shared by every fitpress package.
package log

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It is usable before Init is called.
var Logger *zap.Logger

func init() {
	var err error
	if Logger, err = New("info", "console"); err != nil {
		panic("new logger: " + err.Error())
	}
}

// New builds a logger at level ("debug", "info", "warn", "error") writing
// either "json" or "console" encoded lines to stderr.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if format != "json" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel

	return cfg.Build(zap.AddCaller())
}

// Init replaces Logger. Call it once at startup, after config is loaded.
func Init(level, format string) error {
	l, err := New(level, format)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}
