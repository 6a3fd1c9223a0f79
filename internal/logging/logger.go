// Package logging builds the zap logger each process writes through.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options names the process and picks its level and encoding.
type Options struct {
	Level      string
	Production bool
	Service    string
	Version    string
}

// Logger is the process logger. Every entry carries the service and version.
type Logger struct {
	*zap.Logger
	Level zap.AtomicLevel
}

// New builds a JSON logger in production and a console logger otherwise. An
// unknown level falls back to info.
func New(o Options) (*Logger, error) {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(o.Level))
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg := zap.NewDevelopmentConfig()
	if o.Production {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(
		zap.AddStacktrace(zap.ErrorLevel),
		zap.Fields(zap.String("service", o.Service), zap.String("version", o.Version)),
	)
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: base, Level: lvl}, nil
}

// Close flushes buffered entries. Sync errors on a terminal stderr are noise.
func (l *Logger) Close() {
	_ = l.Sync()
}
