// Package logging wires a file-backed zap logger. The terminal belongs to
// the UI, so nothing ever logs to stdout or stderr; with debug off the
// logger is a no-op.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger. Debug off returns zap.NewNop, so call
// sites never need nil checks. The returned close func flushes the sink.
func New(debug bool, path string) (*zap.Logger, func(), error) {
	if !debug || path == "" {
		return zap.NewNop(), func() {}, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}
