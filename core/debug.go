package core

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugWriter is a function type for writing debug messages. Platforms set it
// to a UART or USB CDC writer.
type DebugWriter func(string)

// debugSink adapts a DebugWriter to a zapcore.WriteSyncer
type debugSink struct {
	write DebugWriter
}

func (s debugSink) Write(p []byte) (int, error) {
	s.write(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (s debugSink) Sync() error { return nil }

// NewLogger builds a zap logger that renders console-encoded entries through
// w. Debug entries are dropped unless debug is set. A nil writer gives a
// no-op logger.
func NewLogger(w DebugWriter, debug bool) *zap.Logger {
	if w == nil {
		return zap.NewNop()
	}
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), debugSink{write: w}, level)
	return zap.New(core)
}
