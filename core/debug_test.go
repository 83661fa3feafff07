package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerWritesThroughDebugWriter(t *testing.T) {
	var lines []string
	log := NewLogger(func(s string) { lines = append(lines, s) }, false)

	log.Debug("hidden")
	log.Info("ADC id", zap.Uint16("id", 0x00D5), zap.Int("retries", 2))

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "INFO")
	assert.Contains(t, lines[0], "ADC id")
	assert.Contains(t, lines[0], `"retries": 2`)
}

func TestNewLoggerDebugLevel(t *testing.T) {
	var lines []string
	log := NewLogger(func(s string) { lines = append(lines, s) }, true)
	log.Debug("shown")
	assert.Len(t, lines, 1)
}

func TestNewLoggerNilWriter(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLogger(nil, true).Info("dropped")
	})
}
