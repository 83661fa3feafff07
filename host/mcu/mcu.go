// Package mcu talks to a thermostat over its serial port: text commands
// out, JSON report lines back.
package mcu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"thermostat/channels"
	"thermostat/host/serial"
)

// ErrNotConnected is returned before Connect or after Close
var ErrNotConnected = errors.New("mcu: not connected")

// MCU represents a connection to a thermostat
type MCU struct {
	mu    sync.Mutex
	port  io.ReadWriteCloser
	lines *serial.LineReader
	log   *zap.Logger
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU(log *zap.Logger) *MCU {
	if log == nil {
		log = zap.NewNop()
	}
	return &MCU{log: log}
}

// Connect opens the serial port described by cfg
func (m *MCU) Connect(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.Attach(port)
	m.log.Info("connected", zap.String("device", cfg.Device), zap.Int("baud", cfg.Baud))
	return nil
}

// Attach uses an already open stream, e.g. a pipe to a simulator
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.port = port
	m.lines = serial.NewLineReader(port)
}

// Close closes the connection
func (m *MCU) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port == nil {
		return nil
	}
	err := m.port.Close()
	m.port = nil
	m.lines = nil
	return err
}

// IsConnected returns whether a port is attached
func (m *MCU) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port != nil
}

// SendCommand writes one command line, e.g. "pwm 0 pid"
func (m *MCU) SendCommand(command string) error {
	m.mu.Lock()
	port := m.port
	m.mu.Unlock()
	if port == nil {
		return ErrNotConnected
	}
	command = strings.TrimSpace(command)
	if strings.ContainsAny(command, "\r\n") {
		return fmt.Errorf("command contains a line break: %q", command)
	}
	if _, err := io.WriteString(port, command+"\n"); err != nil {
		return fmt.Errorf("failed to send %q: %w", command, err)
	}
	m.log.Debug("command sent", zap.String("command", command))
	return nil
}

// Message is one line received from the thermostat. Reports carries the
// decoded status when the line is a report; other lines (command replies,
// summaries) are left in Raw.
type Message struct {
	Raw     []byte
	Reports []channels.Report
}

// Receive blocks for the next line
func (m *MCU) Receive() (Message, error) {
	m.mu.Lock()
	lines := m.lines
	m.mu.Unlock()
	if lines == nil {
		return Message{}, ErrNotConnected
	}
	line, err := lines.ReadLine()
	if err != nil {
		return Message{}, err
	}
	return DecodeMessage(line), nil
}

// DecodeMessage recognises report lines: a JSON array of channel reports,
// or a single report object.
func DecodeMessage(line []byte) Message {
	msg := Message{Raw: line}
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return msg
	}
	switch trimmed[0] {
	case '[':
		var reports []channels.Report
		if err := json.Unmarshal(trimmed, &reports); err == nil && isReport(trimmed[1:]) {
			msg.Reports = reports
		}
	case '{':
		var r channels.Report
		if err := json.Unmarshal(trimmed, &r); err == nil && isReport(trimmed) {
			msg.Reports = []channels.Report{r}
		}
	}
	return msg
}

// isReport tells reports from summaries, which also carry "channel"
func isReport(obj []byte) bool {
	return bytes.Contains(obj, []byte(`"i_set"`)) && bytes.Contains(obj, []byte(`"dac_feedback"`))
}
