// Package serial connects the host tools to the thermostat's USB serial
// port, which carries newline-terminated text commands one way and JSON
// report lines the other.
package serial

import (
	"io"
	"time"

	"thermostat/protocol"
)

// Port is an open serial link. Tests substitute an in-memory pipe.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// ReadTimeout bounds a single read (0 = blocking)
	ReadTimeout time.Duration
}

// DefaultConfig returns a default configuration for the thermostat
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 500 * time.Millisecond,
	}
}

// LineReader splits a byte stream into lines through a protocol.LineFifo.
// Lines longer than protocol.MaxLineLength are dropped.
type LineReader struct {
	r    io.Reader
	fifo *protocol.LineFifo
	buf  []byte
}

// NewLineReader returns a LineReader over r
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		r:    r,
		fifo: protocol.NewLineFifo(4 * protocol.MaxLineLength),
		buf:  make([]byte, protocol.MaxLineLength),
	}
}

// ReadLine returns the next line without its newline. Timeouts that
// return no data are retried; any read error is returned once the queued
// lines are drained.
func (l *LineReader) ReadLine() ([]byte, error) {
	for {
		if line, ok := l.fifo.ReadLine(); ok {
			return line, nil
		}

		n := len(l.buf)
		if free := l.fifo.Free(); free < n {
			n = free
		}
		n, err := l.r.Read(l.buf[:n])
		if n > 0 {
			l.fifo.Write(l.buf[:n])
		}
		if err != nil && n == 0 {
			return nil, err
		}
	}
}
