//go:build !wasm

package serial

import (
	"errors"
	"fmt"

	tarm "github.com/tarm/serial"
	"go.bug.st/serial"
)

// ErrNoDevice is returned by Open when the config names no device
var ErrNoDevice = errors.New("no serial device configured")

// tarmPort is a Port backed by github.com/tarm/serial. It adds nothing to
// the tarm port except a nil-safe Close.
type tarmPort struct {
	*tarm.Port
}

func (p tarmPort) Close() error {
	if p.Port == nil {
		return nil
	}
	return p.Port.Close()
}

// Open opens the thermostat's serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}
	port, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return tarmPort{port}, nil
}

// Ports lists the serial devices present on the host
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
