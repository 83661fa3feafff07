//go:build rp2040

package main

import (
	"machine"

	"go.uber.org/zap"

	"thermostat/core"
)

var debugUART *machine.UART

// InitDebugUART sets up UART0 on GPIO0/GPIO1 at 115200 baud and returns a
// logger writing to it. USB stays reserved for the command link.
func InitDebugUART(debug bool) *zap.Logger {
	debugUART = machine.UART0
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       debugTX,
		RX:       debugRX,
	})
	if err != nil {
		return core.NewLogger(nil, false)
	}
	return core.NewLogger(DebugPrintln, debug)
}

// DebugPrintln writes a string to the debug UART with newline
func DebugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
