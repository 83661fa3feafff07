//go:build rp2040

package main

import "machine"

// InitUSB configures USB CDC, which TinyGo exposes as machine.Serial
func InitUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes available to read from USB
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte from USB
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes multiple bytes to USB
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}

// readUSB drains pending USB bytes into buf and returns the filled part
func readUSB(buf []byte) []byte {
	n := 0
	for n < len(buf) && USBAvailable() > 0 {
		b, err := USBRead()
		if err != nil {
			break
		}
		buf[n] = b
		n++
	}
	return buf[:n]
}
