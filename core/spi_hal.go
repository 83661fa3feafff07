package core

import "tinygo.org/x/drivers"

// SPI is the blocking full-duplex transfer primitive the converter drivers
// are written against. machine.SPI satisfies it on TinyGo targets and the
// simulated devices satisfy it on the host.
type SPI = drivers.SPI

// SPIMode represents SPI clock polarity and phase (0-3)
// Mode 0: CPOL=0, CPHA=0 (clock idle low, sample on rising edge)
// Mode 1: CPOL=0, CPHA=1 (clock idle low, sample on falling edge)
// Mode 2: CPOL=1, CPHA=0 (clock idle high, sample on falling edge)
// Mode 3: CPOL=1, CPHA=1 (clock idle high, sample on rising edge)
type SPIMode uint8

// SPIConfig holds the bus settings a device needs from the board layer
type SPIConfig struct {
	Mode SPIMode // SPI mode (0-3)
	Rate uint32  // Clock rate in Hz
}

// Transfer runs one in-place exchange on bus: buf is sent and overwritten
// with the bytes clocked in.
func Transfer(bus SPI, buf []byte) error {
	return bus.Tx(buf, buf)
}
