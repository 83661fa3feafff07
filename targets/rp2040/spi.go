//go:build rp2040

package main

import (
	"machine"

	"thermostat/ad5680"
	"thermostat/ad7172"
	"thermostat/core"
)

// spiBusConfig is one hardware SPI controller and its pins
type spiBusConfig struct {
	spi *machine.SPI
	sck machine.Pin
	sdo machine.Pin
	sdi machine.Pin
	cfg core.SPIConfig
}

var (
	adcBus = spiBusConfig{spi: machine.SPI0, sck: adcSCK, sdo: adcSDO, sdi: adcSDI, cfg: ad7172.SPIConfig}
	dacBus = spiBusConfig{spi: machine.SPI1, sck: dacSCK, sdo: dacSDO, sdi: dacSDI, cfg: ad5680.SPIConfig}
)

// configure sets up the controller. machine.SPI satisfies core.SPI.
func (b spiBusConfig) configure() (core.SPI, error) {
	err := b.spi.Configure(machine.SPIConfig{
		Frequency: b.cfg.Rate,
		SCK:       b.sck,
		SDO:       b.sdo,
		SDI:       b.sdi,
		Mode:      uint8(b.cfg.Mode),
	})
	if err != nil {
		return nil, err
	}
	return b.spi, nil
}

// outputPin configures p as a push-pull output at level
func outputPin(p machine.Pin, level bool) machine.Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(level)
	return p
}
