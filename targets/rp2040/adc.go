//go:build rp2040

package main

import (
	"machine"
	"time"

	"thermostat/core"
	"thermostat/units"
)

// adcRef is the RP2040 ADC reference voltage
const adcRef units.Volts = 3.3

// monitorSettle is the multiplexer settling time before a conversion
const monitorSettle = 20 * time.Microsecond

// monitorMux reads the four analog monitors of one channel through a 4:1
// multiplexer in front of an RP2040 ADC input. The select lines are shared
// by both channels.
type monitorMux struct {
	adc machine.ADC
}

var monSelect [2]machine.Pin

func initMonitors() {
	machine.InitADC()
	monSelect = [2]machine.Pin{outputPin(monSel0, false), outputPin(monSel1, false)}
}

func newMonitorMux(pin machine.Pin) *monitorMux {
	m := &monitorMux{adc: machine.ADC{Pin: pin}}
	m.adc.Configure(machine.ADCConfig{})
	return m
}

// input returns multiplexer input n as a core.AnalogInput
func (m *monitorMux) input(n uint8) core.AnalogInput {
	return core.AnalogFunc(func() (units.Volts, error) {
		monSelect[0].Set(n&1 != 0)
		monSelect[1].Set(n&2 != 0)
		time.Sleep(monitorSettle)
		// machine.ADC scales every sample to 16 bits
		return units.Volts(float64(m.adc.Get())/0xFFFF) * adcRef, nil
	})
}
