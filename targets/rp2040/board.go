//go:build rp2040

package main

import "machine"

// Thermostat board wiring
const (
	debugTX = machine.GPIO0
	debugRX = machine.GPIO1

	// AD7172-2 on SPI0, mode 3
	adcSCK = machine.GPIO2
	adcSDO = machine.GPIO3
	adcSDI = machine.GPIO4
	adcNSS = machine.GPIO5
	// adcReady mirrors DOUT/RDY for the data-ready interrupt
	adcReady = machine.GPIO22

	// AD5680 pair on SPI1, mode 1
	dacSDI = machine.GPIO12
	dacSCK = machine.GPIO14
	dacSDO = machine.GPIO15

	fanPin = machine.GPIO13

	// monSel0/monSel1 drive the 4:1 monitor multiplexers
	monSel0 = machine.GPIO20
	monSel1 = machine.GPIO21
)

// limitPWMPeriod is the period of the max_v and max_i PWM outputs in ns
const limitPWMPeriod = 10_000

// tecPins is the wiring of one TEC channel
type tecPins struct {
	dacSync machine.Pin
	shdn    machine.Pin
	maxV    machine.Pin
	maxIPos machine.Pin
	maxINeg machine.Pin
	// monitor is the ADC input behind the channel's multiplexer
	monitor machine.Pin
}

var tecWiring = [2]tecPins{
	{
		dacSync: machine.GPIO16,
		shdn:    machine.GPIO18,
		maxV:    machine.GPIO6,
		maxIPos: machine.GPIO7,
		maxINeg: machine.GPIO8,
		monitor: machine.ADC0,
	},
	{
		dacSync: machine.GPIO17,
		shdn:    machine.GPIO19,
		maxV:    machine.GPIO9,
		maxIPos: machine.GPIO10,
		maxINeg: machine.GPIO11,
		monitor: machine.ADC1,
	},
}

// hwrevPins are the straps hwrev0..hwrev3
var hwrevPins = [4]machine.Pin{machine.GPIO23, machine.GPIO24, machine.GPIO28, machine.GPIO29}

// Monitor multiplexer inputs
const (
	monDacFeedback = iota
	monVref
	monITec
	monTecU
)
