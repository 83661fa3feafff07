//go:build rp2040

package main

import (
	"machine"

	"thermostat/core"
)

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// pwmOutput is one PWM channel as a core.PWMOutput
type pwmOutput struct {
	group   pwmPeripheral
	channel uint8
	duty    uint32
}

var _ core.PWMOutput = (*pwmOutput)(nil)

// newPWMOutput configures the slice of pin for periodNs and returns its
// channel. Both channels of a slice share the period.
func newPWMOutput(pin machine.Pin, periodNs uint64) (*pwmOutput, error) {
	group := pwmSlice(pin)
	if err := group.Configure(machine.PWMConfig{Period: periodNs}); err != nil {
		return nil, err
	}
	ch, err := group.Channel(pin)
	if err != nil {
		return nil, err
	}
	group.Set(ch, 0)
	return &pwmOutput{group: group, channel: ch}, nil
}

func (p *pwmOutput) SetDuty(v uint32) error {
	if top := p.group.Top(); v > top {
		v = top
	}
	p.group.Set(p.channel, v)
	p.duty = v
	return nil
}

func (p *pwmOutput) Duty() uint32    { return p.duty }
func (p *pwmOutput) MaxDuty() uint32 { return p.group.Top() }

// pwmSlice returns the slice driving pin. GPIO N belongs to slice
// (N >> 1) & 7, channel A for even N and B for odd.
func pwmSlice(pin machine.Pin) pwmPeripheral {
	switch (uint8(pin) >> 1) & 0x7 {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
