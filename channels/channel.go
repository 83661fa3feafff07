package channels

import (
	"go.uber.org/zap"

	"thermostat/ad5680"
	"thermostat/core"
	"thermostat/units"
)

const (
	// RSense is the TEC current sense resistor
	RSense units.Ohms = 0.05
	// senseGain is the current sense amplifier gain
	senseGain = 10
	// MaxTecI bounds the current setpoint
	MaxTecI units.Amps = 2.0
	// DacFullScale is the nominal DAC output at full-scale code
	DacFullScale units.Volts = 3.0
	// NominalVref is the driver reference before calibration
	NominalVref units.Volts = 1.5

	// TecIScale converts the ITEC monitor to current (V/A)
	TecIScale = 0.4
	// TecUOffset and TecUGain convert the VTEC monitor to TEC voltage
	TecUOffset units.Volts = 1.5
	TecUGain               = 4
)

// Pins are the peripherals of one TEC channel
type Pins struct {
	DacBus          core.SPI
	DacSync         core.OutputPin
	DacSyncIdleHigh bool
	// Shdn enables the TEC driver when high
	Shdn core.OutputPin

	DacFeedback core.AnalogInput
	Vref        core.AnalogInput
	ITec        core.AnalogInput
	TecU        core.AnalogInput

	MaxV    core.PWMOutput
	MaxIPos core.PWMOutput
	MaxINeg core.PWMOutput
}

// Channel is one TEC driver with its DAC, monitors and control state
type Channel struct {
	State   *State
	dac     *ad5680.Dac
	pins    Pins
	powered bool
	log     *zap.Logger
}

func newChannel(log *zap.Logger, pins Pins, state *State) (*Channel, error) {
	c := &Channel{
		State: state,
		dac:   ad5680.New(pins.DacBus, pins.DacSync, pins.DacSyncIdleHigh),
		pins:  pins,
		log:   log,
	}
	c.powerDown()
	if err := c.dac.Set(0); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Channel) powerUp() {
	if !c.powered {
		c.log.Debug("TEC driver on")
	}
	c.pins.Shdn.Set(true)
	c.powered = true
}

func (c *Channel) powerDown() {
	if c.powered {
		c.log.Debug("TEC driver off")
	}
	c.pins.Shdn.Set(false)
	c.powered = false
}

// Powered reports whether the TEC driver is enabled
func (c *Channel) Powered() bool {
	return c.powered
}

// center returns the zero-current DAC voltage
func (c *Channel) center() units.Volts {
	if c.State.Center.Vref {
		return c.State.VrefMeas
	}
	return c.State.Center.Override
}

// setDac writes the highest code not above v and records the quantised voltage
func (c *Channel) setDac(v units.Volts) (units.Volts, error) {
	value := ad5680.VoltageToCode(v, c.State.DacFactor)
	if err := c.dac.Set(value); err != nil {
		return 0, err
	}
	c.State.DacValue = units.Volts(float64(value) / float64(ad5680.MaxValue) * float64(c.State.DacFactor))
	return c.State.DacValue, nil
}

// setI drives current i, clamped to MaxTecI, and returns the current
// actually set.
func (c *Channel) setI(i units.Amps) (units.Amps, error) {
	if i > MaxTecI {
		i = MaxTecI
	}
	if i < -MaxTecI {
		i = -MaxTecI
	}
	center := c.center()
	v, err := c.setDac(units.Volts(float64(i)*senseGain*float64(RSense)) + center)
	if err != nil {
		return 0, err
	}
	return voltsToAmps(v - center), nil
}

// getI returns the current implied by the DAC voltage
func (c *Channel) getI() units.Amps {
	return voltsToAmps(c.State.DacValue - c.center())
}

func voltsToAmps(v units.Volts) units.Amps {
	return units.Amps(float64(v) / (senseGain * float64(RSense)))
}
