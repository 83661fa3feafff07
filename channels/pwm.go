package channels

import (
	"thermostat/core"
	"thermostat/units"
)

const (
	// MaxPWMV is the TEC voltage limit at full duty
	MaxPWMV units.Volts = 4 * 3.3
	// MaxPWMI is the TEC current limit at full duty
	MaxPWMI units.Amps = 3.0
)

// PWMLimits are the hardware current and voltage limits of the TEC driver
type PWMLimits struct {
	MaxV    units.Volts `json:"max_v" yaml:"max_v" mapstructure:"max_v"`
	MaxIPos units.Amps  `json:"max_i_pos" yaml:"max_i_pos" mapstructure:"max_i_pos"`
	MaxINeg units.Amps  `json:"max_i_neg" yaml:"max_i_neg" mapstructure:"max_i_neg"`
}

// DefaultPWMLimits match the current setpoint limit and a 5 V TEC
var DefaultPWMLimits = PWMLimits{
	MaxV:    5.0,
	MaxIPos: MaxTecI,
	MaxINeg: MaxTecI,
}

// SetMaxV sets the TEC voltage limit and returns the applied value and
// the limit's full scale.
func (c *Channels) SetMaxV(i int, v units.Volts) (value, max units.Volts, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	duty, err := core.SetDutyRatio(ch.pins.MaxV, float64(v/MaxPWMV))
	return units.Volts(duty) * MaxPWMV, MaxPWMV, err
}

// GetMaxV returns the TEC voltage limit and its full scale
func (c *Channels) GetMaxV(i int) (value, max units.Volts, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	return units.Volts(core.DutyRatio(ch.pins.MaxV)) * MaxPWMV, MaxPWMV, nil
}

// SetMaxIPos sets the heating current limit
func (c *Channels) SetMaxIPos(i int, a units.Amps) (value, max units.Amps, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	return setCurrentLimit(ch.pins.MaxIPos, a)
}

// GetMaxIPos returns the heating current limit
func (c *Channels) GetMaxIPos(i int) (value, max units.Amps, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	return units.Amps(core.DutyRatio(ch.pins.MaxIPos)) * MaxPWMI, MaxPWMI, nil
}

// SetMaxINeg sets the cooling current limit
func (c *Channels) SetMaxINeg(i int, a units.Amps) (value, max units.Amps, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	return setCurrentLimit(ch.pins.MaxINeg, a)
}

// GetMaxINeg returns the cooling current limit
func (c *Channels) GetMaxINeg(i int) (value, max units.Amps, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	return units.Amps(core.DutyRatio(ch.pins.MaxINeg)) * MaxPWMI, MaxPWMI, nil
}

func setCurrentLimit(out core.PWMOutput, a units.Amps) (value, max units.Amps, err error) {
	duty, err := core.SetDutyRatio(out, float64(a/MaxPWMI))
	return units.Amps(duty) * MaxPWMI, MaxPWMI, err
}

// GetPWMLimits returns all three limits of channel i
func (c *Channels) GetPWMLimits(i int) (PWMLimits, error) {
	maxV, _, err := c.GetMaxV(i)
	if err != nil {
		return PWMLimits{}, err
	}
	maxIPos, _, _ := c.GetMaxIPos(i)
	maxINeg, _, _ := c.GetMaxINeg(i)
	return PWMLimits{MaxV: maxV, MaxIPos: maxIPos, MaxINeg: maxINeg}, nil
}

// SetPWMLimits applies all three limits to channel i
func (c *Channels) SetPWMLimits(i int, l PWMLimits) error {
	if _, _, err := c.SetMaxV(i, l.MaxV); err != nil {
		return err
	}
	if _, _, err := c.SetMaxIPos(i, l.MaxIPos); err != nil {
		return err
	}
	_, _, err := c.SetMaxINeg(i, l.MaxINeg)
	return err
}
