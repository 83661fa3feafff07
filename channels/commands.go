package channels

import (
	"fmt"
	"strconv"

	"thermostat/core"
	"thermostat/units"
)

// RegisterCommands adds the matrix script commands and the channel output
// commands to reg:
//
//	pwm <ch> matrix <k>
//	pwm <ch> iir
//	pwm <ch> pid
//	pwm <ch> i_set <amps>
//	pwm <ch> max_v|max_i_pos|max_i_neg <value>
//	center <ch> vref|<volts>
//	pid <ch> target|kp|ki|kd|output_min|output_max|integral_min|integral_max <value>
//	power <ch> up|down
//	s-h <ch> t0|r0|b <value>
//	postfilter <ch> off|rate <hz>
func (c *Channels) RegisterCommands(reg *core.CommandRegistry) {
	c.matrix.RegisterCommands(reg)
	reg.Register("pwm", "<ch> matrix <k>|iir|pid|i_set <amps>|max_v <volts>|max_i_pos <amps>|max_i_neg <amps>", c.handlePWM)
	reg.Register("center", "<ch> vref|<volts>", c.handleCenter)
	reg.Register("pid", "<ch> target|kp|ki|kd|output_min|output_max|integral_min|integral_max <value>", c.handlePID)
	reg.Register("power", "<ch> up|down", c.handlePower)
	reg.Register("s-h", "<ch> t0|r0|b <value>", c.handleSteinhartHart)
	reg.Register("postfilter", "<ch> off|rate <hz>", c.handlePostFilter)
}

func parseChannel(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: channel %q", core.ErrSyntax, arg)
	}
	return i, nil
}

func parseValue(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: value %q", core.ErrSyntax, arg)
	}
	return v, nil
}

func (c *Channels) handlePWM(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: want at least 2 arguments, got %d", core.ErrSyntax, len(args))
	}
	i, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	switch {
	case args[1] == "matrix" && len(args) == 3:
		k, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: slot %q", core.ErrSyntax, args[2])
		}
		return c.RouteMatrix(i, k)
	case args[1] == "iir" && len(args) == 2:
		return c.EngageIIR(i)
	case args[1] == "pid" && len(args) == 2:
		return c.EngagePID(i)
	case len(args) == 3 && (args[1] == "i_set" || args[1] == "max_v" ||
		args[1] == "max_i_pos" || args[1] == "max_i_neg"):
		v, err := parseValue(args[2])
		if err != nil {
			return err
		}
		switch args[1] {
		case "i_set":
			_, _, err = c.SetI(i, units.Amps(v))
		case "max_v":
			_, _, err = c.SetMaxV(i, units.Volts(v))
		case "max_i_pos":
			_, _, err = c.SetMaxIPos(i, units.Amps(v))
		default:
			_, _, err = c.SetMaxINeg(i, units.Amps(v))
		}
		return err
	default:
		return fmt.Errorf("%w: %v", core.ErrSyntax, args[1:])
	}
}

func (c *Channels) handleCenter(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: want 2 arguments, got %d", core.ErrSyntax, len(args))
	}
	i, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	cp, err := ParseCenterPoint(args[1])
	if err != nil {
		return err
	}
	return c.SetCenter(i, cp)
}

func (c *Channels) handlePID(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: want 3 arguments, got %d", core.ErrSyntax, len(args))
	}
	i, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	v, err := parseValue(args[2])
	if err != nil {
		return err
	}
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	ctrl := ch.State.PID
	p := &ctrl.Parameters
	switch args[1] {
	case "target":
		ctrl.SetTarget(v)
	case "kp":
		p.Kp = v
	case "ki":
		ctrl.UpdateKi(v)
	case "kd":
		p.Kd = v
	case "output_min":
		p.OutputMin = v
	case "output_max":
		p.OutputMax = v
	case "integral_min":
		p.IntegralMin = v
	case "integral_max":
		p.IntegralMax = v
	default:
		return fmt.Errorf("%w: pid parameter %q", core.ErrSyntax, args[1])
	}
	return nil
}

func (c *Channels) handlePower(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: want 2 arguments, got %d", core.ErrSyntax, len(args))
	}
	i, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	switch args[1] {
	case "up":
		return c.PowerUp(i)
	case "down":
		return c.PowerDown(i)
	default:
		return fmt.Errorf("%w: %q", core.ErrSyntax, args[1])
	}
}

// handleSteinhartHart takes t0 in degrees Celsius
func (c *Channels) handleSteinhartHart(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: want 3 arguments, got %d", core.ErrSyntax, len(args))
	}
	i, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	v, err := parseValue(args[2])
	if err != nil {
		return err
	}
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	p := ch.State.SH
	switch args[1] {
	case "t0":
		p.T0 = units.Celsius(v).Kelvin()
	case "r0":
		p.R0 = units.Ohms(v)
	case "b":
		p.B = v
	default:
		return fmt.Errorf("%w: s-h parameter %q", core.ErrSyntax, args[1])
	}
	return c.SetSteinhartHart(i, p)
}

func (c *Channels) handlePostFilter(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: want at least 2 arguments, got %d", core.ErrSyntax, len(args))
	}
	i, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	switch {
	case args[1] == "off" && len(args) == 2:
		return c.SetPostFilter(i, nil)
	case args[1] == "rate" && len(args) == 3:
		rate, err := parseValue(args[2])
		if err != nil {
			return err
		}
		return c.SetPostFilter(i, &rate)
	default:
		return fmt.Errorf("%w: %v", core.ErrSyntax, args[1:])
	}
}
