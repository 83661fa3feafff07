package channels

import (
	"fmt"

	"go.uber.org/multierr"

	"thermostat/pid"
	"thermostat/steinhart"
)

// ChannelConfig is the persisted configuration of one channel. Calibration
// results are measured at every boot and are not part of it.
type ChannelConfig struct {
	Center        CenterPoint          `json:"center" yaml:"center"`
	PID           pid.Parameters       `json:"pid" yaml:"pid"`
	PIDTarget     float64              `json:"pid_target" yaml:"pid_target"`
	SH            steinhart.Parameters `json:"sh" yaml:"sh"`
	PWM           PWMLimits            `json:"pwm" yaml:"pwm"`
	ADCPostFilter *float64             `json:"adc_postfilter" yaml:"adc_postfilter"`
}

// DefaultChannelConfig is the configuration of an unconfigured channel
func DefaultChannelConfig() ChannelConfig {
	rate := 16.67
	return ChannelConfig{
		Center:        CenterVref(),
		PID:           pid.DefaultParameters,
		SH:            steinhart.Default,
		PWM:           DefaultPWMLimits,
		ADCPostFilter: &rate,
	}
}

// Config captures the current configuration of channel i
func (c *Channels) Config(i int) (ChannelConfig, error) {
	ch, err := c.channel(i)
	if err != nil {
		return ChannelConfig{}, err
	}
	limits, err := c.GetPWMLimits(i)
	if err != nil {
		return ChannelConfig{}, err
	}
	rate, err := c.GetPostFilterRate(i)
	if err != nil {
		return ChannelConfig{}, err
	}
	return ChannelConfig{
		Center:        ch.State.Center,
		PID:           ch.State.PID.Parameters,
		PIDTarget:     ch.State.PID.Target,
		SH:            ch.State.SH,
		PWM:           limits,
		ADCPostFilter: rate,
	}, nil
}

// ApplyConfig restores cfg on channel i. The PID integral, engagement and
// calibration are left as they are.
func (c *Channels) ApplyConfig(i int, cfg ChannelConfig) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	if err := c.SetCenter(i, cfg.Center); err != nil {
		return err
	}
	ch.State.PID.Parameters = cfg.PID
	ch.State.PID.SetTarget(cfg.PIDTarget)
	ch.State.SH = cfg.SH
	if err := c.SetPWMLimits(i, cfg.PWM); err != nil {
		return err
	}
	return c.SetPostFilter(i, cfg.ADCPostFilter)
}

// Configs captures the configuration of every channel
func (c *Channels) Configs() ([]ChannelConfig, error) {
	cfgs := make([]ChannelConfig, Count)
	for i := range cfgs {
		cfg, err := c.Config(i)
		if err != nil {
			return nil, err
		}
		cfgs[i] = cfg
	}
	return cfgs, nil
}

// ApplyConfigs restores cfgs, one entry per channel. A failing channel does
// not stop the others; all failures are returned together.
func (c *Channels) ApplyConfigs(cfgs []ChannelConfig) error {
	if len(cfgs) > Count {
		return fmt.Errorf("%w: %d configurations", ErrChannel, len(cfgs))
	}
	var err error
	for i, cfg := range cfgs {
		if applyErr := c.ApplyConfig(i, cfg); applyErr != nil {
			err = multierr.Append(err, fmt.Errorf("channel %d: %w", i, applyErr))
		}
	}
	return err
}
