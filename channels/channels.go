// Package channels ties the ADC, the two TEC channels and the filter matrix
// into the control loop. PollADC is called once per main loop iteration;
// the remaining methods are the setters and getters used by the command
// and configuration layers.
package channels

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"thermostat/ad7172"
	"thermostat/core"
	"thermostat/iir"
	"thermostat/units"
)

// Count is the number of TEC channels
const Count = 2

// ErrChannel is returned for a channel index outside 0..Count-1
var ErrChannel = errors.New("channels: no such channel")

// channel to ADC input pair
var adcInputs = [Count][2]ad7172.Input{
	{ad7172.Ain0, ad7172.Ain1},
	{ad7172.Ain2, ad7172.Ain3},
}

// Option configures Channels
type Option func(*Channels)

// WithSamples sets how many reads are averaged per analog monitor value
func WithSamples(n int) Option {
	return func(c *Channels) {
		c.samples = n
	}
}

// WithCalibration runs CalibrateDacValue against VREF on every channel
// during New.
func WithCalibration(enable bool) Option {
	return func(c *Channels) {
		c.calibrate = enable
	}
}

// Channels owns the ADC, both channels and the filter matrix
type Channels struct {
	log       *zap.Logger
	adc       *ad7172.Adc
	ch        [Count]*Channel
	matrix    *iir.Matrix
	samples   int
	calibrate bool
}

// New configures the ADC inputs, runs the offset calibration and captures
// the per-channel calibration. Both channels start at zero current with the
// drivers off and DefaultPWMLimits applied.
func New(log *zap.Logger, adc *ad7172.Adc, pins [Count]Pins, opts ...Option) (*Channels, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Channels{
		log:       log,
		adc:       adc,
		matrix:    iir.NewMatrix(Count),
		samples:   16,
		calibrate: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	// SYNC pin is not wired
	if err := adc.SetSyncEnable(false); err != nil {
		return nil, fmt.Errorf("adc sync: %w", err)
	}
	for i, in := range adcInputs {
		if err := adc.SetupChannel(uint8(i), in[0], in[1]); err != nil {
			return nil, fmt.Errorf("adc channel %d: %w", i, err)
		}
	}
	if err := adc.CalibrateOffset(); err != nil {
		return nil, fmt.Errorf("adc offset calibration: %w", err)
	}

	var err error
	for i := range c.ch {
		cal, calErr := adc.GetCalibration(uint8(i))
		if calErr != nil {
			return nil, fmt.Errorf("adc calibration %d: %w", i, calErr)
		}
		ch, chErr := newChannel(log.With(zap.Int("channel", i)), pins[i], NewState(cal))
		if chErr != nil {
			err = multierr.Append(err, fmt.Errorf("channel %d: %w", i, chErr))
			continue
		}
		c.ch[i] = ch
		log.Info("channel ready",
			zap.Int("channel", i),
			zap.Uint32("offset", cal.Offset),
			zap.Uint32("gain", cal.Gain),
			zap.Bool("bipolar", cal.Bipolar))
	}
	if err != nil {
		return nil, err
	}

	for i := range c.ch {
		if c.calibrate {
			if _, err := c.CalibrateDacValue(i, VrefTarget()); err != nil && !errors.Is(err, ErrCalibrationNotFound) {
				return nil, err
			}
		}
		if _, err := c.ch[i].setI(0); err != nil {
			return nil, err
		}
		if err := c.SetPWMLimits(i, DefaultPWMLimits); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Channels) channel(i int) (*Channel, error) {
	if i < 0 || i >= Count {
		return nil, fmt.Errorf("%w: %d", ErrChannel, i)
	}
	return c.ch[i], nil
}

// Channel returns channel i, nil when out of range
func (c *Channels) Channel(i int) *Channel {
	ch, _ := c.channel(i)
	return ch
}

// State returns the state of channel i
func (c *Channels) State(i int) *State {
	if ch := c.Channel(i); ch != nil {
		return ch.State
	}
	return nil
}

// Matrix returns the filter matrix
func (c *Channels) Matrix() *iir.Matrix {
	return c.matrix
}

// PollADC reads a pending conversion, if any, and runs the controller of
// the channel it belongs to. After the last channel's sample the matrix
// ticks and drives the channels routed to it. It returns the channel that
// was sampled.
func (c *Channels) PollADC(now uint32) (int, bool, error) {
	adcCh, ready, err := c.adc.DataReady()
	if err != nil || !ready {
		return 0, false, err
	}
	code, err := c.adc.ReadData()
	if err != nil {
		return 0, false, err
	}
	i := int(adcCh)
	if i >= Count {
		return 0, false, nil
	}
	ch := c.ch[i]
	ch.State.Update(now, code)

	switch {
	case ch.State.PIDEngaged:
		if out, ok := ch.State.UpdatePID(); ok {
			if _, err := ch.setI(units.Amps(out)); err != nil {
				return i, true, err
			}
			ch.powerUp()
		} else {
			ch.powerDown()
		}
	case ch.State.IIREngaged:
		if out, ok := ch.State.UpdateIIR(); ok {
			if _, err := ch.setI(units.Amps(out)); err != nil {
				return i, true, err
			}
		}
	}

	if i == Count-1 {
		if err := c.tickMatrix(); err != nil {
			return i, true, err
		}
	}
	return i, true, nil
}

func (c *Channels) tickMatrix() error {
	c.matrix.Tick(func(ch int) (float64, bool) {
		t, ok := c.ch[ch].State.GetTemperature()
		return float64(t), ok
	})
	var err error
	for _, ch := range c.ch {
		if k := ch.State.MatrixIndex; k != NoMatrix {
			_, setErr := ch.setI(units.Amps(c.matrix.Output(k)))
			err = multierr.Append(err, setErr)
		}
	}
	return err
}

// GetTemperature returns the latest temperature of channel i
func (c *Channels) GetTemperature(i int) (units.Celsius, bool) {
	s := c.State(i)
	if s == nil {
		return 0, false
	}
	return s.GetTemperature()
}

// EngagePID hands channel i to its PID controller. The driver powers up
// on the next valid sample.
func (c *Channels) EngagePID(i int) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	ch.State.Disengage()
	ch.State.PIDEngaged = true
	return nil
}

// EngageIIR hands channel i to its IIR filter
func (c *Channels) EngageIIR(i int) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	ch.State.Disengage()
	ch.State.IIREngaged = true
	ch.powerUp()
	return nil
}

// RouteMatrix drives channel i from matrix slot k
func (c *Channels) RouteMatrix(i, k int) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	if k < 0 || k >= iir.MatrixSize {
		return fmt.Errorf("%w: slot %d", iir.ErrSlot, k)
	}
	ch.State.Disengage()
	ch.State.MatrixIndex = k
	ch.powerUp()
	return nil
}

// PowerUp enables the TEC driver of channel i
func (c *Channels) PowerUp(i int) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	ch.powerUp()
	return nil
}

// PowerDown disables the TEC driver of channel i and disengages it
func (c *Channels) PowerDown(i int) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	ch.State.Disengage()
	ch.powerDown()
	return nil
}

// PowerDownAll disables both drivers and sets zero current
func (c *Channels) PowerDownAll() error {
	var err error
	for _, ch := range c.ch {
		ch.State.Disengage()
		ch.powerDown()
		_, setErr := ch.setI(0)
		err = multierr.Append(err, setErr)
	}
	return err
}

// GetCenter returns the zero-current DAC voltage of channel i
func (c *Channels) GetCenter(i int) (units.Volts, error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, err
	}
	return ch.center(), nil
}

// SetCenter changes the center point. With no controller engaged the
// current setpoint is reapplied so the TEC current does not change.
func (c *Channels) SetCenter(i int, cp CenterPoint) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	current := ch.getI()
	ch.State.Center = cp
	if !ch.State.Engaged() {
		if _, err := ch.setI(current); err != nil {
			return err
		}
	}
	return nil
}

// SetDac sets the DAC voltage directly, disengaging every controller
func (c *Channels) SetDac(i int, v units.Volts) (units.Volts, error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, err
	}
	ch.State.Disengage()
	return ch.setDac(v)
}

// GetDac returns the last DAC voltage of channel i and the DAC full scale
func (c *Channels) GetDac(i int) (value, max units.Volts, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	return ch.State.DacValue, ch.State.DacFactor, nil
}

// SetI sets the TEC current setpoint, disengaging every controller. It
// returns the quantised current and the limit.
func (c *Channels) SetI(i int, current units.Amps) (value, max units.Amps, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	ch.State.Disengage()
	value, err = ch.setI(current)
	return value, MaxTecI, err
}

// GetI returns the TEC current setpoint and its limit
func (c *Channels) GetI(i int) (value, max units.Amps, err error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, 0, err
	}
	return ch.getI(), MaxTecI, nil
}

// SetPIDTarget sets the PID setpoint in °C
func (c *Channels) SetPIDTarget(i int, target units.Celsius) error {
	ch, err := c.channel(i)
	if err != nil {
		return err
	}
	ch.State.PID.SetTarget(float64(target))
	return nil
}

// SetPostFilter selects the ADC postfilter closest to rate, or disables it
// when rate is nil.
func (c *Channels) SetPostFilter(i int, rate *float64) error {
	if _, err := c.channel(i); err != nil {
		return err
	}
	if rate == nil {
		return c.adc.SetPostFilter(uint8(i), ad7172.PostFilterInvalid, false)
	}
	return c.adc.SetPostFilter(uint8(i), ad7172.ClosestPostFilter(*rate), true)
}

// GetPostFilterRate returns the output rate of the channel's postfilter,
// nil when disabled.
func (c *Channels) GetPostFilterRate(i int) (*float64, error) {
	if _, err := c.channel(i); err != nil {
		return nil, err
	}
	filter, ok, err := c.adc.GetPostFilter(uint8(i))
	if err != nil || !ok {
		return nil, err
	}
	rate := filter.OutputRate()
	return &rate, nil
}

func (c *Channels) read(in core.AnalogInput) (units.Volts, error) {
	return core.ReadAverage(in, c.samples)
}

// ReadVref returns the measured driver reference of channel i
func (c *Channels) ReadVref(i int) (units.Volts, error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, err
	}
	return c.read(ch.pins.Vref)
}

// ReadDacFeedback returns the measured DAC output of channel i
func (c *Channels) ReadDacFeedback(i int) (units.Volts, error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, err
	}
	return c.read(ch.pins.DacFeedback)
}

// ReadITec returns the raw current monitor voltage of channel i
func (c *Channels) ReadITec(i int) (units.Volts, error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, err
	}
	return c.read(ch.pins.ITec)
}

// GetTecI returns the measured TEC current of channel i
func (c *Channels) GetTecI(i int) (units.Amps, error) {
	iTec, err := c.ReadITec(i)
	if err != nil {
		return 0, err
	}
	vref, err := c.ReadVref(i)
	if err != nil {
		return 0, err
	}
	return units.Amps(float64(iTec-vref) / TecIScale), nil
}

// GetTecV returns the measured TEC voltage of channel i
func (c *Channels) GetTecV(i int) (units.Volts, error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, err
	}
	u, err := c.read(ch.pins.TecU)
	if err != nil {
		return 0, err
	}
	return (u - TecUOffset) * TecUGain, nil
}
