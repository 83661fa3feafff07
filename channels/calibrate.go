package channels

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"thermostat/ad5680"
	"thermostat/core"
	"thermostat/units"
)

// ErrCalibrationNotFound is returned when no DAC code produced a feedback
// voltage at or below the target.
var ErrCalibrationNotFound = errors.New("channels: no DAC code reaches the calibration target")

const (
	// feedbackTolerance is the largest change between two consecutive
	// feedback reads accepted as settled
	feedbackTolerance units.Volts = 0.001
	// feedbackMaxReads bounds the settling loop per code
	feedbackMaxReads = 64
	// searchTopStep is the first step of the code search
	searchTopStep = 1 << 17
)

// CalibrationTarget selects what CalibrateDacValue measures against
type CalibrationTarget struct {
	vref  bool
	fixed units.Volts
}

// VrefTarget searches for the code matching the measured VREF and stores
// its voltage as the channel's VrefMeas.
func VrefTarget() CalibrationTarget { return CalibrationTarget{vref: true} }

// FixedTarget searches for the code producing v and derives DacFactor
func FixedTarget(v units.Volts) CalibrationTarget { return CalibrationTarget{fixed: v} }

// CalibrateDacValue finds the highest DAC code whose feedback does not
// exceed the target, with a coarse-to-fine sweep, and stores the result in
// the channel state. The DAC is left at zero.
func (c *Channels) CalibrateDacValue(i int, target CalibrationTarget) (uint32, error) {
	ch, err := c.channel(i)
	if err != nil {
		return 0, err
	}

	goal := target.fixed
	if target.vref {
		if goal, err = c.ReadVref(i); err != nil {
			return 0, err
		}
	}

	var (
		best       uint32
		bestFb     units.Volts
		found      bool
		bestErr    = units.Volts(math.Inf(1))
		startValue = uint32(1)
	)
	for step := uint32(searchTopStep); step >= 1; step >>= 1 {
		prev := startValue
		for value := startValue; value <= ad5680.MaxValue; value += step {
			if err := ch.dac.Set(value); err != nil {
				return 0, err
			}
			fb, settled, err := settledRead(ch.pins.DacFeedback)
			if err != nil {
				return 0, err
			}
			if !settled {
				c.log.Warn("DAC feedback did not settle",
					zap.Int("channel", i),
					zap.Uint32("code", value),
					zap.Int("reads", feedbackMaxReads),
					zap.Stringer("feedback", fb))
			}
			e := goal - fb
			if e < 0 {
				break
			}
			if e < bestErr {
				best, bestFb, bestErr, found = value, fb, e, true
				startValue = prev
			}
			prev = value
		}
	}

	if err := ch.dac.Set(0); err != nil {
		return 0, err
	}
	ch.State.DacValue = 0

	if !found {
		c.log.Warn("DAC calibration failed",
			zap.Int("channel", i),
			zap.Float64("target", float64(goal)))
		return 0, ErrCalibrationNotFound
	}

	if target.vref {
		ch.State.VrefMeas = units.Volts(float64(best) / float64(ad5680.MaxValue) * float64(ch.State.DacFactor))
	} else {
		ch.State.DacFactor = units.Volts(float64(bestFb) * float64(ad5680.MaxValue) / float64(best))
	}
	c.log.Info("DAC calibrated",
		zap.Int("channel", i),
		zap.Uint32("code", best),
		zap.Stringer("target", goal),
		zap.Stringer("feedback", bestFb),
		zap.Stringer("vref_meas", ch.State.VrefMeas),
		zap.Stringer("dac_factor", ch.State.DacFactor))
	return best, nil
}

// settledRead samples in until two consecutive reads agree within
// feedbackTolerance. After feedbackMaxReads it gives up and returns the last
// read with settled false.
func settledRead(in core.AnalogInput) (v units.Volts, settled bool, err error) {
	prev, err := in.Read()
	if err != nil {
		return 0, false, err
	}
	for n := 1; n < feedbackMaxReads; n++ {
		v, err := in.Read()
		if err != nil {
			return 0, false, err
		}
		if math.Abs(float64(v-prev)) < float64(feedbackTolerance) {
			return v, true, nil
		}
		prev = v
	}
	return prev, false, nil
}
