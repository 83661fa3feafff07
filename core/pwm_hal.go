package core

// PWMOutput is one hardware PWM channel. The TEC driver current and voltage
// limits and the fan are all set as a duty ratio on such a channel.
type PWMOutput interface {
	// SetDuty sets the duty cycle: 0 (fully off) to MaxDuty() (fully on)
	SetDuty(value uint32) error

	// Duty returns the last duty value written
	Duty() uint32

	// MaxDuty returns the full-scale duty value
	MaxDuty() uint32
}

// SetDutyRatio sets out to ratio of full scale, clamped to [0, 1], and returns
// the ratio actually applied after quantisation.
func SetDutyRatio(out PWMOutput, ratio float64) (float64, error) {
	max := out.MaxDuty()
	if ratio < 0 {
		ratio = 0
	}
	value := uint32(ratio * float64(max))
	if value > max {
		value = max
	}
	if err := out.SetDuty(value); err != nil {
		return 0, err
	}
	return float64(value) / float64(max), nil
}

// DutyRatio returns the current duty of out as a ratio of full scale
func DutyRatio(out PWMOutput) float64 {
	return float64(out.Duty()) / float64(out.MaxDuty())
}
