// Package fan drives the cooling fan PWM, either at a user setting or from
// a quadratic curve over the largest TEC current.
package fan

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"thermostat/core"
	"thermostat/hwrev"
)

const (
	// MaxTecI is the TEC current the curve is normalised against
	MaxTecI float32 = 3.0

	MaxUserPWM float32 = 100.0
	MinUserPWM float32 = 1.0
)

// ErrNoFan is returned when the board has no controllable fan
var ErrNoFan = errors.New("fan: not fitted")

// Fan controls one fan output. A nil output means the board has no fan.
type Fan struct {
	out        core.PWMOutput
	auto       bool
	enabled    bool
	ka, kb, kc float32
	absMaxTecI float32
	settings   hwrev.Settings
}

// New returns a fan controller for out. Auto mode starts enabled only where
// the revision recommends it.
func New(out core.PWMOutput, settings hwrev.Settings) *Fan {
	f := &Fan{
		out:      out,
		auto:     settings.FanPWMRecommended,
		ka:       settings.FanKA,
		kb:       settings.FanKB,
		kc:       settings.FanKC,
		settings: settings,
	}
	if f.auto {
		// a failure here is retried by the first SetPWM
		_ = f.enable()
	}
	return f
}

// AbsMax returns the largest magnitude of currents
func AbsMax(currents ...float32) float32 {
	var m float32
	for _, i := range currents {
		m = math32.Max(m, math32.Abs(i))
	}
	return m
}

// Cycle records the largest TEC current and, in auto mode, updates the
// fan speed from the curve.
func (f *Fan) Cycle(absMaxTecI float32) error {
	f.absMaxTecI = absMaxTecI
	if !f.auto || !f.settings.FanAvailable {
		return nil
	}
	s := f.absMaxTecI / MaxTecI
	pwm := MaxUserPWM * (s*(s*f.ka+f.kb) + f.kc)
	_, err := f.SetPWM(uint32(math32.Max(pwm, 0)))
	return err
}

// SetAutoMode switches between curve and user control
func (f *Fan) SetAutoMode(auto bool) {
	f.auto = auto
}

// AutoMode reports whether the curve is in control
func (f *Fan) AutoMode() bool {
	return f.auto
}

// SetCurve sets the curve coefficients
func (f *Fan) SetCurve(ka, kb, kc float32) {
	f.ka, f.kb, f.kc = ka, kb, kc
}

// RestoreDefaults resets the curve to the revision defaults
func (f *Fan) RestoreDefaults() {
	f.SetCurve(f.settings.FanKA, f.settings.FanKB, f.settings.FanKC)
}

// SetPWM sets the fan to a user value 1..100 and returns the duty ratio
// applied.
func (f *Fan) SetPWM(pwm uint32) (float32, error) {
	if !f.enabled {
		if err := f.enable(); err != nil {
			return 0, err
		}
	}
	user := math32.Min(math32.Max(float32(pwm), MinUserPWM), MaxUserPWM)
	duty := scale(user, f.settings.MinFanPWM, f.settings.MaxFanPWM, MinUserPWM, MaxUserPWM)
	max := f.out.MaxDuty()
	value := uint32(duty * float32(max))
	if value > max {
		value = max
	}
	if err := f.out.SetDuty(value); err != nil {
		return 0, fmt.Errorf("fan: set duty: %w", err)
	}
	return float32(value) / float32(max), nil
}

// PWM returns the current speed as a user value 1..100, 0 without a fan
func (f *Fan) PWM() uint32 {
	if f.out == nil || !f.settings.FanAvailable {
		return 0
	}
	duty := float32(f.out.Duty()) / float32(f.out.MaxDuty())
	user := scale(duty, MinUserPWM, MaxUserPWM, f.settings.MinFanPWM, f.settings.MaxFanPWM)
	return uint32(math32.Floor(math32.Max(user, 0) + 0.5))
}

// Available reports whether the board has a controllable fan
func (f *Fan) Available() bool {
	return f.settings.FanAvailable
}

func (f *Fan) enable() error {
	if f.out == nil || !f.settings.FanAvailable {
		return ErrNoFan
	}
	if err := f.out.SetDuty(0); err != nil {
		return fmt.Errorf("fan: enable: %w", err)
	}
	f.enabled = true
	return nil
}

// Summary is the reportable fan state
type Summary struct {
	FanPWM     uint32  `json:"fan_pwm"`
	AbsMaxTecI float32 `json:"abs_max_tec_i"`
	AutoMode   bool    `json:"auto_mode"`
	KA         float32 `json:"k_a"`
	KB         float32 `json:"k_b"`
	KC         float32 `json:"k_c"`
}

// Summary returns the reportable state, nil when no fan is fitted
func (f *Fan) Summary() *Summary {
	if !f.settings.FanAvailable {
		return nil
	}
	return &Summary{
		FanPWM:     f.PWM(),
		AbsMaxTecI: f.absMaxTecI,
		AutoMode:   f.auto,
		KA:         f.ka,
		KB:         f.kb,
		KC:         f.kc,
	}
}

func scale(v, toMin, toMax, fromMin, fromMax float32) float32 {
	return (toMax-toMin)*(v-fromMin)/(fromMax-fromMin) + toMin
}
