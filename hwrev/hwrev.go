// Package hwrev identifies the board revision from its strap pins
package hwrev

import (
	"fmt"

	"thermostat/core"
)

// HWRev is a board revision
type HWRev struct {
	Major uint8 `json:"major"`
	Minor uint8 `json:"minor"`
}

func (r HWRev) String() string {
	return fmt.Sprintf("v%d.%d", r.Major, r.Minor)
}

// Settings are the revision-dependent board parameters
type Settings struct {
	FanKA             float32 `json:"fan_k_a"`
	FanKB             float32 `json:"fan_k_b"`
	FanKC             float32 `json:"fan_k_c"`
	MinFanPWM         float32 `json:"min_fan_pwm"`
	MaxFanPWM         float32 `json:"max_fan_pwm"`
	FanPWMFreqHz      uint32  `json:"fan_pwm_freq_hz"`
	FanAvailable      bool    `json:"fan_available"`
	FanPWMRecommended bool    `json:"fan_pwm_recommended"`
}

// Detect reads the four strap pins
func Detect(pins [4]core.InputPin) HWRev {
	var levels [4]bool
	for i, p := range pins {
		levels[i] = p.Get()
	}
	return FromStraps(levels)
}

// FromStraps decodes strap levels hwrev0..hwrev3
func FromStraps(h [4]bool) HWRev {
	switch h {
	case [4]bool{true, true, true, false}:
		return HWRev{Major: 1, Minor: 0}
	case [4]bool{true, false, false, false}:
		return HWRev{Major: 2, Minor: 0}
	case [4]bool{false, true, false, false}:
		return HWRev{Major: 2, Minor: 2}
	default:
		return HWRev{}
	}
}

// Settings returns the parameters of revision r
func (r HWRev) Settings() Settings {
	switch r {
	case HWRev{Major: 2, Minor: 2}:
		return Settings{
			FanKA: 1.0,
			FanKB: 0.0,
			FanKC: 0.0,
			// the fan may fail to autostart below this
			MinFanPWM:    0.04,
			MaxFanPWM:    1.0,
			FanPWMFreqHz: 25_000,
			FanAvailable: true,
			// auto mode is opt-in on this revision
			FanPWMRecommended: false,
		}
	default:
		return Settings{}
	}
}

// Summary is the reportable revision and settings
type Summary struct {
	Rev      HWRev    `json:"rev"`
	Settings Settings `json:"settings"`
}

// Summary returns the reportable revision and settings
func (r HWRev) Summary() Summary {
	return Summary{Rev: r, Settings: r.Settings()}
}
