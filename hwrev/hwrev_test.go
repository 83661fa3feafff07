package hwrev

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat/core"
)

type strap bool

func (s strap) Get() bool { return bool(s) }

var _ core.InputPin = strap(false)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		pins [4]bool
		want HWRev
	}{
		{"v1.0", [4]bool{true, true, true, false}, HWRev{1, 0}},
		{"v2.0", [4]bool{true, false, false, false}, HWRev{2, 0}},
		{"v2.2", [4]bool{false, true, false, false}, HWRev{2, 2}},
		{"unknown", [4]bool{true, true, true, true}, HWRev{0, 0}},
		{"floating", [4]bool{}, HWRev{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pins [4]core.InputPin
			for i, v := range tt.pins {
				pins[i] = strap(v)
			}
			assert.Equal(t, tt.want, Detect(pins))
		})
	}
}

func TestSettings(t *testing.T) {
	s := HWRev{2, 2}.Settings()
	assert.True(t, s.FanAvailable)
	assert.False(t, s.FanPWMRecommended)
	assert.Equal(t, uint32(25_000), s.FanPWMFreqHz)
	assert.Equal(t, float32(0.04), s.MinFanPWM)

	assert.Equal(t, Settings{}, HWRev{2, 0}.Settings())
	assert.Equal(t, Settings{}, HWRev{1, 0}.Settings())
}

func TestSummaryJSON(t *testing.T) {
	out, err := json.Marshal(HWRev{2, 0}.Summary())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"rev": {"major": 2, "minor": 0},
		"settings": {
			"fan_k_a": 0, "fan_k_b": 0, "fan_k_c": 0,
			"min_fan_pwm": 0, "max_fan_pwm": 0, "fan_pwm_freq_hz": 0,
			"fan_available": false, "fan_pwm_recommended": false
		}
	}`, string(out))
	assert.Equal(t, "v2.0", HWRev{2, 0}.String())
}
