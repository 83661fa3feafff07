package fan

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat/core"
	"thermostat/hwrev"
)

type fakePWM struct {
	duty, max uint32
	writes    int
	err       error
}

var _ core.PWMOutput = (*fakePWM)(nil)

func (p *fakePWM) SetDuty(v uint32) error {
	if p.err != nil {
		return p.err
	}
	p.duty = v
	p.writes++
	return nil
}

func (p *fakePWM) Duty() uint32          { return p.duty }
func (p *fakePWM) MaxDuty() uint32       { return p.max }

var v22 = hwrev.HWRev{Major: 2, Minor: 2}.Settings()

func TestSetPWMScalesToHardwareRange(t *testing.T) {
	out := &fakePWM{max: 1000}
	f := New(out, v22)
	assert.False(t, f.AutoMode(), "auto off where not recommended")

	ratio, err := f.SetPWM(100)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ratio, 0.002)
	assert.Equal(t, uint32(100), f.PWM())

	ratio, err = f.SetPWM(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, ratio, 0.002)
	assert.Equal(t, uint32(1), f.PWM())

	_, err = f.SetPWM(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), f.PWM(), "clamped to the user minimum")
	_, err = f.SetPWM(500)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), f.PWM(), "clamped to the user maximum")
}

func TestAutoCurve(t *testing.T) {
	out := &fakePWM{max: 1000}
	f := New(out, v22)

	require.NoError(t, f.Cycle(1.5))
	assert.Zero(t, out.writes, "manual mode leaves the fan alone")

	f.SetAutoMode(true)
	require.NoError(t, f.Cycle(1.5)) // s = 0.5, pwm = 100 * s^2
	assert.Equal(t, uint32(25), f.PWM())

	f.SetCurve(0, 1, 0)
	require.NoError(t, f.Cycle(1.5))
	assert.Equal(t, uint32(50), f.PWM())

	f.RestoreDefaults()
	require.NoError(t, f.Cycle(3))
	assert.Equal(t, uint32(100), f.PWM())
}

func TestNoFan(t *testing.T) {
	f := New(nil, v22)
	_, err := f.SetPWM(50)
	assert.ErrorIs(t, err, ErrNoFan)
	assert.Zero(t, f.PWM())

	unfitted := New(&fakePWM{max: 1000}, hwrev.HWRev{Major: 2}.Settings())
	assert.False(t, unfitted.Available())
	_, err = unfitted.SetPWM(50)
	assert.ErrorIs(t, err, ErrNoFan)
	assert.Nil(t, unfitted.Summary())
}

func TestSetPWMReportsOutputFault(t *testing.T) {
	fault := errors.New("slice busy")
	out := &fakePWM{max: 1000}
	f := New(out, v22)
	_, err := f.SetPWM(10)
	require.NoError(t, err)

	out.err = fault
	_, err = f.SetPWM(50)
	assert.ErrorIs(t, err, fault)
	assert.Equal(t, uint32(10), f.PWM(), "duty unchanged")

	f.SetAutoMode(true)
	assert.ErrorIs(t, f.Cycle(1.5), fault)

	// enabling fails the same way
	f = New(&fakePWM{max: 1000, err: fault}, v22)
	_, err = f.SetPWM(50)
	assert.ErrorIs(t, err, fault)
}

func TestAbsMax(t *testing.T) {
	assert.Equal(t, float32(2), AbsMax(-2, 1.5))
	assert.Zero(t, AbsMax())
}

func TestSummaryJSON(t *testing.T) {
	f := New(&fakePWM{max: 1000}, v22)
	f.Cycle(0.75)
	out, err := json.Marshal(f.Summary())
	require.NoError(t, err)
	assert.JSONEq(t, `{"fan_pwm":0,"abs_max_tec_i":0.75,"auto_mode":false,"k_a":1,"k_b":0,"k_c":0}`, string(out))
}
