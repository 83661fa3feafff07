package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat/core"
	"thermostat/units"
)

func TestSettledRead(t *testing.T) {
	reads := []units.Volts{1.0, 1.2, 1.25, 1.2505}
	n := 0
	in := core.AnalogFunc(func() (units.Volts, error) {
		v := reads[n]
		n++
		return v, nil
	})
	v, settled, err := settledRead(in)
	require.NoError(t, err)
	assert.True(t, settled)
	assert.Equal(t, units.Volts(1.2505), v)
	assert.Equal(t, 4, n)
}

func TestSettledReadGivesUp(t *testing.T) {
	n := 0
	// alternates by 10 mV forever
	in := core.AnalogFunc(func() (units.Volts, error) {
		n++
		return units.Volts(1 + 0.01*float64(n%2)), nil
	})
	v, settled, err := settledRead(in)
	require.NoError(t, err)
	assert.False(t, settled)
	assert.Equal(t, feedbackMaxReads, n)
	assert.InDelta(t, 1.0, float64(v), 0.011)
}
