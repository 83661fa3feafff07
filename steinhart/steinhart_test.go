package steinhart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"thermostat/units"
)

func TestBaseTemperature(t *testing.T) {
	assert.InDelta(t, 298.15, float64(Default.GetTemperature(10_000)), 1e-9)
}

func TestKnownPoints(t *testing.T) {
	tests := []struct {
		r    units.Ohms
		want units.Celsius
	}{
		// 1/T = 1/298.15 + ln(R/R0)/3800
		{r: 5_000, want: 42.147},
		{r: 20_000, want: 9.622},
	}
	for _, tt := range tests {
		got := Default.GetTemperature(tt.r).Celsius()
		assert.InDelta(t, float64(tt.want), float64(got), 0.01, "r=%v", tt.r)
	}
}

func TestMonotonic(t *testing.T) {
	last := Default.GetTemperature(1_000)
	for r := units.Ohms(2_000); r <= 100_000; r += 1_000 {
		temp := Default.GetTemperature(r)
		assert.Less(t, float64(temp), float64(last), "NTC falls with resistance")
		last = temp
	}
}

func TestPure(t *testing.T) {
	p := Parameters{T0: 300, R0: 4_700, B: 3950}
	first := p.GetTemperature(3_300)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.GetTemperature(3_300))
	}
	assert.Equal(t, Parameters{T0: 300, R0: 4_700, B: 3950}, p)
}

func TestResistanceInverse(t *testing.T) {
	for _, c := range []units.Celsius{-10, 0, 25, 60} {
		r := Default.GetResistance(c.Kelvin())
		assert.InDelta(t, float64(c), float64(Default.GetTemperature(r).Celsius()), 1e-6)
	}
}
