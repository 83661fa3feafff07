// Package steinhart converts NTC thermistor resistance to temperature with
// the beta form of the Steinhart-Hart equation.
package steinhart

import (
	"math"

	"thermostat/units"
)

// Parameters of one thermistor
type Parameters struct {
	// T0 is the base temperature
	T0 units.Kelvin `json:"t0" yaml:"t0" mapstructure:"t0"`
	// R0 is the resistance at T0
	R0 units.Ohms `json:"r0" yaml:"r0" mapstructure:"r0"`
	// B is the beta coefficient
	B float64 `json:"b" yaml:"b" mapstructure:"b"`
}

// Default is a 10k NTC with B = 3800 K at 25 °C
var Default = Parameters{
	T0: units.Celsius(25).Kelvin(),
	R0: 10_000,
	B:  3800,
}

// GetTemperature returns the temperature at resistance r
func (p Parameters) GetTemperature(r units.Ohms) units.Kelvin {
	inv := 1/float64(p.T0) + math.Log(float64(r)/float64(p.R0))/p.B
	return units.Kelvin(1 / inv)
}

// GetResistance is the inverse of GetTemperature
func (p Parameters) GetResistance(t units.Kelvin) units.Ohms {
	return units.Ohms(float64(p.R0) * math.Exp(p.B*(1/float64(t)-1/float64(p.T0))))
}
