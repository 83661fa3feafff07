// Package units holds the physical quantity types used across the control
// core. Values are float64 in SI base units; the periph physic types are used
// for display and for handing values to drivers that expect them.
package units

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Volts is an electric potential in volts.
type Volts float64

// Amps is an electric current in amperes.
type Amps float64

// Ohms is an electrical resistance in ohms.
type Ohms float64

// Kelvin is a thermodynamic temperature in kelvin.
type Kelvin float64

// Celsius is a temperature in degrees Celsius.
type Celsius float64

// Seconds is a time interval in seconds.
type Seconds float64

// ZeroCelsius is 0 °C expressed in kelvin.
const ZeroCelsius Kelvin = 273.15

func (v Volts) String() string { return fmt.Sprintf("%.3fV", float64(v)) }

func (a Amps) String() string { return fmt.Sprintf("%.3fA", float64(a)) }

func (r Ohms) String() string { return fmt.Sprintf("%.1fΩ", float64(r)) }

func (k Kelvin) String() string { return fmt.Sprintf("%.3fK", float64(k)) }

func (c Celsius) String() string { return fmt.Sprintf("%.3f°C", float64(c)) }

func (s Seconds) String() string { return fmt.Sprintf("%.3fs", float64(s)) }

// Celsius converts k to degrees Celsius.
func (k Kelvin) Celsius() Celsius { return Celsius(k - ZeroCelsius) }

// Kelvin converts c to kelvin.
func (c Celsius) Kelvin() Kelvin { return Kelvin(c) + ZeroCelsius }

// Physic returns v as a periph ElectricPotential (nanovolt resolution).
func (v Volts) Physic() physic.ElectricPotential {
	return physic.ElectricPotential(float64(v) * float64(physic.Volt))
}

// Physic returns a as a periph ElectricCurrent (nanoampere resolution).
func (a Amps) Physic() physic.ElectricCurrent {
	return physic.ElectricCurrent(float64(a) * float64(physic.Ampere))
}

// Physic returns r as a periph ElectricResistance (nano-ohm resolution).
func (r Ohms) Physic() physic.ElectricResistance {
	return physic.ElectricResistance(float64(r) * float64(physic.Ohm))
}

// Physic returns k as a periph Temperature (nanokelvin resolution).
func (k Kelvin) Physic() physic.Temperature {
	return physic.Temperature(float64(k) * float64(physic.Kelvin))
}

// FromPhysicPotential converts a periph ElectricPotential to Volts.
func FromPhysicPotential(v physic.ElectricPotential) Volts {
	return Volts(float64(v) / float64(physic.Volt))
}

// FromPhysicTemperature converts a periph Temperature to Kelvin.
func FromPhysicTemperature(t physic.Temperature) Kelvin {
	return Kelvin(float64(t) / float64(physic.Kelvin))
}
