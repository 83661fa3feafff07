package core

import "thermostat/units"

// AnalogInput samples one MCU analog monitor pin (DAC feedback, VREF, TEC
// current and voltage sense). Board code converts raw counts to volts.
type AnalogInput interface {
	// Read performs a one-shot conversion
	Read() (units.Volts, error)
}

// AnalogFunc adapts a function to AnalogInput
type AnalogFunc func() (units.Volts, error)

// Read calls f()
func (f AnalogFunc) Read() (units.Volts, error) { return f() }

// ReadAverage averages n consecutive reads of in
func ReadAverage(in AnalogInput, n int) (units.Volts, error) {
	if n < 1 {
		n = 1
	}
	var sum units.Volts
	for i := 0; i < n; i++ {
		v, err := in.Read()
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / units.Volts(n), nil
}
