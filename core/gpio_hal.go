package core

// OutputPin is a digital output such as a chip select, DAC sync or driver
// shutdown line. machine.Pin satisfies it.
type OutputPin interface {
	// Set drives the pin high (true) or low (false)
	Set(high bool)
}

// InputPin is a digital input, used for the hardware revision straps.
type InputPin interface {
	// Get reads the current pin level
	Get() bool
}

// PinFunc adapts a function to OutputPin
type PinFunc func(high bool)

// Set calls f(high)
func (f PinFunc) Set(high bool) { f(high) }

// NopPin is an OutputPin that ignores writes, for boards without the line
type NopPin struct{}

// Set does nothing
func (NopPin) Set(bool) {}

// InputFunc adapts a function to InputPin
type InputFunc func() bool

// Get returns f()
func (f InputFunc) Get() bool { return f() }
