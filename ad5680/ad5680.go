// Package ad5680 drives the AD5680 18-bit nanoDAC
package ad5680

import (
	"errors"
	"fmt"
	"time"

	"thermostat/core"
	"thermostat/units"
)

// SPI bus settings for the AD5680
var SPIConfig = core.SPIConfig{Mode: 1, Rate: 30_000_000}

// MaxValue is the full-scale code
const MaxValue uint32 = 0x3_FFFF

// FullScale is the output voltage at MaxValue with the 5 V reference
const FullScale units.Volts = 5.0

// SyncPulse is the minimum SYNC high time before a frame
const SyncPulse = 33 * time.Nanosecond

// ErrValueRange is returned for codes above MaxValue
var ErrValueRange = errors.New("ad5680: value out of range")

// Dac is one AD5680 behind a SYNC line
type Dac struct {
	bus      core.SPI
	sync     core.OutputPin
	idleHigh bool
}

// New returns a DAC with SYNC at its idle level. Boards that idle the line
// low to save power pass idleHigh false.
func New(bus core.SPI, sync core.OutputPin, idleHigh bool) *Dac {
	d := &Dac{bus: bus, sync: sync, idleHigh: idleHigh}
	d.sync.Set(idleHigh)
	return d
}

// Pack returns the 24-bit input shift register word for value: two
// don't-care bits, 18 data bits, two don't-care bits.
func Pack(value uint32) [3]byte {
	return [3]byte{
		byte(value >> 14),
		byte(value >> 6),
		byte(value << 2),
	}
}

// Unpack recovers the code from a shift register word
func Unpack(word [3]byte) uint32 {
	return (uint32(word[0])<<14 | uint32(word[1])<<6 | uint32(word[2])>>2) & MaxValue
}

// Set loads value into the DAC register. The word is shifted in while SYNC
// is low. With SYNC idling high the line drops for the frame and returns
// high afterwards. With SYNC idling low it is first pulsed high for at least
// SyncPulse and stays low after the frame.
func (d *Dac) Set(value uint32) error {
	if value > MaxValue {
		return fmt.Errorf("%w: %#x", ErrValueRange, value)
	}
	word := Pack(value)
	if !d.idleHigh {
		d.sync.Set(true)
		delay(SyncPulse)
	}
	d.sync.Set(false)
	err := core.Transfer(d.bus, word[:])
	if d.idleHigh {
		d.sync.Set(true)
	}
	if err != nil {
		return fmt.Errorf("ad5680: %w", err)
	}
	return nil
}

// delay spins for at least d
func delay(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}

// SetVoltage sets the highest code not above v, clamped to the DAC range, and
// returns the code written.
func (d *Dac) SetVoltage(v units.Volts) (uint32, error) {
	value := VoltageToCode(v, FullScale)
	return value, d.Set(value)
}

// VoltageToCode scales v against fullScale, truncates toward zero and clamps
// to [0, MaxValue]
func VoltageToCode(v, fullScale units.Volts) uint32 {
	x := float64(v) * float64(MaxValue) / float64(fullScale)
	switch {
	case x != x || x <= 0:
		return 0
	case x >= float64(MaxValue):
		return MaxValue
	}
	return uint32(x)
}
