//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"thermostat/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareUptime reads the 64-bit microsecond timer
func GetHardwareUptime() uint64 {
	// Read high, low, high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// hwClock feeds the millisecond clock from the hardware timer
type hwClock struct {
	core.Clock
	lastUs uint64
}

func newHWClock() *hwClock {
	return &hwClock{lastUs: GetHardwareUptime()}
}

// sync advances the clock by the whole milliseconds elapsed since the last
// call and reports whether it moved.
func (c *hwClock) sync() bool {
	now := GetHardwareUptime()
	ms := (now - c.lastUs) / 1000
	if ms == 0 {
		return false
	}
	c.lastUs += ms * 1000
	c.Advance(uint32(ms))
	return true
}
