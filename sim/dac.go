package sim

import (
	"thermostat/ad5680"
	"thermostat/core"
)

// AD5680 is a simulated DAC. A falling SYNC edge starts a frame and the
// code is latched once 24 bits have been shifted in while SYNC stays low. A
// rising edge before that aborts the frame.
type AD5680 struct {
	syncHigh bool
	framing  bool
	buf      []byte
	value    uint32
	writes   int
}

var _ core.SPI = (*AD5680)(nil)

// NewAD5680 returns a DAC at code zero with SYNC at the given level
func NewAD5680(syncHigh bool) *AD5680 {
	return &AD5680{syncHigh: syncHigh}
}

// Sync returns the SYNC line
func (d *AD5680) Sync() core.OutputPin {
	return core.PinFunc(func(high bool) {
		if d.syncHigh && !high {
			d.buf = d.buf[:0]
			d.framing = true
		}
		if high {
			d.framing = false
		}
		d.syncHigh = high
	})
}

// SyncHigh reports the current SYNC level
func (d *AD5680) SyncHigh() bool { return d.syncHigh }

func (d *AD5680) shift(b ...byte) {
	if !d.framing {
		return
	}
	d.buf = append(d.buf, b...)
	if len(d.buf) >= 3 {
		d.value = ad5680.Unpack([3]byte{d.buf[0], d.buf[1], d.buf[2]})
		d.writes++
		d.framing = false
	}
}

// Tx shifts bytes in while a frame is open
func (d *AD5680) Tx(w, r []byte) error {
	d.shift(w...)
	for i := range r {
		r[i] = 0
	}
	return nil
}

// Transfer shifts a single byte in
func (d *AD5680) Transfer(b byte) (byte, error) {
	d.shift(b)
	return 0, nil
}

// Value returns the latched code
func (d *AD5680) Value() uint32 { return d.value }

// Writes returns the number of words latched
func (d *AD5680) Writes() int { return d.writes }

// PWM is a simulated PWM channel
type PWM struct {
	duty, max uint32
}

var _ core.PWMOutput = (*PWM)(nil)

// NewPWM returns a channel with the given full-scale duty
func NewPWM(max uint32) *PWM {
	return &PWM{max: max}
}

func (p *PWM) SetDuty(v uint32) error {
	if v > p.max {
		v = p.max
	}
	p.duty = v
	return nil
}

func (p *PWM) Duty() uint32    { return p.duty }
func (p *PWM) MaxDuty() uint32 { return p.max }

// Ratio returns the duty as a fraction of full scale
func (p *PWM) Ratio() float64 {
	return float64(p.duty) / float64(p.max)
}
