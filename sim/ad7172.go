// Package sim models the thermostat board on the host: an AD7172-2 that
// speaks the real register protocol byte by byte, AD5680 DACs, the MCU
// analog monitors and a first-order thermal plant per TEC channel.
package sim

import (
	"math"

	"thermostat/ad7172"
	"thermostat/core"
	"thermostat/protocol"
)

// DefaultID is the ID register value of the simulated AD7172-2
const DefaultID = 0x00D2

// DefaultGain is the gain register value after calibration. The real part
// is trimmed near 0x555555; 0x400000 keeps codes a clean multiple of volts.
const DefaultGain = 0x40_0000

// InputFunc returns the differential voltage between two analog inputs
type InputFunc func(pos, neg ad7172.Input) float64

var registers = []ad7172.Register{
	ad7172.StatusReg, ad7172.AdcModeReg, ad7172.IfModeReg, ad7172.DataReg,
	ad7172.GpioConReg, ad7172.IDReg,
}

func init() {
	for i := uint8(0); i < 4; i++ {
		registers = append(registers,
			ad7172.ChannelReg(i), ad7172.SetupConReg(i), ad7172.FiltConReg(i),
			ad7172.OffsetReg(i), ad7172.GainReg(i))
	}
}

func lookup(addr uint8) (ad7172.Register, bool) {
	for _, reg := range registers {
		if reg.Addr == addr {
			return reg, true
		}
	}
	return ad7172.Register{}, false
}

// AD7172 is a simulated AD7172-2 attached to one chip select. It implements
// core.SPI; NSS returns the chip select line.
type AD7172 struct {
	regs   map[uint8]ad7172.RegData
	input  InputFunc
	offset uint32 // offset register value produced by calibration

	// CorruptReads flips the checksum byte of the next n reads
	CorruptReads int
	// DropWrites ignores the next n register writes
	DropWrites int

	selected bool
	frame    []byte
	out      []byte
	next     int // next channel considered by Convert
}

var _ core.SPI = (*AD7172)(nil)

// NewAD7172 returns a device in its power-on state sampling input
func NewAD7172(input InputFunc) *AD7172 {
	d := &AD7172{input: input, offset: 0x80_0000}
	d.reset()
	return d
}

func (d *AD7172) reset() {
	d.regs = make(map[uint8]ad7172.RegData, len(registers))
	for _, reg := range registers {
		d.regs[reg.Addr] = ad7172.Empty(reg)
	}
	d.regs[ad7172.StatusReg.Addr][0] = 0x80
	copy(d.regs[ad7172.AdcModeReg.Addr], []byte{0x20, 0x00})
	copy(d.regs[ad7172.GpioConReg.Addr], []byte{0x08, 0x00})
	copy(d.regs[ad7172.IDReg.Addr], []byte{DefaultID >> 8, DefaultID & 0xFF})
	for i := uint8(0); i < 4; i++ {
		copy(d.regs[ad7172.SetupConReg(i).Addr], []byte{0x10, 0x00})
		copy(d.regs[ad7172.OffsetReg(i).Addr], []byte{0x80, 0x00, 0x00})
		copy(d.regs[ad7172.GainReg(i).Addr], []byte{DefaultGain >> 16, 0x00, 0x00})
	}
	copy(d.regs[ad7172.ChannelReg(0).Addr], []byte{0x80, 0x01})
	for i := uint8(1); i < 4; i++ {
		copy(d.regs[ad7172.ChannelReg(i).Addr], []byte{0x00, 0x01})
	}
}

// SetCalibratedOffset sets the offset register value the next system offset
// calibration will produce.
func (d *AD7172) SetCalibratedOffset(offset uint32) {
	d.offset = offset
}

// Register returns a copy of a register payload, for test inspection
func (d *AD7172) Register(reg ad7172.Register) ad7172.RegData {
	return d.regs[reg.Addr].Clone()
}

// NSS returns the active-low chip select
func (d *AD7172) NSS() core.OutputPin {
	return core.PinFunc(d.setNSS)
}

func (d *AD7172) setNSS(high bool) {
	if !high {
		d.selected = true
		d.frame = d.frame[:0]
		d.out = nil
		return
	}
	if d.selected {
		d.endFrame()
	}
	d.selected = false
}

// Tx exchanges bytes while selected. w and r may alias.
func (d *AD7172) Tx(w, r []byte) error {
	for i := range w {
		b := d.exchange(w[i])
		if r != nil && i < len(r) {
			r[i] = b
		}
	}
	return nil
}

// Transfer exchanges a single byte
func (d *AD7172) Transfer(b byte) (byte, error) {
	return d.exchange(b), nil
}

func (d *AD7172) crcMode() protocol.ChecksumMode {
	return protocol.ChecksumModeFromBits(ad7172.IfModeData{RegData: d.regs[ad7172.IfModeReg.Addr]}.Crc())
}

func (d *AD7172) exchange(b byte) byte {
	if !d.selected {
		return 0xFF
	}
	pos := len(d.frame)
	d.frame = append(d.frame, b)
	if pos == 0 {
		if b != 0xFF && b&0x40 != 0 {
			d.startRead(b)
		}
		return 0xFF
	}
	if d.out != nil && pos-1 < len(d.out) {
		return d.out[pos-1]
	}
	return 0xFF
}

// startRead latches the register and its checksum at the command byte
func (d *AD7172) startRead(cmd byte) {
	reg, ok := lookup(cmd & 0x3F)
	if !ok {
		return
	}
	data := d.regs[reg.Addr].Clone()
	d.out = append([]byte(nil), data...)

	mode := d.crcMode()
	if mode == protocol.ChecksumOff {
		return
	}
	sum := protocol.NewChecksum(mode)
	sum.Feed(cmd)
	sum.Feed(data...)
	out, _ := sum.Result()
	if d.CorruptReads > 0 {
		d.CorruptReads--
		out ^= 0xA5
	}
	d.out = append(d.out, out)
}

func (d *AD7172) endFrame() {
	if len(d.frame) == 0 {
		return
	}
	cmd := d.frame[0]
	if cmd == 0xFF {
		if len(d.frame) >= 8 && allOnes(d.frame) {
			d.reset()
		}
		return
	}
	reg, ok := lookup(cmd & 0x3F)
	if !ok {
		return
	}
	if cmd&0x40 != 0 {
		if reg.Addr == ad7172.DataReg.Addr && len(d.frame) > reg.Width {
			d.setReady(false, 0)
		}
		return
	}
	d.write(cmd, reg, d.frame[1:])
}

func allOnes(b []byte) bool {
	for _, v := range b {
		if v != 0xFF {
			return false
		}
	}
	return true
}

func (d *AD7172) write(cmd byte, reg ad7172.Register, payload []byte) {
	if len(payload) < reg.Width {
		return
	}
	data := payload[:reg.Width]
	if d.crcMode() != protocol.ChecksumOff {
		if len(payload) < reg.Width+1 {
			d.flagCrcError()
			return
		}
		sum := protocol.NewChecksum(protocol.ChecksumCrc)
		sum.Feed(cmd)
		sum.Feed(data...)
		if expected, _ := sum.Result(); expected != payload[reg.Width] {
			d.flagCrcError()
			return
		}
	}
	if d.DropWrites > 0 {
		d.DropWrites--
		return
	}
	switch reg.Addr {
	case ad7172.StatusReg.Addr, ad7172.DataReg.Addr, ad7172.IDReg.Addr:
		return
	}
	copy(d.regs[reg.Addr], data)
	if reg.Addr == ad7172.AdcModeReg.Addr {
		d.modeChanged()
	}
}

func (d *AD7172) flagCrcError() {
	d.regs[ad7172.StatusReg.Addr][0] |= 0x20
}

func (d *AD7172) modeChanged() {
	mode := ad7172.AdcModeData{RegData: d.regs[ad7172.AdcModeReg.Addr]}.Mode()
	switch mode {
	case ad7172.ModeSystemOffsetCalibration, ad7172.ModeInternalOffsetCalibration:
		for i := uint8(0); i < 4; i++ {
			ch := ad7172.ChannelData{RegData: d.regs[ad7172.ChannelReg(i).Addr]}
			if ch.Enabled() {
				ad7172.OffsetData{RegData: d.regs[ad7172.OffsetReg(ch.Setup()).Addr]}.SetOffset(d.offset)
			}
		}
		d.setReady(true, 0)
	default:
		d.setReady(false, 0)
	}
}

func (d *AD7172) setReady(ready bool, channel uint8) {
	status := d.regs[ad7172.StatusReg.Addr]
	status[0] &^= 0x83
	if !ready {
		status[0] |= 0x80
	}
	status[0] |= channel & 0x03
}

// Convert completes one conversion on the next enabled channel in
// continuous mode. It reports false when nothing is enabled or the device is
// not converting.
func (d *AD7172) Convert() (channel uint8, ok bool) {
	mode := ad7172.AdcModeData{RegData: d.regs[ad7172.AdcModeReg.Addr]}.Mode()
	if mode != ad7172.ModeContinuousConversion {
		return 0, false
	}
	for n := 0; n < 4; n++ {
		i := uint8((d.next + n) % 4)
		ch := ad7172.ChannelData{RegData: d.regs[ad7172.ChannelReg(i).Addr]}
		if !ch.Enabled() {
			continue
		}
		d.next = int(i) + 1
		code := d.code(ch)
		data := d.regs[ad7172.DataReg.Addr]
		data[0], data[1], data[2] = byte(code>>16), byte(code>>8), byte(code)
		d.setReady(true, i)
		return i, true
	}
	return 0, false
}

// code inverts ChannelCalibration.ConvertData for the channel's setup
func (d *AD7172) code(ch ad7172.ChannelData) uint32 {
	v := d.input(ch.AinPos(), ch.AinNeg())
	if math.IsNaN(v) {
		return ad7172.MaxValue
	}
	setup := ch.Setup()
	offset := float64(ad7172.OffsetData{RegData: d.regs[ad7172.OffsetReg(setup).Addr]}.Offset())
	gain := float64(ad7172.GainData{RegData: d.regs[ad7172.GainReg(setup).Addr]}.Gain())
	bipolar := ad7172.SetupConData{RegData: d.regs[ad7172.SetupConReg(setup).Addr]}.Bipolar()

	data := v * 0.75 / 3.0 * float64(2<<23)
	data -= offset - 0x80_0000
	data *= gain / 0x40_0000
	if bipolar {
		data += 0x80_0000
	} else {
		data *= 2
	}
	switch {
	case data <= 0:
		return 0
	case data >= float64(ad7172.MaxValue):
		return ad7172.MaxValue
	}
	return uint32(math.Round(data))
}
