package ad7172

// AD7172-2 register map
// Based on AD7172-2 datasheet Rev. B, Table 22 (register summary)

// Register identifies one on-chip register by address and payload width.
// Indexed registers (per channel or per setup) are produced by the
// constructor functions below.
type Register struct {
	Name  string
	Addr  uint8
	Width int
}

// Fixed registers
var (
	StatusReg  = Register{Name: "status", Addr: 0x00, Width: 1}
	AdcModeReg = Register{Name: "adcmode", Addr: 0x01, Width: 2}
	IfModeReg  = Register{Name: "ifmode", Addr: 0x02, Width: 2}
	DataReg    = Register{Name: "data", Addr: 0x04, Width: 3}
	GpioConReg = Register{Name: "gpiocon", Addr: 0x06, Width: 2}
	IDReg      = Register{Name: "id", Addr: 0x07, Width: 2}
)

// ChannelReg is CHx, the channel map register
func ChannelReg(index uint8) Register {
	return Register{Name: "channel", Addr: 0x10 + index, Width: 2}
}

// SetupConReg is SETUPCONx
func SetupConReg(index uint8) Register {
	return Register{Name: "setupcon", Addr: 0x20 + index, Width: 2}
}

// FiltConReg is FILTCONx
func FiltConReg(index uint8) Register {
	return Register{Name: "filtcon", Addr: 0x28 + index, Width: 2}
}

// OffsetReg is OFFSETx
func OffsetReg(index uint8) Register {
	return Register{Name: "offset", Addr: 0x30 + index, Width: 3}
}

// GainReg is GAINx
func GainReg(index uint8) Register {
	return Register{Name: "gain", Addr: 0x38 + index, Width: 3}
}

// field is a bit range inside one payload byte
type field struct {
	byte  int
	shift uint
	bits  uint
}

func (f field) mask() uint8 {
	return uint8(1<<f.bits-1) << f.shift
}

func (f field) get(d []byte) uint8 {
	return (d[f.byte] & f.mask()) >> f.shift
}

func (f field) set(d []byte, v uint8) {
	d[f.byte] = d[f.byte]&^f.mask() | (v<<f.shift)&f.mask()
}

func (f field) flag(d []byte) bool {
	return f.get(d) != 0
}

func (f field) setFlag(d []byte, on bool) {
	if on {
		f.set(d, 1)
	} else {
		f.set(d, 0)
	}
}

// Field layout, (byte, shift, bits). Byte 0 is the first byte on the wire.
var (
	// STATUS
	statusNotReady = field{0, 7, 1}
	statusAdcError = field{0, 6, 1}
	statusCrcError = field{0, 5, 1}
	statusRegError = field{0, 4, 1}
	statusChannel  = field{0, 0, 2}

	// ADCMODE
	adcModeRefEn = field{0, 7, 1}
	adcModeMode  = field{1, 4, 3}

	// IFMODE
	ifModeCrc = field{1, 2, 2}

	// GPIOCON
	gpioConSyncEn = field{0, 3, 1}

	// CHx, AINPOS is split across the byte boundary
	channelEnabled  = field{0, 7, 1}
	channelSetup    = field{0, 4, 2}
	channelAinPosHi = field{0, 0, 2}
	channelAinPosLo = field{1, 5, 3}
	channelAinNeg   = field{1, 0, 5}

	// SETUPCONx
	setupBipolar   = field{0, 4, 1}
	setupRefBufPos = field{0, 3, 1}
	setupRefBufNeg = field{0, 2, 1}
	setupAinBufPos = field{0, 1, 1}
	setupAinBufNeg = field{0, 0, 1}
	setupBurnoutEn = field{1, 7, 1}
	setupRefSel    = field{1, 4, 2}

	// FILTCONx
	filtSinc3Map  = field{0, 7, 1}
	filtEnhFiltEn = field{0, 3, 1}
	filtEnhFilt   = field{0, 0, 3}
	filtOrder     = field{1, 5, 2}
	filtODR       = field{1, 0, 5}
)

// RegData is the raw payload of one register, most significant byte first
type RegData []byte

// Empty returns a zeroed payload sized for reg
func Empty(reg Register) RegData {
	return make(RegData, reg.Width)
}

// Clone returns an independent copy of d
func (d RegData) Clone() RegData {
	return append(RegData(nil), d...)
}

// Equal reports whether d and o hold the same bytes
func (d RegData) Equal(o RegData) bool {
	if len(d) != len(o) {
		return false
	}
	for i := range d {
		if d[i] != o[i] {
			return false
		}
	}
	return true
}

func (d RegData) uint24() uint32 {
	return uint32(d[0])<<16 | uint32(d[1])<<8 | uint32(d[2])
}

func (d RegData) setUint24(v uint32) {
	d[0] = byte(v >> 16)
	d[1] = byte(v >> 8)
	d[2] = byte(v)
}

// StatusData is the STATUS payload
type StatusData struct{ RegData }

// Ready is set when a conversion result is waiting (RDY is active low)
func (s StatusData) Ready() bool { return !statusNotReady.flag(s.RegData) }
func (s StatusData) AdcError() bool { return statusAdcError.flag(s.RegData) }
func (s StatusData) CrcError() bool { return statusCrcError.flag(s.RegData) }
func (s StatusData) RegError() bool { return statusRegError.flag(s.RegData) }

// Channel is the channel the pending result belongs to
func (s StatusData) Channel() uint8 { return statusChannel.get(s.RegData) }

// AdcModeData is the ADCMODE payload
type AdcModeData struct{ RegData }

func (a AdcModeData) RefEn() bool { return adcModeRefEn.flag(a.RegData) }
func (a AdcModeData) SetRefEn(on bool) { adcModeRefEn.setFlag(a.RegData, on) }
func (a AdcModeData) Mode() Mode { return Mode(adcModeMode.get(a.RegData)) }
func (a AdcModeData) SetMode(mode Mode) { adcModeMode.set(a.RegData, uint8(mode)) }

// IfModeData is the IFMODE payload
type IfModeData struct{ RegData }

func (i IfModeData) Crc() uint8 { return ifModeCrc.get(i.RegData) }
func (i IfModeData) SetCrc(v uint8) { ifModeCrc.set(i.RegData, v) }

// GpioConData is the GPIOCON payload
type GpioConData struct{ RegData }

func (g GpioConData) SyncEn() bool { return gpioConSyncEn.flag(g.RegData) }
func (g GpioConData) SetSyncEn(on bool) { gpioConSyncEn.setFlag(g.RegData, on) }

// IDData is the ID payload
type IDData struct{ RegData }

// ID returns the big-endian device identifier
func (i IDData) ID() uint16 { return uint16(i.RegData[0])<<8 | uint16(i.RegData[1]) }

// ConversionData is the DATA payload
type ConversionData struct{ RegData }

// Raw returns the 24-bit result code
func (c ConversionData) Raw() uint32 { return c.uint24() }

// Signed returns the result with bit 23 moved to the sign bit
func (c ConversionData) Signed() int32 {
	raw := c.uint24()
	if raw&0x80_0000 != 0 {
		return int32(raw&0x7F_FFFF | 0x8000_0000)
	}
	return int32(raw)
}

// ChannelData is a CHx payload
type ChannelData struct{ RegData }

func (c ChannelData) Enabled() bool { return channelEnabled.flag(c.RegData) }
func (c ChannelData) SetEnabled(on bool) { channelEnabled.setFlag(c.RegData, on) }
func (c ChannelData) Setup() uint8 { return channelSetup.get(c.RegData) }
func (c ChannelData) SetSetup(index uint8) { channelSetup.set(c.RegData, index) }

// AinPos returns the positive input selector
func (c ChannelData) AinPos() Input {
	return InputFromBits(channelAinPosHi.get(c.RegData)<<3 | channelAinPosLo.get(c.RegData))
}

// SetAinPos sets the positive input selector
func (c ChannelData) SetAinPos(in Input) {
	channelAinPosHi.set(c.RegData, uint8(in)>>3)
	channelAinPosLo.set(c.RegData, uint8(in))
}

func (c ChannelData) AinNeg() Input { return InputFromBits(channelAinNeg.get(c.RegData)) }
func (c ChannelData) SetAinNeg(in Input) { channelAinNeg.set(c.RegData, uint8(in)) }

// SetupConData is a SETUPCONx payload
type SetupConData struct{ RegData }

func (s SetupConData) Bipolar() bool { return setupBipolar.flag(s.RegData) }
func (s SetupConData) SetBipolar(on bool) { setupBipolar.setFlag(s.RegData, on) }
func (s SetupConData) RefBufPos() bool { return setupRefBufPos.flag(s.RegData) }
func (s SetupConData) SetRefBufPos(on bool) { setupRefBufPos.setFlag(s.RegData, on) }
func (s SetupConData) RefBufNeg() bool { return setupRefBufNeg.flag(s.RegData) }
func (s SetupConData) SetRefBufNeg(on bool) { setupRefBufNeg.setFlag(s.RegData, on) }
func (s SetupConData) AinBufPos() bool { return setupAinBufPos.flag(s.RegData) }
func (s SetupConData) SetAinBufPos(on bool) { setupAinBufPos.setFlag(s.RegData, on) }
func (s SetupConData) AinBufNeg() bool { return setupAinBufNeg.flag(s.RegData) }
func (s SetupConData) SetAinBufNeg(on bool) { setupAinBufNeg.setFlag(s.RegData, on) }
func (s SetupConData) BurnoutEn() bool { return setupBurnoutEn.flag(s.RegData) }
func (s SetupConData) SetBurnoutEn(on bool) { setupBurnoutEn.setFlag(s.RegData, on) }
func (s SetupConData) RefSel() RefSource { return RefSourceFromBits(setupRefSel.get(s.RegData)) }
func (s SetupConData) SetRefSel(r RefSource) { setupRefSel.set(s.RegData, uint8(r)) }

// FiltConData is a FILTCONx payload
type FiltConData struct{ RegData }

func (f FiltConData) Sinc3Map() bool { return filtSinc3Map.flag(f.RegData) }
func (f FiltConData) SetSinc3Map(on bool) { filtSinc3Map.setFlag(f.RegData, on) }
func (f FiltConData) EnhFiltEn() bool { return filtEnhFiltEn.flag(f.RegData) }
func (f FiltConData) SetEnhFiltEn(on bool) { filtEnhFiltEn.setFlag(f.RegData, on) }
func (f FiltConData) EnhFilt() PostFilter { return PostFilterFromBits(filtEnhFilt.get(f.RegData)) }
func (f FiltConData) SetEnhFilt(p PostFilter) { filtEnhFilt.set(f.RegData, uint8(p)) }
func (f FiltConData) Order() DigitalFilterOrder { return DigitalFilterOrderFromBits(filtOrder.get(f.RegData)) }
func (f FiltConData) SetOrder(o DigitalFilterOrder) { filtOrder.set(f.RegData, uint8(o)) }
func (f FiltConData) ODR() uint8 { return filtODR.get(f.RegData) }
func (f FiltConData) SetODR(v uint8) { filtODR.set(f.RegData, v) }

// OffsetData is an OFFSETx payload
type OffsetData struct{ RegData }

func (o OffsetData) Offset() uint32 { return o.uint24() }
func (o OffsetData) SetOffset(v uint32) { o.setUint24(v) }

// GainData is a GAINx payload
type GainData struct{ RegData }

func (g GainData) Gain() uint32 { return g.uint24() }
func (g GainData) SetGain(v uint32) { g.setUint24(v) }
