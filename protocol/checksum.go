// Package protocol holds the byte-level framing shared by the firmware and
// its host tools: the AD7172 SPI checksum and the newline-delimited report
// stream.
package protocol

// ChecksumMode selects how SPI register transfers are authenticated. The
// values match the CRC_EN field of the AD7172 interface mode register.
type ChecksumMode uint8

const (
	ChecksumOff ChecksumMode = 0b00
	// ChecksumXor is only honoured by the ADC for reads; writes fall back to CRC.
	ChecksumXor ChecksumMode = 0b01
	ChecksumCrc ChecksumMode = 0b10
)

// crcPoly is x^8 + x^2 + x + 1.
const crcPoly = 0x07

// ChecksumModeFromBits decodes the two-bit CRC_EN field.
func ChecksumModeFromBits(b uint8) ChecksumMode {
	switch b & 0b11 {
	case 0b00:
		return ChecksumOff
	case 0b01:
		return ChecksumXor
	default:
		return ChecksumCrc
	}
}

func (m ChecksumMode) String() string {
	switch m {
	case ChecksumOff:
		return "off"
	case ChecksumXor:
		return "xor"
	default:
		return "crc"
	}
}

// Checksum accumulates an XOR or CRC-8 over a byte stream
type Checksum struct {
	mode  ChecksumMode
	state uint8
}

// NewChecksum returns a zeroed checksum for mode
func NewChecksum(mode ChecksumMode) *Checksum {
	return &Checksum{mode: mode}
}

// Mode returns the checksum mode
func (c *Checksum) Mode() ChecksumMode {
	return c.mode
}

// Feed adds bytes to the checksum
func (c *Checksum) Feed(data ...byte) {
	switch c.mode {
	case ChecksumXor:
		for _, b := range data {
			c.state ^= b
		}
	case ChecksumCrc:
		for _, b := range data {
			c.state = crc8Update(c.state, b)
		}
	}
}

// Result returns the checksum byte. ok is false in ChecksumOff mode, where no
// checksum byte is sent or verified.
func (c *Checksum) Result() (sum uint8, ok bool) {
	if c.mode == ChecksumOff {
		return 0, false
	}
	return c.state, true
}

// crc8Update shifts one byte through the CRC register MSB first
func crc8Update(state, input uint8) uint8 {
	for i := 0; i < 8; i++ {
		mask := uint8(0x80) >> i
		feedback := (state&0x80 != 0) != (input&mask != 0)
		state <<= 1
		if feedback {
			state ^= crcPoly
		}
	}
	return state
}
