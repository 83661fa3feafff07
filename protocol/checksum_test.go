package protocol

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceCRC8 is the textbook shift-register form of CRC-8/0x07 with a zero
// initial value and no reflection.
func referenceCRC8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func TestChecksumCrcMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 64; n++ {
		data := make([]byte, rng.Intn(16))
		rng.Read(data)

		c := NewChecksum(ChecksumCrc)
		c.Feed(data...)
		sum, ok := c.Result()
		require.True(t, ok)
		assert.Equal(t, referenceCRC8(data), sum, "data %X", data)
	}
}

func TestChecksumCrcKnownValue(t *testing.T) {
	// CRC-8 (poly 0x07, init 0) check value for "123456789"
	c := NewChecksum(ChecksumCrc)
	c.Feed([]byte("123456789")...)
	sum, ok := c.Result()
	require.True(t, ok)
	assert.Equal(t, uint8(0xF4), sum)
}

func TestChecksumCrcIncremental(t *testing.T) {
	whole := NewChecksum(ChecksumCrc)
	whole.Feed(0x47, 0x00, 0xD0)

	parts := NewChecksum(ChecksumCrc)
	parts.Feed(0x47)
	parts.Feed(0x00, 0xD0)

	a, _ := whole.Result()
	b, _ := parts.Result()
	assert.Equal(t, a, b)
}

func TestChecksumXor(t *testing.T) {
	c := NewChecksum(ChecksumXor)
	c.Feed(0x0F, 0xF0, 0x33)
	sum, ok := c.Result()
	require.True(t, ok)
	assert.Equal(t, uint8(0x0F^0xF0^0x33), sum)
}

func TestChecksumOff(t *testing.T) {
	c := NewChecksum(ChecksumOff)
	c.Feed(1, 2, 3)
	_, ok := c.Result()
	assert.False(t, ok)
}

func TestChecksumModeFromBits(t *testing.T) {
	assert.Equal(t, ChecksumOff, ChecksumModeFromBits(0))
	assert.Equal(t, ChecksumXor, ChecksumModeFromBits(1))
	assert.Equal(t, ChecksumCrc, ChecksumModeFromBits(2))
	assert.Equal(t, ChecksumCrc, ChecksumModeFromBits(3))
}
