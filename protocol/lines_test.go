package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineFifoRoundTrip(t *testing.T) {
	f := NewLineFifo(64)
	require.True(t, f.WriteLine([]byte(`{"channel":0}`)))
	require.True(t, f.WriteLine([]byte(`{"channel":1}`)))

	line, ok := f.ReadLine()
	require.True(t, ok)
	assert.Equal(t, `{"channel":0}`, string(line))

	line, ok = f.ReadLine()
	require.True(t, ok)
	assert.Equal(t, `{"channel":1}`, string(line))

	_, ok = f.ReadLine()
	assert.False(t, ok)
	assert.Equal(t, 0, f.Available())
}

func TestLineFifoPartialLine(t *testing.T) {
	f := NewLineFifo(64)
	f.Write([]byte("abc"))
	_, ok := f.ReadLine()
	assert.False(t, ok)
	assert.Equal(t, 3, f.Available())

	f.Write([]byte("def\nxy"))
	line, ok := f.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "abcdef", string(line))
	assert.Equal(t, 2, f.Available())
}

func TestLineFifoWrapAround(t *testing.T) {
	f := NewLineFifo(16)
	for i := 0; i < 10; i++ {
		require.True(t, f.WriteLine([]byte("0123456")))
		line, ok := f.ReadLine()
		require.True(t, ok)
		assert.Equal(t, "0123456", string(line))
	}
}

func TestLineFifoDropsWholeLine(t *testing.T) {
	f := NewLineFifo(8)
	assert.False(t, f.WriteLine([]byte("too long line")))
	assert.Equal(t, 0, f.Available())
	assert.Equal(t, uint32(1), f.Dropped())

	assert.True(t, f.WriteLine([]byte("ok")))
	assert.Equal(t, 3, f.Available())
}

func TestLineFifoSkipsOverlongLine(t *testing.T) {
	f := NewLineFifo(2 * MaxLineLength)
	long := make([]byte, MaxLineLength)
	for i := range long {
		long[i] = 'x'
	}

	f.Write(long)
	_, ok := f.ReadLine()
	assert.False(t, ok)
	assert.Equal(t, 0, f.Available())

	// the tail of the overlong line arrives with the next record
	f.Write([]byte("xxxx\nok\n"))
	line, ok := f.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "ok", string(line))
}
