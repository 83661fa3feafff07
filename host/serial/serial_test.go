package serial

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat/protocol"
)

// chunkReader returns its data a few bytes per Read, with empty reads in
// between like a serial port timing out.
type chunkReader struct {
	data  []byte
	chunk int
	empty bool
}

func (c *chunkReader) Read(b []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	c.empty = !c.empty
	if c.empty {
		return 0, nil
	}
	n := c.chunk
	if n > len(b) {
		n = len(b)
	}
	if n > len(c.data) {
		n = len(c.data)
	}
	copy(b, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestLineReader(t *testing.T) {
	r := NewLineReader(&chunkReader{
		data:  []byte("{\"channel\":0}\n{\"channel\":1}\npartial"),
		chunk: 5,
	})

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"channel":0}`, string(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"channel":1}`, string(line))

	_, err = r.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderDropsOverlongLines(t *testing.T) {
	long := strings.Repeat("x", protocol.MaxLineLength+10)
	r := NewLineReader(bytes.NewReader([]byte(long + "\nok\n")))

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(line))
}

func TestOpenWithoutDevice(t *testing.T) {
	_, err := Open(nil)
	assert.ErrorIs(t, err, ErrNoDevice)
	_, err = Open(DefaultConfig(""))
	assert.ErrorIs(t, err, ErrNoDevice)
}
