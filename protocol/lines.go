package protocol

// MaxLineLength bounds a single report line, newline included
const MaxLineLength = 512

// LineFifo is a circular byte buffer carrying newline-terminated records.
// The firmware queues JSON report lines into it and drains it to USB when the
// host is ready; host tools feed raw serial reads into it and pop whole lines.
type LineFifo struct {
	buf   []byte
	read  int
	write int
	size  int
	// dropped counts lines rejected by WriteLine for lack of room
	dropped uint32
	// discarding is set while the tail of an overlong line is skipped
	discarding bool
}

// NewLineFifo creates a LineFifo holding up to capacity-1 bytes
func NewLineFifo(capacity int) *LineFifo {
	return &LineFifo{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends raw bytes and returns how many fit
func (f *LineFifo) Write(data []byte) int {
	written := 0
	for _, b := range data {
		next := (f.write + 1) % f.size
		if next == f.read {
			break
		}
		f.buf[f.write] = b
		f.write = next
		written++
	}
	return written
}

// WriteLine appends line plus a trailing newline, or nothing at all when the
// whole record does not fit. A partial record would corrupt the stream.
func (f *LineFifo) WriteLine(line []byte) bool {
	if len(line)+1 > f.Free() || len(line)+1 > MaxLineLength {
		f.dropped++
		return false
	}
	f.Write(line)
	f.Write([]byte{'\n'})
	return true
}

// Read drains up to len(data) bytes
func (f *LineFifo) Read(data []byte) int {
	n := 0
	for i := range data {
		if f.read == f.write {
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		n++
	}
	return n
}

// ReadLine pops the next complete line without its newline. Bytes of an
// unterminated line stay queued. A line longer than MaxLineLength is
// discarded up to its newline so the stream can resynchronise, even when
// it arrives in several writes.
func (f *LineFifo) ReadLine() ([]byte, bool) {
	for {
		avail := f.Available()
		nl := -1
		for i := 0; i < avail; i++ {
			if f.buf[(f.read+i)%f.size] == '\n' {
				nl = i
				break
			}
		}
		if nl < 0 {
			if avail >= MaxLineLength {
				f.Pop(avail)
				f.discarding = true
			}
			return nil, false
		}
		if f.discarding || nl >= MaxLineLength {
			f.Pop(nl + 1)
			f.discarding = false
			continue
		}
		line := make([]byte, nl)
		f.Read(line)
		f.Pop(1)
		return line, true
	}
}

// Available returns the number of queued bytes
func (f *LineFifo) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes that can still be written
func (f *LineFifo) Free() int {
	return f.size - f.Available() - 1
}

// Pop discards n queued bytes
func (f *LineFifo) Pop(n int) {
	for i := 0; i < n && f.read != f.write; i++ {
		f.read = (f.read + 1) % f.size
	}
}

// Dropped returns the number of lines WriteLine rejected
func (f *LineFifo) Dropped() uint32 {
	return f.dropped
}

// Reset clears the buffer
func (f *LineFifo) Reset() {
	f.read = 0
	f.write = 0
	f.discarding = false
}
