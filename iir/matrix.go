package iir

import (
	"errors"
	"fmt"
)

// MatrixSize is the number of filter slots
const MatrixSize = 8

// ErrSlot is returned for an out-of-range slot or channel index
var ErrSlot = errors.New("iir: index out of range")

// SourceKind selects where a slot reads a value from
type SourceKind uint8

const (
	SourceConst SourceKind = iota
	SourceTemperature
	SourceMatrix
)

func (k SourceKind) String() string {
	switch k {
	case SourceConst:
		return "const"
	case SourceTemperature:
		return "temp"
	case SourceMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Source is a slot input or target
type Source struct {
	Kind  SourceKind
	Value float64 // SourceConst
	Index int     // channel for SourceTemperature, slot for SourceMatrix
}

// Const is a fixed value
func Const(v float64) Source { return Source{Kind: SourceConst, Value: v} }

// Temperature is the latest temperature of channel ch
func Temperature(ch int) Source { return Source{Kind: SourceTemperature, Index: ch} }

// MatrixOutput is the previous output of slot k
func MatrixOutput(k int) Source { return Source{Kind: SourceMatrix, Index: k} }

func (s Source) String() string {
	switch s.Kind {
	case SourceConst:
		return fmt.Sprintf("%g", s.Value)
	default:
		return fmt.Sprintf("%s %d", s.Kind, s.Index)
	}
}

// TemperatureFunc returns the latest temperature of a channel, false when
// the sensor has no valid reading.
type TemperatureFunc func(ch int) (float64, bool)

type slot struct {
	filter Filter
	input  Source
	target Source
	output float64
}

// Matrix is a fixed set of filters whose inputs and targets are constants,
// channel temperatures, or outputs of other slots.
type Matrix struct {
	slots    [MatrixSize]slot
	channels int
}

// NewMatrix returns a matrix for the given channel count. Every slot starts
// with DefaultBA, input and target constant zero.
func NewMatrix(channels int) *Matrix {
	m := &Matrix{channels: channels}
	for k := range m.slots {
		m.slots[k].filter.BA = DefaultBA
	}
	return m
}

func (m *Matrix) check(k int, s *Source) error {
	if k < 0 || k >= MatrixSize {
		return fmt.Errorf("%w: slot %d", ErrSlot, k)
	}
	if s == nil {
		return nil
	}
	switch s.Kind {
	case SourceTemperature:
		if s.Index < 0 || s.Index >= m.channels {
			return fmt.Errorf("%w: channel %d", ErrSlot, s.Index)
		}
	case SourceMatrix:
		if s.Index < 0 || s.Index >= MatrixSize {
			return fmt.Errorf("%w: slot %d", ErrSlot, s.Index)
		}
	}
	return nil
}

// SetInput sets the input of slot k
func (m *Matrix) SetInput(k int, s Source) error {
	if err := m.check(k, &s); err != nil {
		return err
	}
	m.slots[k].input = s
	return nil
}

// SetTarget sets the target of slot k
func (m *Matrix) SetTarget(k int, s Source) error {
	if err := m.check(k, &s); err != nil {
		return err
	}
	m.slots[k].target = s
	return nil
}

// SetCoefficients replaces the coefficients of slot k, keeping its state
func (m *Matrix) SetCoefficients(k int, ba BA) error {
	if err := m.check(k, nil); err != nil {
		return err
	}
	m.slots[k].filter.BA = ba
	return nil
}

// Coefficients returns the coefficients of slot k
func (m *Matrix) Coefficients(k int) BA {
	return m.slots[k].filter.BA
}

// Input returns the input source of slot k
func (m *Matrix) Input(k int) Source { return m.slots[k].input }

// Target returns the target source of slot k
func (m *Matrix) Target(k int) Source { return m.slots[k].target }

// Output returns the latest output of slot k
func (m *Matrix) Output(k int) float64 {
	return m.slots[k].output
}

// Tick evaluates every slot once. References to other slots see the
// outputs from before this tick, so evaluation order does not matter.
// A slot whose input or target is an unavailable temperature keeps its
// state and output.
func (m *Matrix) Tick(temperature TemperatureFunc) {
	var prev [MatrixSize]float64
	for k := range m.slots {
		prev[k] = m.slots[k].output
	}
	resolve := func(s Source) (float64, bool) {
		switch s.Kind {
		case SourceTemperature:
			return temperature(s.Index)
		case SourceMatrix:
			return prev[s.Index], true
		default:
			return s.Value, true
		}
	}

	for k := range m.slots {
		sl := &m.slots[k]
		x, ok := resolve(sl.input)
		if !ok {
			continue
		}
		target, ok := resolve(sl.target)
		if !ok {
			continue
		}
		sl.filter.Target = target
		sl.output = sl.filter.Tick(x)
	}
}

// Reset zeroes every slot's state and output
func (m *Matrix) Reset() {
	for k := range m.slots {
		m.slots[k].filter.Reset()
		m.slots[k].output = 0
	}
}
