package iir

import (
	"fmt"
	"strconv"

	"thermostat/core"
)

// RegisterCommands adds the matrix script commands to reg:
//
//	matrix in <k> temp <ch>
//	matrix in <k> matrix <j>
//	matrix in <k> val <x>
//	matrix target <k> temp <ch>
//	matrix target <k> matrix <j>
//	matrix target <k> val <x>
//	iir <k> <b0> <b1> <b2> <a1> <a2>
func (m *Matrix) RegisterCommands(reg *core.CommandRegistry) {
	reg.Register("matrix", "in|target <k> temp <ch>|matrix <j>|val <x>", m.handleMatrix)
	reg.Register("iir", "<k> <b0> <b1> <b2> <a1> <a2>", m.handleIIR)
}

func (m *Matrix) handleMatrix(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("%w: want 4 arguments, got %d", core.ErrSyntax, len(args))
	}
	k, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: slot %q", core.ErrSyntax, args[1])
	}
	src, err := ParseSource(args[2], args[3])
	if err != nil {
		return err
	}
	switch args[0] {
	case "in":
		return m.SetInput(k, src)
	case "target":
		return m.SetTarget(k, src)
	default:
		return fmt.Errorf("%w: %q", core.ErrSyntax, args[0])
	}
}

func (m *Matrix) handleIIR(args []string) error {
	if len(args) != 6 {
		return fmt.Errorf("%w: want 6 arguments, got %d", core.ErrSyntax, len(args))
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: slot %q", core.ErrSyntax, args[0])
	}
	var ba BA
	for i := range ba {
		ba[i], err = strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return fmt.Errorf("%w: coefficient %q", core.ErrSyntax, args[i+1])
		}
	}
	return m.SetCoefficients(k, ba)
}

// ParseSource parses "temp <ch>", "matrix <k>" or "val <x>"
func ParseSource(kind, arg string) (Source, error) {
	switch kind {
	case "temp", "matrix":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return Source{}, fmt.Errorf("%w: index %q", core.ErrSyntax, arg)
		}
		if kind == "temp" {
			return Temperature(i), nil
		}
		return MatrixOutput(i), nil
	case "val":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return Source{}, fmt.Errorf("%w: value %q", core.ErrSyntax, arg)
		}
		return Const(v), nil
	default:
		return Source{}, fmt.Errorf("%w: source %q", core.ErrSyntax, kind)
	}
}
