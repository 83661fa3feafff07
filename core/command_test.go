package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()

	var got []string
	registry.Register("iir", "<k> <b0> <b1> <b2> <a1> <a2>", func(args []string) error {
		got = args
		return nil
	})

	cmd, ok := registry.GetCommand("iir")
	if !ok {
		t.Fatal("Failed to retrieve registered command")
	}
	if cmd.Name != "iir" {
		t.Errorf("Expected command name 'iir', got '%s'", cmd.Name)
	}

	if err := registry.Dispatch("  iir 0 0.1 0 0   0 0 "); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	want := []string{"0", "0.1", "0", "0", "0", "0"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d args, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	err := registry.Dispatch("pid 0")
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}

	if err := registry.Dispatch("   "); err != nil {
		t.Errorf("Blank line should be ignored, got %v", err)
	}
}

func TestCommandRegistryHandlerError(t *testing.T) {
	registry := NewCommandRegistry()
	fail := errors.New("bad index")
	registry.Register("matrix", "", func(args []string) error { return fail })

	err := registry.Dispatch("matrix in 9 temp 0")
	if !errors.Is(err, fail) {
		t.Errorf("Expected wrapped handler error, got %v", err)
	}
}

func TestCommandRegistryDictionary(t *testing.T) {
	registry := NewCommandRegistry()

	registry.Register("pwm", "<ch> matrix <k>", func(args []string) error { return nil })
	registry.Register("iir", "<k> <b0> <b1> <b2> <a1> <a2>", func(args []string) error { return nil })
	registry.Register("report", "", func(args []string) error { return nil })

	want := "iir <k> <b0> <b1> <b2> <a1> <a2>\npwm <ch> matrix <k>\nreport\n"
	if dict := registry.GetDictionary(); dict != want {
		t.Errorf("Unexpected dictionary:\n%s", dict)
	}
	if registry.Count() != 3 {
		t.Errorf("Expected 3 commands, got %d", registry.Count())
	}
}

func TestCommandRegistrySyntaxError(t *testing.T) {
	registry := NewCommandRegistry()
	registry.Register("power", "<ch> up|down", func(args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("%w: want 2 arguments, got %d", ErrSyntax, len(args))
		}
		return nil
	})

	err := registry.Dispatch("power 0")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("Expected ErrSyntax, got %v", err)
	}
	if errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Syntax error reported as unknown command: %v", err)
	}
}
