//go:build !tinygo

package core

// irqState stands in for the saved interrupt mask on host builds, where
// nothing runs in interrupt context.
type irqState struct{}

func disableInterrupts() irqState { return irqState{} }

func restoreInterrupts(irqState) {}
