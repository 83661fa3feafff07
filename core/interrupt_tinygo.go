//go:build tinygo

package core

import "runtime/interrupt"

// irqState is the interrupt mask saved on entry to a critical section
type irqState = interrupt.State

func disableInterrupts() irqState { return interrupt.Disable() }

func restoreInterrupts(s irqState) { interrupt.Restore(s) }

