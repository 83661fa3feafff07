package core

// WakeFlag is a pending flag set from interrupt context and consumed by the
// main loop.
type WakeFlag struct {
	pending bool
}

// Set marks the flag pending
func (w *WakeFlag) Set() {
	atomically(func() { w.pending = true })
}

// TakePending reports whether the flag was set and clears it in the same
// critical section, so a wakeup arriving after the check is kept for the
// next iteration.
func (w *WakeFlag) TakePending() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	pending := w.pending
	w.pending = false
	return pending
}

// atomically runs fn with interrupts masked
func atomically(fn func()) {
	s := disableInterrupts()
	fn()
	restoreInterrupts(s)
}
