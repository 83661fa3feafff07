package core

// TickRate is the periodic tick interrupt rate in Hz
const TickRate = 500

// TickDelta is the number of milliseconds one tick adds
const TickDelta = 1000 / TickRate

// Clock is the millisecond counter advanced from the periodic tick
// interrupt and read from the main loop.
type Clock struct {
	ms uint32
}

// Tick advances the clock by one tick period. Called from interrupt context.
func (c *Clock) Tick() {
	atomically(func() { c.ms += TickDelta })
}

// Advance moves the clock forward by ms milliseconds (host simulation)
func (c *Clock) Advance(ms uint32) {
	atomically(func() { c.ms += ms })
}

// Now returns the elapsed time in milliseconds
func (c *Clock) Now() uint32 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return c.ms
}

// Sleep blocks for at least ms milliseconds by spinning on the clock. idle is
// called on every spin; the host passes a function that advances time.
func (c *Clock) Sleep(ms uint32, idle func()) {
	start := c.Now()
	for c.Now()-start <= ms {
		if idle != nil {
			idle()
		}
	}
}
