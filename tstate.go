// tstate.go - the monotonic T-state counter within a frame.

package main

// TState is one clock cycle of the emulated 3.5 MHz Z80. All timing in this
// package is expressed in T-states.
type TState int64

// Clock tracks T-states elapsed since the last frame rebase.
type Clock struct {
	tstates TState
}

// Now returns the current T-state count.
func (c *Clock) Now() TState {
	return c.tstates
}

// Advance adds n T-states to the clock, e.g. for a memory access's base cost
// plus any contention delay.
func (c *Clock) Advance(n TState) {
	c.tstates += n
}

// Rebase subtracts length from the clock, clamping at zero. Called once per
// frame boundary (§4.7) to keep the counter from growing unbounded.
func (c *Clock) Rebase(length TState) {
	c.tstates -= length
	if c.tstates < 0 {
		c.tstates = 0
	}
}

// Set forces the clock to an explicit value. Used by snapshot import and by
// tests that need to seed a specific T-state.
func (c *Clock) Set(t TState) {
	c.tstates = t
}
