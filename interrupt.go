// interrupt.go - Z80 maskable interrupt acceptance (§4.4).

package main

// CPUVariant selects whether the NMOS IFF2-to-parity erratum modeled by
// AcceptMaskableInterrupt applies. A CMOS Z80 never exhibits it.
type CPUVariant int

const (
	VariantNMOS CPUVariant = iota
	VariantCMOS
)

// AcceptMaskableInterrupt attempts to deliver a maskable interrupt to c, per
// §4.4. Returns true iff the interrupt was accepted. scldIntDisable is the
// Timex SCLD's intdisable bit (§6); sched/onRetry let the caller re-arm a
// retry one T-state later when acceptance is deferred after EI.
func AcceptMaskableInterrupt(c *CPU_Z80, timing *MachineTiming, variant CPUVariant,
	scldIntDisable bool, sched *Scheduler, interruptEvent EventKind) bool {

	if !c.IFF1 {
		return false
	}
	if c.clock.Now() >= timing.InterruptLength {
		return false
	}
	if scldIntDisable {
		return false
	}

	if c.interruptsEnabledAt >= 0 && c.clock.Now() == c.interruptsEnabledAt {
		sched.Add(c.clock.Now()+1, interruptEvent)
		return false
	}

	if c.iff2Read && variant == VariantNMOS {
		c.F &^= z80FlagPV
	}
	c.iff2Read = false

	if c.Halted {
		c.PC++
		c.Halted = false
	}
	c.IFF1 = false
	c.IFF2 = false
	c.incrementR()
	c.tick(7)

	c.pushWord(c.PC)

	switch c.IM {
	case 0, 1:
		c.PC = 0x0038
	case 2:
		vector := uint16(c.I)<<8 | 0x00FF
		low := c.read(vector)
		high := c.read(vector + 1)
		c.PC = uint16(high)<<8 | uint16(low)
	default:
		panic("interrupt: IM must be 0, 1 or 2")
	}

	c.WZ = c.PC
	c.q = false
	return true
}
