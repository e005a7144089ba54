// nmi.go - Z80 NMI acceptance (§4.5) and peripheral paging participants
// (§9's "visitor over connected peripherals" redesign note, §D.1).

package main

// NMIParticipant is a peripheral that may absorb or react to an NMI. Checked
// in a fixed priority order by AcceptNMI.
type NMIParticipant interface {
	Available() bool
	// AbsorbsNMI reports whether this participant's NMI flip-flop is set,
	// meaning the NMI is absorbed and not propagated to the CPU (only
	// Spectranet does this; others always return false here).
	AbsorbsNMI() bool
	// OnNMI applies this participant's paging side effect. Called in
	// priority order; the first match wins (§4.5 step 7).
	OnNMI(bus *MemoryBus)
}

// AcceptNMI applies §4.5. participants is consulted in priority order:
// Scorpion, then BetaDisk, then Spectranet (first whose Available() is true
// and OnNMI is invoked; OnNMI is a no-op if the participant declines).
func AcceptNMI(c *CPU_Z80, bus *MemoryBus, participants []NMIParticipant) {
	for _, p := range participants {
		if p.Available() && p.AbsorbsNMI() {
			return
		}
	}

	if c.Halted {
		c.PC++
		c.Halted = false
	}
	c.IFF1 = false
	c.incrementR()
	c.tick(5)

	c.pushWord(c.PC)

	for _, p := range participants {
		if p.Available() {
			p.OnNMI(bus)
			break
		}
	}

	c.q = false
	c.PC = 0x0066
}
