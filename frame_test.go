// frame_test.go - grounds §8's frame-rebase invariants and the frame
// driver's interrupt/NMI dispatch ordering (§4.7, §4.5) against Machine.

package main

import "testing"

func newTestMachine48K() *Machine {
	m := NewMachine(NewTiming48K(), VariantNMOS, 0)
	return m
}

// TestMachineFrameRebasesSchedulerAndClock grounds §8's invariant: after a
// frame rebase by L, every scheduler entry's due_tstate has decreased by L
// (or clamped to 0), and the clock has decreased by L.
func TestMachineFrameRebasesSchedulerAndClock(t *testing.T) {
	m := newTestMachine48K()
	frameLength := m.timing.TStatesPerFrame
	m.clock.Set(frameLength + 1000)

	farOut := m.sched.Register("far-out-probe", func(at TState) {})
	m.sched.Add(frameLength+5000, farOut)

	m.spectrumFrame()

	if m.clock.Now() != 1000 {
		t.Fatalf("clock should have rebased by frameLength: got %d, want 1000", m.clock.Now())
	}
	if !m.sched.Pending(farOut) {
		t.Fatalf("the far-out entry should still be pending after rebase")
	}
}

// TestMachineFrameClampsInterruptsEnabledAt grounds §4.7 step 4's
// "interrupts_enabled_at -= frame_length if >= 0" clamp behaviour: a
// negative (disarmed) value is left untouched, never driven further
// negative or wrapped.
func TestMachineFrameClampsInterruptsEnabledAt(t *testing.T) {
	m := newTestMachine48K()
	m.cpu.interruptsEnabledAt = -1
	m.clock.Set(m.timing.TStatesPerFrame)

	m.spectrumFrame()

	if m.cpu.interruptsEnabledAt != -1 {
		t.Fatalf("a disarmed interruptsEnabledAt must not be touched by the rebase, got %d", m.cpu.interruptsEnabledAt)
	}
}

// TestMachineFrameRebasesArmedInterruptsEnabledAt grounds the companion
// case: an armed (>= 0) interruptsEnabledAt rebases by exactly frameLength.
func TestMachineFrameRebasesArmedInterruptsEnabledAt(t *testing.T) {
	m := newTestMachine48K()
	frameLength := m.timing.TStatesPerFrame
	m.cpu.interruptsEnabledAt = frameLength + 42
	m.clock.Set(frameLength)

	m.spectrumFrame()

	if m.cpu.interruptsEnabledAt != 42 {
		t.Fatalf("interruptsEnabledAt should rebase by frameLength: got %d, want 42", m.cpu.interruptsEnabledAt)
	}
}

// TestMachineFrameAdvancesDebuggerFrameCounter grounds §4.7 step 4's
// "frames_since_reset++".
func TestMachineFrameAdvancesDebuggerFrameCounter(t *testing.T) {
	m := newTestMachine48K()
	before := m.debugger.FramesSinceReset()
	m.spectrumFrame()
	if got := m.debugger.FramesSinceReset(); got != before+1 {
		t.Fatalf("frames_since_reset should advance by one frame, got %d want %d", got, before+1)
	}
}

// TestMachineFrameRearmsFrameEndUnlessReplaying grounds §4.7 step 4's
// "if not in RZX playback, re-arm the frame-end event".
func TestMachineFrameRearmsFrameEndUnlessReplaying(t *testing.T) {
	m := newTestMachine48K()
	m.spectrumFrame()
	if !m.sched.Pending(m.frameEvent) {
		t.Fatalf("frame-end should be re-armed when not replaying")
	}

	m2 := newTestMachine48K()
	m2.replay = fakeReplay{playing: true}
	m2.sched.queue = nil // drop the constructor's initial arm to isolate this call
	m2.spectrumFrame()
	if m2.sched.Pending(m2.frameEvent) {
		t.Fatalf("frame-end must not be re-armed during RZX playback")
	}
}

// TestMachineRunFrameDispatchesMaskableInterruptBeforeNextFrameInstruction
// grounds §4.7's ordering: step 5's interrupt acceptance happens before any
// instruction belonging to the following frame executes. A HALT instruction
// loaded at PC spins in place until the interrupt breaks it out, so PC
// landing on the IM1 vector confirms the interrupt fired within this frame.
func TestMachineRunFrameDispatchesMaskableInterruptBeforeNextFrameInstruction(t *testing.T) {
	m := newTestMachine48K()
	m.bus.SetROMSlot0(false)
	m.bus.WriteByte(0, 0x76) // HALT
	m.cpu.PC = 0
	m.cpu.IFF1 = true
	m.cpu.IFF2 = true
	m.cpu.IM = 1

	m.RunFrame()

	if m.cpu.PC != 0x0038 {
		t.Fatalf("IM1 interrupt should have vectored PC to 0x0038 by frame end, got 0x%04X", m.cpu.PC)
	}
	if m.cpu.IFF1 {
		t.Fatalf("IFF1 should be cleared by interrupt acceptance")
	}
}

// TestMachineDrainsPendingNMIAfterStep grounds §4.5's split responsibility:
// CPU_Z80.Step latches a rising NMI-line edge into nmiPending, and the
// frame driver's per-instruction loop (mirrored here directly) drains it via
// ConsumeNMIPending/AcceptNMI, vectoring to 0x0066, without waiting for a
// frame boundary.
func TestMachineDrainsPendingNMIAfterStep(t *testing.T) {
	m := newTestMachine48K()
	m.bus.SetROMSlot0(false)
	m.bus.WriteByte(0, 0x00) // NOP
	m.cpu.PC = 0
	m.cpu.IFF1 = false // NMI does not require IFF1

	m.cpu.SetNMILine(true)
	m.cpu.Step()

	if !m.cpu.ConsumeNMIPending() {
		t.Fatalf("Step should have latched the NMI line's rising edge")
	}
	AcceptNMI(m.cpu, m.bus, m.nmiParticipants)

	if m.cpu.PC != 0x0066 {
		t.Fatalf("AcceptNMI should vector PC to 0x0066, got 0x%04X", m.cpu.PC)
	}
	if m.cpu.IFF1 {
		t.Fatalf("AcceptNMI should clear IFF1")
	}
}

// TestMachineRunFrameReportsExitRequest grounds §4.7 step 4's "display
// emits user requested exit" bubbling up through RunFrame's return value,
// and confirms the flag is cleared for the next call.
func TestMachineRunFrameReportsExitRequest(t *testing.T) {
	m := newTestMachine48K()
	m.bus.SetROMSlot0(false)
	m.cpu.running = false // stop the instruction loop immediately

	m.RequestExit()
	if exit := m.RunFrame(); !exit {
		t.Fatalf("RunFrame should report exit once RequestExit was called")
	}
	if exit := m.RunFrame(); exit {
		t.Fatalf("exitRequested should be cleared after being reported once")
	}
}

func TestMachineAttachesNMIPeripheralsOnlyPerCapability(t *testing.T) {
	m := newTestMachine48K()
	if m.scorpion.Available() || m.betaDisk.Available() || m.spectranet.Available() {
		t.Fatalf("a base 48K machine should fit none of the optional NMI-paging peripherals")
	}

	fitted := NewTiming48K()
	fitted.Caps |= CapScorpionPaging | CapBetaDisk | CapSpectranet
	m2 := NewMachine(fitted, VariantNMOS, 0)
	if !m2.scorpion.Available() {
		t.Fatalf("CapScorpionPaging should Attach the Scorpion peripheral")
	}
	if !m2.betaDisk.Available() {
		t.Fatalf("CapBetaDisk should Attach the BetaDisk peripheral")
	}
	if !m2.spectranet.Available() {
		t.Fatalf("CapSpectranet should Attach the Spectranet peripheral")
	}
}

func TestMachineWiresScorpionExtendedPagingPortSeparatelyFrom7FFD(t *testing.T) {
	timing := NewTiming128K()
	timing.Caps |= CapScorpionPaging
	m := NewMachine(timing, VariantNMOS, 0)

	m.bus.WritePort(0x1FFD, 0x05)
	if m.scorpion.lastByte2 != 0x05 {
		t.Fatalf("a write to port 0x1FFD should feed Scorpion.lastByte2, got 0x%02X", m.scorpion.lastByte2)
	}

	// A write to the primary 128K paging port (0x7FFD) must not also reach
	// the Scorpion's extended register.
	m.bus.WritePort(0x7FFD, 0x3F)
	if m.scorpion.lastByte2 != 0x05 {
		t.Fatalf("a write to port 0x7FFD should not feed Scorpion.lastByte2, got 0x%02X", m.scorpion.lastByte2)
	}
}

func TestMachineRequestSpectranetNMIAssertsCPUNMILine(t *testing.T) {
	timing := NewTiming48K()
	timing.Caps |= CapSpectranet
	m := NewMachine(timing, VariantNMOS, 0)
	m.bus.SetROMSlot0(false)
	m.bus.WriteByte(0, 0x00) // NOP
	m.cpu.PC = 0

	m.RequestSpectranetNMI()
	m.cpu.Step()

	if !m.cpu.ConsumeNMIPending() {
		t.Fatalf("RequestSpectranetNMI should assert the CPU's NMI line, latched by the next Step")
	}
}

func TestMachineRequestSpectranetNMIWithNoCapabilityIsHarmless(t *testing.T) {
	m := newTestMachine48K()
	m.bus.SetROMSlot0(false)
	m.bus.WriteByte(0, 0x00) // NOP
	m.cpu.PC = 0

	m.RequestSpectranetNMI() // spectranet not fitted: no trigger installed
	m.cpu.Step()

	if m.cpu.ConsumeNMIPending() {
		t.Fatalf("RequestSpectranetNMI on an unfitted machine should not assert the CPU's NMI line")
	}
}

type fakeReplay struct {
	playing   bool
	recording bool
}

func (f fakeReplay) Playing() bool                                     { return f.playing }
func (f fakeReplay) Recording() bool                                   { return f.recording }
func (f fakeReplay) ForceDispatchPending(sched *Scheduler, now TState) {}
func (f fakeReplay) NotifyFrameBoundary()                              {}
func (f fakeReplay) CommitFrameMarker(frame uint64)                    {}
