package main

import "testing"

func newTestMachineTiming() *MachineTiming {
	return NewTiming48K()
}

// TestZ80DeferredAcceptanceAfterEI grounds §8 scenario 3: EI defers
// interrupt acceptance by one instruction by scheduling a retry.
func TestZ80DeferredAcceptanceAfterEI(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0xABCD, []byte{0x00})
	rig.cpu.PC = 0xABCD
	rig.cpu.SP = 0x8000
	rig.cpu.IM = 2
	rig.cpu.I = 0x80
	rig.cpu.IFF1 = true
	rig.cpu.interruptsEnabledAt = 10
	rig.clock.Set(10) // inside the 48K /INT window (InterruptLength 32)

	timing := newTestMachineTiming()
	sched := NewScheduler()
	kind := sched.Register("interrupt_event", func(at TState) {})

	accepted := AcceptMaskableInterrupt(rig.cpu, timing, VariantNMOS, false, sched, kind)
	if accepted {
		t.Fatalf("interrupt should not be accepted immediately after EI")
	}
	if !sched.Pending(kind) {
		t.Fatalf("a retry entry should have been scheduled")
	}
}

// TestZ80IM2InterruptAcceptance grounds §8 scenario 2 exactly.
func TestZ80IM2InterruptAcceptance(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.cpu.PC = 0xABCD
	rig.cpu.SP = 0x8000
	rig.cpu.IM = 2
	rig.cpu.I = 0x80
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.bus.mem[0x80FF] = 0x34
	rig.bus.mem[0x8100] = 0x12
	rig.clock.Set(0)

	timing := newTestMachineTiming()
	sched := NewScheduler()
	kind := sched.Register("interrupt_event", func(at TState) {})

	accepted := AcceptMaskableInterrupt(rig.cpu, timing, VariantNMOS, false, sched, kind)
	if !accepted {
		t.Fatalf("interrupt should be accepted")
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x1234)
	if rig.cpu.SP != 0x7FFE {
		t.Fatalf("SP = 0x%04X, want 0x7FFE", rig.cpu.SP)
	}
	if rig.bus.mem[0x7FFF] != 0xAB || rig.bus.mem[0x7FFE] != 0xCD {
		t.Fatalf("stack push incorrect: %02X %02X", rig.bus.mem[0x7FFF], rig.bus.mem[0x7FFE])
	}
	if rig.cpu.IFF1 || rig.cpu.IFF2 {
		t.Fatalf("interrupt acceptance should clear IFF1/IFF2")
	}
	if rig.cpu.WZ != 0x1234 {
		t.Fatalf("WZ = 0x%04X, want 0x1234", rig.cpu.WZ)
	}
}

func TestZ80IM1Interrupt(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.cpu.PC = 0x1000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 1
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.clock.Set(0)

	timing := newTestMachineTiming()
	sched := NewScheduler()
	kind := sched.Register("interrupt_event", func(at TState) {})

	if !AcceptMaskableInterrupt(rig.cpu, timing, VariantNMOS, false, sched, kind) {
		t.Fatalf("interrupt should be accepted")
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0038)
	if rig.cpu.SP != 0xFEFE {
		t.Fatalf("SP = 0x%04X, want 0xFEFE", rig.cpu.SP)
	}
	if rig.cpu.Cycles != 7 {
		t.Fatalf("Cycles = %d, want 7", rig.cpu.Cycles)
	}
}

func TestZ80InterruptPreconditionFails(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.cpu.IFF1 = false
	timing := newTestMachineTiming()
	sched := NewScheduler()
	kind := sched.Register("interrupt_event", func(at TState) {})

	if AcceptMaskableInterrupt(rig.cpu, timing, VariantNMOS, false, sched, kind) {
		t.Fatalf("interrupt should not be accepted when IFF1 is clear")
	}

	rig.cpu.IFF1 = true
	rig.clock.Set(timing.InterruptLength)
	if AcceptMaskableInterrupt(rig.cpu, timing, VariantNMOS, false, sched, kind) {
		t.Fatalf("interrupt should not be accepted once the /INT line has been released")
	}

	rig.clock.Set(0)
	if AcceptMaskableInterrupt(rig.cpu, timing, VariantNMOS, true, sched, kind) {
		t.Fatalf("interrupt should not be accepted while SCLD intdisable is set")
	}
}

func TestZ80HALTInterruptExit(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.cpu.PC = 0x5000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 1
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.cpu.Halted = true
	rig.clock.Set(0)

	timing := newTestMachineTiming()
	sched := NewScheduler()
	kind := sched.Register("interrupt_event", func(at TState) {})

	AcceptMaskableInterrupt(rig.cpu, timing, VariantNMOS, false, sched, kind)

	if rig.cpu.Halted {
		t.Fatalf("HALT should exit on interrupt")
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0038)
}

func TestZ80NMIAcceptance(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.cpu.PC = 0x2000
	rig.cpu.SP = 0xFF00
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true

	AcceptNMI(rig.cpu, nil, nil)

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0066)
	if rig.cpu.SP != 0xFEFE {
		t.Fatalf("SP = 0x%04X, want 0xFEFE", rig.cpu.SP)
	}
	if rig.bus.mem[0xFEFE] != 0x00 || rig.bus.mem[0xFEFF] != 0x20 {
		t.Fatalf("stack push incorrect: %02X %02X", rig.bus.mem[0xFEFE], rig.bus.mem[0xFEFF])
	}
	if rig.cpu.IFF1 {
		t.Fatalf("NMI should clear IFF1")
	}
	if !rig.cpu.IFF2 {
		t.Fatalf("NMI should preserve IFF2")
	}
	if rig.cpu.Cycles != 5 {
		t.Fatalf("Cycles = %d, want 5", rig.cpu.Cycles)
	}
}

type fakeNMIParticipant struct {
	available bool
	absorbs   bool
	paged     bool
}

func (f *fakeNMIParticipant) Available() bool  { return f.available }
func (f *fakeNMIParticipant) AbsorbsNMI() bool { return f.absorbs }
func (f *fakeNMIParticipant) OnNMI(bus *MemoryBus) {
	f.paged = true
}

func TestZ80NMIAbsorbedBySpectranet(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.cpu.PC = 0x2000
	rig.cpu.IFF1 = true
	pc := rig.cpu.PC

	spectranet := &fakeNMIParticipant{available: true, absorbs: true}
	AcceptNMI(rig.cpu, nil, []NMIParticipant{spectranet})

	if rig.cpu.PC != pc {
		t.Fatalf("PC should be unchanged when NMI is absorbed")
	}
	if spectranet.paged {
		t.Fatalf("an absorbed NMI should not invoke OnNMI")
	}
}

func TestZ80NMIPagingPriority(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.cpu.PC = 0x2000
	rig.cpu.SP = 0xFF00
	rig.cpu.IFF1 = true

	unavailable := &fakeNMIParticipant{available: false}
	scorpion := &fakeNMIParticipant{available: true}
	beta := &fakeNMIParticipant{available: true}

	AcceptNMI(rig.cpu, nil, []NMIParticipant{unavailable, scorpion, beta})

	if !scorpion.paged {
		t.Fatalf("the first available participant should page")
	}
	if beta.paged {
		t.Fatalf("only the first available participant should page")
	}
}
