package main

import "testing"

// TestZ80SoftReset grounds §8 scenario 1 exactly.
func TestZ80SoftReset(t *testing.T) {
	rig := newCPUZ80TestRig()
	cpu := rig.cpu

	cpu.SetBC(0x1234)
	cpu.SetDE(0x5678)
	cpu.SetHL(0x9ABC)
	cpu.IX = 0xDEAD
	cpu.SetAF(0x0042)

	cpu.Reset(false)

	requireZ80EqualU16(t, "AF", cpu.AF(), 0xFFFF)
	requireZ80EqualU16(t, "AF'", cpu.AF2(), 0xFFFF)
	requireZ80EqualU16(t, "PC", cpu.PC, 0x0000)
	requireZ80EqualU16(t, "SP", cpu.SP, 0xFFFF)
	if cpu.IFF1 || cpu.IFF2 {
		t.Fatalf("IFF1/IFF2 should be cleared on reset")
	}
	if cpu.IM != 0 {
		t.Fatalf("IM = %d, want 0", cpu.IM)
	}
	requireZ80EqualU16(t, "BC", cpu.BC(), 0x1234)
	requireZ80EqualU16(t, "DE", cpu.DE(), 0x5678)
	requireZ80EqualU16(t, "HL", cpu.HL(), 0x9ABC)
	requireZ80EqualU16(t, "IX", cpu.IX, 0xDEAD)
}

func TestZ80HardReset(t *testing.T) {
	rig := newCPUZ80TestRig()
	cpu := rig.cpu

	cpu.SetBC(0x1234)
	cpu.SetDE(0x5678)
	cpu.SetHL(0x9ABC)
	cpu.IX = 0xDEAD
	cpu.IY = 0xBEEF
	cpu.WZ = 0x4321

	cpu.Reset(true)

	requireZ80EqualU16(t, "BC", cpu.BC(), 0x0000)
	requireZ80EqualU16(t, "DE", cpu.DE(), 0x0000)
	requireZ80EqualU16(t, "HL", cpu.HL(), 0x0000)
	requireZ80EqualU16(t, "IX", cpu.IX, 0x0000)
	requireZ80EqualU16(t, "IY", cpu.IY, 0x0000)
	requireZ80EqualU16(t, "WZ", cpu.WZ, 0x0000)
}

func TestZ80ResetClearsInterruptAndRefreshState(t *testing.T) {
	rig := newCPUZ80TestRig()
	cpu := rig.cpu

	cpu.R = 0x34
	cpu.R7 = 0x80
	cpu.I = 0x12
	cpu.nmiLine = true
	cpu.nmiPending = true
	cpu.nmiPrev = true
	cpu.iff2Read = true
	cpu.q = true
	cpu.interruptsEnabledAt = 42
	cpu.Halted = true
	cpu.Cycles = 999

	cpu.Reset(false)

	if cpu.R != 0 || cpu.R7 != 0 {
		t.Fatalf("R/R7 should be cleared on reset")
	}
	if cpu.I != 0 {
		t.Fatalf("I should be cleared on reset")
	}
	if cpu.nmiLine || cpu.nmiPending || cpu.nmiPrev {
		t.Fatalf("NMI lines should be cleared on reset")
	}
	if cpu.iff2Read || cpu.q {
		t.Fatalf("iff2Read/Q should be cleared on reset")
	}
	if cpu.interruptsEnabledAt >= 0 {
		t.Fatalf("interruptsEnabledAt should be the not-pending sentinel after reset")
	}
	if cpu.Halted {
		t.Fatalf("Halted should be false on reset")
	}
	if cpu.Cycles != 0 {
		t.Fatalf("Cycles = %d, want 0", cpu.Cycles)
	}
	if !cpu.Running() {
		t.Fatalf("Running() should be true after reset")
	}
}

func TestZ80RegisterPairs(t *testing.T) {
	rig := newCPUZ80TestRig()
	cpu := rig.cpu

	cpu.SetAF(0x1234)
	cpu.SetBC(0x2345)
	cpu.SetDE(0x3456)
	cpu.SetHL(0x4567)
	cpu.SetAF2(0x6789)
	cpu.SetBC2(0x789A)
	cpu.SetDE2(0x89AB)
	cpu.SetHL2(0x9ABC)

	requireZ80EqualU16(t, "AF", cpu.AF(), 0x1234)
	requireZ80EqualU16(t, "BC", cpu.BC(), 0x2345)
	requireZ80EqualU16(t, "DE", cpu.DE(), 0x3456)
	requireZ80EqualU16(t, "HL", cpu.HL(), 0x4567)
	requireZ80EqualU16(t, "AF'", cpu.AF2(), 0x6789)
	requireZ80EqualU16(t, "BC'", cpu.BC2(), 0x789A)
	requireZ80EqualU16(t, "DE'", cpu.DE2(), 0x89AB)
	requireZ80EqualU16(t, "HL'", cpu.HL2(), 0x9ABC)
}

func TestZ80RefreshRegisterSplit(t *testing.T) {
	rig := newCPUZ80TestRig()
	cpu := rig.cpu

	cpu.SetRefresh(0xAA)
	if cpu.R != 0x2A || cpu.R7 != 0x80 {
		t.Fatalf("R = 0x%02X, R7 = 0x%02X, want 0x2A / 0x80", cpu.R, cpu.R7)
	}
	requireZ80EqualU8(t, "Refresh()", cpu.Refresh(), 0xAA)

	for i := 0; i < 130; i++ {
		cpu.incrementR()
	}
	if cpu.R > 0x7F {
		t.Fatalf("R must never exceed 0x7F, got 0x%02X", cpu.R)
	}
	if cpu.R7 != 0x80 {
		t.Fatalf("R7 must be untouched by incrementR")
	}
}

func TestZ80StepNOP(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x00})

	cpu := rig.cpu
	cpu.Step()

	requireZ80EqualU16(t, "PC", cpu.PC, 0x0001)
	if cpu.Cycles != 4 {
		t.Fatalf("Cycles = %d, want 4", cpu.Cycles)
	}
	if rig.bus.ticks != 4 {
		t.Fatalf("bus ticks = %d, want 4", rig.bus.ticks)
	}
}
