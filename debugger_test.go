// debugger_test.go - grounds breakpoint/watchpoint/condition evaluation and
// the T-state watch frame rebase (§4.7 step 2) against a real Machine's CPU
// and bus.

package main

import "testing"

func TestDebuggerBreakpointSetClearHas(t *testing.T) {
	m := newTestMachine48K()
	d := m.debugger

	if d.HasBreakpoint(0x8000) {
		t.Fatalf("a fresh Debugger should have no breakpoints")
	}
	d.SetBreakpoint(0x8000)
	if !d.HasBreakpoint(0x8000) {
		t.Fatalf("SetBreakpoint should register the address")
	}
	d.ClearBreakpoint(0x8000)
	if d.HasBreakpoint(0x8000) {
		t.Fatalf("ClearBreakpoint should remove the address")
	}

	d.SetBreakpoint(0x8000)
	d.SetBreakpoint(0x9000)
	d.ClearAllBreakpoints()
	if d.HasBreakpoint(0x8000) || d.HasBreakpoint(0x9000) {
		t.Fatalf("ClearAllBreakpoints should remove every breakpoint")
	}
}

func TestDebuggerCheckBreakpointHitUnconditional(t *testing.T) {
	m := newTestMachine48K()
	d := m.debugger
	d.SetBreakpoint(0x1234)
	m.cpu.PC = 0x1234

	ev, hit := d.CheckBreakpointHit()
	if !hit {
		t.Fatalf("an unconditional breakpoint at the current PC should hit")
	}
	if ev.Address != 0x1234 {
		t.Fatalf("BreakpointEvent.Address = 0x%X, want 0x1234", ev.Address)
	}

	m.cpu.PC = 0x1235
	if _, hit := d.CheckBreakpointHit(); hit {
		t.Fatalf("PC not on a breakpoint should not report a hit")
	}
}

func TestDebuggerConditionalBreakpointRegister(t *testing.T) {
	m := newTestMachine48K()
	d := m.debugger
	cond, err := ParseCondition("a==$2A")
	if err != nil {
		t.Fatalf("ParseCondition failed: %v", err)
	}
	d.SetConditionalBreakpoint(0x4000, cond)
	m.cpu.PC = 0x4000

	m.cpu.A = 0x10
	if _, hit := d.CheckBreakpointHit(); hit {
		t.Fatalf("condition a==0x2A should not hit while A=0x10")
	}

	m.cpu.A = 0x2A
	if _, hit := d.CheckBreakpointHit(); !hit {
		t.Fatalf("condition a==0x2A should hit once A==0x2A")
	}
}

func TestDebuggerConditionalBreakpointMemory(t *testing.T) {
	m := newTestMachine48K()
	m.bus.SetROMSlot0(false)
	d := m.debugger

	cond, err := ParseCondition("[$C000]==$FF")
	if err != nil {
		t.Fatalf("ParseCondition failed: %v", err)
	}
	d.SetConditionalBreakpoint(0x5000, cond)
	m.cpu.PC = 0x5000

	m.bus.WriteByte(0xC000, 0x00)
	if _, hit := d.CheckBreakpointHit(); hit {
		t.Fatalf("condition [$C000]==0xFF should not hit while memory holds 0x00")
	}

	m.bus.WriteByte(0xC000, 0xFF)
	if _, hit := d.CheckBreakpointHit(); !hit {
		t.Fatalf("condition [$C000]==0xFF should hit once memory holds 0xFF")
	}
}

func TestDebuggerConditionalBreakpointHitCount(t *testing.T) {
	m := newTestMachine48K()
	d := m.debugger

	cond, err := ParseCondition("hitcount>=3")
	if err != nil {
		t.Fatalf("ParseCondition failed: %v", err)
	}
	d.SetConditionalBreakpoint(0x6000, cond)
	m.cpu.PC = 0x6000

	for i := 0; i < 2; i++ {
		if _, hit := d.CheckBreakpointHit(); hit {
			t.Fatalf("hitcount>=3 should not hit before the third pass, failed at pass %d", i+1)
		}
	}
	if _, hit := d.CheckBreakpointHit(); !hit {
		t.Fatalf("hitcount>=3 should hit on the third pass")
	}
}

func TestDebuggerWatchpointSetClear(t *testing.T) {
	m := newTestMachine48K()
	m.bus.SetROMSlot0(false)
	d := m.debugger

	d.SetWatchpoint(0x7000)
	if _, ok := d.watchpoints[0x7000]; !ok {
		t.Fatalf("SetWatchpoint should record a watchpoint entry")
	}
	d.ClearWatchpoint(0x7000)
	if _, ok := d.watchpoints[0x7000]; ok {
		t.Fatalf("ClearWatchpoint should remove the entry")
	}

	d.SetWatchpoint(0x7000)
	d.SetWatchpoint(0x7001)
	d.ClearAllWatchpoints()
	if len(d.watchpoints) != 0 {
		t.Fatalf("ClearAllWatchpoints should empty the watchpoint set")
	}
}

func TestDebuggerTStateWatchFiresWhenDue(t *testing.T) {
	m := newTestMachine48K()
	d := m.debugger

	d.WatchTState("probe", 1000)
	if due := d.DueTStateWatches(999); len(due) != 0 {
		t.Fatalf("a watch due at 1000 should not fire at 999")
	}
	due := d.DueTStateWatches(1000)
	if len(due) != 1 || due[0].Label != "probe" {
		t.Fatalf("a watch due at 1000 should fire at 1000, got %+v", due)
	}
	if due := d.DueTStateWatches(2000); len(due) != 0 {
		t.Fatalf("a fired watch should not fire again")
	}
}

func TestDebuggerAdvanceFrameRebasesTStateWatchesAndCounter(t *testing.T) {
	m := newTestMachine48K()
	d := m.debugger
	before := d.FramesSinceReset()

	frameLength := m.timing.TStatesPerFrame
	d.WatchTState("far-out", frameLength+500)

	d.AdvanceFrame(frameLength)

	if got := d.FramesSinceReset(); got != before+1 {
		t.Fatalf("AdvanceFrame should bump FramesSinceReset by one, got %d want %d", got, before+1)
	}
	due := d.DueTStateWatches(500)
	if len(due) != 1 || due[0].Label != "far-out" {
		t.Fatalf("AdvanceFrame should rebase the watch by frameLength, leaving it due at 500")
	}
}

func TestDebuggerResetFrameCounter(t *testing.T) {
	m := newTestMachine48K()
	d := m.debugger
	d.AdvanceFrame(m.timing.TStatesPerFrame)
	if d.FramesSinceReset() == 0 {
		t.Fatalf("setup failed: FramesSinceReset should be nonzero before reset")
	}
	d.ResetFrameCounter()
	if d.FramesSinceReset() != 0 {
		t.Fatalf("ResetFrameCounter should zero the frame counter")
	}
}

func TestParseAddressFormats(t *testing.T) {
	cases := map[string]uint64{
		"$FF":   0xFF,
		"0xFF":  0xFF,
		"0XAB":  0xAB,
		"255":   255,
		"$1000": 0x1000,
	}
	for s, want := range cases {
		got, ok := ParseAddress(s)
		if !ok {
			t.Fatalf("ParseAddress(%q) failed to parse", s)
		}
		if got != want {
			t.Fatalf("ParseAddress(%q) = %d, want %d", s, got, want)
		}
	}
	if _, ok := ParseAddress("not-a-number"); ok {
		t.Fatalf("ParseAddress should reject garbage input")
	}
}

func TestParseConditionRejectsEmptyAndMissingOperator(t *testing.T) {
	if _, err := ParseCondition(""); err == nil {
		t.Fatalf("ParseCondition should reject an empty string")
	}
	if _, err := ParseCondition("a"); err == nil {
		t.Fatalf("ParseCondition should reject a condition with no operator")
	}
}

func TestFormatConditionRoundTrip(t *testing.T) {
	cond, err := ParseCondition("bc!=$100")
	if err != nil {
		t.Fatalf("ParseCondition failed: %v", err)
	}
	if got, want := FormatCondition(cond), "BC!=$100"; got != want {
		t.Fatalf("FormatCondition = %q, want %q", got, want)
	}
	if FormatCondition(nil) != "" {
		t.Fatalf("FormatCondition(nil) should return the empty string")
	}
}
