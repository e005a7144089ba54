package main

import "testing"

func newTestMemoryBus() (*MemoryBus, *MachineTiming, *Clock) {
	timing := NewTiming48K()
	clock := &Clock{}
	return NewMemoryBus(timing, clock), timing, clock
}

func TestMemoryBusROMOverlayAndWriteProtect(t *testing.T) {
	mem, _, _ := newTestMemoryBus()
	rom := make([]byte, pageSize)
	rom[0] = 0xF3 // DI
	if err := mem.LoadROM(0, rom); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	if v := mem.ReadByte(0x0000); v != 0xF3 {
		t.Fatalf("ROM overlay read = 0x%02X, want 0xF3", v)
	}
	mem.WriteByte(0x0000, 0xAA)
	if v := mem.ReadByte(0x0000); v != 0xF3 {
		t.Fatalf("write to ROM slot must be discarded, got 0x%02X", v)
	}
}

func TestMemoryBusPageRAMRemapsSlot(t *testing.T) {
	mem, _, _ := newTestMemoryBus()
	mem.SetROMSlot0(false)

	mem.PageRAM(0, 1)
	mem.WriteByte(0x0010, 0x42)

	mem.PageRAM(0, 2)
	if v := mem.ReadByte(0x0010); v == 0x42 {
		t.Fatalf("remapping slot 0 to a different page must not see the old page's data")
	}

	mem.PageRAM(0, 1)
	if v := mem.ReadByte(0x0010); v != 0x42 {
		t.Fatalf("remapping back to page 1 must see the previously written byte, got 0x%02X", v)
	}
}

func TestMemoryBusReadByteAdvancesClock(t *testing.T) {
	mem, _, clock := newTestMemoryBus()
	mem.SetROMSlot0(false)
	before := clock.Now()
	mem.ReadByte(0x8000) // outside the contended region
	if clock.Now() != before+3 {
		t.Fatalf("ReadByte outside contention should cost exactly 3 T-states, clock advanced by %d", clock.Now()-before)
	}
}

func TestMemoryBusPortDispatchAndFloatingFallback(t *testing.T) {
	mem, _, _ := newTestMemoryBus()
	var written byte
	mem.RegisterPort(0x00, 0xff, "ula", func(port uint16) (byte, bool) {
		return 0x1f, true
	}, func(port uint16, value byte) {
		written = value
	})

	if v := mem.ReadPort(0xfe, func() byte { return 0xff }); v != 0x1f {
		t.Fatalf("registered port read = 0x%02X, want 0x1F", v)
	}
	mem.WritePort(0xfe, 0x07)
	if written != 0x07 {
		t.Fatalf("registered port write not dispatched, got 0x%02X", written)
	}

	unclaimed, _, _ := newTestMemoryBus()
	if v := unclaimed.ReadPort(0x1234, func() byte { return 0x42 }); v != 0x42 {
		t.Fatalf("unclaimed port should fall back to the floating-bus value, got 0x%02X", v)
	}
}

func TestMemoryBusAddressContentionByBank(t *testing.T) {
	mem, _, _ := newTestMemoryBus()
	mem.SetROMSlot0(false)

	if mem.addressContended(0x0000) {
		t.Fatalf("ROM range must never be contended")
	}
	if !mem.addressContended(0x4000) {
		t.Fatalf("the 48K fixed screen bank at 0x4000 must be contended")
	}
	if mem.addressContended(0x8000) {
		t.Fatalf("0x8000 is not the 48K contended bank")
	}

	timing128 := NewTiming128K()
	clock := &Clock{}
	mem128 := NewMemoryBus(timing128, clock)
	mem128.SetROMSlot0(false)
	mem128.PageRAM(2, 3) // odd bank 3 paged into slot 2 (0x8000-0xBFFF)
	if !mem128.addressContended(0x8000) {
		t.Fatalf("odd RAM bank 3 must contend even when paged outside the fixed screen slot")
	}
	mem128.PageRAM(2, 4) // even bank 4: never contends
	if mem128.addressContended(0x8000) {
		t.Fatalf("even RAM bank 4 must never contend")
	}
}
