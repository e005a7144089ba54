package main

import "testing"

func TestUnattachedPortOutsideDisplayReturnsFF(t *testing.T) {
	m := NewTiming48K()
	clock := &Clock{}
	mem := NewMemoryBus(m, clock)

	if v := UnattachedPort(m, mem, 5, 0); v != 0xff {
		t.Fatalf("UnattachedPort before the display area = 0x%02X, want 0xFF", v)
	}
}

func TestUnattachedPortReadsBitmapAndAttributeBytes(t *testing.T) {
	m := NewTiming48K()
	clock := &Clock{}
	mem := NewMemoryBus(m, clock)
	mem.SetROMSlot0(false)

	line := 0
	mem.PageRAM(1, 5) // put display page 5 at logical slot 1 (0x4000-0x7FFF)
	mem.WriteByte(uint16(0x4000+m.DisplayLineStart[line]), 0xAA)
	mem.WriteByte(uint16(0x4000+m.DisplayAttrStart[line]), 0x55)

	base := m.LineTimes[line]
	// colTs == left_border + 2 selects the bitmap byte (table case 2).
	bitmapT := base - TState(m.LeftBorder-4*borderColsConst) + TState(m.LeftBorder+2)
	if v := UnattachedPort(m, mem, 5, bitmapT); v != 0xAA {
		t.Fatalf("bitmap byte = 0x%02X, want 0xAA", v)
	}

	attrT := base - TState(m.LeftBorder-4*borderColsConst) + TState(m.LeftBorder+3)
	if v := UnattachedPort(m, mem, 5, attrT); v != 0x55 {
		t.Fatalf("attribute byte = 0x%02X, want 0x55", v)
	}
}
