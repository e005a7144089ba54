package main

import "testing"

func TestKeyboardMatrixStartsAllReleased(t *testing.T) {
	m := NewKeyboardMatrix()
	for row := 0; row < 8; row++ {
		if v := m.ReadHalfRows(^byte(1 << uint(row))); v&0x1f != 0x1f {
			t.Fatalf("row %d should start fully released, got 0x%02X", row, v&0x1f)
		}
	}
}

func TestKeyboardMatrixPressAndRelease(t *testing.T) {
	m := NewKeyboardMatrix()
	m.PressKey(2, 3) // 'r'

	v := m.ReadHalfRows(^byte(1 << 2)) // select row 2 only
	if v&(1<<3) != 0 {
		t.Fatalf("pressed key bit should read 0, got row=0x%02X", v&0x1f)
	}

	m.ReleaseKey(2, 3)
	v = m.ReadHalfRows(^byte(1 << 2))
	if v&(1<<3) == 0 {
		t.Fatalf("released key bit should read 1, got row=0x%02X", v&0x1f)
	}
}

func TestKeyboardMatrixCombinesMultipleSelectedRows(t *testing.T) {
	m := NewKeyboardMatrix()
	m.PressKey(0, 0)
	m.PressKey(1, 0)

	// Select rows 0 and 1 simultaneously (both address bits low).
	highByte := ^byte(1<<0 | 1<<1)
	v := m.ReadHalfRows(highByte)
	if v&1 != 0 {
		t.Fatalf("bit 0 should read pressed (0) when either selected row has it pressed, got 0x%02X", v&0x1f)
	}
}

func TestKeyboardMatrixReleaseAll(t *testing.T) {
	m := NewKeyboardMatrix()
	m.PressKey(3, 2)
	m.ReleaseAll()
	if v := m.ReadHalfRows(^byte(1 << 3)); v&0x1f != 0x1f {
		t.Fatalf("ReleaseAll should clear every key, row 3 = 0x%02X", v&0x1f)
	}
}

func TestMatrixPositionForASCIILettersAndDigits(t *testing.T) {
	pos, ok := matrixPositionForASCII('a')
	if !ok || pos.row != 1 || pos.col != 0 {
		t.Fatalf("'a' = %+v,%v, want row=1 col=0", pos, ok)
	}

	pos, ok = matrixPositionForASCII('5')
	if !ok || pos.row != 3 || pos.col != 4 {
		t.Fatalf("'5' = %+v,%v, want row=3 col=4", pos, ok)
	}

	if _, ok := matrixPositionForASCII('#'); ok {
		t.Fatalf("unmapped ASCII byte should not resolve to a matrix position")
	}
}

func TestMatrixPositionUppercaseRequiresCapsShift(t *testing.T) {
	pos, ok := matrixPositionForASCII('A')
	if !ok || !pos.hasModifier || pos.modRow != 0 || pos.modCol != 0 {
		t.Fatalf("'A' should require CAPS SHIFT at (0,0), got %+v,%v", pos, ok)
	}
	lower, _ := matrixPositionForASCII('a')
	if pos.row != lower.row || pos.col != lower.col {
		t.Fatalf("'A' must resolve to the same base key as 'a'")
	}
}

func TestKeyboardHostEnqueueAndTickReleasesAfterHoldFrames(t *testing.T) {
	matrix := NewKeyboardMatrix()
	host := NewKeyboardHost(matrix)

	host.enqueue('g')
	pos, _ := matrixPositionForASCII('g')
	if v := matrix.ReadHalfRows(^byte(1 << uint(pos.row))); v&(1<<uint(pos.col)) != 0 {
		t.Fatalf("key should be pressed immediately after enqueue")
	}

	for i := 0; i < keyHoldFrames; i++ {
		host.Tick()
	}
	if v := matrix.ReadHalfRows(^byte(1 << uint(pos.row))); v&(1<<uint(pos.col)) == 0 {
		t.Fatalf("key should be released after keyHoldFrames ticks")
	}
}
