// floatingbus.go - the value returned by an unattached IO read (§4.3).

package main

// UnattachedPort computes the floating-bus value for an IO read at T-state
// t that no peripheral claimed. Uses the same line/col_ts calculation as the
// contention model but with offset 0. displayPage is the RAM page currently
// visible as the active display (memory_current_screen in the source).
func UnattachedPort(m *MachineTiming, mem *MemoryBus, displayPage int, t TState) byte {
	line, colTs := colTimestamp(m, t)
	if line < 0 || line >= len(m.LineTimes) {
		return 0xff
	}
	if int(colTs) < m.LeftBorder {
		return 0xff
	}
	if int(colTs) >= m.LeftBorder+m.HorizontalScreen {
		return 0xff
	}

	column := ((int(colTs) - m.LeftBorder) / 8) * 2
	switch int(colTs) % 8 {
	case 2:
		return mem.ReadPageByte(displayPage, m.DisplayLineStart[line]+column)
	case 4:
		return mem.ReadPageByte(displayPage, m.DisplayLineStart[line]+column+1)
	case 3:
		return mem.ReadPageByte(displayPage, m.DisplayAttrStart[line]+column)
	case 5:
		return mem.ReadPageByte(displayPage, m.DisplayAttrStart[line]+column+1)
	default: // 0, 1, 6, 7
		return 0xff
	}
}
