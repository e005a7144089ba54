// contention.go - the ULA memory/IO contention model (§4.2).

package main

// contentionPatternA is the 48K-like table, offset 1.
var contentionPatternA = [8]byte{5, 4, 3, 2, 1, 0, 0, 6}

// contentionPatternB is the 128K/+2A/+3-like table, offset 4.
var contentionPatternB = [8]byte{5, 4, 3, 2, 1, 0, 7, 6}

// borderColsConst is BORDER_COLS from the §4.2 col_ts formula: the ZX
// Spectrum's left border is 4 character columns (32 pixels / 8).
const borderColsConst = 4

func patternFor(p ContentionPattern) [8]byte {
	if p == ContentionPatternA {
		return contentionPatternA
	}
	return contentionPatternB
}

// colTimestamp computes line and col_ts for T-state t against machine m, per
// §4.2 steps 1-2. Shared by the contention model and the floating bus.
func colTimestamp(m *MachineTiming, t TState) (line int, colTs TState) {
	lineTime0 := m.LineTimes[0]
	line = int((t - lineTime0) / m.TStatesPerLine)
	colTs = (t - lineTime0 + (TState(m.LeftBorder) - 4*borderColsConst)) % m.TStatesPerLine
	if colTs < 0 {
		colTs += m.TStatesPerLine
	}
	return
}

// ContendDelay computes the number of extra T-states the CPU is stalled at
// T-state t because the ULA is reading screen memory (§4.2 algorithm).
func ContendDelay(m *MachineTiming, t TState) byte {
	offset := 1
	if m.Contention == ContentionPatternB {
		offset = 4
	}
	line, colTs := colTimestamp(m, t)
	if line < 0 || line >= len(m.LineTimes) {
		return 0
	}
	if int(colTs) < m.LeftBorder-offset {
		return 0
	}
	if int(colTs) >= m.LeftBorder+m.HorizontalScreen-offset {
		return 0
	}
	pattern := patternFor(m.Contention)
	return pattern[int(colTs)%8]
}
