// machine_timing.go - per-variant machine timing profile (§3.3).

package main

// Capability is a bitmask distinguishing memory/peripheral features across
// the 48K/128K/+2A/+3/Scorpion family.
type Capability uint32

const (
	Cap128KMemory Capability = 1 << iota
	CapAYChip
	CapScorpionPaging
	CapBetaDisk
	CapSpectranet
	CapTimexSCLD
)

// ContentionPattern selects which of the two ULA contention tables (§4.2)
// applies to a machine variant.
type ContentionPattern int

const (
	ContentionPatternA ContentionPattern = iota // 48K-like
	ContentionPatternB                          // 128K/+2A/+3-like
)

// MachineTiming is the value object described by §3.3: the constants needed
// by the contention model, floating bus and frame driver for one machine
// variant. Instances are immutable once constructed.
type MachineTiming struct {
	Name string

	TStatesPerLine  TState
	TStatesPerFrame TState

	LeftBorder       int // left_border, in T-states
	HorizontalScreen int // horizontal_screen, in T-states

	// LineTimes[i] is the T-state at which the first visible pixel of
	// display line i begins.
	LineTimes []TState

	InterruptLength TState

	Contention ContentionPattern
	Caps       Capability

	// DisplayLineStart[i] / DisplayAttrStart[i] are the RAM offsets (within
	// the active display page) of the first pixel/attribute byte of line i,
	// used by the floating bus (§4.3).
	DisplayLineStart []int
	DisplayAttrStart []int
}

func (m *MachineTiming) HasCapability(c Capability) bool {
	return m.Caps&c != 0
}

// bitmapLineOffset reproduces the ZX Spectrum's non-linear Y addressing:
// given a display line 0..191, returns the byte offset of that line's first
// pixel byte within the 6144-byte bitmap area. Grounded on the addressing
// math originally in the teacher's video_ula.go GetBitmapAddress, which this
// core no longer renders but still needs for floating-bus reads.
func bitmapLineOffset(y int) int {
	highY := (y & 0xC0) << 5
	lowY := (y & 0x07) << 8
	midY := (y & 0x38) << 2
	return highY | lowY | midY
}

// attrLineOffset returns the byte offset of display line y's attribute row
// within the 768-byte attribute area (each row of 8 pixel lines shares one
// attribute row).
func attrLineOffset(y int) int {
	return (y / 8) * ULA_CELLS_X
}

func buildDisplayOffsets(height int) (lineStart, attrStart []int) {
	lineStart = make([]int, height)
	attrStart = make([]int, height)
	for y := 0; y < height; y++ {
		lineStart[y] = bitmapLineOffset(y)
		attrStart[y] = ULA_BITMAP_SIZE + attrLineOffset(y)
	}
	return
}

// NewTiming48K returns the machine timing profile for the 48K Spectrum.
func NewTiming48K() *MachineTiming {
	const tstatesPerLine = 224
	lineStart, attrStart := buildDisplayOffsets(ULA_DISPLAY_HEIGHT)

	// First screen byte appears at T-state 14338 on 48K (§4.3 calibration
	// note); line_times[0] is set 3 T-states earlier to mark the start of
	// the visible line rather than the first pixel fetch.
	lineTimes := make([]TState, ULA_DISPLAY_HEIGHT)
	base := TState(14335)
	for i := range lineTimes {
		lineTimes[i] = base + TState(i)*tstatesPerLine
	}

	return &MachineTiming{
		Name:             "48K",
		TStatesPerLine:   tstatesPerLine,
		TStatesPerFrame:  69888,
		LeftBorder:       24,
		HorizontalScreen: 128,
		LineTimes:        lineTimes,
		InterruptLength:  32,
		Contention:       ContentionPatternA,
		Caps:             0,
		DisplayLineStart: lineStart,
		DisplayAttrStart: attrStart,
	}
}

// NewTiming128K returns the machine timing profile for the 128K/+2/+2A/+3
// family (they share identical screen timing; paging capability differs and
// is configured by the caller via Caps).
func NewTiming128K() *MachineTiming {
	const tstatesPerLine = 228
	lineStart, attrStart := buildDisplayOffsets(ULA_DISPLAY_HEIGHT)

	lineTimes := make([]TState, ULA_DISPLAY_HEIGHT)
	base := TState(14361) // first screen byte at T-state 14364 on 128K, offset by 3-ts prefetch
	for i := range lineTimes {
		lineTimes[i] = base + TState(i)*tstatesPerLine
	}

	return &MachineTiming{
		Name:             "128K",
		TStatesPerLine:   tstatesPerLine,
		TStatesPerFrame:  70908,
		LeftBorder:       24,
		HorizontalScreen: 128,
		LineTimes:        lineTimes,
		InterruptLength:  36,
		Contention:       ContentionPatternB,
		Caps:             Cap128KMemory | CapAYChip,
		DisplayLineStart: lineStart,
		DisplayAttrStart: attrStart,
	}
}
