// keyboard.go - the 8x5 ZX Spectrum keyboard matrix, and the platform-
// independent half of a raw-stdin host adapter feeding it. Adapted from the
// teacher's TerminalMMIO (input ring buffer/state-machine shape,
// terminal_io.go); the Spectrum has no serial terminal device, so that is
// recast here as a real keyboard matrix addressed by IN A,(addr) the way
// the ULA actually decodes it (high byte of the port address selects which
// half-rows respond, bits 0-4 of the result are active-low key states for
// that row). The raw-mode reader goroutine itself (adapted from
// terminal_host.go/terminal_host_windows.go) lives in keyboard_host_unix.go
// and keyboard_host_windows.go, split along the same build tags the
// teacher used for its two stdin-reading strategies.

package main

import "sync"

// keyHoldFrames is how many frames a host keystroke remains pressed in the
// matrix before auto-release. A single raw terminal byte carries no
// press/release pair, so we hold it long enough for the ROM's keyboard
// scan loop (run once or more per frame) to observe it.
const keyHoldFrames = 2

// KeyboardMatrix is the 8 half-rows of 5 keys each that port 0xFE's high
// address byte selects. Each row is stored active-low (bit clear = pressed)
// matching what IN A,(0xFE) returns on bits 0-4.
type KeyboardMatrix struct {
	rows [8]byte // one bit per key, 1 = released, 0 = pressed
}

// NewKeyboardMatrix returns a matrix with every key released.
func NewKeyboardMatrix() *KeyboardMatrix {
	m := &KeyboardMatrix{}
	for i := range m.rows {
		m.rows[i] = 0x1f
	}
	return m
}

// PressKey marks (row, col) as held (row 0-7, col 0-4).
func (m *KeyboardMatrix) PressKey(row, col int) {
	if row < 0 || row > 7 || col < 0 || col > 4 {
		return
	}
	m.rows[row] &^= 1 << uint(col)
}

// ReleaseKey marks (row, col) as released.
func (m *KeyboardMatrix) ReleaseKey(row, col int) {
	if row < 0 || row > 7 || col < 0 || col > 4 {
		return
	}
	m.rows[row] |= 1 << uint(col)
}

// ReleaseAll clears every key, used on reset.
func (m *KeyboardMatrix) ReleaseAll() {
	for i := range m.rows {
		m.rows[i] = 0x1f
	}
}

// ReadHalfRows combines the half-rows selected by the port's high byte: a
// clear bit in highByte selects that row, and real hardware ANDs together
// every selected row's bits (so pressing keys in two simultaneously
// addressed rows is visible in one read). Bits 5-7 are set; callers (the
// ULA port handler) OR in the EAR/tape bit separately.
func (m *KeyboardMatrix) ReadHalfRows(highByte byte) byte {
	result := byte(0x1f)
	any := false
	for row := 0; row < 8; row++ {
		if highByte&(1<<uint(row)) == 0 {
			result &= m.rows[row]
			any = true
		}
	}
	if !any {
		result = 0x1f
	}
	return result | 0xe0
}

// matrixPosition maps a host ASCII byte to the Spectrum keyboard matrix
// position(s) needed to type it: the base key, and optionally a modifier
// (CAPS SHIFT at (0,0) or SYMBOL SHIFT at (7,1)) that must be held with it.
// Grounded on the standard 40-key Spectrum layout (original_source/
// spectrum.c's keyboard table names the same eight half-rows).
type matrixPosition struct {
	row, col    int
	modRow      int
	modCol      int
	hasModifier bool
}

func matrixPositionForASCII(b byte) (matrixPosition, bool) {
	if pos, ok := unshiftedMatrix[b]; ok {
		return pos, true
	}
	if pos, ok := shiftedMatrix[b]; ok {
		return pos, true
	}
	return matrixPosition{}, false
}

var unshiftedMatrix = map[byte]matrixPosition{
	' ':  {row: 7, col: 0},
	'\n': {row: 6, col: 0},
	0x08: {row: 4, col: 0, modRow: 0, modCol: 0, hasModifier: true}, // backspace = CAPS SHIFT + 0

	'z': {row: 0, col: 1}, 'x': {row: 0, col: 2}, 'c': {row: 0, col: 3}, 'v': {row: 0, col: 4},
	'a': {row: 1, col: 0}, 's': {row: 1, col: 1}, 'd': {row: 1, col: 2}, 'f': {row: 1, col: 3}, 'g': {row: 1, col: 4},
	'q': {row: 2, col: 0}, 'w': {row: 2, col: 1}, 'e': {row: 2, col: 2}, 'r': {row: 2, col: 3}, 't': {row: 2, col: 4},
	'1': {row: 3, col: 0}, '2': {row: 3, col: 1}, '3': {row: 3, col: 2}, '4': {row: 3, col: 3}, '5': {row: 3, col: 4},
	'0': {row: 4, col: 0}, '9': {row: 4, col: 1}, '8': {row: 4, col: 2}, '7': {row: 4, col: 3}, '6': {row: 4, col: 4},
	'p': {row: 5, col: 0}, 'o': {row: 5, col: 1}, 'i': {row: 5, col: 2}, 'u': {row: 5, col: 3}, 'y': {row: 5, col: 4},
	'l': {row: 6, col: 1}, 'k': {row: 6, col: 2}, 'j': {row: 6, col: 3}, 'h': {row: 6, col: 4},
	'm': {row: 7, col: 2}, 'n': {row: 7, col: 3}, 'b': {row: 7, col: 4},
}

var shiftedMatrix = map[byte]matrixPosition{
	// Uppercase letters: CAPS SHIFT (0,0) held with the unshifted letter.
}

func init() {
	for ch := byte('a'); ch <= 'z'; ch++ {
		if pos, ok := unshiftedMatrix[ch]; ok {
			upper := ch - 'a' + 'A'
			shiftedMatrix[upper] = matrixPosition{row: pos.row, col: pos.col, modRow: 0, modCol: 0, hasModifier: true}
		}
	}
}

// pendingKey is a host keystroke mid-flight through its hold period.
type pendingKey struct {
	pos        matrixPosition
	framesLeft int
}

// KeyboardHost bridges raw terminal input into a KeyboardMatrix, holding
// each keystroke for keyHoldFrames frames so a polling keyboard scan can
// observe it. Start/Stop (platform-specific raw-mode stdin handling) are
// defined in keyboard_host_unix.go and keyboard_host_windows.go.
type KeyboardHost struct {
	matrix *KeyboardMatrix

	mu      sync.Mutex
	pending []pendingKey

	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState any // *term.State, boxed to avoid importing x/term in this platform-neutral file
}

// NewKeyboardHost creates a host adapter feeding the given matrix.
func NewKeyboardHost(matrix *KeyboardMatrix) *KeyboardHost {
	return &KeyboardHost{
		matrix: matrix,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// enqueue presses the matrix position for a host byte and schedules its
// release after keyHoldFrames Tick calls.
func (h *KeyboardHost) enqueue(b byte) {
	if b == '\r' {
		b = '\n'
	}
	if b == 0x7f {
		b = 0x08
	}
	pos, ok := matrixPositionForASCII(b)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.matrix.PressKey(pos.row, pos.col)
	if pos.hasModifier {
		h.matrix.PressKey(pos.modRow, pos.modCol)
	}
	h.pending = append(h.pending, pendingKey{pos: pos, framesLeft: keyHoldFrames})
}

// Tick releases keystrokes whose hold period has elapsed. Call once per
// emulated frame from the frame driver (§4.7).
func (h *KeyboardHost) Tick() {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.pending[:0]
	for _, pk := range h.pending {
		pk.framesLeft--
		if pk.framesLeft <= 0 {
			h.matrix.ReleaseKey(pk.pos.row, pk.pos.col)
			if pk.pos.hasModifier {
				h.matrix.ReleaseKey(pk.pos.modRow, pk.pos.modCol)
			}
			continue
		}
		kept = append(kept, pk)
	}
	h.pending = kept
}
