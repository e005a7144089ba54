// membus.go - the 16-bit bank-switched memory bus and 8-bit IO port space
// (§3.4, §6). Adapted from the teacher's MachineBus/IORegion idiom
// (machine_bus.go), narrowed from a flat 32-bit address space to four
// 16 KiB banked pages plus a separate port-IO dispatch table.

package main

import "fmt"

const (
	pageSize = 0x4000 // 16 KiB
	numSlots = 4      // logical address space divided into four slots
	maxPages = 65     // highest-memory variant (128K + Scorpion-class = 1040 KiB)
)

// PortRegion is an IO port range claimed by a peripheral, mirroring the
// teacher's IORegion but over the 8-bit Z80 port space.
type PortRegion struct {
	start, end uint16
	onIn       func(port uint16) (byte, bool) // ok=false means "not claimed here"
	onOut      func(port uint16, value byte)
	label      string
}

// MemoryBus is the single owner of RAM pages and logical-address
// translation, plus port IO dispatch. Not safe for concurrent use (§5): the
// frame driver thread is the only mutator.
type MemoryBus struct {
	pages    [maxPages][pageSize]byte
	pageUsed int // number of pages actually allocated for the current variant

	// slotPage[i] is the RAM page index currently visible at logical slot i
	// (0x0000, 0x4000, 0x8000, 0xC000).
	slotPage [numSlots]int
	// romSlot0 selects whether slot 0 is ROM (read-only) rather than a RAM
	// page; romPages holds the loaded ROM images.
	romSlot0 bool
	rom      [][]byte
	romIndex int

	ports []PortRegion

	timing *MachineTiming
	clock  *Clock
}

// NewMemoryBus builds a bus sized for the given machine timing profile.
func NewMemoryBus(timing *MachineTiming, clock *Clock) *MemoryBus {
	b := &MemoryBus{timing: timing, clock: clock}
	if timing.HasCapability(Cap128KMemory) {
		b.pageUsed = 8
	} else {
		b.pageUsed = 3 // 48K = 3x16KiB RAM pages above the 16KiB ROM
	}
	b.slotPage = [numSlots]int{0, 5, 2, 0}
	b.romSlot0 = true
	return b
}

// LoadROM installs a ROM image (16 KiB) at the given ROM bank index.
func (b *MemoryBus) LoadROM(index int, data []byte) error {
	if len(data) != pageSize {
		return fmt.Errorf("membus: ROM image must be %d bytes, got %d", pageSize, len(data))
	}
	for len(b.rom) <= index {
		b.rom = append(b.rom, make([]byte, pageSize))
	}
	copy(b.rom[index], data)
	return nil
}

// SelectROM chooses which loaded ROM image is visible when slot 0 is ROM
// (128K machines page between the 128K editor ROM and the 48K-compatible
// ROM via port 0x7ffd).
func (b *MemoryBus) SelectROM(index int) {
	b.romIndex = index
}

// PageRAM maps RAM page `page` into logical slot `slot` (0-3), e.g. in
// response to a 128K paging port write.
func (b *MemoryBus) PageRAM(slot, page int) {
	b.slotPage[slot] = page
}

// SetROMSlot0 toggles whether logical slot 0 is backed by ROM (true) or RAM
// page b.slotPage[0] (false, used by +3 "all-RAM" paging modes).
func (b *MemoryBus) SetROMSlot0(rom bool) {
	b.romSlot0 = rom
}

func (b *MemoryBus) slotFor(addr uint16) (slot int, offset int) {
	slot = int(addr / pageSize)
	offset = int(addr % pageSize)
	return
}

// addressContended reports whether the RAM physically backing addr shares
// the bus with the ULA. ROM is never contended. On 48K the contended bank
// is always the fixed screen RAM at slot 1 (0x4000-0x7FFF); on 128K/+2/+2A/+3
// the odd-numbered RAM banks (1,3,5,7) contend regardless of which slot they
// are currently paged into, matching the real hardware's fixed wiring.
func (b *MemoryBus) addressContended(addr uint16) bool {
	slot, _ := b.slotFor(addr)
	if slot == 0 && b.romSlot0 {
		return false
	}
	if !b.timing.HasCapability(Cap128KMemory) {
		return slot == 1
	}
	return b.slotPage[slot]%2 == 1
}

// contendedDelay returns the §4.2 stall for an access to addr at the bus's
// current T-state, or 0 if addr isn't backed by a contended bank.
func (b *MemoryBus) contendedDelay(addr uint16) TState {
	if !b.addressContended(addr) {
		return 0
	}
	return TState(ContendDelay(b.timing, b.clock.Now()))
}

// ReadByte reads one byte at the given logical 16-bit address, adding the
// access's contention delay to the clock (§6: "each increments tstates by
// the base access cost plus any contention").
func (b *MemoryBus) ReadByte(addr uint16) byte {
	b.clock.Advance(3 + b.contendedDelay(addr))
	slot, offset := b.slotFor(addr)
	if slot == 0 && b.romSlot0 {
		if b.romIndex < len(b.rom) {
			return b.rom[b.romIndex][offset]
		}
		return 0xff
	}
	return b.pages[b.slotPage[slot]][offset]
}

// WriteByte writes one byte at the given logical address. Writes to ROM
// slots are silently discarded, matching real hardware.
func (b *MemoryBus) WriteByte(addr uint16, value byte) {
	b.clock.Advance(3 + b.contendedDelay(addr))
	slot, offset := b.slotFor(addr)
	if slot == 0 && b.romSlot0 {
		return
	}
	b.pages[b.slotPage[slot]][offset] = value
}

// peekByte reads a byte at a logical address exactly like ReadByte but
// without advancing the clock, used by snapshot capture (§4.8) which must
// not perturb machine timing.
func (b *MemoryBus) peekByte(addr uint16) byte {
	slot, offset := b.slotFor(addr)
	if slot == 0 && b.romSlot0 {
		if b.romIndex < len(b.rom) {
			return b.rom[b.romIndex][offset]
		}
		return 0xff
	}
	return b.pages[b.slotPage[slot]][offset]
}

// pokeByte writes a byte at a logical address without advancing the clock
// and without discarding writes to a ROM-backed slot 0, used by snapshot
// restore (§4.8) to repopulate RAM pages directly.
func (b *MemoryBus) pokeByte(addr uint16, value byte) {
	slot, offset := b.slotFor(addr)
	if slot == 0 && b.romSlot0 {
		return
	}
	b.pages[b.slotPage[slot]][offset] = value
}

// ReadPageByte reads a byte directly from a RAM page by page index, bypassing
// logical-address translation and contention accounting. Used by the
// floating bus (§4.3), which reads "what the ULA is fetching" rather than
// performing a CPU-visible bus cycle.
func (b *MemoryBus) ReadPageByte(page, offset int) byte {
	return b.pages[page][offset]
}

// CurrentScreenPage returns the RAM page index holding the display the ULA
// is currently rendering (memory_current_screen in the source): page 5 by
// default, or page 7 when the 128K "shadow screen" bit is set.
func (b *MemoryBus) CurrentScreenPage(shadowScreen bool) int {
	if shadowScreen {
		return 7
	}
	return 5
}

// applyPortContention advances the clock for one IO access to port,
// reproducing the ULA's port-contention cases (§4.2's "memory/IO contention
// model"). A ULA-decoded port (A0 = 0) always contends once then runs 3
// T-states flat, regardless of its high byte; any other port only contends
// (four individual 1 T-state checks) when its high byte addresses a
// contended RAM bank, and otherwise costs a flat 4 T-states.
func (b *MemoryBus) applyPortContention(port uint16) {
	if port&0x0001 == 0 {
		b.clock.Advance(1 + TState(ContendDelay(b.timing, b.clock.Now())))
		b.clock.Advance(3)
		return
	}
	if b.addressContended(port) {
		for i := 0; i < 4; i++ {
			b.clock.Advance(1 + TState(ContendDelay(b.timing, b.clock.Now())))
		}
		return
	}
	b.clock.Advance(4)
}

// RegisterPort claims an IO port range for a peripheral.
func (b *MemoryBus) RegisterPort(start, end uint16, label string,
	onIn func(port uint16) (byte, bool), onOut func(port uint16, value byte)) {
	b.ports = append(b.ports, PortRegion{start: start, end: end, label: label, onIn: onIn, onOut: onOut})
}

// ReadPort performs an IO port read, consulting each registered region in
// registration order. An unclaimed port returns the floating-bus value
// (§4.3) via the supplied fallback.
func (b *MemoryBus) ReadPort(port uint16, floating func() byte) byte {
	b.applyPortContention(port)
	for _, r := range b.ports {
		if port < r.start || port > r.end {
			continue
		}
		if v, ok := r.onIn(port); ok {
			return v
		}
	}
	return floating()
}

// WritePort performs an IO port write, dispatching to every region whose
// range contains the port (ULA border-color writes and AY register-select
// writes may both watch overlapping ranges on real hardware).
func (b *MemoryBus) WritePort(port uint16, value byte) {
	b.applyPortContention(port)
	for _, r := range b.ports {
		if port < r.start || port > r.end {
			continue
		}
		r.onOut(port, value)
	}
}
