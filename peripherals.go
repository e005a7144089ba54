// peripherals.go - SCLD interrupt-disable latch, NMI-paging peripheral
// participants (§4.5 step 7, §D.1), and the printer/loader/replay stubs
// named by §4.7 step 4 and step 1/2 (§D.4, §D.5). Grounded on the teacher's
// small single-method optional-capability interfaces (debug_interface.go's
// MonitorAttachable).

package main

// SCLD is the Timex machines' interrupt-disable latch, consulted by
// AcceptMaskableInterrupt's precondition 3 (§4.4, §6). Non-Timex machines
// wire the zero value, which always reports false.
type SCLD struct {
	intDisable bool
}

func (s *SCLD) IntDisable() bool     { return s.intDisable }
func (s *SCLD) SetIntDisable(v bool) { s.intDisable = v }

// Scorpion models the Scorpion ZS-256's NMI paging side effect (§4.5 step 7):
// writing (last_byte2 | 0x02) to port 0x1FFD pages in ROM 2.
type Scorpion struct {
	present   bool
	lastByte2 byte
}

func NewScorpion() *Scorpion { return &Scorpion{} }

// Attach marks the Scorpion paging hardware as present on this machine.
func (s *Scorpion) Attach() { s.present = true }

func (s *Scorpion) Available() bool  { return s.present }
func (s *Scorpion) AbsorbsNMI() bool { return false }

// SetLastByte2 records the value last written to the Scorpion's extended
// paging port, so OnNMI can reproduce the "| 0x02" ROM-2 page-in exactly.
func (s *Scorpion) SetLastByte2(v byte) { s.lastByte2 = v }

func (s *Scorpion) OnNMI(bus *MemoryBus) {
	bus.WritePort(0x1FFD, s.lastByte2|0x02)
}

// BetaDisk models the Beta Disk Interface's NMI paging side effect: pages in
// the TR-DOS ROM image at romIndex.
type BetaDisk struct {
	present  bool
	romIndex int
}

func NewBetaDisk(romIndex int) *BetaDisk { return &BetaDisk{romIndex: romIndex} }

func (d *BetaDisk) Attach() { d.present = true }

func (d *BetaDisk) Available() bool  { return d.present }
func (d *BetaDisk) AbsorbsNMI() bool { return false }

func (d *BetaDisk) OnNMI(bus *MemoryBus) {
	bus.SelectROM(d.romIndex)
}

// Spectranet models the Spectranet network interface's NMI flip-flop
// (§4.5 step 1: a set flip-flop absorbs a newly-raised NMI rather than
// propagating it, since one is already in flight) and its paging/RETN
// handshake (§4.5's closing "RETN must notify the spectranet peripheral so
// it can unpage").
type Spectranet struct {
	present     bool
	nmiFlipFlop bool
	paged       bool

	// raiseNMI asserts the CPU's external NMI line. Wired by Machine at
	// construction time to cpu.SetNMILine(true); nil (and so a no-op) until
	// then, which lets RequestNMI be exercised safely before wiring.
	raiseNMI func()
}

func NewSpectranet() *Spectranet { return &Spectranet{} }

func (s *Spectranet) Attach() { s.present = true }

func (s *Spectranet) Available() bool { return s.present }

func (s *Spectranet) AbsorbsNMI() bool { return s.nmiFlipFlop }

// SetNMITrigger installs the callback RequestNMI uses to actually assert the
// CPU's NMI line, closing the loop from peripheral event to CPU_Z80.Step's
// rising-edge latch (§4.5).
func (s *Spectranet) SetNMITrigger(raise func()) { s.raiseNMI = raise }

// RequestNMI is called by the Spectranet's own logic (network activity,
// button press) to raise an NMI. Sets the local flip-flop immediately so a
// second request before the first is serviced is absorbed (§4.5 step 1),
// then asserts the CPU's NMI line via the callback installed by
// SetNMITrigger.
func (s *Spectranet) RequestNMI() {
	s.nmiFlipFlop = true
	if s.raiseNMI != nil {
		s.raiseNMI()
	}
}

// OnNMI pages the Spectranet ROM/RAM window in and sets the flip-flop,
// marking this NMI as the one the card is now servicing.
func (s *Spectranet) OnNMI(bus *MemoryBus) {
	s.nmiFlipFlop = true
	s.paged = true
}

// Retn unpages the Spectranet window and clears its flip-flop, called by
// the Z80 core's RETN handler (§4.5).
func (s *Spectranet) Retn() {
	s.paged = false
	s.nmiFlipFlop = false
}

// FrameTicker is a peripheral advanced once per frame (§4.7 step 4).
type FrameTicker interface {
	Tick()
}

// PrinterPeripheral is a no-op stub for the printer named in §4.7 step 4.
// Real ZX Printer/Alphacom dot-matrix protocol emulation is unimplemented;
// AttachSink lets a future backend observe printed lines without the frame
// driver needing to change.
type PrinterPeripheral struct {
	sink func(line string)
}

func NewPrinterPeripheral() *PrinterPeripheral { return &PrinterPeripheral{} }

func (p *PrinterPeripheral) AttachSink(sink func(line string)) { p.sink = sink }

func (p *PrinterPeripheral) Tick() {}

// LoaderPeripheral is a no-op stub for the tape loader named in §4.7 step 4
// (tape/RZX replay state is out of scope per §1; this exists so the frame
// driver's dispatch order is exercised and testable regardless).
type LoaderPeripheral struct {
	active bool
}

func NewLoaderPeripheral() *LoaderPeripheral { return &LoaderPeripheral{} }

func (l *LoaderPeripheral) Tick() {}

// ReplaySubsystem is the RZX playback/record collaborator consulted by the
// frame driver's steps 1, 2 and 5 (§4.7; §7's replay error taxonomy). RZX
// file parsing itself is out of scope (§1); NoopReplay below exercises the
// dispatch order without a real parser.
type ReplaySubsystem interface {
	// Playing reports whether RZX playback is driving frame_length (§4.7
	// step 4's "rzx_playback ? tstates : machine.tstates_per_frame").
	Playing() bool
	// Recording reports whether accepting a maskable interrupt should
	// commit a frame marker (§4.7 step 5).
	Recording() bool
	// ForceDispatchPending force-dispatches every pending scheduler event
	// during RZX playback (§4.7 step 1): the replay log, not the scheduler,
	// dictates the exact interrupt time.
	ForceDispatchPending(sched *Scheduler, now TState)
	// NotifyFrameBoundary is called once per frame (§4.7 step 2).
	NotifyFrameBoundary()
	// CommitFrameMarker records a frame marker once a maskable interrupt is
	// accepted during recording (§4.7 step 5).
	CommitFrameMarker(frame uint64)
}

// NoopReplay is the default ReplaySubsystem: playback/recording are always
// off, so the frame driver's dispatch order runs unconditionally but has no
// observable effect.
type NoopReplay struct{}

func (NoopReplay) Playing() bool                                     { return false }
func (NoopReplay) Recording() bool                                   { return false }
func (NoopReplay) ForceDispatchPending(sched *Scheduler, now TState) {}
func (NoopReplay) NotifyFrameBoundary()                              {}
func (NoopReplay) CommitFrameMarker(frame uint64)                    {}
