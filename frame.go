// frame.go - the frame driver (§4.7): ties the scheduler, the Z80 core and
// per-frame peripheral dispatch together into one runnable Machine. Adapted
// from the teacher's top-level wiring in main.go (system bus + CPU +
// peripherals assembled once, then driven in a loop) and debug_interface.go's
// single-owner-thread convention, narrowed to the one frame_event/nmi
// dispatch cadence this core needs.

package main

import "fmt"

// machineZ80Bus adapts a *MemoryBus plus the floating-bus calibration data
// a Machine owns into the narrower Z80Bus interface CPU_Z80 consumes (§6).
// Unlike the test-only memBusZ80Adapter (snapshot_test.go), In() falls back
// to the real floating-bus read (§4.3) instead of a constant.
type machineZ80Bus struct {
	m *Machine
}

func (a *machineZ80Bus) Read(addr uint16) byte         { return a.m.bus.ReadByte(addr) }
func (a *machineZ80Bus) Write(addr uint16, value byte) { a.m.bus.WriteByte(addr, value) }

func (a *machineZ80Bus) In(port uint16) byte {
	return a.m.bus.ReadPort(port, func() byte {
		return UnattachedPort(a.m.timing, a.m.bus, a.m.displayPage(), a.m.clock.Now())
	})
}

func (a *machineZ80Bus) Out(port uint16, value byte) {
	a.m.bus.WritePort(port, value)
}

func (a *machineZ80Bus) Tick(cycles int) {
	a.m.clock.Advance(TState(cycles))
}

// Machine assembles one runnable ZX Spectrum: the Z80 core, the memory/IO
// bus, the event scheduler, the debugger, and the peripherals the frame
// driver dispatches every frame (§4.7). Not safe for concurrent use (§5):
// the owning goroutine is the only mutator, matching the teacher's own
// single-driver-thread CPU_Z80.
type Machine struct {
	cpu     *CPU_Z80
	bus     *MemoryBus
	clock   *Clock
	timing  *MachineTiming
	variant CPUVariant

	sched    *Scheduler
	debugger *Debugger

	scld *SCLD

	nmiParticipants []NMIParticipant
	scorpion        *Scorpion
	betaDisk        *BetaDisk
	spectranet      *Spectranet

	audio           AudioSource
	audioSampleRate int

	keyboard     *KeyboardMatrix
	keyboardHost *KeyboardHost

	phantomTypist FrameTicker
	printer       FrameTicker
	loader        FrameTicker
	replay        ReplaySubsystem

	shadowScreen bool // 128K port 0x7FFD bit 3: which RAM page is the active display
	pagingLocked bool // 128K port 0x7FFD bit 5: paging-disable latch

	frameEvent     EventKind
	interruptEvent EventKind

	exitRequested bool
	profiling     bool
	profileFrames int

	// PollInput is called at §4.7 step 6 when non-nil. main.go leaves it
	// nil: KeyboardHost reads stdin on its own goroutine.
	PollInput func()
}

// NewMachine builds a fully-wired Machine for one timing profile/variant,
// producing audio at sampleRate. The caller still owns ROM loading
// (bus.LoadROM) before the first RunFrame call.
func NewMachine(timing *MachineTiming, variant CPUVariant, sampleRate int) *Machine {
	clock := &Clock{}
	bus := NewMemoryBus(timing, clock)

	m := &Machine{
		bus:             bus,
		clock:           clock,
		timing:          timing,
		variant:         variant,
		sched:           NewScheduler(),
		scld:            &SCLD{},
		keyboard:        NewKeyboardMatrix(),
		replay:          NoopReplay{},
		audioSampleRate: sampleRate,
		printer:         NewPrinterPeripheral(),
		loader:          NewLoaderPeripheral(),
	}
	m.keyboardHost = NewKeyboardHost(m.keyboard)

	m.cpu = NewCPU_Z80(&machineZ80Bus{m: m}, clock)
	m.debugger = NewDebugger(m.cpu, bus)

	m.scorpion = NewScorpion()
	m.betaDisk = NewBetaDisk(0)
	m.spectranet = NewSpectranet()
	m.nmiParticipants = []NMIParticipant{m.scorpion, m.betaDisk, m.spectranet}
	m.cpu.SetRETNHandler(m.spectranet.Retn)

	// Only the capability bits the caller set on timing mark a peripheral as
	// actually fitted (§D.1); an unattached participant's Available() stays
	// false, so AcceptNMI skips straight past it (nmi.go).
	if timing.HasCapability(CapScorpionPaging) {
		m.scorpion.Attach()
	}
	if timing.HasCapability(CapBetaDisk) {
		m.betaDisk.Attach()
	}
	if timing.HasCapability(CapSpectranet) {
		m.spectranet.Attach()
		m.spectranet.SetNMITrigger(func() { m.cpu.SetNMILine(true) })
	}

	if timing.HasCapability(CapAYChip) {
		m.audio = NewAYChip(sampleRate)
	} else {
		m.audio = NewBeeper()
	}

	m.wirePorts()

	m.interruptEvent = m.sched.Register("maskable-interrupt-retry", func(at TState) {
		m.acceptMaskableInterrupt()
	})
	m.frameEvent = m.sched.Register("frame-end", func(at TState) {
		m.spectrumFrame()
	})
	m.armFrameEnd()

	return m
}

// wirePorts registers the ULA (border/beeper/keyboard), AY-3-8912, 128K
// paging and Scorpion paging port handlers on the bus. Each is a single
// full-range registration that filters internally with its registers.go
// predicate, mirroring how real hardware decodes address lines rather than
// forcing an artificial contiguous range. The predicates are partial
// decodes and can overlap (0x7FFC satisfies both IsULAPort and
// IsPagingPort; 0x1FFD satisfies IsPagingPort as well as
// IsScorpionPagingPort), so one write can reach more than one handler.
func (m *Machine) wirePorts() {
	m.bus.RegisterPort(0x0000, 0xFFFF, "ula",
		func(port uint16) (byte, bool) {
			if !IsULAPort(port) {
				return 0, false
			}
			// ReadHalfRows already holds bit 6 (EAR in) high; no tape
			// deck is modeled (§1: tape/RZX replay state is out of scope).
			return m.keyboard.ReadHalfRows(byte(port >> 8)), true
		},
		func(port uint16, value byte) {
			if !IsULAPort(port) {
				return
			}
			if beeper, ok := m.audio.(*Beeper); ok {
				beeper.SetLevel(value&0x10 != 0)
			}
		})

	if ay, ok := m.audio.(*AYChip); ok {
		m.bus.RegisterPort(0x0000, 0xFFFF, "ay", ay.HandlePortRead, ay.HandlePortWrite)
	}

	if m.timing.HasCapability(Cap128KMemory) {
		m.bus.RegisterPort(0x0000, 0xFFFF, "paging",
			func(port uint16) (byte, bool) { return 0, false },
			func(port uint16, value byte) {
				if !IsPagingPort(port) || m.pagingLocked {
					return
				}
				m.bus.PageRAM(3, int(value&0x07))
				m.shadowScreen = value&0x08 != 0
				if value&0x10 != 0 {
					m.bus.SelectROM(1)
				} else {
					m.bus.SelectROM(0)
				}
				if value&0x20 != 0 {
					m.pagingLocked = true
				}
			})
	}

	if m.timing.HasCapability(CapScorpionPaging) {
		m.bus.RegisterPort(0x0000, 0xFFFF, "scorpion-paging",
			func(port uint16) (byte, bool) { return 0, false },
			func(port uint16, value byte) {
				if !IsScorpionPagingPort(port) {
					return
				}
				m.scorpion.SetLastByte2(value)
			})
	}
}

// displayPage returns the RAM page currently visible as the active display,
// consulted by the floating bus (§4.3).
func (m *Machine) displayPage() int {
	return m.bus.CurrentScreenPage(m.shadowScreen)
}

// Keyboard exposes the matrix the host's raw-stdin reader feeds.
func (m *Machine) Keyboard() *KeyboardMatrix   { return m.keyboard }
func (m *Machine) KeyboardHost() *KeyboardHost { return m.keyboardHost }
func (m *Machine) Bus() *MemoryBus             { return m.bus }
func (m *Machine) CPU() *CPU_Z80               { return m.cpu }
func (m *Machine) Debugger() *Debugger         { return m.debugger }
func (m *Machine) Audio() AudioSource          { return m.audio }
func (m *Machine) Timing() *MachineTiming      { return m.timing }

// RequestSpectranetNMI presses the Spectranet card's NMI button (§D.1), the
// CLI's one real production trigger for §4.5's NMI acceptance path. A no-op
// if no Spectranet is fitted to this machine.
func (m *Machine) RequestSpectranetNMI() { m.spectranet.RequestNMI() }

// SetReplaySubsystem installs a non-default ReplaySubsystem (§D.4).
func (m *Machine) SetReplaySubsystem(r ReplaySubsystem) { m.replay = r }

// SetPhantomTypist installs the keystroke injector peripheral (§D.3),
// ticked every frame alongside the printer/loader.
func (m *Machine) SetPhantomTypist(t FrameTicker) { m.phantomTypist = t }

// RequestExit marks the next frame boundary as the last one to run,
// matching §4.7 step 4's "display emits user requested exit" bubble-up.
func (m *Machine) RequestExit() { m.exitRequested = true }

// SetProfiling enables per-frame sample recording (§4.7 step 4; §7's
// "profiling" hook). A minimal counter stands in for a real profiler, which
// has no consumer in this core.
func (m *Machine) SetProfiling(enabled bool) { m.profiling = enabled }

// ProfileFrames returns how many frames have been recorded since profiling
// was enabled.
func (m *Machine) ProfileFrames() int { return m.profileFrames }

// armFrameEnd schedules the next frame-end dispatch at tstates_per_frame,
// unless RZX playback is driving frame_length itself (§4.7 step 4's "if not
// in RZX playback, re-arm the frame-end event").
func (m *Machine) armFrameEnd() {
	if m.replay.Playing() {
		return
	}
	m.sched.Add(m.timing.TStatesPerFrame, m.frameEvent)
}

// acceptMaskableInterrupt wraps AcceptMaskableInterrupt with the replay
// frame-marker commit (§4.7 step 5). Also installed as the scheduler's
// retry handler for the EI-deferral case AcceptMaskableInterrupt itself
// re-arms one T-state later.
func (m *Machine) acceptMaskableInterrupt() {
	// The intdisable latch only exists on Timex SCLD hardware (CapTimexSCLD);
	// on every other machine it is read as permanently false regardless of
	// m.scld's own state, since no port write can ever reach it.
	scldIntDisable := m.timing.HasCapability(CapTimexSCLD) && m.scld.IntDisable()
	accepted := AcceptMaskableInterrupt(m.cpu, m.timing, m.variant, scldIntDisable, m.sched, m.interruptEvent)
	if accepted && m.replay.Recording() {
		m.replay.CommitFrameMarker(m.debugger.FramesSinceReset())
	}
}

// samplesPerFrame computes how many audio samples one frame spans at the
// configured sample rate, rounding down to a whole sample.
func (m *Machine) samplesPerFrame() int {
	if m.audioSampleRate <= 0 {
		return 0
	}
	n := int64(m.audioSampleRate) * int64(m.timing.TStatesPerFrame)
	return int(n / int64(Z80_CLOCK_ZX_SPECTRUM))
}

// spectrumFrame is step 4 of §4.7: the frame boundary's internal sequence,
// triggered when frameEvent fires via ForceEvents.
func (m *Machine) spectrumFrame() {
	frameLength := m.timing.TStatesPerFrame
	if m.replay.Playing() {
		frameLength = m.clock.Now()
	}

	m.sched.Frame(frameLength)
	m.debugger.AdvanceFrame(frameLength)
	m.clock.Rebase(frameLength)
	if m.cpu.interruptsEnabledAt >= 0 {
		m.cpu.interruptsEnabledAt -= frameLength
	}

	if m.audio != nil {
		m.audio.GenerateFrame(m.samplesPerFrame())
	}

	if m.profiling {
		m.profileFrames++
	}

	if m.printer != nil {
		m.printer.Tick()
	}
	if m.loader != nil {
		m.loader.Tick()
	}
	if m.phantomTypist != nil {
		m.phantomTypist.Tick()
	}
	m.keyboardHost.Tick()

	if !m.replay.Playing() {
		m.armFrameEnd()
	}
}

// RunFrame advances the machine by exactly one frame (§4.7), returning true
// if the host should stop (a user-requested exit was flagged during this
// frame). Fatal internal inconsistencies (§7: unknown IM, unknown
// event-kind id) panic from deep within Step/AcceptMaskableInterrupt; the
// caller is expected to recover once at this boundary and surface the
// error through uierror.Reporter, per §7's "abort the process after
// surfacing an error to the UI."
func (m *Machine) RunFrame() (exit bool) {
	if m.replay.Playing() {
		m.sched.ForceEvents(m.clock.Now())
		m.replay.ForceDispatchPending(m.sched, m.clock.Now())
	}
	m.replay.NotifyFrameBoundary()

	priorFrames := m.debugger.FramesSinceReset()
	for {
		m.sched.ForceEvents(m.clock.Now())
		if m.debugger.FramesSinceReset() != priorFrames {
			// spectrumFrame (step 4) just ran via the frame_event dispatch;
			// step 5's interrupt must fire before any instruction of the
			// next frame executes.
			break
		}
		if !m.cpu.running {
			break
		}
		m.cpu.Step()
		if m.cpu.ConsumeNMIPending() {
			AcceptNMI(m.cpu, m.bus, m.nmiParticipants)
		}
	}

	m.acceptMaskableInterrupt()

	if m.PollInput != nil {
		m.PollInput()
	}

	exit = m.exitRequested
	m.exitRequested = false
	return exit
}

// Reset applies §4.6's soft or hard reset to the CPU and zeroes the
// debugger's frame counter, matching spectrum.c's reset clearing
// frames_since_reset alongside the Z80 state.
func (m *Machine) Reset(hard bool) {
	m.cpu.Reset(hard)
	m.debugger.ResetFrameCounter()
}

// String renders a short human-readable summary, printed by main.go's run
// command once its frame loop ends.
func (m *Machine) String() string {
	return fmt.Sprintf("%s @ frame %d, PC=0x%04X", m.timing.Name, m.debugger.FramesSinceReset(), m.cpu.PC)
}
