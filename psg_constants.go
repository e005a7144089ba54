// psg_constants.go - clock rates shared by the AY-3-8912 emulation (ay.go).

package main

const (
	// PSG_CLOCK_ZX_SPECTRUM is the AY-3-8912's input clock on every Spectrum
	// variant that carries one (128K, +2, +2A, +3): roughly half those
	// machines' 3.5469 MHz Z80 clock, not half of Z80_CLOCK_ZX_SPECTRUM below.
	PSG_CLOCK_ZX_SPECTRUM = 1773400

	// Z80_CLOCK_ZX_SPECTRUM is the CPU clock driving MachineTiming.TStatesPerFrame.
	Z80_CLOCK_ZX_SPECTRUM = 3494400
)
