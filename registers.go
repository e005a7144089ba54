// registers.go - I/O register address map

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

/*
registers.go - ZX Spectrum I/O port map

ULA - ZX Spectrum (port 0xFE) - ula_constants.go
  Z80_ULA_IO_PORT (0xFE): bits 0-2 border color (out), bit 6 EAR/MIC in,
  bits 3-4 MIC/EAR out, keyboard half-row scan in via high address byte.
  VRAM at 0x4000 (6144 bitmap + 768 attribute bytes).

AY-3-8912 PSG (128K only) - psg_constants.go
  Register select port 0xFFFD, data port 0xBFFD.

128K paging (Cap128KMemory only)
  Port 0x7FFD: bits 0-2 RAM page at 0xC000, bit 3 video page (5 or 7),
  bit 4 ROM select, bit 5 paging disable latch.
*/

package main

// =============================================================================
// ULA and peripheral port addresses
// =============================================================================

const (
	// ULA border/beeper/keyboard port
	Z80_ULA_IO_PORT = 0xFE

	// 128K memory paging port (decoded on A15=0, A1=0)
	Z80_PAGING_PORT = 0x7FFD

	// AY-3-8912 register select / data ports (decoded on A15=1, A1=0; A14=1
	// selects the register latch, A14=0 the data port)
	Z80_AY_REGISTER_PORT = 0xFFFD
	Z80_AY_DATA_PORT     = 0xBFFD

	// Scorpion ZS-256 extended paging register (peripherals.go's Scorpion),
	// distinct from the primary 128K paging port above.
	Z80_SCORPION_PAGING_PORT = 0x1FFD
)

// =============================================================================
// Helper functions
// =============================================================================

// IsULAPort returns true if the low bit of a port address selects the ULA.
func IsULAPort(port uint16) bool {
	return port&0x01 == 0
}

// IsAYRegisterPort returns true if port selects the AY-3-8912 register latch.
func IsAYRegisterPort(port uint16) bool {
	return port&0xC002 == 0xC000
}

// IsAYDataPort returns true if port selects the AY-3-8912 data register.
func IsAYDataPort(port uint16) bool {
	return port&0xC002 == 0x8000
}

// IsPagingPort returns true if port selects the 128K memory paging latch.
func IsPagingPort(port uint16) bool {
	return port&0x8002 == 0x0000
}

// IsScorpionPagingPort returns true if port selects the Scorpion ZS-256's
// extended paging register.
func IsScorpionPagingPort(port uint16) bool {
	return port == Z80_SCORPION_PAGING_PORT
}
