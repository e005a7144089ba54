// main.go - CLI entry point. Adapted from the teacher's flag-based main.go,
// restructured around cobra subcommands the way the pack's oisee-minz repo
// structures its compiler CLI (minzc/cmd/minzc/main.go), since the teacher's
// own ad hoc os.Args parsing has no subcommand shape to generalize.

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/intuitionamiga/zxcore/uierror"
)

var (
	flagMachine    string
	flagVariant    string
	flagROM0       string
	flagROM1       string
	flagSampleRate int
	flagPaste      bool
	flagScript     string
	flagType       string
	flagHeadless   bool
	flagPeripheral []string
)

// resolvePeripheralCaps ORs in the capability bits selecting which
// NMI-paging peripherals (§D.1) are fitted to the machine, beyond whatever
// the base machine profile already sets. An unrecognized name is reported
// as an error rather than silently ignored.
func resolvePeripheralCaps(names []string) (Capability, error) {
	var caps Capability
	for _, name := range names {
		switch name {
		case "scorpion":
			caps |= CapScorpionPaging
		case "betadisk":
			caps |= CapBetaDisk
		case "spectranet":
			caps |= CapSpectranet
		case "timex":
			caps |= CapTimexSCLD
		default:
			return 0, fmt.Errorf("unknown peripheral %q (want scorpion, betadisk, spectranet, timex)", name)
		}
	}
	return caps, nil
}

func resolveTiming(name string) (*MachineTiming, error) {
	switch name {
	case "48k", "48":
		return NewTiming48K(), nil
	case "128k", "128":
		return NewTiming128K(), nil
	default:
		return nil, fmt.Errorf("unknown machine %q (want 48k or 128k)", name)
	}
}

func resolveVariant(name string) (CPUVariant, error) {
	switch name {
	case "nmos", "":
		return VariantNMOS, nil
	case "cmos":
		return VariantCMOS, nil
	default:
		return 0, fmt.Errorf("unknown cpu variant %q (want nmos or cmos)", name)
	}
}

func buildMachine() (*Machine, error) {
	timing, err := resolveTiming(flagMachine)
	if err != nil {
		return nil, err
	}
	variant, err := resolveVariant(flagVariant)
	if err != nil {
		return nil, err
	}
	peripheralCaps, err := resolvePeripheralCaps(flagPeripheral)
	if err != nil {
		return nil, err
	}
	timing.Caps |= peripheralCaps

	sampleRate := flagSampleRate
	if flagHeadless {
		sampleRate = 0
	}
	m := NewMachine(timing, variant, sampleRate)

	if flagROM0 == "" {
		return nil, fmt.Errorf("--rom0 is required")
	}
	rom0, err := os.ReadFile(flagROM0)
	if err != nil {
		return nil, fmt.Errorf("reading ROM 0: %w", err)
	}
	if err := m.bus.LoadROM(0, rom0); err != nil {
		return nil, fmt.Errorf("loading ROM 0: %w", err)
	}

	if flagROM1 != "" {
		rom1, err := os.ReadFile(flagROM1)
		if err != nil {
			return nil, fmt.Errorf("reading ROM 1: %w", err)
		}
		if err := m.bus.LoadROM(1, rom1); err != nil {
			return nil, fmt.Errorf("loading ROM 1: %w", err)
		}
	}

	switch {
	case flagPaste:
		m.SetPhantomTypist(NewPhantomTypist(NewClipboardSource(), m.KeyboardHost()))
	case flagScript != "":
		src, err := os.ReadFile(flagScript)
		if err != nil {
			return nil, fmt.Errorf("reading phantom typist script: %w", err)
		}
		lua, err := NewLuaScriptSource(string(src))
		if err != nil {
			return nil, err
		}
		m.SetPhantomTypist(NewPhantomTypist(lua, m.KeyboardHost()))
	case flagType != "":
		m.SetPhantomTypist(NewPhantomTypist(NewFixedScriptSource(flagType), m.KeyboardHost()))
	}

	return m, nil
}

// runFrameLoop drives m at the host's wall-clock frame rate until exit is
// requested or the process receives an interrupt. A panic inside RunFrame
// (§7: unknown IM, unknown event-kind id — fatal internal inconsistencies)
// is recovered once here and surfaced through reporter before the process
// aborts, matching §7's "abort the process after surfacing an error to the
// UI."
func runFrameLoop(m *Machine, reporter uierror.Reporter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			reporter.Report(uierror.LevelFatal, fmt.Sprintf("%v", r))
			err = fmt.Errorf("aborted: %v", r)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// nmiButtonSignal is the Spectranet card's NMI button (§D.1): the one
	// real, externally-triggerable path that asserts the CPU's NMI line in a
	// running session, rather than leaving §4.5's acceptance machinery with
	// no production caller.
	nmiCh := make(chan os.Signal, 1)
	notifyNMIButton(nmiCh)

	frameDuration := time.Duration(float64(m.Timing().TStatesPerFrame) / float64(Z80_CLOCK_ZX_SPECTRUM) * float64(time.Second))
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			return nil
		case <-nmiCh:
			m.RequestSpectranetNMI()
		case <-ticker.C:
			if m.RunFrame() {
				return nil
			}
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "zxcore",
	Short: "A ZX Spectrum emulator core",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a machine until exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		var reporter uierror.Reporter = uierror.Stderr{}
		m, err := buildMachine()
		if err != nil {
			return err
		}

		var player *OtoPlayer
		if !flagHeadless {
			player, err = NewOtoPlayer(flagSampleRate)
			if err != nil {
				return fmt.Errorf("audio init: %w", err)
			}
			player.SetupPlayer(m.Audio())
			player.Start()
			defer player.Close()
		}

		m.KeyboardHost().Start()
		defer m.KeyboardHost().Stop()

		if err := runFrameLoop(m, reporter); err != nil {
			return err
		}
		fmt.Println(m.String())
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <file>",
	Short: "Load a snapshot file and print a register summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := LoadSnapshotFromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("PC=0x%04X SP=0x%04X AF=0x%02X%02X BC=0x%04X DE=0x%04X HL=0x%04X IX=0x%04X IY=0x%04X\n",
			snap.PC, snap.SP, snap.A, snap.F, snap.BC, snap.DE, snap.HL, snap.IX, snap.IY)
		fmt.Printf("I=0x%02X R=0x%02X IM=%d IFF1=%t IFF2=%t Halted=%t MEMPTR=0x%04X\n",
			snap.I, snap.R, snap.IM, snap.IFF1, snap.IFF2, snap.Halted, snap.MEMPTR)
		fmt.Printf("LastInstructionEI=%t LastInstructionSetF=%t memory=%d bytes\n",
			snap.LastInstructionEI, snap.LastInstructionSetF, len(snap.Memory))
		return nil
	},
}

var (
	disasmAddr uint16
	disasmLen  uint16
)

// disasmCmd dumps a raw hex/ASCII view of a binary image. A full Z80
// mnemonic disassembler is out of scope (§1's "a large but mechanical
// table" applies equally to decoding as to encoding); this gives enough to
// locate a region of interest in a ROM or snapshot dump.
var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Hex-dump a region of a binary image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		start := int(disasmAddr)
		end := start + int(disasmLen)
		if end > len(data) {
			end = len(data)
		}
		if start > len(data) {
			start = len(data)
		}

		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		for addr := start; addr < end; addr += 16 {
			chunk := data[addr:min(addr+16, end)]
			fmt.Fprintf(w, "%04X: ", addr)
			for _, b := range chunk {
				fmt.Fprintf(w, "%02X ", b)
			}
			for i := len(chunk); i < 16; i++ {
				fmt.Fprint(w, "   ")
			}
			fmt.Fprint(w, " ")
			for _, b := range chunk {
				if b >= 0x20 && b < 0x7f {
					fmt.Fprintf(w, "%c", b)
				} else {
					fmt.Fprint(w, ".")
				}
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&flagMachine, "machine", "48k", "machine profile (48k, 128k)")
	runCmd.Flags().StringVar(&flagVariant, "variant", "nmos", "CPU variant (nmos, cmos)")
	runCmd.Flags().StringVar(&flagROM0, "rom0", "", "ROM image for slot 0 (required)")
	runCmd.Flags().StringVar(&flagROM1, "rom1", "", "ROM image for slot 1 (128K editor/menu ROM)")
	runCmd.Flags().IntVar(&flagSampleRate, "sample-rate", 44100, "audio sample rate in Hz")
	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "disable audio output")
	runCmd.Flags().BoolVar(&flagPaste, "paste", false, "type the system clipboard's contents via the phantom typist")
	runCmd.Flags().StringVar(&flagScript, "script", "", "Lua phantom-typist script path")
	runCmd.Flags().StringVar(&flagType, "type", "", "fixed text for the phantom typist to type")
	runCmd.Flags().StringSliceVar(&flagPeripheral, "peripheral", nil,
		"NMI-paging peripherals to fit (scorpion, betadisk, spectranet, timex)")

	disasmCmd.Flags().Uint16Var(&disasmAddr, "addr", 0, "start address")
	disasmCmd.Flags().Uint16Var(&disasmLen, "len", 256, "number of bytes to dump")

	rootCmd.AddCommand(runCmd, snapshotCmd, disasmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
