// z80run loads a flat Z80 binary image and runs it against the cpu
// package, optionally tracing every step the way the
// teacher's vcs_main wires a CPU to a debug trace flag, minus the SDL
// display (host video is out of scope here).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/z80core/z80/bus"
	"github.com/z80core/z80/cpu"
	"github.com/z80core/z80/disasm"
	"github.com/z80core/z80/trace"
)

func main() {
	var origin uint16
	var entry uint16
	var hasEntry bool
	var cycles uint64
	var debug bool
	var nopOnInvalid bool

	rootCmd := &cobra.Command{
		Use:   "z80run [file]",
		Short: "Run a flat Z80 binary image against the CPU core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %q: %w", args[0], err)
			}
			b := bus.NewFlat()
			b.Load(origin, data)

			c := cpu.New(b)
			if cmd.Flags().Changed("entry") {
				hasEntry = true
			}
			if hasEntry {
				c.PC = entry
			}
			if nopOnInvalid {
				c.SetInvalidOpcodePolicy(cpu.NopSilently)
			}
			if debug {
				c.SetTraceSink(trace.New(disasm.New(b), os.Stdout))
			}

			total, err := c.Run(cycles)
			fmt.Fprintf(os.Stderr, "ran %d T-states, halted=%v, PC=%.4X\n", total, c.Halted(), c.PC)
			return err
		},
	}

	rootCmd.Flags().Uint16Var(&origin, "origin", 0x0000, "Address the image is loaded at")
	rootCmd.Flags().Uint16Var(&entry, "entry", 0x0000, "Initial PC (defaults to the RESET vector, 0x0000)")
	rootCmd.Flags().Uint64Var(&cycles, "cycles", 1000, "Minimum T-states to run before stopping")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Emit a full per-step disassembly and register trace")
	rootCmd.Flags().BoolVar(&nopOnInvalid, "nop-on-invalid", false, "Treat undecodable opcodes as NOP instead of failing")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
