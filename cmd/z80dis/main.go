// z80dis disassembles a flat Z80 binary image, Cobra-driven the way the
// teacher's superoptimizer CLI (oisee-z80-optimizer/cmd/z80opt) is.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/z80core/z80/bus"
	"github.com/z80core/z80/disasm"
)

func main() {
	var origin uint16
	var count int
	var from, to uint16
	var raiseOnUnknown bool

	rootCmd := &cobra.Command{
		Use:   "z80dis [file]",
		Short: "Disassemble a flat Z80 binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %q: %w", args[0], err)
			}
			b := bus.NewFlat()
			b.Load(origin, data)

			d := disasm.New(b)
			if raiseOnUnknown {
				d.SetPolicy(disasm.RaiseError)
			}

			var lines []string
			if cmd.Flags().Changed("to") {
				lines, err = d.DisassembleRange(from, to)
			} else {
				lines, err = d.DisassembleMany(origin, count)
			}
			for _, line := range lines {
				fmt.Print(line)
			}
			return err
		},
	}

	rootCmd.Flags().Uint16Var(&origin, "origin", 0x0000, "Address the image is loaded at")
	rootCmd.Flags().IntVar(&count, "count", 16, "Number of instructions to disassemble from --origin")
	rootCmd.Flags().Uint16Var(&from, "from", 0x0000, "Start address of a range to disassemble")
	rootCmd.Flags().Uint16Var(&to, "to", 0x0000, "End address of a range to disassemble (inclusive)")
	rootCmd.Flags().BoolVar(&raiseOnUnknown, "strict", false, "Fail on undecodable opcodes instead of rendering ?!?")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
