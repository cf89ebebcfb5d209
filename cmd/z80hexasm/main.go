// z80hexasm assembles a hand-written hex listing into a flat Z80 binary
// image, the input format being lines of the form:
//
// XXXX OP A1 A2 A3 ....
//
// Where XXXX is the address field (ignored; bytes are emitted strictly in
// file order) and OP is the opcode byte, A1/A2/A3 optional operand bytes,
// all in hex. It's the tool an operator reaches for to hand-assemble a
// short Z80 routine (a z80run entry point, a z80dis test fixture) without
// pulling in a full Z80 assembler.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/z80core/z80/bus"
	"github.com/z80core/z80/disasm"
)

func main() {
	var offset int
	var verify bool

	rootCmd := &cobra.Command{
		Use:   "z80hexasm <input> <output>",
		Short: "Assemble a hand-written hex listing into a flat Z80 binary image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, out := args[0], args[1]

			raw, err := exec.Command("/bin/sh", "-c", fmt.Sprintf(`egrep ^[0-9A-F][0-9A-F][0-9A-F][0-9A-F] %s | sed -e 's:\t.*$::' -e 's:(\*).*$::'| cut -c6-`, fn)).Output()
			if err != nil {
				return fmt.Errorf("reading and filtering %q: %w", fn, err)
			}

			output := make([]byte, offset)
			scanner := bufio.NewScanner(bytes.NewReader(raw))
			l := 0
			for scanner.Scan() {
				t := scanner.Text()
				l++
				// Should be 1-4 tokens: opcode plus up to 3 operand bytes.
				toks := strings.Split(t, " ")
				if len(toks) > 4 {
					return fmt.Errorf("invalid line %d - %q", l, t)
				}
				for _, v := range toks {
					b, err := strconv.ParseUint(v, 16, 8)
					if err != nil {
						return fmt.Errorf("can't process input line %d %q: %w", l, t, err)
					}
					output = append(output, byte(b))
				}
			}

			if err := os.WriteFile(out, output, 0o644); err != nil {
				return fmt.Errorf("writing %q: %w", out, err)
			}

			if verify {
				b := bus.NewFlat()
				b.Load(uint16(offset), output[offset:])
				d := disasm.New(b)
				lines, err := d.DisassembleRange(uint16(offset), uint16(offset+len(output[offset:])-1))
				if err != nil {
					return fmt.Errorf("verifying assembled output as Z80: %w", err)
				}
				for _, line := range lines {
					fmt.Print(line)
				}
			}
			return nil
		},
	}

	rootCmd.Flags().IntVar(&offset, "offset", 0x0000, "Offset to start writing assembled data; everything prior is zero filled")
	rootCmd.Flags().BoolVar(&verify, "verify", false, "Disassemble the assembled output and print it, to confirm it decodes as valid Z80")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
