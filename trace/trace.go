// Package trace implements cpu.TraceSink: before each instruction it
// writes the disassembled line, after each instruction a register/flag
// dump, and marker lines on RESET/NMI/IRQ entry.
package trace

import (
	"fmt"
	"io"

	"github.com/z80core/z80/cpu"
	"github.com/z80core/z80/disasm"
)

// Tracer wraps a disassembler and a line-oriented sink. It holds
// non-owning references to both.
type Tracer struct {
	dis *disasm.Disassembler
	w   io.Writer
}

// New returns a Tracer that disassembles through dis and writes lines to w.
func New(dis *disasm.Disassembler, w io.Writer) *Tracer {
	return &Tracer{dis: dis, w: w}
}

// Before implements cpu.TraceSink: writes the disassembled line for the
// instruction about to execute at pc.
func (t *Tracer) Before(pc uint16) {
	line, _, err := t.dis.DisassembleAt(pc)
	if err != nil {
		fmt.Fprintf(t.w, "%.4X : ???\r\n", pc)
		return
	}
	io.WriteString(t.w, line)
}

// After implements cpu.TraceSink: writes a full register/flag dump.
func (t *Tracer) After(s cpu.Snapshot) {
	fmt.Fprintf(t.w, "PC=%.4X SP=%.4X IX=%.4X IY=%.4X\r\n", s.PC, s.SP, s.IX, s.IY)
	fmt.Fprintf(t.w, "A=%.2X B=%.2X C=%.2X D=%.2X E=%.2X H=%.2X L=%.2X\r\n",
		s.A, s.B, s.C, s.D, s.E, s.H, s.L)
	fmt.Fprintf(t.w, "F=%.2X [%s] A'=%.2X F'=%.2X [%s] B'=%.2X C'=%.2X D'=%.2X E'=%.2X H'=%.2X L'=%.2X\r\n",
		s.F, flagString(s.F), s.A_, s.F_, flagString(s.F_), s.B_, s.C_, s.D_, s.E_, s.H_, s.L_)
	fmt.Fprintf(t.w, "I=%.2X R=%.2X IFF1=%v IFF2=%v IM=%d halted=%v cycles=%d\r\n",
		s.I, s.R, s.IFF1, s.IFF2, int(s.IM), s.Halted, s.Cycles)
}

// Marker implements cpu.TraceSink: RESET/NMI/IRQ entry lines.
func (t *Tracer) Marker(line string) {
	io.WriteString(t.w, line+"\r\n")
}

// flagString renders F as the six documented single-letter flag bits,
// dash for clear, following the S Z H P/V N C bit layout.
func flagString(f uint8) string {
	bit := func(mask uint8, ch byte) byte {
		if f&mask != 0 {
			return ch
		}
		return '-'
	}
	out := []byte{
		bit(0x80, 'S'),
		bit(0x40, 'Z'),
		bit(0x10, 'H'),
		bit(0x04, 'P'),
		bit(0x02, 'N'),
		bit(0x01, 'C'),
	}
	return string(out)
}
