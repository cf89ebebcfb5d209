// Package cpu implements the Zilog Z80 instruction set: register file,
// ALU, five-page opcode decoder, interrupt/RESET state machine and
// T-state accounting. The CPU owns its register file exclusively and
// holds a non-owning reference to a caller-supplied bus.Bus.
package cpu

import (
	"fmt"

	"github.com/z80core/z80/bus"
)

// InvalidOpcodePolicy controls what happens when the decoder can't find a
// defined behavior for a fetched instruction byte sequence.
type InvalidOpcodePolicy int

const (
	// RaiseError surfaces an UnknownOpcodeError from Step/Run. Default.
	RaiseError InvalidOpcodePolicy = iota
	// NopSilently charges the NOP cost and continues as if NOP was fetched.
	NopSilently
)

// IM is the interrupt mode.
type IM int

const (
	IM0 IM = iota
	IM1
	IM2
)

// Fixed architectural vectors.
const (
	resetPC  = uint16(0x0000)
	nmiVec   = uint16(0x0066)
	im1Vec   = uint16(0x0038)
	nopCycle = uint64(4)
)

// UnknownOpcodeError is returned (under RaiseError policy) when the
// decoder finds no defined behavior for the fetched opcode.
type UnknownOpcodeError struct {
	Addr uint16
	Byte uint8
	Page string // which decode page the byte was read from (base/CB/ED/DD/FD/DDCB/FDCB)
}

// Error implements the error interface.
func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("cpu: unknown opcode 0x%.2X at 0x%.4X (%s page)", e.Byte, e.Addr, e.Page)
}

// TraceSink receives per-step notifications; the CPU depends on nothing
// more specific than this (the trace package implements it).
type TraceSink interface {
	// Before is called with the PC about to be stepped, before fetch.
	Before(pc uint16)
	// After is called with a snapshot of CPU state once the step completes.
	After(s Snapshot)
	// Marker is called for RESET/NMI/IRQ entry lines.
	Marker(line string)
}

// Snapshot is a plain-data dump of CPU state for diagnostics/tracing.
type Snapshot struct {
	A, F, B, C, D, E, H, L         uint8
	A_, F_, B_, C_, D_, E_, H_, L_ uint8
	IX, IY, SP, PC                uint16
	I, R                          uint8
	IFF1, IFF2                    bool
	IM                            IM
	Halted                        bool
	Cycles                        uint64
}

// CPU is a Zilog Z80 processor bound to a bus.Bus.
type CPU struct {
	// Main register set.
	A, F, B, C, D, E, H, L uint8
	// Alternate (shadow) register set.
	A_, F_, B_, C_, D_, E_, H_, L_ uint8

	IX, IY, SP, PC uint16
	I, R           uint8

	IFF1, IFF2 bool
	im         IM
	halted     bool

	cycles uint64

	bus bus.Bus

	invalidOpcodePolicy InvalidOpcodePolicy

	resetLine bool
	nmiLatch  bool
	nmiLine   bool
	intLine   bool

	// IM 0/IM 2 interrupt-acknowledge injection points (Open
	// Question: "the source places the IM-0 databus byte stubbed to 0;
	// real hardware expects the peripheral to supply an RST-like opcode.
	// Treat the byte as an injection point.")
	im0Byte   *uint8
	im2Vector *uint8

	trace TraceSink
}

// New returns a CPU bound to b, in the post-RESET state.
func New(b bus.Bus) *CPU {
	c := &CPU{bus: b, invalidOpcodePolicy: RaiseError}
	c.Reset()
	return c
}

// Reset zeros PC, I, R, clears IFF1/IFF2, sets IM0, clears halted and the
// cycle counter. Main/alternate registers are left untouched, matching
// documented Z80 RESET behavior.
func (c *CPU) Reset() {
	c.PC = resetPC
	c.I = 0
	c.R = 0
	c.IFF1 = false
	c.IFF2 = false
	c.im = IM0
	c.halted = false
	c.cycles = 0
	c.resetLine = false
	c.nmiLatch = false
	c.intLine = false
	if c.trace != nil {
		c.trace.Marker("*** RESET! ***")
	}
}

// SetInvalidOpcodePolicy configures behavior for undecodable opcodes.
func (c *CPU) SetInvalidOpcodePolicy(p InvalidOpcodePolicy) {
	c.invalidOpcodePolicy = p
}

// InvalidOpcodePolicy returns the current policy.
func (c *CPU) InvalidOpcodePolicy() InvalidOpcodePolicy {
	return c.invalidOpcodePolicy
}

// SetTraceSink attaches sink as the trace destination; pass nil to detach.
func (c *CPU) SetTraceSink(sink TraceSink) {
	c.trace = sink
}

// SetIM0DataByte configures the opcode byte supplied by the interrupting
// peripheral during an IM 0 acknowledge cycle.
func (c *CPU) SetIM0DataByte(b uint8) {
	c.im0Byte = &b
}

// SetIM2Vector configures the vector byte supplied by the interrupting
// peripheral during an IM 2 acknowledge cycle.
func (c *CPU) SetIM2Vector(v uint8) {
	c.im2Vector = &v
}

// SetIntLine sets the level of the maskable interrupt line.
func (c *CPU) SetIntLine(high bool) {
	c.intLine = high
}

// SetResetLine sets the level of the RESET line. While held high, Step
// performs no work.
func (c *CPU) SetResetLine(high bool) {
	c.resetLine = high
}

// SetNMILine latches an NMI edge on a low->high transition.
func (c *CPU) SetNMILine(high bool) {
	if high && !c.nmiLine {
		c.TriggerNMI()
	}
	c.nmiLine = high
}

// TriggerNMI latches a pending NMI, serviced before the next fetch.
func (c *CPU) TriggerNMI() {
	c.nmiLatch = true
}

// Halted reports whether the CPU is in the HALT state.
func (c *CPU) Halted() bool {
	return c.halted
}

// Cycles returns the monotonic T-state counter.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// IMMode returns the current interrupt mode.
func (c *CPU) IMMode() IM {
	return c.im
}

// SetIMMode sets the interrupt mode directly (used by tests; normal
// control flow uses the IM 0/1/2 opcodes).
func (c *CPU) SetIMMode(m IM) {
	c.im = m
}

// Snapshot returns a plain-data copy of the full CPU state.
func (c *CPU) Snapshot() Snapshot {
	return Snapshot{
		A: c.A, F: c.F, B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		A_: c.A_, F_: c.F_, B_: c.B_, C_: c.C_, D_: c.D_, E_: c.E_, H_: c.H_, L_: c.L_,
		IX: c.IX, IY: c.IY, SP: c.SP, PC: c.PC,
		I: c.I, R: c.R,
		IFF1: c.IFF1, IFF2: c.IFF2, IM: c.im,
		Halted: c.halted,
		Cycles: c.cycles,
	}
}

// Register pair accessors. BC/DE/HL/AF decompose into their 8-bit halves
// on write and synthesize from them on read, atomically from the
// program's point of view.

func (c *CPU) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) AF() uint16 { return uint16(c.A)<<8 | uint16(c.F) }

func (c *CPU) SetBC(v uint16) { c.B, c.C = uint8(v>>8), uint8(v) }
func (c *CPU) SetDE(v uint16) { c.D, c.E = uint8(v>>8), uint8(v) }
func (c *CPU) SetHL(v uint16) { c.H, c.L = uint8(v>>8), uint8(v) }
func (c *CPU) SetAF(v uint16) { c.A, c.F = uint8(v>>8), uint8(v) }

// IXH, IXL, IYH, IYL access the undocumented index-register halves,
// supported here alongside SLL as the two undocumented behaviors common
// enough in real software to implement rather than treat as opaque.
func (c *CPU) IXH() uint8 { return uint8(c.IX >> 8) }
func (c *CPU) IXL() uint8 { return uint8(c.IX) }
func (c *CPU) IYH() uint8 { return uint8(c.IY >> 8) }
func (c *CPU) IYL() uint8 { return uint8(c.IY) }

func (c *CPU) SetIXH(v uint8) { c.IX = uint16(v)<<8 | (c.IX & 0xFF) }
func (c *CPU) SetIXL(v uint8) { c.IX = (c.IX & 0xFF00) | uint16(v) }
func (c *CPU) SetIYH(v uint8) { c.IY = uint16(v)<<8 | (c.IY & 0xFF) }
func (c *CPU) SetIYL(v uint8) { c.IY = (c.IY & 0xFF00) | uint16(v) }

// exx swaps BC, DE, HL with their alternate counterparts.
func (c *CPU) exx() {
	c.B, c.B_ = c.B_, c.B
	c.C, c.C_ = c.C_, c.C
	c.D, c.D_ = c.D_, c.D
	c.E, c.E_ = c.E_, c.E
	c.H, c.H_ = c.H_, c.H
	c.L, c.L_ = c.L_, c.L
}

// exAFAF swaps AF with AF'.
func (c *CPU) exAFAF() {
	c.A, c.A_ = c.A_, c.A
	c.F, c.F_ = c.F_, c.F
}

// exDEHL swaps DE and HL.
func (c *CPU) exDEHL() {
	c.D, c.H = c.H, c.D
	c.E, c.L = c.L, c.E
}

// bumpR increments the low 7 bits of R by n, preserving bit 7, the way a
// real Z80 advances R by one per opcode-fetch (M1) byte.
func (c *CPU) bumpR(n uint8) {
	c.R = (c.R & 0x80) | ((c.R + n) & 0x7F)
}

// rd reads one byte from the bus, translating a bus fault into a Go error.
func (c *CPU) rd(addr uint16) (uint8, error) {
	return c.bus.MemRead(addr)
}

// wr writes one byte to the bus.
func (c *CPU) wr(addr uint16, val uint8) error {
	return c.bus.MemWrite(addr, val)
}

// fetch8 reads the immediate byte at PC and advances PC by 1.
func (c *CPU) fetch8() (uint8, error) {
	v, err := c.rd(c.PC)
	if err != nil {
		return 0, err
	}
	c.PC++
	return v, nil
}

// fetch16 reads the little-endian immediate word at PC and advances PC by 2.
func (c *CPU) fetch16() (uint16, error) {
	lo, err := c.fetch8()
	if err != nil {
		return 0, err
	}
	hi, err := c.fetch8()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// push pushes a 16-bit value: high byte at SP-1, then low at SP-2.
func (c *CPU) push(v uint16) error {
	c.SP--
	if err := c.wr(c.SP, uint8(v>>8)); err != nil {
		return err
	}
	c.SP--
	return c.wr(c.SP, uint8(v))
}

// pop pops a 16-bit value: low byte at SP, high at SP+1.
func (c *CPU) pop() (uint16, error) {
	lo, err := c.rd(c.SP)
	if err != nil {
		return 0, err
	}
	c.SP++
	hi, err := c.rd(c.SP)
	if err != nil {
		return 0, err
	}
	c.SP++
	return uint16(hi)<<8 | uint16(lo), nil
}
