// Package disasm implements a Z80 disassembler sharing the same
// five-page decode structure as the cpu package (register-field and
// register-pair encodings line up with it by convention, not by import:
// the disassembler never executes anything, it only reads).
package disasm

import (
	"fmt"
	"strings"

	"github.com/z80core/z80/bus"
)

// Policy mirrors cpu.InvalidOpcodePolicy for the disassembler's own
// unknown-opcode handling.
type Policy int

const (
	// RenderPlaceholder emits "?!?" for an undecodable byte. Default.
	RenderPlaceholder Policy = iota
	// RaiseError returns an UnknownOpcodeError from DisassembleAt.
	RaiseError
)

// UnknownOpcodeError mirrors cpu.UnknownOpcodeError for the disassembler.
type UnknownOpcodeError struct {
	Addr uint16
	Byte uint8
	Page string
}

func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("disasm: unknown opcode 0x%.2X at 0x%.4X (%s page)", e.Byte, e.Addr, e.Page)
}

var reg8Names = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
var rrNames = [4]string{"BC", "DE", "HL", "SP"}
var qqNames = [4]string{"BC", "DE", "HL", "AF"}
var condNames = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
var aluMnemonics = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}

// Disassembler decodes Z80 instructions from a bus without ever writing
// to it or mutating any CPU state.
type Disassembler struct {
	bus    bus.Bus
	policy Policy
}

// New returns a Disassembler reading through b.
func New(b bus.Bus) *Disassembler {
	return &Disassembler{bus: b, policy: RenderPlaceholder}
}

// SetPolicy configures unknown-opcode handling.
func (d *Disassembler) SetPolicy(p Policy) {
	d.policy = p
}

type decoded struct {
	mnemonic string
	bytes    []uint8
}

// DisassembleAt decodes exactly one instruction at addr and returns the
// formatted line plus the address of the next instruction.
func (d *Disassembler) DisassembleAt(addr uint16) (string, uint16, error) {
	dec, next, err := d.decode(addr)
	if err != nil {
		return "", addr, err
	}
	return formatLine(addr, dec), next, nil
}

// DisassembleMany decodes n consecutive instructions starting at addr.
func (d *Disassembler) DisassembleMany(addr uint16, n int) ([]string, error) {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, next, err := d.DisassembleAt(addr)
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
		addr = next
	}
	return lines, nil
}

// DisassembleRange decodes every instruction whose starting address
// falls within [from, to]; the final instruction may extend past to.
func (d *Disassembler) DisassembleRange(from, to uint16) ([]string, error) {
	var lines []string
	addr := from
	for addr <= to {
		line, next, err := d.DisassembleAt(addr)
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
		if next <= addr { // guard against a zero-length decode
			break
		}
		addr = next
	}
	return lines, nil
}

func formatLine(addr uint16, dec decoded) string {
	hexBytes := make([]string, len(dec.bytes))
	for i, b := range dec.bytes {
		hexBytes[i] = fmt.Sprintf("%.2X", b)
	}
	byteCol := strings.Join(hexBytes, " ")
	line := fmt.Sprintf("%.4X : %-24s : %s", addr, byteCol, dec.mnemonic)
	return line + "\r\n"
}

func imm8(v uint8) string        { return fmt.Sprintf("#%.2Xh", v) }
func imm16(v uint16) string      { return fmt.Sprintf("%.4Xh", v) }
func indirect16(v uint16) string { return fmt.Sprintf("(%.4Xh)", v) }

func disp(d int8) string {
	if d < 0 {
		return fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("+%d", d)
}

// reader is a tiny cursor over the bus used only by decode.
type reader struct {
	b    bus.Bus
	addr uint16
	buf  []uint8
}

func (r *reader) u8() (uint8, error) {
	v, err := r.b.MemRead(r.addr)
	if err != nil {
		return 0, err
	}
	r.buf = append(r.buf, v)
	r.addr++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	lo, err := r.u8()
	if err != nil {
		return 0, err
	}
	hi, err := r.u8()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (d *Disassembler) decode(addr uint16) (decoded, uint16, error) {
	r := &reader{b: d.bus, addr: addr}
	op, err := r.u8()
	if err != nil {
		return decoded{}, addr, err
	}

	var mnemonic string
	switch op {
	case 0xCB:
		mnemonic, err = d.decodeCB(r)
	case 0xED:
		mnemonic, err = d.decodeED(r)
	case 0xDD:
		mnemonic, err = d.decodeIndexed(r, "IX")
	case 0xFD:
		mnemonic, err = d.decodeIndexed(r, "IY")
	default:
		mnemonic, err = d.decodeBase(r, op, addr)
	}
	if err != nil {
		return decoded{}, addr, err
	}
	return decoded{mnemonic: mnemonic, bytes: r.buf}, r.addr, nil
}

func (d *Disassembler) unknown(b uint8, addr uint16, page string) (string, error) {
	if d.policy == RaiseError {
		return "", UnknownOpcodeError{Addr: addr, Byte: b, Page: page}
	}
	return "?!?", nil
}

func (d *Disassembler) decodeBase(r *reader, op uint8, startAddr uint16) (string, error) {
	if op == 0x76 {
		return "HALT", nil
	}
	if op >= 0x40 && op <= 0x7F {
		dst := (op >> 3) & 0x7
		src := op & 0x7
		return fmt.Sprintf("LD %s,%s", reg8Names[dst], reg8Names[src]), nil
	}
	if op >= 0x80 && op <= 0xBF {
		return aluMnemonics[(op>>3)&0x7] + reg8Names[op&0x7], nil
	}

	switch op {
	case 0x00:
		return "NOP", nil
	case 0x01, 0x11, 0x21, 0x31:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,%s", rrNames[(op>>4)&0x3], imm16(nn)), nil
	case 0x02:
		return "LD (BC),A", nil
	case 0x03, 0x13, 0x23, 0x33:
		return "INC " + rrNames[(op>>4)&0x3], nil
	case 0x0B, 0x1B, 0x2B, 0x3B:
		return "DEC " + rrNames[(op>>4)&0x3], nil
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C:
		return "INC " + reg8Names[(op>>3)&0x7], nil
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D:
		return "DEC " + reg8Names[(op>>3)&0x7], nil
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E:
		n, err := r.u8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,%s", reg8Names[(op>>3)&0x7], imm8(n)), nil
	case 0x07:
		return "RLCA", nil
	case 0x0F:
		return "RRCA", nil
	case 0x17:
		return "RLA", nil
	case 0x1F:
		return "RRA", nil
	case 0x08:
		return "EX AF,AF'", nil
	case 0x09, 0x19, 0x29, 0x39:
		return "ADD HL," + rrNames[(op>>4)&0x3], nil
	case 0x0A:
		return "LD A,(BC)", nil
	case 0x12:
		return "LD (DE),A", nil
	case 0x1A:
		return "LD A,(DE)", nil
	case 0x10:
		d8, err := r.u8()
		if err != nil {
			return "", err
		}
		target := startAddr + 2 + uint16(int8(d8))
		return fmt.Sprintf("DJNZ %s (→ %s)", disp(int8(d8)), imm16(target)), nil
	case 0x18:
		d8, err := r.u8()
		if err != nil {
			return "", err
		}
		target := startAddr + 2 + uint16(int8(d8))
		return fmt.Sprintf("JR %s (→ %s)", disp(int8(d8)), imm16(target)), nil
	case 0x20, 0x28, 0x30, 0x38:
		d8, err := r.u8()
		if err != nil {
			return "", err
		}
		target := startAddr + 2 + uint16(int8(d8))
		return fmt.Sprintf("JR %s,%s (→ %s)", condNames[(op>>3)&0x3], disp(int8(d8)), imm16(target)), nil
	case 0x22:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,HL", indirect16(nn)), nil
	case 0x2A:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD HL,%s", indirect16(nn)), nil
	case 0x27:
		return "DAA", nil
	case 0x2F:
		return "CPL", nil
	case 0x32:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,A", indirect16(nn)), nil
	case 0x3A:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD A,%s", indirect16(nn)), nil
	case 0x37:
		return "SCF", nil
	case 0x3F:
		return "CCF", nil
	case 0xC0, 0xC8, 0xD0, 0xD8, 0xE0, 0xE8, 0xF0, 0xF8:
		return "RET " + condNames[(op>>3)&0x7], nil
	case 0xC9:
		return "RET", nil
	case 0xC1, 0xD1, 0xE1, 0xF1:
		return "POP " + qqNames[(op>>4)&0x3], nil
	case 0xC5, 0xD5, 0xE5, 0xF5:
		return "PUSH " + qqNames[(op>>4)&0x3], nil
	case 0xC2, 0xCA, 0xD2, 0xDA, 0xE2, 0xEA, 0xF2, 0xFA:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("JP %s,%s", condNames[(op>>3)&0x7], imm16(nn)), nil
	case 0xC3:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return "JP " + imm16(nn), nil
	case 0xC4, 0xCC, 0xD4, 0xDC, 0xE4, 0xEC, 0xF4, 0xFC:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CALL %s,%s", condNames[(op>>3)&0x7], imm16(nn)), nil
	case 0xCD:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return "CALL " + imm16(nn), nil
	case 0xC6, 0xCE, 0xD6, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE:
		n, err := r.u8()
		if err != nil {
			return "", err
		}
		return aluMnemonics[(op>>3)&0x7] + imm8(n), nil
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF:
		return fmt.Sprintf("RST %.2Xh", op&0x38), nil
	case 0xD9:
		return "EXX", nil
	case 0xD3:
		n, err := r.u8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("OUT (%s),A", imm8(n)), nil
	case 0xDB:
		n, err := r.u8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("IN A,(%s)", imm8(n)), nil
	case 0xE3:
		return "EX (SP),HL", nil
	case 0xE9:
		return "JP (HL)", nil
	case 0xEB:
		return "EX DE,HL", nil
	case 0xF3:
		return "DI", nil
	case 0xF9:
		return "LD SP,HL", nil
	case 0xFB:
		return "EI", nil
	default:
		return d.unknown(op, startAddr, "base")
	}
}

func (d *Disassembler) decodeCB(r *reader) (string, error) {
	sub, err := r.u8()
	if err != nil {
		return "", err
	}
	code := sub & 0x7
	b := (sub >> 3) & 0x7
	switch {
	case sub < 0x40:
		names := [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SLL", "SRL"}
		return fmt.Sprintf("%s %s", names[(sub>>3)&0x7], reg8Names[code]), nil
	case sub < 0x80:
		return fmt.Sprintf("BIT %d,%s", b, reg8Names[code]), nil
	case sub < 0xC0:
		return fmt.Sprintf("RES %d,%s", b, reg8Names[code]), nil
	default:
		return fmt.Sprintf("SET %d,%s", b, reg8Names[code]), nil
	}
}

func (d *Disassembler) decodeED(r *reader) (string, error) {
	startAddr := r.addr - 1
	op, err := r.u8()
	if err != nil {
		return "", err
	}
	switch op {
	case 0x40, 0x48, 0x50, 0x58, 0x60, 0x68, 0x70, 0x78:
		code := (op >> 3) & 0x7
		if code == 6 {
			return "IN (C)", nil
		}
		return fmt.Sprintf("IN %s,(C)", reg8Names[code]), nil
	case 0x41, 0x49, 0x51, 0x59, 0x61, 0x69, 0x71, 0x79:
		code := (op >> 3) & 0x7
		if code == 6 {
			return "OUT (C),0", nil
		}
		return fmt.Sprintf("OUT (C),%s", reg8Names[code]), nil
	case 0x42, 0x52, 0x62, 0x72:
		return "SBC HL," + rrNames[(op>>4)&0x3], nil
	case 0x4A, 0x5A, 0x6A, 0x7A:
		return "ADC HL," + rrNames[(op>>4)&0x3], nil
	case 0x43, 0x53, 0x63, 0x73:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,%s", indirect16(nn), rrNames[(op>>4)&0x3]), nil
	case 0x4B, 0x5B, 0x6B, 0x7B:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,%s", rrNames[(op>>4)&0x3], indirect16(nn)), nil
	case 0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C:
		return "NEG", nil
	case 0x45, 0x55, 0x65, 0x75:
		return "RETN", nil
	case 0x4D, 0x5D, 0x6D, 0x7D:
		return "RETI", nil
	case 0x46, 0x4E, 0x66, 0x6E:
		return "IM 0", nil
	case 0x56, 0x76:
		return "IM 1", nil
	case 0x5E, 0x7E:
		return "IM 2", nil
	case 0x47:
		return "LD I,A", nil
	case 0x4F:
		return "LD R,A", nil
	case 0x57:
		return "LD A,I", nil
	case 0x5F:
		return "LD A,R", nil
	case 0x67:
		return "RRD", nil
	case 0x6F:
		return "RLD", nil
	case 0x77, 0x7F:
		return "NOP", nil
	case 0xA0:
		return "LDI", nil
	case 0xA8:
		return "LDD", nil
	case 0xB0:
		return "LDIR", nil
	case 0xB8:
		return "LDDR", nil
	case 0xA1:
		return "CPI", nil
	case 0xA9:
		return "CPD", nil
	case 0xB1:
		return "CPIR", nil
	case 0xB9:
		return "CPDR", nil
	case 0xA2:
		return "INI", nil
	case 0xAA:
		return "IND", nil
	case 0xB2:
		return "INIR", nil
	case 0xBA:
		return "INDR", nil
	case 0xA3:
		return "OUTI", nil
	case 0xAB:
		return "OUTD", nil
	case 0xB3:
		return "OTIR", nil
	case 0xBB:
		return "OTDR", nil
	default:
		return d.unknown(op, startAddr, "ED")
	}
}

// decodeIndexed covers the documented DD/FD subset: HL/H/L-touching
// opcodes substitute IX/IY the way execIndexed does; everything else
// disassembles identically to its unprefixed form.
func (d *Disassembler) decodeIndexed(r *reader, ixy string) (string, error) {
	startAddr := r.addr - 1
	op, err := r.u8()
	if err != nil {
		return "", err
	}

	if op == 0xCB {
		dByte, err := r.u8()
		if err != nil {
			return "", err
		}
		sub, err := r.u8()
		if err != nil {
			return "", err
		}
		addrExpr := fmt.Sprintf("(%s%s)", ixy, disp(int8(dByte)))
		b := (sub >> 3) & 0x7
		switch {
		case sub < 0x40:
			names := [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SLL", "SRL"}
			return fmt.Sprintf("%s %s", names[(sub>>3)&0x7], addrExpr), nil
		case sub < 0x80:
			return fmt.Sprintf("BIT %d,%s", b, addrExpr), nil
		case sub < 0xC0:
			return fmt.Sprintf("RES %d,%s", b, addrExpr), nil
		default:
			return fmt.Sprintf("SET %d,%s", b, addrExpr), nil
		}
	}

	idxReg8 := func(code uint8) (string, error) {
		switch code {
		case 4:
			return ixy + "H", nil
		case 5:
			return ixy + "L", nil
		case 6:
			dByte, err := r.u8()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("(%s%s)", ixy, disp(int8(dByte))), nil
		default:
			return reg8Names[code], nil
		}
	}

	if op >= 0x40 && op <= 0x7F && op != 0x76 {
		dst := (op >> 3) & 0x7
		src := op & 0x7
		if dst == 4 || dst == 5 || dst == 6 || src == 4 || src == 5 || src == 6 {
			dstS, err := idxReg8(dst)
			if err != nil {
				return "", err
			}
			srcS, err := idxReg8(src)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("LD %s,%s", dstS, srcS), nil
		}
	}
	if op >= 0x80 && op <= 0xBF {
		code := op & 0x7
		if code == 4 || code == 5 || code == 6 {
			operand, err := idxReg8(code)
			if err != nil {
				return "", err
			}
			return aluMnemonics[(op>>3)&0x7] + operand, nil
		}
	}

	switch op {
	case 0x09:
		return "ADD " + ixy + ",BC", nil
	case 0x19:
		return "ADD " + ixy + ",DE", nil
	case 0x21:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,%s", ixy, imm16(nn)), nil
	case 0x22:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,%s", indirect16(nn), ixy), nil
	case 0x23:
		return "INC " + ixy, nil
	case 0x24:
		return "INC " + ixy + "H", nil
	case 0x25:
		return "DEC " + ixy + "H", nil
	case 0x26:
		n, err := r.u8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %sH,%s", ixy, imm8(n)), nil
	case 0x29:
		return "ADD " + ixy + "," + ixy, nil
	case 0x2A:
		nn, err := r.u16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %s,%s", ixy, indirect16(nn)), nil
	case 0x2B:
		return "DEC " + ixy, nil
	case 0x2C:
		return "INC " + ixy + "L", nil
	case 0x2D:
		return "DEC " + ixy + "L", nil
	case 0x2E:
		n, err := r.u8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD %sL,%s", ixy, imm8(n)), nil
	case 0x34:
		dByte, err := r.u8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("INC (%s%s)", ixy, disp(int8(dByte))), nil
	case 0x35:
		dByte, err := r.u8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("DEC (%s%s)", ixy, disp(int8(dByte))), nil
	case 0x36:
		dByte, err := r.u8()
		if err != nil {
			return "", err
		}
		n, err := r.u8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LD (%s%s),%s", ixy, disp(int8(dByte)), imm8(n)), nil
	case 0x39:
		return "ADD " + ixy + ",SP", nil
	case 0xE1:
		return "POP " + ixy, nil
	case 0xE3:
		return "EX (SP)," + ixy, nil
	case 0xE5:
		return "PUSH " + ixy, nil
	case 0xE9:
		return "JP (" + ixy + ")", nil
	case 0xF9:
		return "LD SP," + ixy, nil
	default:
		// Undocumented-but-legal: prefix had no effect on this opcode.
		return d.decodeBase(r, op, startAddr)
	}
}
