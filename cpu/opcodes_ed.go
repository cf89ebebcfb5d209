package cpu

// execED implements the ED-prefixed page: 16-bit ALU/LD
// extensions, I/O, interrupt-mode/refresh-register control, RETN/RETI,
// and the sixteen block transfer/search/I/O instructions.
func (c *CPU) execED(pc uint16) error {
	op, err := c.fetch8()
	if err != nil {
		return err
	}
	c.bumpR(1)

	switch op {
	case 0x40, 0x48, 0x50, 0x58, 0x60, 0x68, 0x70, 0x78:
		return c.edInR((op >> 3) & 0x7)
	case 0x41, 0x49, 0x51, 0x59, 0x61, 0x69, 0x71, 0x79:
		return c.edOutR((op >> 3) & 0x7)
	case 0x42, 0x52, 0x62, 0x72:
		r, f := sbc16(c.HL(), c.getRR((op>>4)&0x3), flagSet(c.F, FlagC), c.F)
		c.SetHL(r)
		c.F = f
		c.cycles += 15
	case 0x4A, 0x5A, 0x6A, 0x7A:
		r, f := adc16(c.HL(), c.getRR((op>>4)&0x3), flagSet(c.F, FlagC), c.F)
		c.SetHL(r)
		c.F = f
		c.cycles += 15
	case 0x43, 0x53, 0x63, 0x73:
		return c.edLDAddrFromRR((op >> 4) & 0x3)
	case 0x4B, 0x5B, 0x6B, 0x7B:
		return c.edLDRRFromAddr((op >> 4) & 0x3)
	case 0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C:
		c.A, c.F = neg8(c.A, c.F)
		c.cycles += 8
	case 0x45, 0x55, 0x65, 0x75:
		c.IFF1 = c.IFF2
		addr, err := c.pop()
		if err != nil {
			return err
		}
		c.PC = addr
		c.cycles += 14
	case 0x4D, 0x5D, 0x6D, 0x7D: // RETI: interrupt flip-flops untouched
		addr, err := c.pop()
		if err != nil {
			return err
		}
		c.PC = addr
		c.cycles += 14
	case 0x46, 0x66:
		c.im = IM0
		c.cycles += 8
	case 0x56, 0x76:
		c.im = IM1
		c.cycles += 8
	case 0x5E, 0x7E:
		c.im = IM2
		c.cycles += 8
	case 0x4E, 0x6E:
		c.im = IM0
		c.cycles += 8
	case 0x47:
		c.I = c.A
		c.cycles += 9
	case 0x4F:
		c.R = c.A
		c.cycles += 9
	case 0x57:
		c.A = c.I
		c.F = szFlags(c.F, c.A)
		c.F = setFlag(c.F, FlagPV, c.IFF2)
		c.F = setFlag(c.F, FlagH, false)
		c.F = setFlag(c.F, FlagN, false)
		c.cycles += 9
	case 0x5F:
		c.A = c.R
		c.F = szFlags(c.F, c.A)
		c.F = setFlag(c.F, FlagPV, c.IFF2)
		c.F = setFlag(c.F, FlagH, false)
		c.F = setFlag(c.F, FlagN, false)
		c.cycles += 9
	case 0x67:
		m, err := c.rd(c.HL())
		if err != nil {
			return err
		}
		newA, newM, newF := rrd(c.A, m, c.F)
		if err := c.wr(c.HL(), newM); err != nil {
			return err
		}
		c.A, c.F = newA, newF
		c.cycles += 18
	case 0x6F:
		m, err := c.rd(c.HL())
		if err != nil {
			return err
		}
		newA, newM, newF := rld(c.A, m, c.F)
		if err := c.wr(c.HL(), newM); err != nil {
			return err
		}
		c.A, c.F = newA, newF
		c.cycles += 18
	case 0x77, 0x7F: // undocumented ED NOP
		c.cycles += 8

	case 0xA0:
		return c.ldi()
	case 0xA8:
		return c.ldd()
	case 0xB0:
		return c.ldir()
	case 0xB8:
		return c.lddr()
	case 0xA1:
		return c.cpi()
	case 0xA9:
		return c.cpd()
	case 0xB1:
		return c.cpir()
	case 0xB9:
		return c.cpdr()
	case 0xA2:
		return c.ini()
	case 0xAA:
		return c.ind()
	case 0xB2:
		return c.inir()
	case 0xBA:
		return c.indr()
	case 0xA3:
		return c.outi()
	case 0xAB:
		return c.outd()
	case 0xB3:
		return c.otir()
	case 0xBB:
		return c.otdr()

	default:
		return c.unknownOpcode(pc, op, "ED")
	}
	return nil
}

func (c *CPU) edInR(code uint8) error {
	v, err := c.bus.PortIn(c.C)
	if err != nil {
		return err
	}
	if code != rHL { // code 6 is the undocumented flags-only "IN F,(C)"
		if err := c.setReg8(code, v); err != nil {
			return err
		}
	}
	c.F = szFlags(c.F, v)
	c.F = setFlag(c.F, FlagPV, parity(v))
	c.F = setFlag(c.F, FlagH, false)
	c.F = setFlag(c.F, FlagN, false)
	c.cycles += 12
	return nil
}

func (c *CPU) edOutR(code uint8) error {
	var v uint8
	if code == rHL {
		v = 0 // undocumented "OUT (C),0"
	} else {
		var err error
		v, err = c.reg8(code)
		if err != nil {
			return err
		}
	}
	if err := c.bus.PortOut(c.C, v); err != nil {
		return err
	}
	c.cycles += 12
	return nil
}

func (c *CPU) edLDAddrFromRR(code uint8) error {
	nn, err := c.fetch16()
	if err != nil {
		return err
	}
	v := c.getRR(code)
	if err := c.wr(nn, uint8(v)); err != nil {
		return err
	}
	if err := c.wr(nn+1, uint8(v>>8)); err != nil {
		return err
	}
	c.cycles += 20
	return nil
}

func (c *CPU) edLDRRFromAddr(code uint8) error {
	nn, err := c.fetch16()
	if err != nil {
		return err
	}
	lo, err := c.rd(nn)
	if err != nil {
		return err
	}
	hi, err := c.rd(nn + 1)
	if err != nil {
		return err
	}
	c.setRR(code, uint16(hi)<<8|uint16(lo))
	c.cycles += 20
	return nil
}

// ldi/ldd transfer one byte (HL)->(DE), advancing both and decrementing
// BC. S, Z, C preserved; H=0, N=0; P/V = BC != 0 after decrement.
func (c *CPU) ldi() error {
	return c.ldMove(1)
}

func (c *CPU) ldd() error {
	return c.ldMove(-1)
}

func (c *CPU) ldMove(step int16) error {
	v, err := c.rd(c.HL())
	if err != nil {
		return err
	}
	if err := c.wr(c.DE(), v); err != nil {
		return err
	}
	c.SetHL(uint16(int32(c.HL()) + int32(step)))
	c.SetDE(uint16(int32(c.DE()) + int32(step)))
	c.SetBC(c.BC() - 1)
	c.F = setFlag(c.F, FlagH, false)
	c.F = setFlag(c.F, FlagN, false)
	c.F = setFlag(c.F, FlagPV, c.BC() != 0)
	c.cycles += 16
	return nil
}

func (c *CPU) ldir() error {
	if err := c.ldMove(1); err != nil {
		return err
	}
	if c.BC() != 0 {
		c.PC -= 2
		c.cycles += 5
	}
	return nil
}

func (c *CPU) lddr() error {
	if err := c.ldMove(-1); err != nil {
		return err
	}
	if c.BC() != 0 {
		c.PC -= 2
		c.cycles += 5
	}
	return nil
}

// cpi/cpd compare A against (HL) without modifying A, advancing HL and
// decrementing BC. C preserved; S, Z, H from the comparison; N=1;
// P/V = BC != 0 after decrement.
func (c *CPU) cpi() error {
	return c.cpMove(1)
}

func (c *CPU) cpd() error {
	return c.cpMove(-1)
}

func (c *CPU) cpMove(step int16) error {
	v, err := c.rd(c.HL())
	if err != nil {
		return err
	}
	oldC := flagSet(c.F, FlagC)
	_, f := sub8(c.A, v, false, c.F)
	c.SetHL(uint16(int32(c.HL()) + int32(step)))
	c.SetBC(c.BC() - 1)
	f = setFlag(f, FlagC, oldC)
	f = setFlag(f, FlagPV, c.BC() != 0)
	c.F = f
	c.cycles += 16
	return nil
}

func (c *CPU) cpir() error {
	if err := c.cpMove(1); err != nil {
		return err
	}
	if c.BC() != 0 && !flagSet(c.F, FlagZ) {
		c.PC -= 2
		c.cycles += 5
	}
	return nil
}

func (c *CPU) cpdr() error {
	if err := c.cpMove(-1); err != nil {
		return err
	}
	if c.BC() != 0 && !flagSet(c.F, FlagZ) {
		c.PC -= 2
		c.cycles += 5
	}
	return nil
}

// blockIOFlags is the shared flag rule for INI/IND/OUTI/OUTD, following
// the documented (if convoluted) undocumented-flags algorithm: N from
// the transferred value's sign, Z/S from B after decrement, H/C from a
// carry out of an auxiliary addition, P/V from its parity against B.
func blockIOFlags(f uint8, value uint8, bAfter uint8, k uint16) uint8 {
	f = setFlag(f, FlagN, value&0x80 != 0)
	f = setFlag(f, FlagZ, bAfter == 0)
	f = setFlag(f, FlagS, bAfter&0x80 != 0)
	carry := k > 0xFF
	f = setFlag(f, FlagC, carry)
	f = setFlag(f, FlagH, carry)
	f = setFlag(f, FlagPV, parity(uint8(k&0x07)^bAfter))
	return f
}

func (c *CPU) ini() error {
	v, err := c.bus.PortIn(c.C)
	if err != nil {
		return err
	}
	if err := c.wr(c.HL(), v); err != nil {
		return err
	}
	c.B--
	c.SetHL(c.HL() + 1)
	k := uint16(v) + uint16(c.C+1)
	c.F = blockIOFlags(c.F, v, c.B, k)
	c.cycles += 16
	return nil
}

func (c *CPU) ind() error {
	v, err := c.bus.PortIn(c.C)
	if err != nil {
		return err
	}
	if err := c.wr(c.HL(), v); err != nil {
		return err
	}
	c.B--
	c.SetHL(c.HL() - 1)
	k := uint16(v) + uint16(c.C-1)
	c.F = blockIOFlags(c.F, v, c.B, k)
	c.cycles += 16
	return nil
}

func (c *CPU) inir() error {
	if err := c.ini(); err != nil {
		return err
	}
	if c.B != 0 {
		c.PC -= 2
		c.cycles += 5
	}
	return nil
}

func (c *CPU) indr() error {
	if err := c.ind(); err != nil {
		return err
	}
	if c.B != 0 {
		c.PC -= 2
		c.cycles += 5
	}
	return nil
}

func (c *CPU) outi() error {
	v, err := c.rd(c.HL())
	if err != nil {
		return err
	}
	c.SetHL(c.HL() + 1)
	c.B--
	if err := c.bus.PortOut(c.C, v); err != nil {
		return err
	}
	k := uint16(v) + uint16(c.L)
	c.F = blockIOFlags(c.F, v, c.B, k)
	c.cycles += 16
	return nil
}

func (c *CPU) outd() error {
	v, err := c.rd(c.HL())
	if err != nil {
		return err
	}
	c.SetHL(c.HL() - 1)
	c.B--
	if err := c.bus.PortOut(c.C, v); err != nil {
		return err
	}
	k := uint16(v) + uint16(c.L)
	c.F = blockIOFlags(c.F, v, c.B, k)
	c.cycles += 16
	return nil
}

func (c *CPU) otir() error {
	if err := c.outi(); err != nil {
		return err
	}
	if c.B != 0 {
		c.PC -= 2
		c.cycles += 5
	}
	return nil
}

func (c *CPU) otdr() error {
	if err := c.outd(); err != nil {
		return err
	}
	if c.B != 0 {
		c.PC -= 2
		c.cycles += 5
	}
	return nil
}
