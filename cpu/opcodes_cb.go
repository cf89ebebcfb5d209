package cpu

// execCB implements the CB-prefixed page: rotate/shift
// 0x00-0x3F, BIT 0x40-0x7F, RES 0x80-0xBF, SET 0xC0-0xFF, each operating
// on an 8-bit register-field operand (including (HL)).
func (c *CPU) execCB(pc uint16) error {
	op, err := c.fetch8()
	if err != nil {
		return err
	}
	c.bumpR(1)

	code := op & 0x7
	v, err := c.reg8(code)
	if err != nil {
		return err
	}

	isHL := code == rHL

	switch {
	case op < 0x40: // rotate/shift
		r, f := shiftOp((op>>3)&0x7, v, c.F)
		if err := c.setReg8(code, r); err != nil {
			return err
		}
		c.F = f
		if isHL {
			c.cycles += 15
		} else {
			c.cycles += 8
		}
	case op < 0x80: // BIT b,r
		b := (op >> 3) & 0x7
		c.F = bitTest(b, v, c.F)
		if isHL {
			c.cycles += 12
		} else {
			c.cycles += 8
		}
	case op < 0xC0: // RES b,r
		b := (op >> 3) & 0x7
		if err := c.setReg8(code, resBit(b, v)); err != nil {
			return err
		}
		if isHL {
			c.cycles += 15
		} else {
			c.cycles += 8
		}
	default: // SET b,r
		b := (op >> 3) & 0x7
		if err := c.setReg8(code, setBit(b, v)); err != nil {
			return err
		}
		if isHL {
			c.cycles += 15
		} else {
			c.cycles += 8
		}
	}
	return nil
}

// shiftOp dispatches the 8 CB rotate/shift variants (0=RLC 1=RRC 2=RL
// 3=RR 4=SLA 5=SRA 6=SLL 7=SRL).
func shiftOp(opc uint8, v, f uint8) (uint8, uint8) {
	switch opc {
	case 0:
		return rlc8(v, f)
	case 1:
		return rrc8(v, f)
	case 2:
		return rl8(v, f)
	case 3:
		return rr8(v, f)
	case 4:
		return sla8(v, f)
	case 5:
		return sra8(v, f)
	case 6:
		return sll8(v, f)
	default:
		return srl8(v, f)
	}
}
