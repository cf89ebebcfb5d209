package cpu

// 3-bit register-field encodings shared by LD r,r', ALU A,r, INC/DEC r
// and the CB page: 000=B 001=C 010=D 011=E 100=H 101=L
// 110=(HL) 111=A.
const (
	rB  = 0
	rC  = 1
	rD  = 2
	rE  = 3
	rH  = 4
	rL  = 5
	rHL = 6
	rA  = 7
)

// reg8 reads an 8-bit register-field operand, fetching through (HL) for
// code 6.
func (c *CPU) reg8(code uint8) (uint8, error) {
	switch code {
	case rB:
		return c.B, nil
	case rC:
		return c.C, nil
	case rD:
		return c.D, nil
	case rE:
		return c.E, nil
	case rH:
		return c.H, nil
	case rL:
		return c.L, nil
	case rHL:
		return c.rd(c.HL())
	default:
		return c.A, nil
	}
}

// setReg8 writes an 8-bit register-field operand, writing through (HL)
// for code 6.
func (c *CPU) setReg8(code uint8, v uint8) error {
	switch code {
	case rB:
		c.B = v
	case rC:
		c.C = v
	case rD:
		c.D = v
	case rE:
		c.E = v
	case rH:
		c.H = v
	case rL:
		c.L = v
	case rHL:
		return c.wr(c.HL(), v)
	default:
		c.A = v
	}
	return nil
}
