package cpu

// 2-bit register-pair encodings used by LD rr,nn / INC rr / DEC rr /
// ADD HL,rr (dd/ss field: 00=BC 01=DE 10=HL 11=SP).
func (c *CPU) getRR(code uint8) uint16 {
	switch code {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.SP
	}
}

func (c *CPU) setRR(code uint8, v uint16) {
	switch code {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SP = v
	}
}

// getQQ/setQQ use the PUSH/POP register-pair encoding (qq field: 00=BC
// 01=DE 10=HL 11=AF, differing from dd/ss only in the last slot).
func (c *CPU) getQQ(code uint8) uint16 {
	switch code {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.AF()
	}
}

func (c *CPU) setQQ(code uint8, v uint16) {
	switch code {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SetAF(v)
	}
}

// condTrue evaluates one of the eight 3-bit condition codes used by
// JP cc/CALL cc/RET cc: NZ,Z,NC,C,PO,PE,P,M.
func (c *CPU) condTrue(code uint8) bool {
	switch code {
	case 0:
		return !flagSet(c.F, FlagZ)
	case 1:
		return flagSet(c.F, FlagZ)
	case 2:
		return !flagSet(c.F, FlagC)
	case 3:
		return flagSet(c.F, FlagC)
	case 4:
		return !flagSet(c.F, FlagPV)
	case 5:
		return flagSet(c.F, FlagPV)
	case 6:
		return !flagSet(c.F, FlagS)
	default:
		return flagSet(c.F, FlagS)
	}
}
