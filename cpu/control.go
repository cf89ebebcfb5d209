package cpu

// Jump/call/return primitives shared by the base page. Displacement and
// target bytes are always fetched regardless of whether the branch is
// taken, matching real Z80 bus behavior.

func (c *CPU) jr(taken bool) error {
	d, err := c.fetch8()
	if err != nil {
		return err
	}
	if taken {
		c.PC = uint16(int32(c.PC) + int32(int8(d)))
		c.cycles += 12
	} else {
		c.cycles += 7
	}
	return nil
}

func (c *CPU) djnz() error {
	d, err := c.fetch8()
	if err != nil {
		return err
	}
	c.B--
	if c.B != 0 {
		c.PC = uint16(int32(c.PC) + int32(int8(d)))
		c.cycles += 13
	} else {
		c.cycles += 8
	}
	return nil
}

func (c *CPU) jpCC(cc uint8) error {
	nn, err := c.fetch16()
	if err != nil {
		return err
	}
	if c.condTrue(cc) {
		c.PC = nn
	}
	c.cycles += 10
	return nil
}

func (c *CPU) callCC(cc uint8) error {
	nn, err := c.fetch16()
	if err != nil {
		return err
	}
	if c.condTrue(cc) {
		if err := c.push(c.PC); err != nil {
			return err
		}
		c.PC = nn
		c.cycles += 17
	} else {
		c.cycles += 10
	}
	return nil
}

func (c *CPU) retCC(cc uint8) error {
	if !c.condTrue(cc) {
		c.cycles += 5
		return nil
	}
	addr, err := c.pop()
	if err != nil {
		return err
	}
	c.PC = addr
	c.cycles += 11
	return nil
}

func (c *CPU) ret() error {
	addr, err := c.pop()
	if err != nil {
		return err
	}
	c.PC = addr
	c.cycles += 10
	return nil
}

func (c *CPU) rst(addr uint16) error {
	if err := c.push(c.PC); err != nil {
		return err
	}
	c.PC = addr
	c.cycles += 11
	return nil
}
