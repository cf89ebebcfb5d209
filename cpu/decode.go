package cpu

// Step executes the interrupt/RESET state machine followed by
// at most one instruction fetch/execute, and returns the T-states consumed.
func (c *CPU) Step() (uint64, error) {
	before := c.cycles

	if c.resetLine {
		return 0, nil
	}

	if serviced, delta, err := c.serviceInterrupts(); serviced || err != nil {
		c.cycles += delta
		return delta, err
	}

	if c.halted {
		c.cycles += nopCycle
		return nopCycle, nil
	}

	if c.trace != nil {
		c.trace.Before(c.PC)
	}

	if err := c.execOne(); err != nil {
		return c.cycles - before, err
	}

	if c.trace != nil {
		c.trace.After(c.Snapshot())
	}

	return c.cycles - before, nil
}

// Run steps the CPU until the accumulated delta reaches or exceeds n,
// returning the total consumed. The final instruction always completes,
// so the result may exceed n. If the CPU is held in RESET for the whole
// call, Run returns 0 immediately.
func (c *CPU) Run(n uint64) (uint64, error) {
	var total uint64
	for total < n {
		if c.resetLine {
			return total, nil
		}
		delta, err := c.Step()
		total += delta
		if err != nil {
			return total, err
		}
		if delta == 0 {
			// Shouldn't happen once resetLine is false, but guards against
			// an infinite loop if it ever does.
			break
		}
	}
	return total, nil
}

// execOne fetches one opcode byte (charging the M1 fetch cost and
// bumping R) and dispatches it through the appropriate decode page.
func (c *CPU) execOne() error {
	pc := c.PC
	op, err := c.fetch8()
	if err != nil {
		return err
	}
	c.bumpR(1)

	switch op {
	case 0xCB:
		return c.execCB(pc)
	case 0xED:
		return c.execED(pc)
	case 0xDD:
		return c.execIndexed(pc, &ixAccess)
	case 0xFD:
		return c.execIndexed(pc, &iyAccess)
	default:
		return c.execBase(pc, op)
	}
}

// unknownOpcode applies the invalid-opcode policy.
func (c *CPU) unknownOpcode(addr uint16, b uint8, page string) error {
	if c.invalidOpcodePolicy == NopSilently {
		c.cycles += nopCycle
		return nil
	}
	return UnknownOpcodeError{Addr: addr, Byte: b, Page: page}
}
