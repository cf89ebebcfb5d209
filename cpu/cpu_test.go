package cpu

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/z80core/z80/bus"
)

func newHarness() (*CPU, *bus.Flat) {
	b := bus.NewFlat()
	return New(b), b
}

func TestResetThenThreeNOPs(t *testing.T) {
	c, b := newHarness()
	b.Load(0x0000, []byte{0x00, 0x00, 0x00})

	var total uint64
	for i := 0; i < 3; i++ {
		delta, err := c.Step()
		if err != nil {
			t.Fatalf("Step() %d: unexpected error: %v", i, err)
		}
		total += delta
	}

	if got, want := c.PC, uint16(3); got != want {
		t.Errorf("PC = %.4X, want %.4X", got, want)
	}
	if total != 12 {
		t.Errorf("cycles = %d, want 12", total)
	}
}

func TestLoadImmediateThenHalt(t *testing.T) {
	c, b := newHarness()
	b.Load(0x0000, []byte{0x3E, 0x42, 0x76}) // LD A,42h; HALT

	if _, err := c.Step(); err != nil {
		t.Fatalf("LD A,n: unexpected error: %v", err)
	}
	if c.A != 0x42 {
		t.Fatalf("A = %.2X, want 42", c.A)
	}
	if _, err := c.Step(); err != nil {
		t.Fatalf("HALT: unexpected error: %v", err)
	}
	if !c.Halted() {
		t.Fatal("CPU did not halt")
	}

	before := c.PC
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step() while halted: unexpected error: %v", err)
	}
	if c.PC != before {
		t.Errorf("PC advanced while halted: %.4X -> %.4X", before, c.PC)
	}
}

func TestAddCarry(t *testing.T) {
	c, b := newHarness()
	// LD A,FFh; LD B,01h; ADD A,B
	b.Load(0x0000, []byte{0x3E, 0xFF, 0x06, 0x01, 0x80})

	for i := 0; i < 3; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatalf("Step() %d: unexpected error: %v", i, err)
		}
	}

	if c.A != 0x00 {
		t.Errorf("A = %.2X, want 00", c.A)
	}
	if !flagSet(c.F, FlagC) {
		t.Error("carry flag not set")
	}
	if !flagSet(c.F, FlagZ) {
		t.Error("zero flag not set")
	}
}

func Test16BitLoadRoundTrip(t *testing.T) {
	c, b := newHarness()
	// LD HL,1234h; LD (8000h),HL; LD HL,0000h; LD HL,(8000h)
	b.Load(0x0000, []byte{
		0x21, 0x34, 0x12,
		0x22, 0x00, 0x80,
		0x21, 0x00, 0x00,
		0x2A, 0x00, 0x80,
	})
	for i := 0; i < 4; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatalf("Step() %d: unexpected error: %v", i, err)
		}
	}
	if got, want := c.HL(), uint16(0x1234); got != want {
		t.Errorf("HL = %.4X, want %.4X\n%s", got, want, spew.Sdump(c.Snapshot()))
	}
}

func TestLDIRBlockCopy(t *testing.T) {
	c, b := newHarness()
	src := []byte{0xAA, 0xBB, 0xCC}
	b.Load(0x1000, src)
	// LD HL,1000h; LD DE,2000h; LD BC,0003h; LDIR
	b.Load(0x0000, []byte{
		0x21, 0x00, 0x10,
		0x11, 0x00, 0x20,
		0x01, 0x03, 0x00,
		0xED, 0xB0,
	})
	// Three loads, then three LDIR steps: each Step runs one iteration.
	for i := 0; i < 6; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatalf("Step() %d: unexpected error: %v", i, err)
		}
	}
	for i, want := range src {
		got, err := b.MemRead(0x2000 + uint16(i))
		if err != nil {
			t.Fatalf("MemRead: unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("dest[%d] = %.2X, want %.2X", i, got, want)
		}
	}
	if c.BC() != 0 {
		t.Errorf("BC = %.4X, want 0000 after LDIR completes", c.BC())
	}
}

func TestIM1InterruptAcknowledge(t *testing.T) {
	c, b := newHarness()
	b.Load(0x0000, []byte{0xFB, 0x00}) // EI; NOP
	b.Load(0x0038, []byte{0x3E, 0x99}) // LD A,99h (IM1 handler)

	if _, err := c.Step(); err != nil { // EI
		t.Fatalf("EI: unexpected error: %v", err)
	}
	c.SetIMMode(IM1)
	c.SetIntLine(true)

	if _, err := c.Step(); err != nil { // IRQ serviced before the NOP is fetched
		t.Fatalf("Step() after EI: unexpected error: %v", err)
	}
	if got, want := c.PC, uint16(0x0038); got != want {
		t.Fatalf("PC = %.4X, want %.4X\n%s", got, want, spew.Sdump(c.Snapshot()))
	}
	if c.IFF1 {
		t.Error("IFF1 should be cleared on IRQ acknowledge")
	}

	c.SetIntLine(false)
	if _, err := c.Step(); err != nil {
		t.Fatalf("LD A,n in handler: unexpected error: %v", err)
	}
	if c.A != 0x99 {
		t.Errorf("A = %.2X, want 99", c.A)
	}
}

func TestNMIPreservesIFF1ViaIFF2(t *testing.T) {
	c, b := newHarness()
	b.Load(0x0000, []byte{0xFB, 0x00})     // EI; NOP
	b.Load(0x0066, []byte{0xED, 0x45})     // RETN (NMI vector)

	if _, err := c.Step(); err != nil { // EI
		t.Fatalf("EI: unexpected error: %v", err)
	}
	if !c.IFF1 || !c.IFF2 {
		t.Fatal("EI should set both IFF1 and IFF2")
	}

	c.TriggerNMI()
	if _, err := c.Step(); err != nil { // NMI serviced before the NOP is fetched
		t.Fatalf("Step() with pending NMI: unexpected error: %v", err)
	}
	if got, want := c.PC, uint16(0x0066); got != want {
		t.Fatalf("PC = %.4X, want %.4X\n%s", got, want, spew.Sdump(c.Snapshot()))
	}
	if c.IFF1 {
		t.Error("IFF1 should be cleared on NMI entry")
	}
	if !c.IFF2 {
		t.Error("IFF2 should retain the pre-NMI IFF1 value")
	}

	if _, err := c.Step(); err != nil { // RETN
		t.Fatalf("RETN: unexpected error: %v", err)
	}
	if !c.IFF1 {
		t.Error("RETN should restore IFF1 from IFF2")
	}
	if got, want := c.PC, uint16(0x0001); got != want {
		t.Errorf("PC after RETN = %.4X, want %.4X", got, want)
	}
}

func TestFlagHelpers(t *testing.T) {
	tests := []struct {
		name string
		f    uint8
		mask uint8
		want bool
	}{
		{"zero set", FlagZ, FlagZ, true},
		{"carry unset", 0, FlagC, false},
		{"both bits of composite mask", FlagZ | FlagC, FlagZ | FlagC, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := flagSet(tc.f, tc.mask); got != tc.want {
				t.Errorf("flagSet(%.2X,%.2X) = %v, want %v", tc.f, tc.mask, got, tc.want)
			}
		})
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	c, _ := newHarness()
	c.SP = 0xFF00
	values := []uint16{0x1234, 0xFFFF, 0x0000, 0xABCD}
	for _, v := range values {
		if err := c.push(v); err != nil {
			t.Fatalf("push(%.4X): unexpected error: %v", v, err)
		}
	}
	for i := len(values) - 1; i >= 0; i-- {
		got, err := c.pop()
		if err != nil {
			t.Fatalf("pop(): unexpected error: %v", err)
		}
		if got != values[i] {
			t.Errorf("pop() = %.4X, want %.4X", got, values[i])
		}
	}
	if c.SP != 0xFF00 {
		t.Errorf("SP = %.4X after balanced push/pop, want FF00", c.SP)
	}
}

func TestInvalidOpcodePolicy(t *testing.T) {
	// 0xED 0x00 has no defined ED-page behavior.
	c, b := newHarness()
	b.Load(0x0000, []byte{0xED, 0x00})

	if _, err := c.Step(); err == nil {
		t.Fatal("expected UnknownOpcodeError under RaiseError policy")
	} else if _, ok := err.(UnknownOpcodeError); !ok {
		t.Errorf("error type = %T, want UnknownOpcodeError", err)
	}

	c2, b2 := newHarness()
	c2.SetInvalidOpcodePolicy(NopSilently)
	b2.Load(0x0000, []byte{0xED, 0x00})
	if _, err := c2.Step(); err != nil {
		t.Fatalf("NopSilently: unexpected error: %v", err)
	}
}

func TestDAARoundTripsBCDAddition(t *testing.T) {
	// 0x15 + 0x27 in BCD should read as 0x42 after DAA.
	c, b := newHarness()
	b.Load(0x0000, []byte{0x3E, 0x15, 0x06, 0x27, 0x80, 0x27}) // LD A,15h; LD B,27h; ADD A,B; DAA
	for i := 0; i < 4; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatalf("Step() %d: unexpected error: %v", i, err)
		}
	}
	if c.A != 0x42 {
		t.Errorf("A = %.2X after DAA, want 42\n%s", c.A, spew.Sdump(c.Snapshot()))
	}
}

func TestBusFaultSurfaces(t *testing.T) {
	c, b := newHarness()
	b.FailMemRead(0x0000)
	if _, err := c.Step(); err == nil {
		t.Fatal("expected bus fault to surface from Step()")
	}
}

func TestIXIYIndexedAddressing(t *testing.T) {
	c, b := newHarness()
	b.Load(0x2000, []byte{0x55})
	// LD IX,2000h; LD A,(IX+0)
	b.Load(0x0000, []byte{0xDD, 0x21, 0x00, 0x20, 0xDD, 0x7E, 0x00})
	for i := 0; i < 2; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatalf("Step() %d: unexpected error: %v", i, err)
		}
	}
	if c.IX != 0x2000 {
		t.Fatalf("IX = %.4X, want 2000", c.IX)
	}
	if c.A != 0x55 {
		t.Errorf("A = %.2X, want 55 via (IX+0)\n%s", c.A, spew.Sdump(c.Snapshot()))
	}
}
