package disasm

import (
	"strings"
	"testing"

	"github.com/z80core/z80/bus"
)

func TestDisassembleAtBasePage(t *testing.T) {
	tests := []struct {
		name string
		prog []byte
		want string
	}{
		{"NOP", []byte{0x00}, "NOP"},
		{"LD BC,nn", []byte{0x01, 0x34, 0x12}, "LD BC,1234h"},
		{"LD r,r'", []byte{0x78}, "LD A,B"},
		{"ALU A,(HL)", []byte{0x86}, "ADD A,(HL)"},
		{"HALT", []byte{0x76}, "HALT"},
		{"JR taken-style target", []byte{0x18, 0x05}, "JR +5 (→ 0007h)"},
		{"JR negative displacement", []byte{0x18, 0xFE}, "JR -2 (→ 0000h)"},
		{"DJNZ", []byte{0x10, 0x00}, "DJNZ +0 (→ 0002h)"},
		{"RST", []byte{0xFF}, "RST 38h"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := bus.NewFlat()
			b.Load(0x0000, tc.prog)
			d := New(b)
			line, _, err := d.DisassembleAt(0x0000)
			if err != nil {
				t.Fatalf("DisassembleAt: unexpected error: %v", err)
			}
			if !strings.Contains(line, tc.want) {
				t.Errorf("line = %q, want it to contain %q", line, tc.want)
			}
		})
	}
}

func TestDisassembleAtCBPage(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{0xCB, 0x00}) // RLC B
	d := New(b)
	line, next, err := d.DisassembleAt(0x0000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(line, "RLC B") {
		t.Errorf("line = %q, want RLC B", line)
	}
	if next != 0x0002 {
		t.Errorf("next = %.4X, want 0002", next)
	}
}

func TestDisassembleAtEDPage(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{0xED, 0xB0}) // LDIR
	d := New(b)
	line, _, err := d.DisassembleAt(0x0000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(line, "LDIR") {
		t.Errorf("line = %q, want LDIR", line)
	}
}

func TestDisassembleAtIndexedPage(t *testing.T) {
	tests := []struct {
		name string
		prog []byte
		want string
	}{
		{"LD A,(IX+d)", []byte{0xDD, 0x7E, 0x05}, "LD A,(IX+5)"},
		{"LD IYH,n falls through to IYH mnemonic", []byte{0xFD, 0x26, 0x42}, "LD IYH,#42h"},
		{"unaffected opcode falls through to base", []byte{0xDD, 0x00}, "NOP"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := bus.NewFlat()
			b.Load(0x0000, tc.prog)
			d := New(b)
			line, _, err := d.DisassembleAt(0x0000)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(line, tc.want) {
				t.Errorf("line = %q, want it to contain %q", line, tc.want)
			}
		})
	}
}

func TestDisassembleAtIndexedCBPage(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{0xDD, 0xCB, 0x02, 0x1E}) // RR (IX+2)
	d := New(b)
	line, next, err := d.DisassembleAt(0x0000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(line, "RR (IX+2)") {
		t.Errorf("line = %q, want RR (IX+2)", line)
	}
	if next != 0x0004 {
		t.Errorf("next = %.4X, want 0004", next)
	}
}

func TestDisassembleManyAdvancesPastVariableLengthInstructions(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{
		0x00,             // NOP (1 byte)
		0x3E, 0x42,       // LD A,42h (2 bytes)
		0xCD, 0x00, 0x10, // CALL 1000h (3 bytes)
	})
	d := New(b)
	lines, err := d.DisassembleMany(0x0000, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[1], "0001") {
		t.Errorf("second line addr = %q, want prefix 0001", lines[1])
	}
	if !strings.HasPrefix(lines[2], "0003") {
		t.Errorf("third line addr = %q, want prefix 0003", lines[2])
	}
}

func TestDisassembleRangeCoversTrailingPartialInstruction(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{0x00, 0x01, 0x00, 0x00}) // NOP; LD BC,0000h
	d := New(b)
	lines, err := d.DisassembleRange(0x0000, 0x0001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (the instruction starting at 0001 extends past 'to')", len(lines))
	}
}

func TestInvalidOpcodePolicyRenderPlaceholder(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{0xED, 0x00}) // no defined ED-page behavior
	d := New(b)
	line, _, err := d.DisassembleAt(0x0000)
	if err != nil {
		t.Fatalf("default policy should not error: %v", err)
	}
	if !strings.Contains(line, "?!?") {
		t.Errorf("line = %q, want placeholder ?!?", line)
	}
}

func TestInvalidOpcodePolicyRaiseError(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{0xED, 0x00})
	d := New(b)
	d.SetPolicy(RaiseError)
	if _, _, err := d.DisassembleAt(0x0000); err == nil {
		t.Fatal("expected UnknownOpcodeError under RaiseError policy")
	} else if _, ok := err.(UnknownOpcodeError); !ok {
		t.Errorf("error type = %T, want UnknownOpcodeError", err)
	}
}

func TestFormatLinePadsByteColumnToFixedWidth(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{0x00})
	d := New(b)
	line, _, err := d.DisassembleAt(0x0000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		t.Fatalf("line %q does not have 3 colon-separated fields", line)
	}
	// One space, the 24-column byte field, one space.
	if got := len(parts[1]); got != 26 {
		t.Errorf("byte column %q is %d wide, want 26 (24 plus separating spaces)", parts[1], got)
	}
	if !strings.HasSuffix(line, "\r\n") {
		t.Errorf("line %q does not end in CRLF", line)
	}
}
