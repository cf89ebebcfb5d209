package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/z80core/z80/bus"
	"github.com/z80core/z80/cpu"
	"github.com/z80core/z80/disasm"
)

func TestBeforeWritesDisassembledLine(t *testing.T) {
	b := bus.NewFlat()
	b.Load(0x0000, []byte{0x00}) // NOP
	var buf bytes.Buffer
	tr := New(disasm.New(b), &buf)

	tr.Before(0x0000)

	if !strings.Contains(buf.String(), "NOP") {
		t.Errorf("output = %q, want it to contain NOP", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\r\n") {
		t.Errorf("output %q does not end in CRLF", buf.String())
	}
}

func TestBeforeFallsBackOnBusFault(t *testing.T) {
	b := bus.NewFlat()
	b.FailMemRead(0x0000)
	var buf bytes.Buffer
	tr := New(disasm.New(b), &buf)

	tr.Before(0x0000)

	if !strings.Contains(buf.String(), "???") {
		t.Errorf("output = %q, want a placeholder line on bus fault", buf.String())
	}
}

func TestAfterWritesFullRegisterDump(t *testing.T) {
	var buf bytes.Buffer
	tr := New(disasm.New(bus.NewFlat()), &buf)

	s := cpu.Snapshot{
		A: 0x99, F: 0xC1, A_: 0x77, F_: 0x44, PC: 0x1234, SP: 0xFF00, IX: 0x2000, IY: 0x3000,
		I: 0x01, R: 0x02, IFF1: true, IFF2: false, IM: cpu.IM1, Cycles: 42,
	}
	tr.After(s)

	out := buf.String()
	for _, want := range []string{"PC=1234", "SP=FF00", "IX=2000", "IY=3000", "A=99", "A'=77", "F'=44", "cycles=42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestMarkerAppendsCRLF(t *testing.T) {
	var buf bytes.Buffer
	tr := New(disasm.New(bus.NewFlat()), &buf)

	tr.Marker("*** RESET! ***")

	if buf.String() != "*** RESET! ***\r\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFlagStringRendersSetAndClearBits(t *testing.T) {
	tests := []struct {
		f    uint8
		want string
	}{
		{0x00, "------"},
		{0xFF, "SZHPNC"},
		{0x80, "S-----"},
		{0x41, "-Z---C"},
	}
	for _, tc := range tests {
		if got := flagString(tc.f); got != tc.want {
			t.Errorf("flagString(%.2X) = %q, want %q", tc.f, got, tc.want)
		}
	}
}
