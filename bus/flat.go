package bus

// Flat is a reference Bus implementation backed by a flat 64KiB memory
// image and a 256-byte port space. Bus implementations live outside the
// CPU core itself; Flat exists so tests and the CLI tools have something
// concrete to drive the CPU and disassembler with.
type Flat struct {
	mem   [1 << 16]uint8
	ports [1 << 8]uint8

	// Optional fault injection, used to exercise the CPU's fault paths.
	failMemRead  map[uint16]bool
	failMemWrite map[uint16]bool
	failPortIn   map[uint8]bool
	failPortOut  map[uint8]bool
}

// NewFlat returns a zeroed Flat bus.
func NewFlat() *Flat {
	return &Flat{}
}

// Load copies b into memory starting at addr, wrapping at 64KiB.
func (f *Flat) Load(addr uint16, b []byte) {
	for i, v := range b {
		f.mem[addr+uint16(i)] = v
	}
}

// MemRead implements Bus.
func (f *Flat) MemRead(addr uint16) (uint8, error) {
	if f.failMemRead[addr] {
		return 0, UnreadableMemoryError{Addr: addr}
	}
	return f.mem[addr], nil
}

// MemWrite implements Bus.
func (f *Flat) MemWrite(addr uint16, val uint8) error {
	if f.failMemWrite[addr] {
		return UnwritableMemoryError{Addr: addr, Val: val}
	}
	f.mem[addr] = val
	return nil
}

// PortIn implements Bus.
func (f *Flat) PortIn(port uint8) (uint8, error) {
	if f.failPortIn[port] {
		return 0, UnreadablePortError{Port: port}
	}
	return f.ports[port], nil
}

// PortOut implements Bus.
func (f *Flat) PortOut(port uint8, val uint8) error {
	if f.failPortOut[port] {
		return UnwritablePortError{Port: port, Val: val}
	}
	f.ports[port] = val
	return nil
}

// FailMemRead marks addr as an unreadable memory location.
func (f *Flat) FailMemRead(addr uint16) {
	if f.failMemRead == nil {
		f.failMemRead = make(map[uint16]bool)
	}
	f.failMemRead[addr] = true
}

// FailMemWrite marks addr as an unwritable memory location.
func (f *Flat) FailMemWrite(addr uint16) {
	if f.failMemWrite == nil {
		f.failMemWrite = make(map[uint16]bool)
	}
	f.failMemWrite[addr] = true
}

// FailPortIn marks port as unreadable.
func (f *Flat) FailPortIn(port uint8) {
	if f.failPortIn == nil {
		f.failPortIn = make(map[uint8]bool)
	}
	f.failPortIn[port] = true
}

// FailPortOut marks port as unwritable.
func (f *Flat) FailPortOut(port uint8) {
	if f.failPortOut == nil {
		f.failPortOut = make(map[uint8]bool)
	}
	f.failPortOut[port] = true
}
