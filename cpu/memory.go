package cpu

const (
	MEMORY_SIZE     = 4096                        // Addressable bytes.
	PROGRAM_START   = 0x200                       // Load origin of programs.
	PROGRAM_LIMIT   = MEMORY_SIZE - PROGRAM_START // Largest loadable program.
	FONT_START      = 0x050                       // Location of the hex font.
	FONT_GLYPH_SIZE = 5                           // Bytes per font glyph.
)

// Hex digit glyphs 0-F, 4x5 pixels each.
var Font = [16 * FONT_GLYPH_SIZE]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the flat 4K address space. Nothing is write protected.
type Memory [MEMORY_SIZE]byte

// check verifies that [addr, addr+n) lies within memory.
func (mem *Memory) check(addr int, n int) (err error) {
	if addr < 0 {
		return ErrAddress(addr)
	}
	if n > 0 && addr+n > len(mem) {
		return ErrAddress(addr + n - 1)
	}
	if n == 0 && addr > len(mem) {
		return ErrAddress(addr)
	}
	return
}

// Byte reads a single byte.
func (mem *Memory) Byte(addr int) (value byte, err error) {
	err = mem.check(addr, 1)
	if err != nil {
		return
	}

	value = mem[addr]
	return
}

// SetByte writes a single byte.
func (mem *Memory) SetByte(addr int, value byte) (err error) {
	err = mem.check(addr, 1)
	if err != nil {
		return
	}

	mem[addr] = value
	return
}

// Word reads a big-endian 16-bit word.
func (mem *Memory) Word(addr int) (value uint16, err error) {
	err = mem.check(addr, 2)
	if err != nil {
		return
	}

	value = uint16(mem[addr])<<8 | uint16(mem[addr+1])
	return
}

// Read returns a view of n bytes starting at addr.
func (mem *Memory) Read(addr int, n int) (data []byte, err error) {
	err = mem.check(addr, n)
	if err != nil {
		return
	}

	data = mem[addr : addr+n]
	return
}

// Write copies data into memory at addr. Nothing is written if any
// part of the range is out of bounds.
func (mem *Memory) Write(addr int, data []byte) (err error) {
	err = mem.check(addr, len(data))
	if err != nil {
		return
	}

	copy(mem[addr:], data)
	return
}

// Reset zeros memory and installs the font.
func (mem *Memory) Reset() {
	clear(mem[:])
	copy(mem[FONT_START:], Font[:])
}
