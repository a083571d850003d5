package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and generated bytes.
type Opcode struct {
	LineNo    int
	Address   int
	Words     []string
	Data      []byte
	LinkLabel string
}

// Program is an assembled program, ready to be loaded at PROGRAM_START.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Offset int
}

// Debug finds the opcode that generated the byte at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Address && int(addr) < op.Address+len(op.Data) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Offset: int(addr) - op.Address,
			}
			break
		}
	}

	return
}

// LineNo returns the source line that generated addr, or 0.
func (prog *Program) LineNo(addr uint16) int {
	dbg := prog.Debug(addr)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// Binary returns the ROM image of the program.
func (prog *Program) Binary() (rom []byte) {
	for _, op := range prog.Opcodes {
		rom = append(rom, op.Data...)
	}

	return
}

// Codes iterates over the instruction words of every opcode.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			for addr, code := range Disassemble(uint16(op.Address), op.Data) {
				if !yield(addr, code) {
					return
				}
			}
		}
	}
}
