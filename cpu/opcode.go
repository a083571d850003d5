package cpu

import (
	"fmt"
	"iter"
)

// Code is a single 16-bit instruction word.
type Code uint16

// Op identifies the instruction a Code decodes to.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_NULL      = Op(iota) // ----
	OP_CLS                  // 00E0
	OP_RET                  // 00EE
	OP_JP                   // 1NNN
	OP_CALL                 // 2NNN
	OP_SE_IMM               // 3XNN
	OP_SNE_IMM              // 4XNN
	OP_SE_REG               // 5XY0
	OP_LD_IMM               // 6XNN
	OP_ADD_IMM              // 7XNN
	OP_LD_REG               // 8XY0
	OP_OR                   // 8XY1
	OP_AND                  // 8XY2
	OP_XOR                  // 8XY3
	OP_ADD_REG              // 8XY4
	OP_SUB                  // 8XY5
	OP_SHR                  // 8XY6
	OP_SUBN                 // 8XY7
	OP_SHL                  // 8XYE
	OP_SNE_REG              // 9XY0
	OP_LD_I                 // ANNN
	OP_JP_V0                // BNNN
	OP_RND                  // CXNN
	OP_DRW                  // DXYN
	OP_SKP                  // EX9E
	OP_SKNP                 // EXA1
	OP_LD_VX_DT             // FX07
	OP_LD_VX_K              // FX0A
	OP_LD_DT_VX             // FX15
	OP_LD_ST_VX             // FX18
	OP_ADD_I                // FX1E
	OP_LD_F                 // FX29
	OP_LD_B                 // FX33
	OP_LD_MEM_VX            // FX55
	OP_LD_VX_MEM            // FX65
)

// Family returns bits 15-12, the primary dispatch index.
func (code Code) Family() int {
	return int(code>>12) & 0xf
}

// X returns bits 11-8, a register index.
func (code Code) X() int {
	return int(code>>8) & 0xf
}

// Y returns bits 7-4, a register index.
func (code Code) Y() int {
	return int(code>>4) & 0xf
}

// N returns bits 3-0.
func (code Code) N() int {
	return int(code) & 0xf
}

// NN returns the low byte.
func (code Code) NN() byte {
	return byte(code)
}

// NNN returns the low 12 bits, an address.
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// Op returns the instruction the code dispatches to.
func (code Code) Op() Op {
	return decode(code).op
}

// canonical is false for codes that decode to an instruction but are not
// that instruction's encoding, such as 0x0120 running as CLS.
func (code Code) canonical() bool {
	switch code.Op() {
	case OP_CLS:
		return code == 0x00E0
	case OP_RET:
		return code == 0x00EE
	case OP_SE_REG, OP_SNE_REG:
		return code.N() == 0
	case OP_SKP:
		return code.NN() == 0x9E
	case OP_SKNP:
		return code.NN() == 0xA1
	}
	return true
}

// String returns the assembly language representation of this instruction.
// Codes without a mnemonic of their own print as "sys" or "dw", so the
// text always assembles back to the same word.
func (code Code) String() string {
	x, y := code.X(), code.Y()

	op := code.Op()
	if !code.canonical() {
		op = OP_NULL
	}

	switch op {
	case OP_CLS:
		return "cls"
	case OP_RET:
		return "ret"
	case OP_JP:
		return fmt.Sprintf("jp $%03X", code.NNN())
	case OP_CALL:
		return fmt.Sprintf("call $%03X", code.NNN())
	case OP_SE_IMM:
		return fmt.Sprintf("se v%x, $%02X", x, code.NN())
	case OP_SNE_IMM:
		return fmt.Sprintf("sne v%x, $%02X", x, code.NN())
	case OP_SE_REG:
		return fmt.Sprintf("se v%x, v%x", x, y)
	case OP_LD_IMM:
		return fmt.Sprintf("ld v%x, $%02X", x, code.NN())
	case OP_ADD_IMM:
		return fmt.Sprintf("add v%x, $%02X", x, code.NN())
	case OP_LD_REG:
		return fmt.Sprintf("ld v%x, v%x", x, y)
	case OP_OR:
		return fmt.Sprintf("or v%x, v%x", x, y)
	case OP_AND:
		return fmt.Sprintf("and v%x, v%x", x, y)
	case OP_XOR:
		return fmt.Sprintf("xor v%x, v%x", x, y)
	case OP_ADD_REG:
		return fmt.Sprintf("add v%x, v%x", x, y)
	case OP_SUB:
		return fmt.Sprintf("sub v%x, v%x", x, y)
	case OP_SHR:
		return fmt.Sprintf("shr v%x, v%x", x, y)
	case OP_SUBN:
		return fmt.Sprintf("subn v%x, v%x", x, y)
	case OP_SHL:
		return fmt.Sprintf("shl v%x, v%x", x, y)
	case OP_SNE_REG:
		return fmt.Sprintf("sne v%x, v%x", x, y)
	case OP_LD_I:
		return fmt.Sprintf("ld i, $%03X", code.NNN())
	case OP_JP_V0:
		return fmt.Sprintf("jp v0, $%03X", code.NNN())
	case OP_RND:
		return fmt.Sprintf("rnd v%x, $%02X", x, code.NN())
	case OP_DRW:
		return fmt.Sprintf("drw v%x, v%x, %d", x, y, code.N())
	case OP_SKP:
		return fmt.Sprintf("skp v%x", x)
	case OP_SKNP:
		return fmt.Sprintf("sknp v%x", x)
	case OP_LD_VX_DT:
		return fmt.Sprintf("ld v%x, dt", x)
	case OP_LD_VX_K:
		return fmt.Sprintf("ld v%x, k", x)
	case OP_LD_DT_VX:
		return fmt.Sprintf("ld dt, v%x", x)
	case OP_LD_ST_VX:
		return fmt.Sprintf("ld st, v%x", x)
	case OP_ADD_I:
		return fmt.Sprintf("add i, v%x", x)
	case OP_LD_F:
		return fmt.Sprintf("ld f, v%x", x)
	case OP_LD_B:
		return fmt.Sprintf("ld b, v%x", x)
	case OP_LD_MEM_VX:
		return fmt.Sprintf("ld [i], v%x", x)
	case OP_LD_VX_MEM:
		return fmt.Sprintf("ld v%x, [i]", x)
	}

	if code.Family() == 0 {
		return fmt.Sprintf("sys $%03X", code.NNN())
	}

	return fmt.Sprintf("dw $%04X", uint16(code))
}

// Disassemble iterates over the instruction words of rom, as if it
// were loaded at base. A trailing odd byte is returned in the high half
// of a final word.
func Disassemble(base uint16, rom []byte) iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for n := 0; n < len(rom); n += 2 {
			word := uint16(rom[n]) << 8
			if n+1 < len(rom) {
				word |= uint16(rom[n+1])
			}
			if !yield(base+uint16(n), Code(word)) {
				return
			}
		}
	}
}
