package cpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCpu(f *testing.F) {
	for family := range 0x10 {
		f.Add(uint16(family<<12), uint16(0x300), false, uint8(0))
		f.Add(uint16(family<<12|0x0FFF), uint16(0xFFF), true, uint8(0xFF))
	}
	f.Add(uint16(0xF165), uint16(0xFFE), false, uint8(0))
	f.Add(uint16(0x00EE), uint16(0), false, uint8(0))

	f.Fuzz(func(t *testing.T, opcode uint16, index uint16, stack bool, keys uint8) {
		assert := assert.New(t)

		code := Code(opcode)

		cpu := newLoadedCpu(t, code)
		cpu.Random = &sequence{0x5A}
		cpu.I = index & 0xFFF
		for n := range cpu.Register {
			cpu.Register[n] = uint8(0x11 * n)
		}
		if stack {
			cpu.Stack.Push(0x234)
		}
		for n := range 8 {
			cpu.Keypad.Set(n*2, keys&(1<<n) != 0)
		}

		pre := *cpu
		err := cpu.Tick()

		code_str := fmt.Sprintf("0x%04x (%v)\ncpu:%v", opcode, code, cpu.String())

		if err != nil {
			assert.ErrorIs(err, ErrOpcode(0), code_str)
			switch {
			case errors.Is(err, ErrStackEmpty):
				assert.Equal(OP_RET, code.Op(), code_str)
				assert.False(stack, code_str)
			case errors.Is(err, ErrStackFull):
				assert.Fail("stack cannot be full", code_str)
			case errors.Is(err, ErrAddress(0)):
				switch code.Op() {
				case OP_DRW, OP_ADD_I, OP_LD_B, OP_LD_MEM_VX, OP_LD_VX_MEM:
					// expected error
				default:
					assert.NoError(err, code_str)
				}
				// Faults change nothing but the program counter.
				assert.Equal(pre.Register, cpu.Register, code_str)
				assert.Equal(pre.Memory, cpu.Memory, code_str)
				assert.Equal(pre.I, cpu.I, code_str)
			default:
				assert.NoError(err, code_str)
			}
			assert.Equal(0, cpu.Ticks, code_str)
			return
		}

		assert.Equal(1, cpu.Ticks, code_str)
		assert.Equal(code, cpu.Code, code_str)

		x, y := code.X(), code.Y()
		next := pre.Pc + 2

		switch code.Op() {
		case OP_JP:
			next = code.NNN()
		case OP_CALL:
			next = code.NNN()
			top, err := cpu.Stack.Peek()
			assert.NoError(err, code_str)
			assert.Equal(pre.Pc+2, top, code_str)
		case OP_RET:
			next = 0x234
		case OP_JP_V0:
			next = code.NNN() + uint16(pre.Register[0])
		case OP_SE_IMM:
			if pre.Register[x] == code.NN() {
				next += 2
			}
		case OP_SNE_IMM:
			if pre.Register[x] != code.NN() {
				next += 2
			}
		case OP_SE_REG:
			if pre.Register[x] == pre.Register[y] {
				next += 2
			}
		case OP_SNE_REG:
			if pre.Register[x] != pre.Register[y] {
				next += 2
			}
		case OP_SKP:
			if pre.Keypad.Pressed(int(pre.Register[x] & 0xF)) {
				next += 2
			}
		case OP_SKNP:
			if !pre.Keypad.Pressed(int(pre.Register[x] & 0xF)) {
				next += 2
			}
		case OP_LD_VX_K:
			key, ok := pre.Keypad.First()
			if ok {
				assert.Equal(uint8(key), cpu.Register[x], code_str)
			} else {
				next = pre.Pc
				assert.Equal(pre.Register, cpu.Register, code_str)
			}
		case OP_LD_IMM:
			assert.Equal(code.NN(), cpu.Register[x], code_str)
		case OP_ADD_IMM:
			assert.Equal(pre.Register[x]+code.NN(), cpu.Register[x], code_str)
		case OP_LD_I:
			assert.Equal(code.NNN(), cpu.I, code_str)
		case OP_ADD_I:
			assert.Equal(pre.I+uint16(pre.Register[x]), cpu.I, code_str)
		case OP_LD_F:
			assert.Equal(uint16(FONT_START+FONT_GLYPH_SIZE*int(pre.Register[x]&0xF)), cpu.I, code_str)
		case OP_RND:
			assert.Equal(0x5A&code.NN(), cpu.Register[x], code_str)
		case OP_LD_B:
			vx := pre.Register[x]
			assert.Equal([]byte{vx / 100, vx / 10 % 10, vx % 10}, cpu.Memory[pre.I:pre.I+3], code_str)
		case OP_LD_MEM_VX:
			assert.Equal(pre.Register[:x+1], cpu.Memory[pre.I:int(pre.I)+x+1], code_str)
			assert.Equal(pre.I+uint16(x+1), cpu.I, code_str)
		case OP_LD_VX_MEM:
			assert.Equal(pre.Memory[pre.I:int(pre.I)+x+1], cpu.Register[:x+1], code_str)
			assert.Equal(pre.I+uint16(x+1), cpu.I, code_str)
		case OP_DRW:
			vf := cpu.Register[0xF]
			assert.True(vf == 0 || vf == 1, code_str)
			assert.True(cpu.Display.Dirty, code_str)
		case OP_LD_DT_VX:
			assert.Equal(max(pre.Register[x], 1)-1, cpu.DelayTimer, code_str)
		case OP_LD_ST_VX:
			assert.Equal(max(pre.Register[x], 1)-1, cpu.SoundTimer, code_str)
		case OP_NULL:
			assert.Equal(pre.Register, cpu.Register, code_str)
			assert.Equal(pre.I, cpu.I, code_str)
		}

		assert.Equal(next, cpu.Pc, code_str)
	})
}
