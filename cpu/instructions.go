package cpu

import (
	"log"
	"time"
)

// flag converts a condition to the 0/1 value stored in vf.
func flag(cond bool) uint8 {
	if cond {
		return 1
	}
	return 0
}

// skip advances over the next instruction when cond holds.
func (cpu *Cpu) skip(cond bool) {
	if cond {
		cpu.Pc += 2
	}
}

func (cpu *Cpu) opNull(code Code) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: ignored opcode 0x%04x", uint16(code))
	}
	return
}

func (cpu *Cpu) opCls(code Code) (err error) {
	cpu.Display.Clear()
	return
}

func (cpu *Cpu) opRet(code Code) (err error) {
	pc, err := cpu.Stack.Pop()
	if err != nil {
		return
	}
	cpu.Pc = pc
	return
}

func (cpu *Cpu) opJp(code Code) (err error) {
	cpu.Pc = code.NNN()
	return
}

func (cpu *Cpu) opCall(code Code) (err error) {
	err = cpu.Stack.Push(cpu.Pc)
	if err != nil {
		return
	}
	cpu.Pc = code.NNN()
	return
}

func (cpu *Cpu) opSeImm(code Code) (err error) {
	cpu.skip(cpu.Register[code.X()] == code.NN())
	return
}

func (cpu *Cpu) opSneImm(code Code) (err error) {
	cpu.skip(cpu.Register[code.X()] != code.NN())
	return
}

func (cpu *Cpu) opSeReg(code Code) (err error) {
	cpu.skip(cpu.Register[code.X()] == cpu.Register[code.Y()])
	return
}

func (cpu *Cpu) opSneReg(code Code) (err error) {
	cpu.skip(cpu.Register[code.X()] != cpu.Register[code.Y()])
	return
}

func (cpu *Cpu) opLdImm(code Code) (err error) {
	cpu.Register[code.X()] = code.NN()
	return
}

// opAddImm wraps without touching vf.
func (cpu *Cpu) opAddImm(code Code) (err error) {
	cpu.Register[code.X()] += code.NN()
	return
}

func (cpu *Cpu) opLdReg(code Code) (err error) {
	cpu.Register[code.X()] = cpu.Register[code.Y()]
	return
}

func (cpu *Cpu) opOr(code Code) (err error) {
	cpu.Register[code.X()] |= cpu.Register[code.Y()]
	return
}

func (cpu *Cpu) opAnd(code Code) (err error) {
	cpu.Register[code.X()] &= cpu.Register[code.Y()]
	return
}

func (cpu *Cpu) opXor(code Code) (err error) {
	cpu.Register[code.X()] ^= cpu.Register[code.Y()]
	return
}

// The arithmetic and shift instructions read both operands before any
// write. vf is written before vx, except for shr where vx is first, so a
// vf destination holds whichever value is written last.

func (cpu *Cpu) opAddReg(code Code) (err error) {
	vx, vy := cpu.Register[code.X()], cpu.Register[code.Y()]
	sum := uint16(vx) + uint16(vy)
	cpu.Register[0xF] = flag(sum > 0xff)
	cpu.Register[code.X()] = uint8(sum)
	return
}

// opSub sets vf when vx > vy; equal operands clear it.
func (cpu *Cpu) opSub(code Code) (err error) {
	vx, vy := cpu.Register[code.X()], cpu.Register[code.Y()]
	cpu.Register[0xF] = flag(vx > vy)
	cpu.Register[code.X()] = vx - vy
	return
}

// opShr shifts vy, not vx. vf is set when vy was even.
func (cpu *Cpu) opShr(code Code) (err error) {
	vy := cpu.Register[code.Y()]
	cpu.Register[code.X()] = vy / 2
	cpu.Register[0xF] = flag(vy%2 == 0)
	return
}

// opSubn computes vy - vx, with the same vx > vy flag as opSub.
func (cpu *Cpu) opSubn(code Code) (err error) {
	vx, vy := cpu.Register[code.X()], cpu.Register[code.Y()]
	cpu.Register[0xF] = flag(vx > vy)
	cpu.Register[code.X()] = vy - vx
	return
}

// opShl shifts vy, not vx. vf receives the bit shifted out.
func (cpu *Cpu) opShl(code Code) (err error) {
	vy := cpu.Register[code.Y()]
	cpu.Register[0xF] = (vy & 0x80) >> 7
	cpu.Register[code.X()] = vy << 1
	return
}

func (cpu *Cpu) opLdI(code Code) (err error) {
	cpu.I = code.NNN()
	return
}

func (cpu *Cpu) opJpV0(code Code) (err error) {
	cpu.Pc = code.NNN() + uint16(cpu.Register[0])
	return
}

func (cpu *Cpu) opRnd(code Code) (err error) {
	if cpu.Random == nil {
		cpu.Random = NewRandom(uint64(time.Now().UnixNano()))
	}
	cpu.Register[code.X()] = cpu.Random.Byte(code.NN())
	return
}

func (cpu *Cpu) opDrw(code Code) (err error) {
	sprite, err := cpu.Memory.Read(int(cpu.I), code.N())
	if err != nil {
		return
	}

	x, y := cpu.Register[code.X()], cpu.Register[code.Y()]
	cpu.Register[0xF] = 0
	if cpu.Display.Blit(x, y, sprite) {
		cpu.Register[0xF] = 1
	}
	return
}

func (cpu *Cpu) opSkp(code Code) (err error) {
	cpu.skip(cpu.Keypad.Pressed(int(cpu.Register[code.X()] & 0xf)))
	return
}

func (cpu *Cpu) opSknp(code Code) (err error) {
	cpu.skip(!cpu.Keypad.Pressed(int(cpu.Register[code.X()] & 0xf)))
	return
}

func (cpu *Cpu) opLdVxDt(code Code) (err error) {
	cpu.Register[code.X()] = cpu.DelayTimer
	return
}

// opLdVxK waits for a key by re-executing itself until one is down.
func (cpu *Cpu) opLdVxK(code Code) (err error) {
	key, ok := cpu.Keypad.First()
	if !ok {
		cpu.Pc -= 2
		return
	}
	cpu.Register[code.X()] = uint8(key)
	return
}

func (cpu *Cpu) opLdDtVx(code Code) (err error) {
	cpu.DelayTimer = cpu.Register[code.X()]
	return
}

func (cpu *Cpu) opLdStVx(code Code) (err error) {
	cpu.SoundTimer = cpu.Register[code.X()]
	return
}

func (cpu *Cpu) opAddI(code Code) (err error) {
	sum := int(cpu.I) + int(cpu.Register[code.X()])
	if sum >= MEMORY_SIZE {
		err = ErrAddress(sum)
		return
	}
	cpu.I = uint16(sum)
	return
}

func (cpu *Cpu) opLdF(code Code) (err error) {
	digit := uint16(cpu.Register[code.X()] & 0xf)
	cpu.I = FONT_START + FONT_GLYPH_SIZE*digit
	return
}

func (cpu *Cpu) opLdB(code Code) (err error) {
	vx := cpu.Register[code.X()]
	err = cpu.Memory.Write(int(cpu.I), []byte{vx / 100, (vx / 10) % 10, vx % 10})
	return
}

func (cpu *Cpu) opLdMemVx(code Code) (err error) {
	x := code.X()
	err = cpu.Memory.Write(int(cpu.I), cpu.Register[:x+1])
	if err != nil {
		return
	}
	cpu.I += uint16(x + 1)
	return
}

func (cpu *Cpu) opLdVxMem(code Code) (err error) {
	x := code.X()
	data, err := cpu.Memory.Read(int(cpu.I), x+1)
	if err != nil {
		return
	}
	copy(cpu.Register[:x+1], data)
	cpu.I += uint16(x + 1)
	return
}
