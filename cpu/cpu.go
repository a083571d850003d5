package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"
	"time"
)

const (
	REGISTER_COUNT = 16 // v0 through vf
)

var _cpu_defines = map[string]string{
	"PROGRAM_START":   fmt.Sprintf("%#x", PROGRAM_START),
	"PROGRAM_LIMIT":   fmt.Sprintf("%#x", PROGRAM_LIMIT),
	"MEMORY_SIZE":     fmt.Sprintf("%#x", MEMORY_SIZE),
	"FONT_START":      fmt.Sprintf("%#x", FONT_START),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%v", FONT_GLYPH_SIZE),
	"DISPLAY_WIDTH":   fmt.Sprintf("%v", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT":  fmt.Sprintf("%v", DISPLAY_HEIGHT),
}

// Cpu is the CHIP-8 interpreter state.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register   [REGISTER_COUNT]uint8 // v0-vf. vf doubles as the flag register.
	I          uint16                // Index register.
	Pc         uint16                // Address of the next opcode.
	Stack      Stack                 // Subroutine return addresses.
	DelayTimer uint8                 // Counts down once per tick.
	SoundTimer uint8                 // Counts down once per tick.
	Code       Code                  // Opcode of the current tick.

	Memory  Memory
	Display Display
	Keypad  *Keypad // Key state, written by the frontend between ticks.
	Random  Random  // Source for the rnd instruction.

	Ticks int // Completed ticks since reset.

	loaded bool
}

// NewCpu creates a reset CPU with its own keypad and a time seeded
// random source.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Keypad: &Keypad{},
		Random: NewRandom(uint64(time.Now().UnixNano())),
	}
	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears the registers, timers, stack, display and memory.
// - Installs the font.
// - Sets the program counter to the program load origin.
//
// The keypad and random source are left alone.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.I = 0
	cpu.Pc = PROGRAM_START
	cpu.Stack.Reset()
	cpu.DelayTimer = 0
	cpu.SoundTimer = 0
	cpu.Code = 0
	cpu.Memory.Reset()
	cpu.Display.Clear()
	cpu.Ticks = 0
	cpu.loaded = false
}

// LoadProgram copies rom into memory at PROGRAM_START. It may only be
// called once after a reset. Memory is untouched on failure.
func (cpu *Cpu) LoadProgram(rom []byte) (err error) {
	if cpu.loaded {
		err = &ErrRomLoad{Size: len(rom), Err: ErrProgramLoaded}
		return
	}

	if len(rom) > PROGRAM_LIMIT {
		err = &ErrRomLoad{Size: len(rom), Err: ErrRomTooLarge}
		return
	}

	err = cpu.Memory.Write(PROGRAM_START, rom)
	if err != nil {
		err = &ErrRomLoad{Size: len(rom), Err: err}
		return
	}

	cpu.loaded = true

	if cpu.Verbose {
		log.Printf("cpu: loaded %v bytes at 0x%03x", len(rom), PROGRAM_START)
	}

	return
}

// Loaded returns true once a program has been loaded.
func (cpu *Cpu) Loaded() bool {
	return cpu.loaded
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "% 5s: %03X\n", "pc", cpu.Pc)
	fmt.Fprintf(&sb, "% 5s: %03X\n", "i", cpu.I)
	fmt.Fprintf(&sb, "% 5s: %v\n", "sp", cpu.Stack.Sp)
	if top, err := cpu.Stack.Peek(); err == nil {
		fmt.Fprintf(&sb, "% 5s: %03X\n", "stack", top)
	} else {
		fmt.Fprintf(&sb, "% 5s: ---\n", "stack")
	}
	fmt.Fprintf(&sb, "% 5s: %02X\n", "dt", cpu.DelayTimer)
	fmt.Fprintf(&sb, "% 5s: %02X\n", "st", cpu.SoundTimer)
	for n, v := range cpu.Register {
		fmt.Fprintf(&sb, "% 5s: %02X\n", fmt.Sprintf("v%x", n), v)
	}

	return sb.String()
}

// Fetch reads the opcode at the program counter.
func (cpu *Cpu) Fetch() (code Code, err error) {
	word, err := cpu.Memory.Word(int(cpu.Pc))
	if err != nil {
		return
	}

	code = Code(word)
	return
}

// Tick executes a single fetch, decode, execute and timer cycle.
func (cpu *Cpu) Tick() (err error) {
	if !cpu.loaded {
		err = ErrProgramMissing
		return
	}

	code, err := cpu.Fetch()
	if err != nil {
		return
	}

	cpu.Pc += 2

	err = cpu.Execute(code)
	if err != nil {
		return
	}

	if cpu.DelayTimer > 0 {
		cpu.DelayTimer--
	}

	if cpu.SoundTimer > 0 {
		cpu.SoundTimer--
	}

	cpu.Ticks++

	return
}

// Execute executes a single decoded instruction. The program counter
// is expected to already point past it.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc-2, code)
	}

	cpu.Code = code

	err = decode(code).exec(cpu, code)

	return
}
