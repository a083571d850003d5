// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	stdio "io"
	"iter"
	"log"
	"maps"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/io"
)

const (
	DEFAULT_CYCLE_DELAY = 2 * time.Millisecond // Time between ticks.
	POLL_INTERVAL       = time.Millisecond     // Run loop input polling rate.
	MAX_CATCHUP         = 64                   // Most ticks run by one Update.
)

var _emulator_defines = map[string]string{
	"KEY_COUNT": "16",
}

// Frontend is the input and presentation side of the machine. Both
// methods are called from the goroutine running the emulator.
type Frontend interface {
	// Input refreshes the keypad. quit requests the run loop to stop.
	Input(keys *cpu.Keypad) (quit bool, err error)
	// Present shows the display after a tick that changed it.
	Present(display *cpu.Display) error
}

// Emulator state. CPU + ROM + keypad + cadence.
type Emulator struct {
	Verbose    bool          // If set, enables verbose logging.
	*cpu.Cpu                 // Reference to the CPU simulation.
	Program    *cpu.Program  // Assembled program listing, if any.
	Rom        io.Rom        // ROM image loaded at reset.
	Keypad     cpu.Keypad    // Key state shared with the CPU.
	CycleDelay time.Duration // Time between ticks.

	lastTick time.Time
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:        cpu.NewCpu(),
		CycleDelay: DEFAULT_CYCLE_DELAY,
	}

	emu.Cpu.Keypad = &emu.Keypad

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for key, value := range maps.All(_emulator_defines) {
			if !yield(key, value) {
				return
			}
		}
		for key, value := range emu.Cpu.Defines() {
			if !yield(key, value) {
				return
			}
		}
	}
}

// Assemble a program from source, with all of the emulator's defines
// available to it.
func (emu *Emulator) Assemble(r stdio.Reader) (prog *cpu.Program, err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err = asm.Parse(r)

	return
}

// Load reads a ROM image and resets the machine with it.
func (emu *Emulator) Load(r stdio.Reader) (err error) {
	var rom io.Rom
	_, err = rom.ReadFrom(r)
	if err != nil {
		return
	}

	emu.Program = nil
	emu.Rom = rom

	err = emu.Reset()

	return
}

// LoadProgram resets the machine with an assembled program. The listing
// is kept for source line lookups.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	emu.Program = prog
	emu.Rom = io.Rom{Name: "program", Data: prog.Binary()}

	err = emu.Reset()

	return
}

// Reset the machine and load the ROM image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Reset()
	emu.Keypad.Reset()
	emu.lastTick = time.Time{}

	err = emu.Cpu.LoadProgram(emu.Rom.Data)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset with %v (%v bytes)", emu.Rom.Name, len(emu.Rom.Data))
	}

	return
}

// LineNo returns the source line for the current program counter.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}
	return emu.Program.LineNo(emu.Cpu.Pc)
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()

	err = emu.Cpu.Tick()
	if err != nil {
		err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
	}

	return
}

// Update runs every tick that has come due by now, one per CycleDelay
// since the last tick, up to MAX_CATCHUP. When further behind than that,
// the remaining backlog is dropped. A CycleDelay of zero or less ticks
// once per call.
func (emu *Emulator) Update(now time.Time) (ticks int, err error) {
	if emu.lastTick.IsZero() || emu.CycleDelay <= 0 {
		emu.lastTick = now
		err = emu.Tick()
		if err != nil {
			return
		}
		ticks = 1
		return
	}

	for ticks < MAX_CATCHUP && now.Sub(emu.lastTick) >= emu.CycleDelay {
		emu.lastTick = emu.lastTick.Add(emu.CycleDelay)
		err = emu.Tick()
		if err != nil {
			return
		}
		ticks++
	}

	if now.Sub(emu.lastTick) >= emu.CycleDelay {
		emu.lastTick = now
	}

	return
}

// Run drives the machine until the frontend quits, the context is done,
// or the machine faults. Input, ticks and presentation all happen on the
// calling goroutine.
func (emu *Emulator) Run(ctx context.Context, fe Frontend) (err error) {
	display := &emu.Cpu.Display

	ticker := time.NewTicker(POLL_INTERVAL)
	defer ticker.Stop()

	for {
		var quit bool
		quit, err = fe.Input(&emu.Keypad)
		if err != nil {
			return
		}
		if quit {
			return
		}

		var ticks int
		ticks, err = emu.Update(time.Now())
		if err != nil {
			return
		}

		if ticks > 0 && display.Dirty {
			display.Dirty = false
			err = fe.Present(display)
			if err != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-ticker.C:
		}
	}
}
