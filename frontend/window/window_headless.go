//go:build headless

// Package window presents the machine in a desktop window. This build
// has no window support.
package window

import (
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

const DEFAULT_SCALE = 10

type Window struct {
	Verbose bool
	Emu     *emulator.Emulator
}

func NewWindow(emu *emulator.Emulator, keymap io.Keymap) *Window {
	return &Window{Emu: emu}
}

func (win *Window) Run(title string, scale int) error {
	return ErrHeadless
}
