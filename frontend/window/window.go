//go:build !headless

// Package window presents the machine in a desktop window using ebiten.
package window

import (
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

const (
	DEFAULT_SCALE = 10 // Window pixels per display cell.
)

var (
	ColorOn  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ColorOff = color.RGBA{A: 0xff}
)

// Window is an ebiten.Game that drives an emulator.
type Window struct {
	Verbose bool
	Emu     *emulator.Emulator

	keys   map[ebiten.Key]int
	image  *ebiten.Image
	pixels []byte
}

var _ ebiten.Game = (*Window)(nil)

// NewWindow creates a window for emu, reading keys through keymap.
func NewWindow(emu *emulator.Emulator, keymap io.Keymap) (win *Window) {
	win = &Window{
		Emu:    emu,
		keys:   ebitenKeys(keymap),
		pixels: make([]byte, cpu.DISPLAY_SIZE*4),
	}

	return
}

// Update refreshes the keypad and advances the emulator.
func (win *Window) Update() (err error) {
	if ebiten.IsWindowBeingClosed() || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for key, index := range win.keys {
		win.Emu.Keypad.Set(index, ebiten.IsKeyPressed(key))
	}

	_, err = win.step(time.Now())

	return
}

// step runs the ticks that came due since the last update. ebiten may
// call Update several times in a row per frame.
func (win *Window) step(now time.Time) (ticks int, err error) {
	return win.Emu.Update(now)
}

// Draw copies the display into the screen.
func (win *Window) Draw(screen *ebiten.Image) {
	if win.image == nil {
		win.image = ebiten.NewImage(cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT)
		win.Emu.Cpu.Display.Dirty = true
	}

	display := &win.Emu.Cpu.Display
	if display.Dirty {
		display.Dirty = false
		display.RGBA(win.pixels, ColorOn, ColorOff)
		win.image.WritePixels(win.pixels)
	}

	screen.DrawImage(win.image, nil)
}

// Layout is the native display resolution; ebiten scales it to the window.
func (win *Window) Layout(_, _ int) (int, int) {
	return cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT
}

// Run opens the window and blocks until it is closed or the machine
// faults.
func (win *Window) Run(title string, scale int) (err error) {
	if scale <= 0 {
		scale = DEFAULT_SCALE
	}

	ebiten.SetWindowSize(cpu.DISPLAY_WIDTH*scale, cpu.DISPLAY_HEIGHT*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowClosingHandled(true)

	if win.Verbose {
		log.Printf("window: %vx%v, cycle delay %v", cpu.DISPLAY_WIDTH*scale, cpu.DISPLAY_HEIGHT*scale, win.Emu.CycleDelay)
	}

	err = ebiten.RunGame(win)

	return
}

var letterKeys = [...]ebiten.Key{
	ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE,
	ebiten.KeyF, ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ,
	ebiten.KeyK, ebiten.KeyL, ebiten.KeyM, ebiten.KeyN, ebiten.KeyO,
	ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR, ebiten.KeyS, ebiten.KeyT,
	ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX, ebiten.KeyY,
	ebiten.KeyZ,
}

var digitKeys = [...]ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7,
	ebiten.KeyDigit8, ebiten.KeyDigit9,
}

// keyOf translates a layout rune into a physical key.
func keyOf(r rune) (key ebiten.Key, ok bool) {
	switch {
	case r >= 'a' && r <= 'z':
		key, ok = letterKeys[r-'a'], true
	case r >= 'A' && r <= 'Z':
		key, ok = letterKeys[r-'A'], true
	case r >= '0' && r <= '9':
		key, ok = digitKeys[r-'0'], true
	}
	return
}

// ebitenKeys builds the physical key to keypad index table.
func ebitenKeys(keymap io.Keymap) (keys map[ebiten.Key]int) {
	keys = map[ebiten.Key]int{}
	for r, index := range keymap {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		keys[key] = index
	}
	return
}
