// Package terminal presents the machine on an ANSI terminal.
//
// Terminals report key presses but never key releases, so a key is held
// down for Hold after the last byte that named it.
package terminal

import (
	"bufio"
	stdio "io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

const (
	DEFAULT_HOLD = 150 * time.Millisecond // Key hold time after a press.

	KEY_ESCAPE = 0x1b
	KEY_CTRL_C = 0x03
)

const (
	ansiHome       = "\x1b[H"
	ansiClear      = "\x1b[2J"
	ansiHideCursor = "\x1b[?25l"
	ansiShowCursor = "\x1b[?25h"
)

// Terminal is an emulator.Frontend on a byte stream pair.
type Terminal struct {
	Verbose bool
	Keymap  io.Keymap
	Hold    time.Duration

	in  stdio.Reader
	out stdio.Writer
	now func() time.Time

	input chan byte
	held  [cpu.KEY_COUNT]time.Time

	fd       int
	oldState *term.State
	stopped  sync.Once
}

var _ emulator.Frontend = (*Terminal)(nil)

// NewTerminal creates a terminal frontend. If in is an interactive
// terminal it is switched to raw mode by Start.
func NewTerminal(in stdio.Reader, out stdio.Writer, keymap io.Keymap) (tm *Terminal) {
	tm = &Terminal{
		Keymap: keymap,
		Hold:   DEFAULT_HOLD,
		in:     in,
		out:    out,
		now:    time.Now,
		fd:     -1,
	}

	return
}

// Start enters raw mode and begins reading input.
func (tm *Terminal) Start() (err error) {
	if file, ok := tm.in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		tm.fd = int(file.Fd())
		tm.oldState, err = term.MakeRaw(tm.fd)
		if err != nil {
			return
		}
	}

	input := make(chan byte, 64)
	tm.input = input
	go func(r *bufio.Reader) {
		defer close(input)
		for {
			b, err := r.ReadByte()
			if err != nil {
				if tm.Verbose && err != stdio.EOF {
					log.Printf("terminal: %v", err)
				}
				return
			}
			input <- b
		}
	}(bufio.NewReader(tm.in))

	_, err = stdio.WriteString(tm.out, ansiClear+ansiHideCursor)

	return
}

// Stop restores the terminal. The input reader is left to finish on its
// own, as a blocking read cannot be interrupted.
func (tm *Terminal) Stop() (err error) {
	tm.stopped.Do(func() {
		_, err = stdio.WriteString(tm.out, ansiShowCursor)
		if tm.oldState != nil {
			err = term.Restore(tm.fd, tm.oldState)
			tm.oldState = nil
		}
	})

	return
}

// Input drains pending key bytes into the keypad.
func (tm *Terminal) Input(keys *cpu.Keypad) (quit bool, err error) {
	now := tm.now()

	for done := false; !done; {
		select {
		case b, ok := <-tm.input:
			if !ok {
				tm.input = nil
				done = true
				break
			}
			if b == KEY_ESCAPE || b == KEY_CTRL_C {
				quit = true
				return
			}
			index, ok := tm.Keymap.Key(rune(b))
			if ok {
				tm.held[index] = now.Add(tm.Hold)
			}
		default:
			done = true
		}
	}

	for index, until := range tm.held {
		keys.Set(index, now.Before(until))
	}

	return
}

// Present redraws the whole display.
func (tm *Terminal) Present(display *cpu.Display) (err error) {
	_, err = stdio.WriteString(tm.out, ansiHome+render(display))
	return
}

// render draws two display rows per text line with half blocks.
func render(display *cpu.Display) string {
	var sb strings.Builder

	for y := 0; y < cpu.DISPLAY_HEIGHT; y += 2 {
		for x := range cpu.DISPLAY_WIDTH {
			top := display.Lit(x, y)
			bottom := display.Lit(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteString("\r\n")
	}

	return sb.String()
}
