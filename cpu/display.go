package cpu

import (
	"image/color"
	"strings"
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
	DISPLAY_SIZE   = DISPLAY_WIDTH * DISPLAY_HEIGHT
)

// Display is the 64x32 monochrome frame buffer.
type Display struct {
	Cells [DISPLAY_SIZE]bool // Row-major pixel state, true is lit.
	Dirty bool               // Set by every mutation, cleared by the reader.
}

// Clear unlights every cell.
func (d *Display) Clear() {
	clear(d.Cells[:])
	d.Dirty = true
}

// Lit returns the state of the cell at x, y.
func (d *Display) Lit(x, y int) bool {
	if x < 0 || x >= DISPLAY_WIDTH || y < 0 || y >= DISPLAY_HEIGHT {
		return false
	}
	return d.Cells[y*DISPLAY_WIDTH+x]
}

// Pixels returns a copy of the cells in row-major order.
func (d *Display) Pixels() (pixels []bool) {
	pixels = make([]bool, DISPLAY_SIZE)
	copy(pixels, d.Cells[:])
	return
}

// Blit XORs an 8 pixel wide sprite onto the display. The origin wraps to
// the display, but the sprite body does not: the target cell is found by
// flat row-major offset, so columns past the right edge land on the next
// row, and cells past the end of the buffer are dropped.
//
// collision is true if any lit cell was turned off.
func (d *Display) Blit(x, y byte, sprite []byte) (collision bool) {
	xPos := int(x) % DISPLAY_WIDTH
	yPos := int(y) % DISPLAY_HEIGHT

	for row, bits := range sprite {
		for col := range 8 {
			if bits&(0x80>>col) == 0 {
				continue
			}
			index := (yPos+row)*DISPLAY_WIDTH + (xPos + col)
			if index >= DISPLAY_SIZE {
				continue
			}
			if d.Cells[index] {
				collision = true
			}
			d.Cells[index] = !d.Cells[index]
		}
	}

	d.Dirty = true

	return
}

// RGBA renders the display as 8-bit RGBA into dst, which must hold at
// least DISPLAY_SIZE*4 bytes.
func (d *Display) RGBA(dst []byte, on, off color.RGBA) {
	for n, lit := range d.Cells {
		c := off
		if lit {
			c = on
		}
		dst[n*4+0] = c.R
		dst[n*4+1] = c.G
		dst[n*4+2] = c.B
		dst[n*4+3] = c.A
	}
}

// String renders the display as rows of '#' and '.'.
func (d *Display) String() string {
	var sb strings.Builder
	sb.Grow((DISPLAY_WIDTH + 1) * DISPLAY_HEIGHT)
	for y := range DISPLAY_HEIGHT {
		for x := range DISPLAY_WIDTH {
			if d.Cells[y*DISPLAY_WIDTH+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
