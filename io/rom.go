// Package io provides the external collaborators of the CHIP-8 core:
// ROM images read from files or streams, and the mapping from physical
// keys to the hex keypad.
package io

import (
	"io"
	"io/fs"

	"github.com/ezrec/chip8/cpu"
)

// Rom is a raw program image. There is no header or checksum.
type Rom struct {
	Name string
	Data []byte
}

// ReadFrom reads an entire ROM image. Images larger than the program
// area are rejected without keeping any of the data.
func (rom *Rom) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(io.LimitReader(r, cpu.PROGRAM_LIMIT+1))
	n = int64(len(data))
	if err != nil {
		err = &cpu.ErrRomLoad{Size: -1, Err: err}
		return
	}

	if len(data) > cpu.PROGRAM_LIMIT {
		err = &cpu.ErrRomLoad{Size: len(data), Err: cpu.ErrRomTooLarge}
		return
	}

	rom.Data = data

	return
}

// Open reads the named ROM image from a file system.
func (rom *Rom) Open(fsys fs.FS, name string) (err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		err = &cpu.ErrRomLoad{Size: -1, Err: err}
		return
	}
	defer inf.Close()

	_, err = rom.ReadFrom(inf)
	if err != nil {
		return
	}

	rom.Name = name

	return
}
