package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Keymap errors
	ErrKeymapLength    = errors.New(f("keymap must name 16 keys"))
	ErrKeymapDuplicate = errors.New(f("keymap key duplicated"))
)
