package window

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrHeadless = errors.New(f("window frontend not built (headless)"))
)
