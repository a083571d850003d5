package io

import (
	"strings"
	"unicode/utf8"
)

// DEFAULT_LAYOUT names the physical keys for keypad 0 through F.
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  <-  q w e r
//	7 8 9 E      a s d f
//	A 0 B F      z x c v
const DEFAULT_LAYOUT = "x123qweasdzc4rfv"

// Keymap maps lower case physical key names to keypad indices.
type Keymap map[rune]int

// DefaultKeymap returns the map for DEFAULT_LAYOUT.
func DefaultKeymap() Keymap {
	keymap, _ := ParseKeymap(DEFAULT_LAYOUT)
	return keymap
}

// ParseKeymap builds a Keymap from a layout naming the physical key for
// each keypad index in order 0 through F.
func ParseKeymap(layout string) (keymap Keymap, err error) {
	layout = strings.ToLower(layout)
	if utf8.RuneCountInString(layout) != 16 {
		err = ErrKeymapLength
		return
	}

	keymap = make(Keymap, 16)
	index := 0
	for _, r := range layout {
		if _, ok := keymap[r]; ok {
			err = ErrKeymapDuplicate
			keymap = nil
			return
		}
		keymap[r] = index
		index++
	}

	return
}

// Key returns the keypad index for a physical key.
func (km Keymap) Key(r rune) (key int, ok bool) {
	key, ok = km[toLower(r)]
	return
}

// Layout returns the physical key for each keypad index.
func (km Keymap) Layout() string {
	var layout [16]rune
	for r, key := range km {
		layout[key] = r
	}
	return string(layout[:])
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
