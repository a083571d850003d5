// Package cpu implements the CHIP-8 interpreter core and its assembler.
//
// The machine consists of sixteen 8-bit registers (v0-vf), a 16-bit index
// register (I), a program counter, a sixteen entry call stack, delay and
// sound timers, 4K of memory with the hex font at 0x050 and programs loaded
// at 0x200, and a 64x32 monochrome display that sprites are XOR drawn onto.
//
// Opcodes are routed through a two level table: the top nibble selects a
// family, and the 0x0, 0x8, 0xE and 0xF families fan out on their low
// nibble or low byte. Unknown opcodes are ignored.
//
// The assembler accepts the conventional CHIP-8 mnemonics, with labels,
// equates, macros, and compile-time expression evaluation.
package cpu
