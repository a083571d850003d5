package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Empty(prog.Binary())

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0x200", asm.Equate["PROGRAM_START"])
	assert.Equal("0x50", asm.Equate["FONT_START"])
	assert.Equal("64", asm.Equate["DISPLAY_WIDTH"])
	assert.Equal("32", asm.Equate["DISPLAY_HEIGHT"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssemblerEncoding(t *testing.T) {
	assert := assert.New(t)

	table := [...]struct {
		line string
		code Code
	}{
		{"cls", 0x00E0},
		{"ret", 0x00EE},
		{"sys $123", 0x0123},
		{"jp $345", 0x1345},
		{"call 0x456", 0x2456},
		{"se v1, $2A", 0x312A},
		{"sne v2, 42", 0x422A},
		{"se v3, v4", 0x5340},
		{"ld v5, 255", 0x65FF},
		{"add v6, 1", 0x7601},
		{"ld v7, v8", 0x8780},
		{"or v9, va", 0x89A1},
		{"and vb, vc", 0x8BC2},
		{"xor vd, ve", 0x8DE3},
		{"add vf, v0", 0x8F04},
		{"sub v1, v2", 0x8125},
		{"shr v3, v4", 0x8346},
		{"shr v3", 0x8336},
		{"subn v5, v6", 0x8567},
		{"shl v7, v8", 0x878E},
		{"shl v7", 0x877E},
		{"sne v9, vA", 0x99A0},
		{"ld i, $ABC", 0xAABC},
		{"jp v0, $BCD", 0xBBCD},
		{"rnd vc, $0F", 0xCC0F},
		{"drw vd, ve, 5", 0xDDE5},
		{"skp ve", 0xEE9E},
		{"sknp vf", 0xEFA1},
		{"ld v0, dt", 0xF007},
		{"ld v1, k", 0xF10A},
		{"ld dt, v2", 0xF215},
		{"ld st, v3", 0xF318},
		{"add i, v4", 0xF41E},
		{"ld f, v5", 0xF529},
		{"ld b, v6", 0xF633},
		{"ld [i], v7", 0xF755},
		{"ld v8, [i]", 0xF865},
		{"LD V1 , 'A'", 0x6141},
		{"ld v1, -1", 0x61FF},
		{"ld v1 ~0x0f", 0x61F0},
		{"dw $1234", 0x1234},
	}

	for _, entry := range table {
		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(entry.line))
		if !assert.NoError(err, entry.line) {
			continue
		}
		assert.Equal([]byte{byte(entry.code >> 8), byte(entry.code)}, prog.Binary(), entry.line)
	}
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"sprite:",
		"db $F0 $90, $F0",
		"db 0b10000001",
		"dw 0xBEEF",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	expected := []Opcode{
		{2, 0x200, []string{"db", "$F0", "$90", "$F0"}, []byte{0xF0, 0x90, 0xF0}, ""},
		{3, 0x203, []string{"db", "0b10000001"}, []byte{0x81}, ""},
		{4, 0x204, []string{"dw", "0xBEEF"}, []byte{0xBE, 0xEF}, ""},
	}

	opEqual(t, expected, prog.Opcodes)
	assert.Equal(0x200, asm.Label["sprite"])
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"jp start",
		"sprite: db $80",
		"start: ld i, sprite",
		"call draw",
		"loop: jp loop",
		"draw:",
		"",
		"drw v0, v0, 1",
		"ret",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	expected := []Opcode{
		{1, 0x200, []string{"jp", "start"}, []byte{0x12, 0x03}, "start"},
		{2, 0x202, []string{"db", "$80"}, []byte{0x80}, ""},
		{3, 0x203, []string{"ld", "i", "sprite"}, []byte{0xA2, 0x02}, "sprite"},
		{4, 0x205, []string{"call", "draw"}, []byte{0x22, 0x09}, "draw"},
		{5, 0x207, []string{"jp", "loop"}, []byte{0x12, 0x07}, "loop"},
		{8, 0x209, []string{"drw", "v0", "v0", "1"}, []byte{0xD0, 0x01}, ""},
		{9, 0x20B, []string{"ret"}, []byte{0x00, 0xEE}, ""},
	}

	opEqual(t, expected, prog.Opcodes)

	assert.Equal(5, prog.LineNo(0x207))
	assert.Equal(5, prog.LineNo(0x208))
	assert.Equal(0, prog.LineNo(0x20D))

	dbg := prog.Debug(0x20A)
	if assert.NotNil(dbg.Opcode) {
		assert.Equal(8, dbg.LineNo)
		assert.Equal(1, dbg.Offset)
	}
}

func TestAssemblerCodes(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"cls",
		"",
		"ld v1, 2",
		"db $80",
		"ret",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	type listing struct {
		addr   uint16
		code   Code
		lineno int
	}

	var got []listing
	for addr, code := range prog.Codes() {
		got = append(got, listing{addr, code, prog.LineNo(addr)})
	}

	expected := []listing{
		{0x200, 0x00E0, 1},
		{0x202, 0x6102, 3},
		{0x204, 0x8000, 4},
		{0x205, 0x00EE, 5},
	}
	assert.Equal(expected, got)

	// Stops when the consumer does.
	count := 0
	for range prog.Codes() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SPEED", "3")
	program := []string{
		".equ CONST_10 0x10",
		".equ PLAYER v3",
		"ld PLAYER, CONST_10",
		"ld v1, $(CONST_10 + CONST_10)",
		".equ CONST_30 $(2 * CONST_10 + CONST_10)",
		"add PLAYER, CONST_30",
		"ld v2, $(LINENO * 8 + 0x10)",
		"ld i, $(FONT_START + FONT_GLYPH_SIZE * 0xA)",
		"add v4, SPEED",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(errors.Unwrap(err))
	}

	assert.Equal([]byte{
		0x63, 0x10,
		0x61, 0x20,
		0x73, 0x30,
		0x62, 0x48,
		0xA0, 0x82,
		0x74, 0x03,
	}, prog.Binary())
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".macro SETADD rn a b",
		"ld rn, a",
		"add rn, b",
		".endm",
		"SETADD v0 8 8",
		".equ CONST_10 0x10",
		"SETADD v1 CONST_10 CONST_10",
		".macro WAIT reg",
		"@wait: ld reg, dt",
		"se reg, 0",
		"jp @wait",
		".endm",
		"WAIT v2",
		"WAIT v3",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Opcode{
		{2, 0x200, []string{"ld", "v0", "8"}, []byte{0x60, 0x08}, ""},
		{3, 0x202, []string{"add", "v0", "8"}, []byte{0x70, 0x08}, ""},
		{2, 0x204, []string{"ld", "v1", "0x10"}, []byte{0x61, 0x10}, ""},
		{3, 0x206, []string{"add", "v1", "0x10"}, []byte{0x71, 0x10}, ""},
		{9, 0x208, []string{"ld", "v2", "dt"}, []byte{0xF2, 0x07}, ""},
		{10, 0x20A, []string{"se", "v2", "0"}, []byte{0x32, 0x00}, ""},
		{11, 0x20C, []string{"jp", "WAIT_13_wait"}, []byte{0x12, 0x08}, "WAIT_13_wait"},
		{9, 0x20E, []string{"ld", "v3", "dt"}, []byte{0xF3, 0x07}, ""},
		{10, 0x210, []string{"se", "v3", "0"}, []byte{0x33, 0x00}, ""},
		{11, 0x212, []string{"jp", "WAIT_14_wait"}, []byte{0x12, 0x0E}, "WAIT_14_wait"},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for word := range 0x10000 {
		code := Code(word)
		text := code.String()

		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(text))
		if !assert.NoError(err, text) {
			continue
		}

		assert.Equal([]byte{byte(word >> 8), byte(word)}, prog.Binary(), text)

		for _, again := range Disassemble(PROGRAM_START, prog.Binary()) {
			assert.Equal(text, again.String(), "0x%04x", word)
			assert.Equal(code.Op(), again.Op(), text)
		}
	}
}

func TestAssemblerProgramSize(t *testing.T) {
	assert := assert.New(t)

	lines := make([]string, PROGRAM_LIMIT/2+1)
	for n := range lines {
		lines[n] = "cls"
	}

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	assert.ErrorIs(err, ErrProgramSize)

	asm = &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines[1:], "\n")))
	assert.NoError(err)
	assert.Len(prog.Binary(), PROGRAM_LIMIT)
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	table := [](struct {
		prog string
		line int
		err  error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"ld v0, nothing", 1, ErrParseNumber("nothing")},
		{"ld v0, $(\"aaa\")", 1, nil},
		{"ld v0, $(more(\"aaa\"))", 1, nil},
		{"ld v0, 256", 1, ErrValueRange},
		{"ld v0, -129", 1, ErrValueRange},
		{".equ", 1, ErrEquateSyntax},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\ncls\n", 2, ErrMacroLonely},
		{".macro A R\nld R, 1\n.endm\nA vz\n", 4, ErrRegisterInvalid},
		{"bogus", 1, ErrInstructionInvalid},
		{"cls v0", 1, ErrOpcodeExtraArgs},
		{"jp", 1, ErrOpcodeValueMissing},
		{"jp nowhere", 1, ErrLabelMissing("nowhere")},
		{"jp $1000", 1, ErrValueRange},
		{"jp v1, $200", 1, ErrRegisterInvalid},
		{"call", 1, ErrOpcodeValueMissing},
		{"skp 3", 1, ErrRegisterInvalid},
		{"drw v0, v1", 1, ErrOpcodeValueMissing},
		{"drw v0, v1, 16", 1, ErrValueRange},
		{"shr v0, v1, v2", 1, ErrOpcodeExtraArgs},
		{"or v0, 1", 1, ErrRegisterInvalid},
		{"rnd 1, 1", 1, ErrRegisterInvalid},
		{"se v0", 1, ErrOpcodeValueMissing},
		{"add dt, v0", 1, ErrOperandInvalid},
		{"add i, 3", 1, ErrRegisterInvalid},
		{"ld k, v0", 1, ErrOperandInvalid},
		{"ld v0, f", 1, ErrOperandInvalid},
		{"ld dt, 3", 1, ErrRegisterInvalid},
		{"ld 3, v0", 1, ErrRegisterInvalid},
		{"db", 1, ErrOpcodeValueMissing},
		{"db 256", 1, ErrValueRange},
		{"dw", 1, ErrOpcodeValueMissing},
		{"cls\ncls\nret v1\n", 3, ErrOpcodeExtraArgs},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
			if entry.err != nil {
				assert.ErrorIs(err, entry.err, entry.prog)
			}
		}
	}
}
