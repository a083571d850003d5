// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = func() (equ map[string]string) {
	equ = maps.Clone(_cpu_defines)
	equ["LINENO"] = "0"
	return
}()

var (
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel     = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for CHIP-8 programs.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}

	text := word
	if text[0] == '$' {
		text = "0x" + text[1:]
	}
	v64, perr := strconv.ParseInt(text, 0, 32)
	if perr != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	if invert {
		value = ^value
	}

	return
}

// fieldOf encodes a value into an unsigned field of the given width.
// Negative values down to -2^(bits-1) are stored as two's complement.
func (asm *Assembler) fieldOf(word string, bits uint) (field uint16, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	limit := 1 << bits
	if value >= limit || value < -(limit/2) {
		err = ErrValueRange
		return
	}

	field = uint16(value) & uint16(limit-1)
	return
}

// register decodes a v0-vf register name.
func register(word string) (reg int, ok bool) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		return
	}
	n, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}
	return int(n), true
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	// Operands may be separated by commas or spaces.
	words = strings.Fields(strings.ReplaceAll(line, ",", " "))

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.ToLower(words[0]) == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddress()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique to each invocation.
		local := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress gets the load address of the next generated byte.
func (asm *Assembler) currentAddress() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Address + len(last.Data)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && strings.ToLower(words[0]) == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && strings.ToLower(words[0]) == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of address labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if addr > 0xfff {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrValueRange
			return
		}
		if len(op.Data) < 2 {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		op.Data[len(op.Data)-2] |= byte(addr>>8) & 0xf
		op.Data[len(op.Data)-1] |= byte(addr)
	}

	if asm.currentAddress()-PROGRAM_START > PROGRAM_LIMIT {
		err = ErrProgramSize
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// operandKind classifies a non-register operand.
var operandKind = map[string]string{
	"i":   "i",
	"[i]": "[i]",
	"dt":  "dt",
	"st":  "st",
	"k":   "k",
	"f":   "f",
	"b":   "b",
}

// special returns the canonical name of a special operand, if any.
func special(word string) (name string, ok bool) {
	name, ok = operandKind[strings.ToLower(word)]
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(data) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Address: asm.currentAddress(), Words: initial_words, Data: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	emit := func(code Code) {
		data = append(data, byte(code>>8), byte(code))
	}

	// address resolves a 12-bit address, deferring labels to the link pass.
	address := func(word string) (nnn uint16, err error) {
		_, perr := asm.valueOf(word)
		if perr != nil && reLabel.MatchString(word) {
			label = word
			return
		}
		return asm.fieldOf(word, 12)
	}

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	need := func(n int) error {
		if len(args) < n {
			return ErrOpcodeValueMissing
		}
		if len(args) > n {
			return ErrOpcodeExtraArgs
		}
		return nil
	}

	// reg decodes args[n] as a register.
	reg := func(n int) (r Code, err error) {
		v, ok := register(args[n])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		r = Code(v)
		return
	}

	switch mnemonic {
	case "db":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var v uint16
			v, err = asm.fieldOf(arg, 8)
			if err != nil {
				return
			}
			data = append(data, byte(v))
		}
		return
	case "dw":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var v uint16
			v, err = asm.fieldOf(arg, 16)
			if err != nil {
				return
			}
			emit(Code(v))
		}
		return
	case "cls", "ret":
		if err = need(0); err != nil {
			return
		}
		if mnemonic == "cls" {
			emit(0x00E0)
		} else {
			emit(0x00EE)
		}
		return
	case "sys", "call":
		if err = need(1); err != nil {
			return
		}
		var nnn uint16
		nnn, err = address(args[0])
		if err != nil {
			return
		}
		if mnemonic == "sys" {
			emit(Code(nnn))
		} else {
			emit(0x2000 | Code(nnn))
		}
		return
	case "jp":
		if len(args) == 2 {
			if r, ok := register(args[0]); !ok || r != 0 {
				err = ErrRegisterInvalid
				return
			}
			var nnn uint16
			nnn, err = address(args[1])
			if err != nil {
				return
			}
			emit(0xB000 | Code(nnn))
			return
		}
		if err = need(1); err != nil {
			return
		}
		var nnn uint16
		nnn, err = address(args[0])
		if err != nil {
			return
		}
		emit(0x1000 | Code(nnn))
		return
	case "skp", "sknp":
		if err = need(1); err != nil {
			return
		}
		var x Code
		x, err = reg(0)
		if err != nil {
			return
		}
		if mnemonic == "skp" {
			emit(0xE09E | x<<8)
		} else {
			emit(0xE0A1 | x<<8)
		}
		return
	case "drw":
		if err = need(3); err != nil {
			return
		}
		var x, y Code
		if x, err = reg(0); err != nil {
			return
		}
		if y, err = reg(1); err != nil {
			return
		}
		var n uint16
		n, err = asm.fieldOf(args[2], 4)
		if err != nil {
			return
		}
		emit(0xD000 | x<<8 | y<<4 | Code(n))
		return
	case "shr", "shl":
		if len(args) == 1 {
			args = append(args, args[0])
		}
		if err = need(2); err != nil {
			return
		}
		var x, y Code
		if x, err = reg(0); err != nil {
			return
		}
		if y, err = reg(1); err != nil {
			return
		}
		if mnemonic == "shr" {
			emit(0x8006 | x<<8 | y<<4)
		} else {
			emit(0x800E | x<<8 | y<<4)
		}
		return
	case "or", "and", "xor", "sub", "subn":
		if err = need(2); err != nil {
			return
		}
		var x, y Code
		if x, err = reg(0); err != nil {
			return
		}
		if y, err = reg(1); err != nil {
			return
		}
		low := map[string]Code{"or": 1, "and": 2, "xor": 3, "sub": 5, "subn": 7}[mnemonic]
		emit(0x8000 | x<<8 | y<<4 | low)
		return
	case "rnd":
		if err = need(2); err != nil {
			return
		}
		var x Code
		if x, err = reg(0); err != nil {
			return
		}
		var nn uint16
		nn, err = asm.fieldOf(args[1], 8)
		if err != nil {
			return
		}
		emit(0xC000 | x<<8 | Code(nn))
		return
	case "se", "sne":
		if err = need(2); err != nil {
			return
		}
		var x Code
		if x, err = reg(0); err != nil {
			return
		}
		if y, ok := register(args[1]); ok {
			if mnemonic == "se" {
				emit(0x5000 | x<<8 | Code(y)<<4)
			} else {
				emit(0x9000 | x<<8 | Code(y)<<4)
			}
			return
		}
		var nn uint16
		nn, err = asm.fieldOf(args[1], 8)
		if err != nil {
			return
		}
		if mnemonic == "se" {
			emit(0x3000 | x<<8 | Code(nn))
		} else {
			emit(0x4000 | x<<8 | Code(nn))
		}
		return
	case "add":
		if err = need(2); err != nil {
			return
		}
		if name, ok := special(args[0]); ok {
			if name != "i" {
				err = ErrOperandInvalid
				return
			}
			var x Code
			if x, err = reg(1); err != nil {
				return
			}
			emit(0xF01E | x<<8)
			return
		}
		var x Code
		if x, err = reg(0); err != nil {
			return
		}
		if y, ok := register(args[1]); ok {
			emit(0x8004 | x<<8 | Code(y)<<4)
			return
		}
		var nn uint16
		nn, err = asm.fieldOf(args[1], 8)
		if err != nil {
			return
		}
		emit(0x7000 | x<<8 | Code(nn))
		return
	case "ld":
		if err = need(2); err != nil {
			return
		}
		err = asm.parseLoad(args, emit, address)
		return
	}

	err = ErrInstructionInvalid
	return
}

// parseLoad encodes the many forms of the ld instruction.
func (asm *Assembler) parseLoad(args []string, emit func(Code), address func(string) (uint16, error)) (err error) {
	dst, src := args[0], args[1]

	if name, ok := special(dst); ok {
		if name == "i" {
			var nnn uint16
			nnn, err = address(src)
			if err != nil {
				return
			}
			emit(0xA000 | Code(nnn))
			return
		}

		y, ok := register(src)
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		x := Code(y) << 8
		switch name {
		case "dt":
			emit(0xF015 | x)
		case "st":
			emit(0xF018 | x)
		case "f":
			emit(0xF029 | x)
		case "b":
			emit(0xF033 | x)
		case "[i]":
			emit(0xF055 | x)
		default:
			err = ErrOperandInvalid
		}
		return
	}

	r, ok := register(dst)
	if !ok {
		err = ErrRegisterInvalid
		return
	}
	x := Code(r) << 8

	if name, ok := special(src); ok {
		switch name {
		case "dt":
			emit(0xF007 | x)
		case "k":
			emit(0xF00A | x)
		case "[i]":
			emit(0xF065 | x)
		default:
			err = ErrOperandInvalid
		}
		return
	}

	if y, ok := register(src); ok {
		emit(0x8000 | x | Code(y)<<4)
		return
	}

	nn, err := asm.fieldOf(src, 8)
	if err != nil {
		return
	}
	emit(0x6000 | x | Code(nn))
	return
}
