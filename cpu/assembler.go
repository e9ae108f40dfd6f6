// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
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
var sysEquate = map[string]string{
	"LINENO":      "0",
	"DATA_SIZE":   fmt.Sprintf("%v", DATA_SIZE),
	"STACK_LIMIT": fmt.Sprintf("%v", STACK_LIMIT),
}

var (
	reLabel     = regexp.MustCompile(`^([^\s:]+)\s*:`)
	reIdent     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
)

// Assembler is a two pass macro assembler for the stack machine.
//
// The first pass expands macros and equates, assigns each instruction
// its index, and records labels. The second pass resolves label operands.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to opcode indexes.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	lonely    int             // Line of the last label not yet followed by an instruction.
	expanding map[string]bool // Macros currently being expanded.
}

// Assemble assembles source text into a program and its label table.
func Assemble(source string) (prog *Program, labels map[string]int, err error) {
	asm := &Assembler{}
	prog, err = asm.Parse(strings.NewReader(source))
	if err != nil {
		return
	}

	labels = maps.Clone(prog.Label)
	return
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// tokenError marks the word an error was found at.
type tokenError struct {
	Token string
	Err   error
}

func (te *tokenError) Error() string {
	return te.Err.Error()
}

func (te *tokenError) Unwrap() error {
	return te.Err
}

func atToken(token string, err error) error {
	return &tokenError{Token: token, Err: err}
}

// syntaxError wraps err with its source location, unless already wrapped.
func syntaxError(lineno int, line string, err error) error {
	if _, ok := err.(ErrSyntax); ok {
		return err
	}

	var token string
	if te, ok := err.(*tokenError); ok {
		token = te.Token
		err = te.Err
	}

	return ErrSyntax{LineNo: lineno, Line: line, Token: token, Err: err}
}

// parseNumber parses a signed decimal, or an unsigned 0x hexadecimal or 0b binary.
func parseNumber(word string) (value int64, err error) {
	lower := strings.ToLower(word)

	switch {
	case strings.HasPrefix(lower, "0x"):
		var u uint64
		u, err = strconv.ParseUint(lower[2:], 16, 63)
		value = int64(u)
	case strings.HasPrefix(lower, "0b"):
		var u uint64
		u, err = strconv.ParseUint(lower[2:], 2, 63)
		value = int64(u)
	default:
		value, err = strconv.ParseInt(word, 10, 64)
	}

	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if len(word) > 1 && word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 1 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}

	value, err = parseNumber(word)
	if err != nil {
		return
	}

	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int64
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
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
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line, defining labels and equates, and
// expanding macros. The remaining words are the instruction, if any.
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
			case "t":
				str = "\t"
			case "0":
				str = "\000"
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
			err = atToken(str, _err)
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	// label: label: ...
	for {
		match := reLabel.FindStringSubmatch(line)
		if match == nil {
			break
		}
		label := match[1]
		if !reIdent.MatchString(label) {
			err = atToken(label, ErrLabelInvalid)
			return
		}
		if _, ok := asm.Label[label]; ok {
			err = atToken(label, ErrLabelDuplicate)
			return
		}
		asm.Label[label] = asm.currentIp()
		asm.lonely = lineno
		if asm.Verbose {
			log.Debugf("asm: label %v = %v", label, asm.Label[label])
		}
		line = strings.TrimSpace(line[len(match[0]):])
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = atToken(words[1], ErrEquateDuplicate)
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

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = atToken(name, ErrMacroSyntax)
			return
		}
		if asm.expanding[name] {
			err = atToken(name, ErrMacroRecursion)
			return
		}
		asm.expanding[name] = true
		defer delete(asm.expanding, name)
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique per expansion.
		local := fmt.Sprintf("%v_%v_", name, lineno)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			var mwords []string
			mwords, err = asm.parseLine(line, lineno)
			if err == nil {
				err = asm.parseWords(mwords, lineno)
			}
			if err != nil {
				err = syntaxError(lineno, line, err)
				err = ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentIp gets the index the next instruction will be assigned.
func (asm *Assembler) currentIp() int {
	return len(asm.Opcode)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = syntaxError(lineno, line, err)
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.Opcode = asm.Opcode[:0]
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)
	asm.lonely = 0
	asm.expanding = map[string]bool{}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Debugf("asm %v: %v", lineno, text)
		}

		text_comment, _, _ := strings.Cut(text, ";")
		line = strings.TrimSpace(text_comment)
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
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
				err = atToken(words[1], ErrMacroDuplicate)
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

		if len(words) > 0 && words[0] == ".endm" {
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

	// A label must be followed by an instruction.
	for label, ip := range asm.Label {
		if ip == asm.currentIp() {
			lineno = asm.lonely
			line = label + ":"
			err = atToken(label, ErrLabelLonely)
			return
		}
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		ip, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = atToken(label, ErrLabelMissing(label))
			return
		}
		op.Code.Operand = int32(ip)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
		Label:   maps.Clone(asm.Label),
	}

	return
}

// parseOperand parses an operand word. Label references are returned
// unresolved in label.
func (asm *Assembler) parseOperand(word string) (value int64, label string, err error) {
	if strings.HasPrefix(word, "[") {
		if !strings.HasSuffix(word, "]") || len(word) < 3 {
			err = ErrParseNumber(word)
			return
		}
		word = word[1 : len(word)-1]
		// Equates are substituted on whole words only.
		if equate, ok := asm.Equate[word]; ok {
			word = equate
		}
	}

	value, err = asm.valueOf(word)
	if err == nil {
		value, err = operandOf(word, value)
		return
	}

	if reIdent.MatchString(word) {
		err = nil
		label = word
		return
	}

	return
}

// operandOf range checks an operand value. Decimals are signed. 0x and 0b
// magnitudes may use all operand bits, and are returned sign extended as
// the machine decodes them.
func operandOf(word string, value int64) (int64, error) {
	lower := strings.ToLower(strings.TrimPrefix(word, "~"))
	magnitude := strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b")

	switch {
	case value < OPERAND_MIN:
	case magnitude && value <= OPERAND_MAX:
		return int64(int32(uint32(value)<<OPERAND_SHIFT) >> OPERAND_SHIFT), nil
	case value <= OPERAND_SIGNED_MAX:
		return value, nil
	}

	return value, ErrOperandRange(value)
}

// parseWords evaluates the words of an instruction.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	op, ok := LookupOpCode(words[0])
	if !ok {
		err = atToken(words[0], ErrOpcodeInvalid)
		return
	}

	opcode := Opcode{
		LineNo: lineno,
		Ip:     asm.currentIp(),
		Words:  slices.Clone(words),
		Code:   MakeCode(op),
	}

	switch {
	case op.Arity() == 0 && len(words) > 1:
		err = atToken(words[1], ErrOpcodeExtraArgs)
		return
	case op.Arity() == 1 && len(words) < 2:
		err = atToken(words[0], ErrOpcodeValueMissing)
		return
	case op.Arity() == 1 && len(words) > 2:
		err = atToken(words[2], ErrOpcodeExtraArgs)
		return
	case op.Arity() == 1:
		var value int64
		var label string
		value, label, err = asm.parseOperand(words[1])
		if err != nil {
			err = atToken(words[1], err)
			return
		}
		opcode.Code.Operand = int32(value)
		opcode.LinkLabel = label
	}

	asm.Opcode = append(asm.Opcode, opcode)

	return
}

// IsSyntax returns true if err came from the assembler.
func IsSyntax(err error) bool {
	var se ErrSyntax
	var me ErrMacro
	return errors.As(err, &se) || errors.As(err, &me)
}
