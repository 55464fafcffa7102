// Package asm implements a human-readable textual form of a compiled
// pass3.Code, the same role the teacher's lang/compiler/asm.go plays for its
// own Program/Funcode: a disassembler to inspect what a pass compiled to,
// and a small assembler to hand-build bytecode in tests without going
// through pass 1/2 first.
//
// The format mirrors the teacher's section layout but drops the sections
// that have no counterpart in this simplified core: there is no cells:
// section (no mutable-variable boxing pass here), and no defers:/catches:
// sections (no exception/continuation machinery, spec §1 Non-goals).
//
//	function: <maxstack>
//		constants:
//			int    1234
//			bool   #t
//			string "abc"
//			symbol foo
//		globals:
//			foo
//		functions:                 # nested CLOSURE templates, in order
//			function: ...
//		code:
//			CONST 0
//			PUSH
//			RET
package asm

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/pass3"
	"github.com/embers-lang/embers/lang/sexpr"
)

// Disassemble renders code in the textual assembler format.
func Disassemble(code *pass3.Code) string {
	var buf bytes.Buffer
	writeFunction(&buf, code, 0)
	return buf.String()
}

func writeFunction(buf *bytes.Buffer, code *pass3.Code, depth int) {
	indent := strings.Repeat("\t", depth)
	fmt.Fprintf(buf, "%sfunction: %d\n", indent, code.MaxStack)

	if len(code.Consts) > 0 {
		fmt.Fprintf(buf, "%s\tconstants:\n", indent)
		for i, c := range code.Consts {
			fmt.Fprintf(buf, "%s\t\t%s\t# %03d\n", indent, constLine(c), i)
		}
	}
	if len(code.Globals) > 0 {
		fmt.Fprintf(buf, "%s\tglobals:\n", indent)
		for i, g := range code.Globals {
			fmt.Fprintf(buf, "%s\t\t%s\t# %03d\n", indent, g.Name.Name, i)
		}
	}
	if len(code.Functions) > 0 {
		fmt.Fprintf(buf, "%s\tfunctions:\n", indent)
		for _, fn := range code.Functions {
			writeFunction(buf, fn, depth+2)
		}
	}
	if len(code.Insns) > 0 {
		fmt.Fprintf(buf, "%s\tcode:\n", indent)
		for i, insn := range code.Insns {
			if insn.HasOperand {
				fmt.Fprintf(buf, "%s\t\t%s %d\t# %03d\n", indent, insn.Op, insn.Operand, i)
			} else {
				fmt.Fprintf(buf, "%s\t\t%s\t# %03d\n", indent, insn.Op, i)
			}
		}
	}
}

// constLine renders one constant table entry. Only the literal kinds an
// assembly source can express round-trip through Assemble; anything else
// (e.g. a compound Const produced by constant folding) still disassembles
// fine, it just can't be reassembled from text.
func constLine(c *ir.Const) string {
	switch v := c.Value.(type) {
	case sexpr.Int:
		return fmt.Sprintf("int\t%d", int64(v))
	case sexpr.Bool:
		if bool(v) {
			return "bool\t#t"
		}
		return "bool\t#f"
	case sexpr.Str:
		return fmt.Sprintf("string\t%s", strconv.Quote(string(v)))
	case sexpr.Symbol:
		return fmt.Sprintf("symbol\t%s", v.Name)
	default:
		return fmt.Sprintf("raw\t%s", c.Value.String())
	}
}

var sections = map[string]bool{
	"function:":  true,
	"constants:": true,
	"globals:":   true,
	"functions:": true,
	"code:":      true,
}

// Assemble parses the textual format back into a pass3.Code. Only the
// constant kinds Disassemble can produce from a literal (int, bool, string,
// symbol) are supported: this module has no general s-expression reader
// (spec §1 scope), so there is no way to parse an arbitrary constant's
// external representation back into a sexpr.Value. Constants of any other
// shape must be patched into the result's Consts slice by the caller.
func Assemble(src []byte) (*pass3.Code, error) {
	p := &parser{s: bufio.NewScanner(bytes.NewReader(src))}
	fields := p.next()
	code, fields, err := p.function(fields)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, fmt.Errorf("asm: unexpected trailing section: %s", fields[0])
	}
	return code, nil
}

type parser struct {
	s   *bufio.Scanner
	err error
}

func (p *parser) function(fields []string) (*pass3.Code, []string, error) {
	if len(fields) == 0 || !strings.EqualFold(fields[0], "function:") {
		return nil, fields, fmt.Errorf("asm: expected function: section")
	}
	if len(fields) != 2 {
		return nil, fields, fmt.Errorf("asm: function: wants exactly one field (maxstack), got %d", len(fields)-1)
	}
	maxStack, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fields, fmt.Errorf("asm: invalid maxstack: %w", err)
	}

	code := &pass3.Code{MaxStack: maxStack}
	fields = p.next()

	fields, err = p.constants(code, fields)
	if err != nil {
		return nil, fields, err
	}
	fields, err = p.globals(code, fields)
	if err != nil {
		return nil, fields, err
	}
	fields, err = p.functions(code, fields)
	if err != nil {
		return nil, fields, err
	}
	fields, err = p.code(code, fields)
	if err != nil {
		return nil, fields, err
	}
	return code, fields, nil
}

func (p *parser) constants(code *pass3.Code, fields []string) ([]string, error) {
	if len(fields) == 0 || !strings.EqualFold(fields[0], "constants:") {
		return fields, nil
	}
	for fields = p.next(); len(fields) > 0 && !sections[fields[0]]; fields = p.next() {
		if len(fields) < 2 {
			return fields, fmt.Errorf("asm: invalid constant line: %q", strings.Join(fields, " "))
		}
		v, err := parseConst(fields[0], strings.Join(fields[1:], " "))
		if err != nil {
			return fields, err
		}
		code.Consts = append(code.Consts, &ir.Const{Value: v})
	}
	return fields, nil
}

func parseConst(kind, rest string) (sexpr.Value, error) {
	switch kind {
	case "int":
		i, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("asm: invalid int constant: %w", err)
		}
		return sexpr.Int(i), nil
	case "bool":
		switch rest {
		case "#t":
			return sexpr.Bool(true), nil
		case "#f":
			return sexpr.Bool(false), nil
		}
		return nil, fmt.Errorf("asm: invalid bool constant: %q", rest)
	case "string":
		s, err := strconv.Unquote(rest)
		if err != nil {
			return nil, fmt.Errorf("asm: invalid string constant: %w", err)
		}
		return sexpr.Str(s), nil
	case "symbol":
		return sexpr.Symbol{Name: rest}, nil
	default:
		return nil, fmt.Errorf("asm: unsupported constant kind %q (no general reader to parse it back)", kind)
	}
}

func (p *parser) globals(code *pass3.Code, fields []string) ([]string, error) {
	if len(fields) == 0 || !strings.EqualFold(fields[0], "globals:") {
		return fields, nil
	}
	for fields = p.next(); len(fields) > 0 && !sections[fields[0]]; fields = p.next() {
		code.Globals = append(code.Globals, ir.Identifier{Name: sexpr.Symbol{Name: fields[0]}})
	}
	return fields, nil
}

func (p *parser) functions(code *pass3.Code, fields []string) ([]string, error) {
	if len(fields) == 0 || !strings.EqualFold(fields[0], "functions:") {
		return fields, nil
	}
	fields = p.next()
	for len(fields) > 0 && strings.EqualFold(fields[0], "function:") {
		var nested *pass3.Code
		var err error
		nested, fields, err = p.function(fields)
		if err != nil {
			return fields, err
		}
		code.Functions = append(code.Functions, nested)
	}
	return fields, nil
}

func (p *parser) code(code *pass3.Code, fields []string) ([]string, error) {
	if len(fields) == 0 || !strings.EqualFold(fields[0], "code:") {
		return fields, fmt.Errorf("asm: expected code: section")
	}
	for fields = p.next(); len(fields) > 0 && !sections[fields[0]]; fields = p.next() {
		op, ok := pass3.OpcodeByName[strings.ToUpper(fields[0])]
		if !ok {
			return fields, fmt.Errorf("asm: unknown opcode %q", fields[0])
		}
		if len(fields) == 1 {
			code.Insns = append(code.Insns, pass3.Insn{Op: op})
			continue
		}
		if len(fields) != 2 {
			return fields, fmt.Errorf("asm: %s: expected zero or one operand, got %d", fields[0], len(fields)-1)
		}
		operand, err := strconv.Atoi(fields[1])
		if err != nil {
			return fields, fmt.Errorf("asm: %s: invalid operand: %w", fields[0], err)
		}
		code.Insns = append(code.Insns, pass3.Insn{Op: op, Operand: operand, HasOperand: true})
	}
	return fields, nil
}

// next returns the fields of the next non-empty, non-comment line, stripping
// a trailing "# ..." comment the same way Disassemble emits one.
func (p *parser) next() []string {
	for p.s.Scan() {
		line := p.s.Text()
		// A comment is a '#' at the line start or after whitespace, followed
		// by whitespace or the line end, so "#t"/"#f" values are kept.
		for i := 0; i < len(line); i++ {
			if line[i] != '#' || (i > 0 && line[i-1] != ' ' && line[i-1] != '\t') {
				continue
			}
			if i+1 == len(line) || line[i+1] == ' ' || line[i+1] == '\t' {
				line = line[:i]
				break
			}
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields
		}
	}
	return nil
}
