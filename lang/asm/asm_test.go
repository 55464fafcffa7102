package asm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embers-lang/embers/lang/asm"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/pass3"
	"github.com/embers-lang/embers/lang/sexpr"
)

func TestDisassembleRendersConstantsAndCode(t *testing.T) {
	code := &pass3.Code{
		Consts: []*ir.Const{{Value: sexpr.Int(42)}},
		Insns: []pass3.Insn{
			{Op: pass3.CONST, Operand: 0, HasOperand: true},
			{Op: pass3.RET},
		},
		MaxStack: 0,
	}
	out := asm.Disassemble(code)
	assert.Contains(t, out, "function: 0")
	assert.Contains(t, out, "int\t42")
	assert.Contains(t, out, "CONST 0")
	assert.Contains(t, out, "RET")
}

func TestAssembleRoundTripsDisassembledConst(t *testing.T) {
	code := pass3.Generate(&ir.Const{Value: sexpr.Int(7)})
	text := asm.Disassemble(code)

	got, err := asm.Assemble([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, code.Insns, got.Insns)
	require.Len(t, got.Consts, 1)
	assert.Equal(t, sexpr.Int(7), got.Consts[0].Value)
	assert.Equal(t, code.MaxStack, got.MaxStack)
}

func TestAssembleParsesGlobalsAndBoolString(t *testing.T) {
	src := `function: 1
	constants:
		bool	#t
		string	"hi"
	globals:
		foo
	code:
		CONSTT
		PUSH
		GREF 0
		RET
`
	code, err := asm.Assemble([]byte(src))
	require.NoError(t, err)
	require.Len(t, code.Consts, 2)
	assert.Equal(t, sexpr.Bool(true), code.Consts[0].Value)
	assert.Equal(t, sexpr.Str("hi"), code.Consts[1].Value)
	require.Len(t, code.Globals, 1)
	assert.Equal(t, "foo", code.Globals[0].Name.Name)
	assert.Equal(t, []pass3.Opcode{pass3.CONSTT, pass3.PUSH, pass3.GREF, pass3.RET},
		opcodesOf(code))
}

func TestAssembleRejectsUnknownOpcode(t *testing.T) {
	src := "function: 0\n\tcode:\n\t\tNOTANOPCODE\n"
	_, err := asm.Assemble([]byte(src))
	assert.Error(t, err)
}

func opcodesOf(c *pass3.Code) []pass3.Opcode {
	ops := make([]pass3.Opcode, len(c.Insns))
	for i, insn := range c.Insns {
		ops[i] = insn.Op
	}
	return ops
}
