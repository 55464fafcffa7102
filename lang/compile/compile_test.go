package compile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embers-lang/embers/lang/compile"
	"github.com/embers-lang/embers/lang/pass3"
	"github.com/embers-lang/embers/lang/sexpr"
)

func sym(name string) sexpr.Symbol { return sexpr.Symbol{Name: name} }

func TestCompileConstant(t *testing.T) {
	code, err := compile.Compile(sexpr.Int(1), nil)
	require.NoError(t, err)
	assert.Equal(t, []pass3.Opcode{pass3.CONST, pass3.RET}, opcodesOf(code))
}

func TestCompileToplevelLambdaReturnsTemplate(t *testing.T) {
	// (lambda (x) x)
	formals := sexpr.List(sym("x"))
	body := []sexpr.Value{sym("x")}

	code, err := compile.CompileToplevelLambda(formals, body, sym("identity"), nil)
	require.NoError(t, err)
	assert.Equal(t, []pass3.Opcode{pass3.LREF, pass3.RET}, opcodesOf(code))
}

func opcodesOf(c *pass3.Code) []pass3.Opcode {
	ops := make([]pass3.Opcode, len(c.Insns))
	for i, insn := range c.Insns {
		ops[i] = insn.Op
	}
	return ops
}
