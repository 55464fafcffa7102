package diag_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embers-lang/embers/lang/diag"
	"github.com/embers-lang/embers/lang/sexpr"
)

func sym(name string) sexpr.Symbol { return sexpr.Symbol{Name: name} }

func TestCompileP1ProducesIR(t *testing.T) {
	node, err := diag.CompileP1(sexpr.Int(42))
	require.NoError(t, err)
	out := diag.SprintIR(node)
	assert.Contains(t, out, "CONST")
	assert.Contains(t, out, "42")
}

func TestCompileP2FoldsConstantIf(t *testing.T) {
	// (if #t 1 2)
	form := sexpr.List(sym("if"), sexpr.Bool(true), sexpr.Int(1), sexpr.Int(2))
	node, err := diag.CompileP2(form)
	require.NoError(t, err)
	out := diag.SprintIR(node)
	assert.Equal(t, "CONST 1\n", out)
	assert.NotContains(t, out, "IF")
}

func TestCompileP3ProducesDisassemblableBytecode(t *testing.T) {
	code, err := diag.CompileP3(sexpr.Int(7))
	require.NoError(t, err)
	text := diag.Disassemble(code)
	assert.True(t, strings.Contains(text, "CONST 0"))
	assert.True(t, strings.Contains(text, "RET"))
}

func TestSprintIRIndentsNestedNodes(t *testing.T) {
	form := sexpr.List(sym("if"), sexpr.Int(0), sexpr.Int(1), sexpr.Int(2))
	node, err := diag.CompileP1(form)
	require.NoError(t, err)
	out := diag.SprintIR(node)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.True(t, len(lines) >= 3)
	assert.True(t, strings.HasPrefix(lines[1], ". "))
}
