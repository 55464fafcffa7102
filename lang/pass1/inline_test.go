package pass1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/host"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/pass1"
	"github.com/embers-lang/embers/lang/sexpr"
	"github.com/embers-lang/embers/lang/token"
)

func TestCompileInlineArithmeticOperator(t *testing.T) {
	form := list(sym("+"), sexpr.Int(1), sexpr.Int(2))
	node, err := compile(t, form)
	require.NoError(t, err)
	asm, ok := node.(*ir.Asm)
	require.True(t, ok)
	assert.Equal(t, int(token.ADD), asm.Insn.Opcode)
	assert.Len(t, asm.Args, 2)
}

func TestCompileInlineUnaryOperator(t *testing.T) {
	form := list(sym("not"), sexpr.Bool(false))
	node, err := compile(t, form)
	require.NoError(t, err)
	asm, ok := node.(*ir.Asm)
	require.True(t, ok)
	assert.Equal(t, int(token.NOT), asm.Insn.Opcode)
	assert.Len(t, asm.Args, 1)
}

func TestCompileInlineOperatorWrongArityErrors(t *testing.T) {
	form := list(sym("+"), sexpr.Int(1))
	_, err := compile(t, form)
	assert.Error(t, err)
}

func TestCompileInlineArithmeticOperatorFoldsThreeArgsLeftAssociatively(t *testing.T) {
	form := list(sym("+"), sexpr.Int(1), sexpr.Int(2), sexpr.Int(3))
	node, err := compile(t, form)
	require.NoError(t, err)
	outer, ok := node.(*ir.Asm)
	require.True(t, ok)
	assert.Equal(t, int(token.ADD), outer.Insn.Opcode)
	require.Len(t, outer.Args, 2)
	inner, ok := outer.Args[0].(*ir.Asm)
	require.True(t, ok)
	assert.Equal(t, int(token.ADD), inner.Insn.Opcode)
	_, ok = outer.Args[1].(*ir.Const)
	assert.True(t, ok)
}

func TestCompileInlineComparisonWithMoreThanTwoArgsFallsBackToCall(t *testing.T) {
	mod := host.NewModule(sym("test"))
	vm := host.NewVM(mod)
	host.DefineValue(mod, sym("<"), sexpr.Unspecified)
	form := list(sym("<"), sexpr.Int(1), sexpr.Int(2), sexpr.Int(3))

	node, err := pass1.Compile(form, cenv.New(mod), vm)
	require.NoError(t, err)
	call, ok := node.(*ir.Call)
	require.True(t, ok)
	assert.Len(t, call.Args, 3)
}

func TestCompileInlineOperatorShadowedByLocalBindingCallsInstead(t *testing.T) {
	// a lexical binding named "+" shadows the inlinable operator, so the
	// form must compile to an ordinary Call, not an Asm node.
	form := list(sym("let"), list(list(sym("+"), list(sym("lambda"), list(sym("a"), sym("b")), sym("a")))),
		list(sym("+"), sexpr.Int(1), sexpr.Int(2)),
	)
	node, err := compile(t, form)
	require.NoError(t, err)
	let, ok := node.(*ir.Let)
	require.True(t, ok)
	call, ok := let.Body.(*ir.Call)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)
}

func TestCompileConsCompilesToConsNode(t *testing.T) {
	form := list(sym("cons"), sexpr.Int(1), sexpr.Int(2))
	node, err := compile(t, form)
	require.NoError(t, err)
	_, ok := node.(*ir.Cons)
	assert.True(t, ok)
}

func TestCompileListCompilesToListNode(t *testing.T) {
	form := list(sym("list"), sexpr.Int(1), sexpr.Int(2), sexpr.Int(3))
	node, err := compile(t, form)
	require.NoError(t, err)
	l, ok := node.(*ir.List)
	require.True(t, ok)
	assert.Len(t, l.Args, 3)
}

func TestCompileListToVectorCompilesToList2Vector(t *testing.T) {
	form := list(sym("list->vector"), list(sym("quote"), list(sexpr.Int(1))))
	node, err := compile(t, form)
	require.NoError(t, err)
	_, ok := node.(*ir.List2Vector)
	assert.True(t, ok)
}

func TestCompileOrdinaryCallOfUnknownProcedure(t *testing.T) {
	mod := host.NewModule(sym("test"))
	vm := host.NewVM(mod)
	host.DefineValue(mod, sym("f"), sexpr.Unspecified)
	form := list(sym("f"), sexpr.Int(1))

	node, err := pass1.Compile(form, cenv.New(mod), vm)
	require.NoError(t, err)
	call, ok := node.(*ir.Call)
	require.True(t, ok)
	assert.Len(t, call.Args, 1)
}
