package pass1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

func TestCompileQuasiquoteWithNoUnquoteFoldsToConst(t *testing.T) {
	form := list(sym("quasiquote"), list(sexpr.Int(1), sexpr.Int(2)))
	node, err := compile(t, form)
	require.NoError(t, err)
	c, ok := node.(*ir.Const)
	require.True(t, ok)
	assert.Equal(t, list(sexpr.Int(1), sexpr.Int(2)), c.Value)
}

func TestCompileQuasiquoteUnquoteInsertsNonConstantCode(t *testing.T) {
	// a template with a non-constant unquoted sub-expression can't fold to
	// a single Const, so qq must rebuild the spine with Cons nodes instead.
	form := list(sym("lambda"), list(sym("x")),
		list(sym("quasiquote"), list(sexpr.Int(1), list(sym("unquote"), sym("x")))),
	)
	node, err := compile(t, form)
	require.NoError(t, err)
	lam, ok := node.(*ir.Lambda)
	require.True(t, ok)
	_, ok = lam.Body.(*ir.Cons)
	assert.True(t, ok)
}

func TestCompileQuasiquoteUnquoteSplicingAppends(t *testing.T) {
	form := list(sym("quasiquote"),
		&sexpr.Pair{
			Car: list(sym("unquote-splicing"), list(sym("quote"), list(sexpr.Int(1), sexpr.Int(2)))),
			Cdr: sexpr.Nil,
		},
	)
	node, err := compile(t, form)
	require.NoError(t, err)
	_, ok := node.(*ir.Append)
	assert.True(t, ok)
}

func TestCompileQuasiquoteNestedIncreasesDepth(t *testing.T) {
	form := list(sym("quasiquote"), list(sym("quasiquote"), list(sym("unquote"), sexpr.Int(1))))
	node, err := compile(t, form)
	require.NoError(t, err)
	// the inner unquote is shielded by the extra quasiquote nesting, so it
	// is reconstructed as data (a Cons of 'unquote and the sub-template)
	// rather than spliced in as code.
	_, ok := node.(*ir.Cons)
	assert.True(t, ok)
}
