package cenv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/host"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

func TestTopLevel(t *testing.T) {
	mod := host.NewModule(sexpr.Symbol{Name: "user"})
	c := cenv.New(mod)
	assert.True(t, c.Toplevel())

	x := sexpr.Symbol{Name: "x"}
	c2 := c.Extend(cenv.Lexical, map[sexpr.Symbol]any{x: ir.NewLVar(x)})
	assert.False(t, c2.Toplevel())
	assert.True(t, c.Toplevel(), "extending must not mutate the parent cenv")
}

func TestLookupShadowing(t *testing.T) {
	mod := host.NewModule(sexpr.Symbol{Name: "user"})
	x := sexpr.Symbol{Name: "x"}
	outer := ir.NewLVar(x)
	inner := ir.NewLVar(x)

	c := cenv.New(mod).
		Extend(cenv.Lexical, map[sexpr.Symbol]any{x: outer}).
		Extend(cenv.Lexical, map[sexpr.Symbol]any{x: inner})

	got, ok := c.LookupLVar(x)
	assert.True(t, ok)
	assert.Same(t, inner, got, "innermost binding must shadow the outer one")
}

func TestLookupMissesFallsThroughToGlobal(t *testing.T) {
	mod := host.NewModule(sexpr.Symbol{Name: "user"})
	c := cenv.New(mod)
	_, ok := c.LookupLVar(sexpr.Symbol{Name: "undefined"})
	assert.False(t, ok)
}

func TestNameHint(t *testing.T) {
	mod := host.NewModule(sexpr.Symbol{Name: "user"})
	c := cenv.New(mod)
	assert.False(t, c.HasNameHint)

	named := c.AddName(sexpr.Symbol{Name: "loop"})
	assert.True(t, named.HasNameHint)
	assert.Equal(t, "loop", named.NameHint.Name)

	cleared := named.SansName()
	assert.False(t, cleared.HasNameHint)
}

func TestLookupMacro(t *testing.T) {
	mod := host.NewModule(sexpr.Symbol{Name: "user"})
	name := sexpr.Symbol{Name: "my-macro"}
	xf := fakeTransformer{}
	c := cenv.New(mod).Extend(cenv.Syntactic, map[sexpr.Symbol]any{name: xf})

	got, ok := c.LookupMacro(name)
	assert.True(t, ok)
	assert.Equal(t, xf, got)

	_, ok = c.LookupLVar(name)
	assert.False(t, ok, "a syntactic binding must not resolve as a lexical one")
}

type fakeTransformer struct{}

func (fakeTransformer) Expand(form sexpr.Value, useEnv any) (sexpr.Value, error) {
	return form, nil
}
