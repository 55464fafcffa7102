package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embers-lang/embers/lang/host"
	"github.com/embers-lang/embers/lang/sexpr"
)

func TestModuleLookupAndDefine(t *testing.T) {
	m := host.NewModule(sexpr.Symbol{Name: "user"})
	name := sexpr.Symbol{Name: "pi"}

	_, ok := m.Lookup(name)
	assert.False(t, ok)

	host.DefineConstant(m, name, sexpr.Float(3.14159))
	b, ok := m.Lookup(name)
	assert.True(t, ok)
	assert.True(t, b.Const())
	v, has := b.Value()
	assert.True(t, has)
	assert.Equal(t, sexpr.Float(3.14159), v)
}

func TestModuleImportFallsThrough(t *testing.T) {
	base := host.NewModule(sexpr.Symbol{Name: "base"})
	name := sexpr.Symbol{Name: "x"}
	host.DefineValue(base, name, sexpr.Int(1))

	user := host.NewModule(sexpr.Symbol{Name: "user"})
	user.Import(base)

	b, ok := user.Lookup(name)
	assert.True(t, ok)
	assert.False(t, b.Const())
}

func TestVMDefaults(t *testing.T) {
	m := host.NewModule(sexpr.Symbol{Name: "user"})
	vm := host.NewVM(m)

	assert.Same(t, m, vm.CurrentModule())
	assert.Equal(t, host.SituationEval, vm.EvalSituation())
	assert.False(t, vm.CompilerFlagIsSet(host.NoInline))

	host.SetCompilerFlag(vm, host.NoInline, true)
	assert.True(t, vm.CompilerFlagIsSet(host.NoInline))
}

func TestMakeIdentifierRoundTrip(t *testing.T) {
	m := host.NewModule(sexpr.Symbol{Name: "user"})
	id := host.MakeIdentifier(sexpr.Symbol{Name: "car"}, m)
	assert.Same(t, m, host.IdentifierModule(id))
}
