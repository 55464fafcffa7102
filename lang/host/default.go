package host

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/embers-lang/embers/lang/sexpr"
)

// binding is the default Binding: a plain, mutable toplevel slot.
type binding struct {
	name    sexpr.Symbol
	mod     Module
	value   sexpr.Value
	hasVal  bool
	isConst bool
}

func (b *binding) Name() sexpr.Symbol { return b.name }
func (b *binding) Module() Module     { return b.mod }
func (b *binding) Const() bool        { return b.isConst }
func (b *binding) Value() (sexpr.Value, bool) {
	return b.value, b.hasVal
}

// NewBinding builds a default Binding naming sym in mod. mod may be any
// Module implementation, so pass 1 can use it to install a toplevel
// definition in whatever Module the embedding host supplied.
func NewBinding(mod Module, sym sexpr.Symbol, value sexpr.Value, hasValue, isConst bool) Binding {
	return &binding{name: sym, mod: mod, value: value, hasVal: hasValue, isConst: isConst}
}

// module is the default Module: a name and a flat Binding table, backed by
// the same swiss-table map the teacher uses for its own runtime map value
// (lang/machine/map.go), repurposed here to hold compile-time bindings
// instead of a Scheme-level dictionary value.
type module struct {
	name    sexpr.Symbol
	table   *swiss.Map[sexpr.Symbol, Binding]
	imports []Module
}

// NewModule returns an empty module named name.
func NewModule(name sexpr.Symbol) Module {
	return &module{name: name, table: swiss.NewMap[sexpr.Symbol, Binding](8)}
}

func (m *module) Name() sexpr.Symbol { return m.name }

func (m *module) Lookup(name sexpr.Symbol) (Binding, bool) {
	if b, ok := m.table.Get(name); ok {
		return b, true
	}
	for _, imp := range m.imports {
		if b, ok := imp.Lookup(name); ok {
			return b, true
		}
	}
	return nil, false
}

func (m *module) Define(name sexpr.Symbol, b Binding) {
	m.table.Put(name, b)
}

func (m *module) Import(other Module) {
	m.imports = append(m.imports, other)
}

// DefineValue is a convenience used by tests and the default VM to install a
// plain (non-constant) toplevel binding.
func DefineValue(m Module, name sexpr.Symbol, v sexpr.Value) {
	m.Define(name, NewBinding(m, name, v, true, false))
}

// DefineConstant installs a toplevel binding marked Const, as define-constant
// does (spec §4.4).
func DefineConstant(m Module, name sexpr.Symbol, v sexpr.Value) {
	m.Define(name, NewBinding(m, name, v, true, true))
}

func (m *module) String() string { return fmt.Sprintf("#<module %s>", m.name.Name) }

// defaultVM is the minimal VM a standalone compile (no embedding host)
// compiles against.
type defaultVM struct {
	current   Module
	situation EvalSituation
	flags     CompileFlag
}

// NewVM returns a VM whose current module is current and whose flags are
// all clear.
func NewVM(current Module) VM {
	return &defaultVM{current: current, situation: SituationEval}
}

func (v *defaultVM) CurrentModule() Module         { return v.current }
func (v *defaultVM) SetCurrentModule(m Module)     { v.current = m }
func (v *defaultVM) EvalSituation() EvalSituation  { return v.situation }
func (v *defaultVM) CompilerFlagIsSet(f CompileFlag) bool {
	return v.flags&f != 0
}

// SetEvalSituation and SetCompilerFlag let pass 1 implement eval-when and a
// host implement (compile-flag-set! ...) without widening the VM interface
// with setters every caller would otherwise need.
func SetEvalSituation(v VM, s EvalSituation) {
	if dv, ok := v.(*defaultVM); ok {
		dv.situation = s
	}
}

func SetCompilerFlag(v VM, f CompileFlag, on bool) {
	dv, ok := v.(*defaultVM)
	if !ok {
		return
	}
	if on {
		dv.flags |= f
	} else {
		dv.flags &^= f
	}
}
