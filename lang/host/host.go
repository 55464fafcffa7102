// Package host declares the interfaces pass 1 consumes for everything the
// core intentionally does not implement itself: module lookup, identifier
// construction, macro expansion, and querying the compile-time state a
// running VM would otherwise own (spec §1, §6). A real embedding supplies
// its own Module/VM/MacroTransformer; this package also ships a minimal
// in-memory implementation (default.go) sufficient to compile and test
// programs without one.
package host

import (
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

// Binding is a toplevel name resolved against a Module: the target of a
// GRef/GSet, or the thing define-inline/define-constant folding reads to
// decide whether a reference may be replaced by its value.
type Binding interface {
	Name() sexpr.Symbol
	Module() Module
	// Const reports whether the binding was introduced by define-constant
	// (or an equivalent host-level declaration), the precondition pass 1
	// checks before folding a GRef to the bound Const node.
	Const() bool
	// Value returns the binding's current value and whether it is known at
	// compile time at all (an unbound forward reference is not).
	Value() (sexpr.Value, bool)
}

// Module is a namespace of toplevel Bindings, with optional module-to-module
// imports (spec §4.4's with-module/select-module/import).
type Module interface {
	Name() sexpr.Symbol
	Lookup(name sexpr.Symbol) (Binding, bool)
	Define(name sexpr.Symbol, b Binding)
	Import(other Module)
}

// MacroTransformer expands one use of a macro keyword. useEnv is opaque to
// this package (typically a *cenv.CEnv) and passed through unexamined to
// whatever implements the interface.
type MacroTransformer interface {
	Expand(form sexpr.Value, useEnv any) (sexpr.Value, error)
}

// EvalSituation names which of eval-when's three situations compilation is
// currently running under (spec §4.4's eval-when).
type EvalSituation uint8

const (
	SituationEval EvalSituation = iota
	SituationLoad
	SituationCompile
)

func (s EvalSituation) String() string {
	switch s {
	case SituationEval:
		return "eval"
	case SituationLoad:
		return "load"
	case SituationCompile:
		return "compile"
	default:
		return "<invalid situation>"
	}
}

// CompileFlag is a bit in the VM's compile-time flag set (spec §6's
// "VM compile-flag queries"), e.g. whether inlining or constant folding is
// currently enabled.
type CompileFlag uint32

const (
	NoInline CompileFlag = 1 << iota
	NoConstFold
	NoSourceInfo
)

// VM is the subset of a running virtual machine's compile-time state pass 1
// and pass 2 need to query: the module compilation is currently targeting,
// the active eval-when situation, and which compile flags are set.
type VM interface {
	CurrentModule() Module
	SetCurrentModule(Module)
	EvalSituation() EvalSituation
	CompilerFlagIsSet(flag CompileFlag) bool
}

// MakeIdentifier builds the ir.Identifier naming sym in mod. It exists so
// callers outside this package never construct an ir.Identifier by hand,
// keeping the Module-as-any escape hatch (lang/ir has no import on this
// package) centralized in one place.
func MakeIdentifier(sym sexpr.Symbol, mod Module) ir.Identifier {
	return ir.Identifier{Name: sym, Module: mod}
}

// IdentifierModule recovers the Module stored in id, or nil if id was built
// without one (e.g. a free identifier pass 1 hasn't resolved yet).
func IdentifierModule(id ir.Identifier) Module {
	if id.Module == nil {
		return nil
	}
	m, _ := id.Module.(Module)
	return m
}
