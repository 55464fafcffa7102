package ir

import "github.com/embers-lang/embers/lang/sexpr"

// LVar is a lexical binding site: the target of every LRef/LSet that names
// it, and the binder in exactly one Let/Receive/Lambda (spec §3's
// invariants). Its lifetime is the enclosing IR; an LVar is never
// destroyed, only possibly left with zero references after pass 2 drops
// its binder.
//
// Init is the expression bound to the variable at its binding site, set
// once when the binding is created (spec §4.2) and consulted by pass 2's
// LREF-folding rewrite. RefCount and SetCount are mutated by passes 1 and 2
// as they discover LRef/LSet uses; spec invariant 1 requires RefCount to
// always equal the number of reachable LRef nodes naming this LVar (and
// likewise SetCount for LSet).
type LVar struct {
	Name     sexpr.Symbol
	Init     Node // nil until pass 1 (or pass 2 beta-reduction) assigns it
	RefCount int
	SetCount int
}

// NewLVar creates a fresh, as-yet-unreferenced binding for name.
func NewLVar(name sexpr.Symbol) *LVar {
	return &LVar{Name: name}
}

// Ref records one more LRef naming this LVar.
func (v *LVar) Ref() { v.RefCount++ }

// Unref removes one LRef naming this LVar; called by pass 2 when it folds
// away a reference (e.g. replacing an LRef with its constant value).
func (v *LVar) Unref() { v.RefCount-- }

// Set records one more LSet naming this LVar.
func (v *LVar) Set() { v.SetCount++ }

// Unassigned reports whether the variable is never the target of an LSet,
// the precondition pass 2 requires before it may fold an LRef to it into
// its Init expression.
func (v *LVar) Unassigned() bool { return v.SetCount == 0 }

// Dead reports whether the variable is referenced and set nowhere, the
// condition under which pass 2's dead-binding elimination drops its
// binding (spec §4.9).
func (v *LVar) Dead() bool { return v.RefCount == 0 && v.SetCount == 0 }
