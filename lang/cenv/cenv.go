// Package cenv implements the compile-time environment pass 1 threads
// through every recursive call: the module being compiled into, the chain
// of lexical/syntactic/pattern frames currently in scope, and a couple of
// pieces of advisory state (a name hint for anonymous lambdas, and the
// innermost enclosing Lambda for self-recursion detection). Modeled on the
// resolver's own parent-linked block chain (lang/resolver/resolver.go),
// generalized from a single kind of block to the three frame kinds pass 1
// needs (spec §4.3).
package cenv

import (
	"github.com/embers-lang/embers/lang/host"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

// FrameKind distinguishes what a Frame's bindings mean.
type FrameKind uint8

const (
	// Lexical frames bind sexpr.Symbol to *ir.LVar: an ordinary let/lambda
	// scope.
	Lexical FrameKind = iota
	// Syntactic frames bind sexpr.Symbol to a host.MacroTransformer: a
	// let-syntax/letrec-syntax scope.
	Syntactic
	// Pattern frames bind sexpr.Symbol to whatever a macro expander uses to
	// represent a pattern variable; cenv treats the value as opaque.
	Pattern
)

// Frame is one lexical/syntactic/pattern scope, linked to its parent the way
// the resolver links blocks (innermost frame first, nil parent at toplevel).
type Frame struct {
	Kind     FrameKind
	Bindings map[sexpr.Symbol]any
	Parent   *Frame
}

// CEnv is the compile-time environment threaded through pass 1 (spec §4.3).
type CEnv struct {
	Module          host.Module
	Frame           *Frame
	NameHint        sexpr.Symbol
	HasNameHint     bool
	EnclosingLambda *ir.Lambda
}

// New returns a toplevel CEnv: no frames, compiling into mod.
func New(mod host.Module) *CEnv {
	return &CEnv{Module: mod}
}

// Toplevel reports whether there is no lexical/syntactic/pattern frame in
// scope at all, i.e. whether a form is being compiled directly at module
// level (spec §4.3's toplevel? predicate; several special forms, e.g.
// define, are only legal there).
func (c *CEnv) Toplevel() bool { return c.Frame == nil }

// Extend returns a new CEnv with a fresh frame of the given kind and
// bindings pushed in front of c's current frame. c itself is not mutated, so
// callers can freely extend from the same CEnv along independent branches
// (e.g. each clause of a case/cond sharing one outer cenv).
func (c *CEnv) Extend(kind FrameKind, bindings map[sexpr.Symbol]any) *CEnv {
	nc := *c
	nc.Frame = &Frame{Kind: kind, Bindings: bindings, Parent: c.Frame}
	return &nc
}

// AddName returns a CEnv identical to c but carrying name as the hint the
// next lambda compiled under it should take if it would otherwise be
// anonymous (spec §4.4's naming of (define f (lambda ...)) and named-let
// loops).
func (c *CEnv) AddName(name sexpr.Symbol) *CEnv {
	nc := *c
	nc.NameHint, nc.HasNameHint = name, true
	return &nc
}

// SansName returns a CEnv identical to c but with any name hint cleared,
// used once the hint has been consumed (or when compiling a sub-expression
// that must not inherit it, e.g. a lambda's argument list).
func (c *CEnv) SansName() *CEnv {
	nc := *c
	nc.NameHint, nc.HasNameHint = sexpr.Symbol{}, false
	return &nc
}

// WithLambda returns a CEnv identical to c but with EnclosingLambda set to
// lam, used while compiling a lambda's own body so self-recursive calls can
// be detected (spec §4.9's CallRec/CallTailRec classification).
func (c *CEnv) WithLambda(lam *ir.Lambda) *CEnv {
	nc := *c
	nc.EnclosingLambda = lam
	return &nc
}

// Lookup walks frames from the innermost outward, returning the first
// binding found for name and the kind of frame it was found in. It returns
// (nil, 0, false) if no frame binds name, meaning it must be resolved as a
// global in c.Module instead.
//
// Frames are searched innermost-first so an inner binding correctly shadows
// an outer one of the same name, matching how the resolver's own block chain
// is searched (lang/resolver/resolver.go's use()).
func (c *CEnv) Lookup(name sexpr.Symbol) (value any, kind FrameKind, ok bool) {
	for f := c.Frame; f != nil; f = f.Parent {
		if v, found := f.Bindings[name]; found {
			return v, f.Kind, true
		}
	}
	return nil, 0, false
}

// LookupLVar is a convenience over Lookup for the common case of resolving a
// lexical variable reference.
func (c *CEnv) LookupLVar(name sexpr.Symbol) (*ir.LVar, bool) {
	v, kind, ok := c.Lookup(name)
	if !ok || kind != Lexical {
		return nil, false
	}
	lv, ok := v.(*ir.LVar)
	return lv, ok
}

// LookupMacro is a convenience over Lookup for resolving a possible macro
// keyword use.
func (c *CEnv) LookupMacro(name sexpr.Symbol) (host.MacroTransformer, bool) {
	v, kind, ok := c.Lookup(name)
	if !ok || kind != Syntactic {
		return nil, false
	}
	m, ok := v.(host.MacroTransformer)
	return m, ok
}
