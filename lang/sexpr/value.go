// Package sexpr defines the minimal s-expression value model that pass 1
// consumes. The reader that produces these values from text is out of
// scope for this module (spec §1); sexpr only fixes the surface a reader
// must produce and the core manipulates: symbols, pairs, self-evaluating
// literals, and vectors.
package sexpr

import (
	"fmt"
	"strconv"
)

// Value is any Scheme datum pass 1 may encounter as a program or sub-form:
// a literal, a symbol, a pair, or a vector.
type Value interface {
	// String returns the external (read/write) representation of the value.
	String() string
}

// Symbol is an interned identifier. Two Symbols with the same Name denote
// the same binding target; callers are expected to intern symbols (e.g.
// through a shared table) so that Symbol equality can be compared with ==,
// matching Scheme's eq? on symbols.
type Symbol struct{ Name string }

func (s Symbol) String() string { return s.Name }

// Intern returns the canonical Symbol for name from the given table,
// creating and storing one the first time. Callers that don't need
// deduplication across many values may simply construct Symbol{Name: name}.
func Intern(table map[string]Symbol, name string) Symbol {
	if sym, ok := table[name]; ok {
		return sym
	}
	sym := Symbol{Name: name}
	table[name] = sym
	return sym
}

// Bool is a Scheme boolean. Everything other than Bool(false) is truthy in
// Scheme, including Nil and 0, which is why pass 1 and pass 2 never test
// truthiness themselves except through this type.
type Bool bool

func (b Bool) String() string {
	if b {
		return "#t"
	}
	return "#f"
}

// Int is an exact integer literal.
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is an inexact real literal.
type Float float64

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Str is a Scheme string literal.
type Str string

func (s Str) String() string { return strconv.Quote(string(s)) }

// Char is a single Scheme character literal.
type Char rune

func (c Char) String() string { return fmt.Sprintf("#\\%c", rune(c)) }

// Vector is a Scheme vector literal, #(...).
type Vector struct{ Items []Value }

func (v Vector) String() string {
	s := "#("
	for i, it := range v.Items {
		if i > 0 {
			s += " "
		}
		s += it.String()
	}
	return s + ")"
}

// Pair is a cons cell; a proper list is a chain of Pairs ending in Nil.
type Pair struct {
	Car, Cdr Value
}

func (p *Pair) String() string {
	s := "("
	var v Value = p
	first := true
	for {
		pr, ok := v.(*Pair)
		if !ok {
			break
		}
		if !first {
			s += " "
		}
		first = false
		s += pr.Car.String()
		v = pr.Cdr
	}
	if v != Nil {
		s += " . " + v.String()
	}
	return s + ")"
}

type nilType struct{}

func (nilType) String() string { return "()" }

// Nil is the empty list, the only value for which IsNull reports true.
var Nil Value = nilType{}

type unspecifiedType struct{}

func (unspecifiedType) String() string { return "#<unspecified>" }

// Unspecified is the value produced by forms whose result is not defined,
// e.g. (begin) or (set! x v). It corresponds to CONST-undef in spec §4.1.
var Unspecified Value = unspecifiedType{}

// IsNull reports whether v is the empty list.
func IsNull(v Value) bool { return v == Nil }

// IsPair reports whether v is a (possibly improper-list) cons cell.
func IsPair(v Value) bool { _, ok := v.(*Pair); return ok }

// IsSymbol reports whether v is a Symbol.
func IsSymbol(v Value) bool { _, ok := v.(Symbol); return ok }

// List builds a proper list from the given values.
func List(vs ...Value) Value {
	var result Value = Nil
	for i := len(vs) - 1; i >= 0; i-- {
		result = &Pair{Car: vs[i], Cdr: result}
	}
	return result
}

// ToSlice converts a proper list to a slice of its elements. ok is false if
// v is not a proper list (i.e. its final Cdr is not Nil).
func ToSlice(v Value) (elems []Value, ok bool) {
	for {
		if IsNull(v) {
			return elems, true
		}
		p, isPair := v.(*Pair)
		if !isPair {
			return elems, false
		}
		elems = append(elems, p.Car)
		v = p.Cdr
	}
}

// Eqv reports whether a and b are eqv? per R7RS: same object identity for
// pairs and vectors (a Vector by its backing array), same contents for
// strings, same symbol name, and numeric/char/bool values that are
// indistinguishable.
func Eqv(a, b Value) bool {
	switch av := a.(type) {
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av.Name == bv.Name
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Char:
		bv, ok := b.(Char)
		return ok && av == bv
	case nilType:
		_, ok := b.(nilType)
		return ok
	case unspecifiedType:
		_, ok := b.(unspecifiedType)
		return ok
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Vector:
		bv, ok := b.(Vector)
		return ok && len(av.Items) == len(bv.Items) &&
			(len(av.Items) == 0 || &av.Items[0] == &bv.Items[0])
	default:
		// pairs: identity comparison, matching R7RS eqv? on compound
		// objects.
		return a == b
	}
}
