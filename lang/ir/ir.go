// Package ir implements the intermediate representation that is the
// currency between the compiler's three passes (spec §3, §4.1): a closed
// set of tagged tree nodes with uniform accessors. Tree traversals in pass 2
// and pass 3 dispatch with a type switch on the concrete node type; a node's
// Tag names its kind in printed IR (lang/diag) and in the packed form.
package ir

import "github.com/embers-lang/embers/lang/token"

// Tag is the small integer discriminant of an IR node, used to name the
// node's kind when printing and packing IR.
type Tag uint8

//nolint:revive
const (
	TagDefine Tag = iota
	TagLRef
	TagLSet
	TagGRef
	TagGSet
	TagConst
	TagIf
	TagLet
	TagReceive
	TagLambda
	TagLabel
	TagSeq
	TagCall
	TagAsm
	TagPromise
	TagCons
	TagAppend
	TagMemv
	TagEq
	TagEqv
	TagList
	TagListStar
	TagVector
	TagList2Vector
	TagIt

	TagMax
)

var tagNames = [TagMax]string{
	TagDefine:      "DEFINE",
	TagLRef:        "LREF",
	TagLSet:        "LSET",
	TagGRef:        "GREF",
	TagGSet:        "GSET",
	TagConst:       "CONST",
	TagIf:          "IF",
	TagLet:         "LET",
	TagReceive:     "RECEIVE",
	TagLambda:      "LAMBDA",
	TagLabel:       "LABEL",
	TagSeq:         "SEQ",
	TagCall:        "CALL",
	TagAsm:         "ASM",
	TagPromise:     "PROMISE",
	TagCons:        "CONS",
	TagAppend:      "APPEND",
	TagMemv:        "MEMV",
	TagEq:          "EQ?",
	TagEqv:         "EQV?",
	TagList:        "LIST",
	TagListStar:    "LIST*",
	TagVector:      "VECTOR",
	TagList2Vector: "LIST->VECTOR",
	TagIt:          "IT",
}

func (t Tag) String() string {
	if t < TagMax {
		return tagNames[t]
	}
	return "<invalid tag>"
}

// Node is implemented by every IR variant listed in spec §3's node table.
// Src is the opaque "source form" handle: it never participates in
// equality or optimization, and is nil for nodes synthesized by pass 2
// (e.g. an embedded LABEL body) rather than read from source.
type Node interface {
	Tag() Tag
	Src() token.Pos
	SetSrc(token.Pos)
}

// base is embedded by every concrete node to provide the Src/SetSrc pair
// without repeating it in each variant.
type base struct {
	src token.Pos
}

func (b *base) Src() token.Pos     { return b.src }
func (b *base) SetSrc(p token.Pos) { b.src = p }

// Walk calls visit on node and then recurses into every child IR node it
// directly contains. Pass 2 uses it to find call sites; Copy and the
// diagnostic printer (lang/diag) each traverse IR with their own switch.
func Walk(node Node, visit func(Node)) {
	if node == nil {
		return
	}
	visit(node)
	switch n := node.(type) {
	case *Define:
		Walk(n.Expr, visit)
	case *LSet:
		Walk(n.Expr, visit)
	case *GSet:
		Walk(n.Expr, visit)
	case *If:
		Walk(n.Test, visit)
		Walk(n.Then, visit)
		Walk(n.Else, visit)
	case *Let:
		for _, e := range n.Inits {
			Walk(e, visit)
		}
		Walk(n.Body, visit)
	case *Receive:
		Walk(n.Producer, visit)
		Walk(n.Body, visit)
	case *Lambda:
		Walk(n.Body, visit)
	case *Label:
		Walk(n.Body, visit)
	case *Seq:
		for _, e := range n.Body {
			Walk(e, visit)
		}
	case *Call:
		Walk(n.Proc, visit)
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *Asm:
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *Promise:
		Walk(n.Expr, visit)
	case *Cons:
		Walk(n.X, visit)
		Walk(n.Y, visit)
	case *Append:
		Walk(n.X, visit)
		Walk(n.Y, visit)
	case *Memv:
		Walk(n.X, visit)
		Walk(n.Y, visit)
	case *Eq:
		Walk(n.X, visit)
		Walk(n.Y, visit)
	case *Eqv:
		Walk(n.X, visit)
		Walk(n.Y, visit)
	case *List:
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *ListStar:
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *Vector:
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *List2Vector:
		Walk(n.Arg, visit)
	}
}
