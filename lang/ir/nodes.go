package ir

import "github.com/embers-lang/embers/lang/sexpr"

// Identifier names a global binding: either a toplevel variable in some
// module, or (before resolution against a real module) just a symbol
// pass 1 hasn't yet classified. Module infrastructure itself is out of
// scope for this core (spec §1); Module is carried as an opaque value (in
// practice a host.Module) so that ir has no dependency on the host
// package's binding-table implementation.
type Identifier struct {
	Name   sexpr.Symbol
	Module any
}

// DefineFlag is a bit set on a Define node.
type DefineFlag uint8

const (
	// DefineConst marks a define-constant binding: pass 1 may later fold
	// references to it directly to a Const node (spec §4.4, rule 2).
	DefineConst DefineFlag = 1 << iota
)

// Define is a toplevel variable definition.
type Define struct {
	base
	Flags DefineFlag
	Ident Identifier
	Expr  Node
}

func (*Define) Tag() Tag { return TagDefine }

// LRef reads the value of a lexical variable.
type LRef struct {
	base
	LVar *LVar
}

func (*LRef) Tag() Tag { return TagLRef }

// LSet assigns a lexical variable.
type LSet struct {
	base
	LVar *LVar
	Expr Node
}

func (*LSet) Tag() Tag { return TagLSet }

// GRef reads the value of a global identifier.
type GRef struct {
	base
	Ident Identifier
}

func (*GRef) Tag() Tag { return TagGRef }

// GSet assigns a global identifier.
type GSet struct {
	base
	Ident Identifier
	Expr  Node
}

func (*GSet) Tag() Tag { return TagGSet }

// Const is a self-evaluating literal. CONST-nil and CONST-undef (spec
// §4.1) are represented by the package-level NilConst/UndefConst singletons
// so their value carriers may be shared freely (Const has no mutable
// state).
type Const struct {
	base
	Value sexpr.Value
}

func (*Const) Tag() Tag { return TagConst }

// NilConst and UndefConst are the two singleton constants spec §4.1 calls
// out by name.
var (
	NilConst   = &Const{Value: sexpr.Nil}
	UndefConst = &Const{Value: sexpr.Unspecified}
)

// If is a conditional. The then/else branches may be the IT marker, meaning
// "the value of the most recently evaluated test" (used by the IF-of-IF
// rewrite in pass 2, spec §4.9).
type If struct {
	base
	Test, Then, Else Node
}

func (*If) Tag() Tag { return TagIf }

// LetKind distinguishes ordinary (non-recursive) let bindings from letrec
// / named-let-style recursive bindings, which see their own frame while
// evaluating their inits (spec §4.4).
type LetKind uint8

const (
	LetPlain LetKind = iota
	LetRec
)

// Let binds a fixed list of LVars to inits and evaluates Body in the
// extended scope.
type Let struct {
	base
	Kind  LetKind
	LVars []*LVar
	Inits []Node
	Body  Node
}

func (*Let) Tag() Tag { return TagLet }

// Receive is Scheme's multiple-value binding form: evaluate Producer
// (expected to yield multiple values), bind the first ReqArgs values to the
// first ReqArgs LVars, and if OptArg is 1, collect any remaining values
// into the last LVar as a list.
type Receive struct {
	base
	ReqArgs  int
	OptArg   int // 0 or 1
	LVars    []*LVar
	Producer Node
	Body     Node
}

func (*Receive) Tag() Tag { return TagReceive }

// LambdaFlag records what pass 2 decided to do with a closure binding
// (spec §4.9's closure classification).
type LambdaFlag uint8

const (
	// LambdaPlain is an ordinary, not-yet-classified (or not classifiable)
	// closure: compiled to a real MAKEFUNC-style closure allocation.
	LambdaPlain LambdaFlag = iota
	// LambdaInlined means every call site was replaced by a fresh copy of
	// the body; the Lambda node itself is no longer referenced from any
	// CALL and pass 3 never emits code for it directly.
	LambdaInlined
	// LambdaDissolved means the single local call site was embedded (the
	// body now lives under a LABEL at that call site) and the Lambda node
	// is likewise no longer separately compiled.
	LambdaDissolved
)

// CallSite records one use of a Lambda as an operand of a Call, tracked
// while pass 2 is still inside the Let that binds it (spec §4.9's "calls"
// list). Pass 2 leaves the list on the Lambda after it exits that Let.
type CallSite struct {
	Call *Call
	Kind CallKind
}

// Lambda is a closure: a formal parameter list, a body, and (after pass 2)
// bookkeeping pass 2 used to decide whether to embed, inline, or compile it
// as a real closure.
type Lambda struct {
	base
	Name     sexpr.Symbol
	HasName  bool
	ReqArgs  int
	OptArg   int // 0 or 1
	LVars    []*LVar
	Body     Node
	Flag     LambdaFlag
	Calls    []CallSite // set by pass 2's closure classification, then left in place
	FreeLVars []*LVar   // not filled in by any pass; always nil
}

func (*Lambda) Tag() Tag { return TagLambda }

// Label is a shared merge point: the only IR node pass 2 is allowed to
// reference from more than one place (spec §3's sharing invariant). LabelID
// is filled in by pass 3 once the label's address is known.
type Label struct {
	base
	LabelID int // -1 until pass 3 assigns it
	Body    Node
}

func (*Label) Tag() Tag { return TagLabel }

// Seq is a sequence of expressions evaluated for effect except the last,
// whose value is the Seq's value.
type Seq struct {
	base
	Body []Node
}

func (*Seq) Tag() Tag { return TagSeq }

// CallKind records how pass 2 classified a call for pass 3's lowering
// (spec §4.9/§4.10).
type CallKind uint8

const (
	CallGeneric CallKind = iota // unclassified / ordinary call
	CallLocal                   // statically known closure, not embedded/inlined
	CallEmbed                   // call site where the callee's body was embedded
	CallJump                    // tail-recursive call rewritten to jump to an embed's LABEL
	CallRec                     // non-tail self-recursive call
	CallTailRec                 // tail self-recursive call
)

// Call is a procedure application.
type Call struct {
	base
	Proc  Node
	Args  []Node
	Flag  CallKind
	Label *Label // set when Flag == CallJump
}

func (*Call) Tag() Tag { return TagCall }

// Insn is the opcode+operand pair an Asm node carries. Opcode is declared
// as int so lang/ir has no dependency on lang/pass3's concrete Opcode type;
// pass 3 interprets it against its own enum.
type Insn struct {
	Opcode  int
	Operand int
	HasOperand bool
}

// Asm is an explicit "emit this instruction" escape hatch used by
// inlinable procedures that compile directly to an opcode (spec §4.5).
type Asm struct {
	base
	Insn Insn
	Args []Node
}

func (*Asm) Tag() Tag { return TagAsm }

// Promise makes a lazily forced promise from Expr, the zero-argument Lambda
// pass 1 wraps a delay's expression in (spec §4.4's "delay").
type Promise struct {
	base
	Expr Node
}

func (*Promise) Tag() Tag { return TagPromise }

// Cons, Append, Memv, Eq, Eqv are the two-argument IR nodes quasiquote
// lowering and case dispatch build directly rather than going through a
// generic Call (spec §4.4, §4.9).
type Cons struct {
	base
	X, Y Node
}

func (*Cons) Tag() Tag { return TagCons }

type Append struct {
	base
	X, Y Node
}

func (*Append) Tag() Tag { return TagAppend }

type Memv struct {
	base
	X, Y Node
}

func (*Memv) Tag() Tag { return TagMemv }

type Eq struct {
	base
	X, Y Node
}

func (*Eq) Tag() Tag { return TagEq }

type Eqv struct {
	base
	X, Y Node
}

func (*Eqv) Tag() Tag { return TagEqv }

// List, ListStar, Vector are the variadic constructors quasiquote lowering
// emits when it cannot fold a sub-expression to a constant.
type List struct {
	base
	Args []Node
}

func (*List) Tag() Tag { return TagList }

type ListStar struct {
	base
	Args []Node
}

func (*ListStar) Tag() Tag { return TagListStar }

type Vector struct {
	base
	Args []Node
}

func (*Vector) Tag() Tag { return TagVector }

// List2Vector converts a runtime list to a vector (the tail of a
// quasiquoted #(... ,@xs) literal, say).
type List2Vector struct {
	base
	Arg Node
}

func (*List2Vector) Tag() Tag { return TagList2Vector }

// It is the marker used only as the Then/Else of an If: "the value of the
// most recently evaluated test clause", consumed by pass 2's IF-of-IF
// rewrite (spec §4.9) and by pass 3's RT/RF branch lowering (spec §4.10).
type It struct{ base }

func (*It) Tag() Tag { return TagIt }

// ItNode is the shared singleton instance of It; it carries no state so one
// instance may appear in many places in the tree (alongside Label, it is
// effectively shared, though it is never mutated so this does not violate
// the "IR is a tree except for LABEL" invariant in spirit: It has nothing
// for a second reference to race with).
var ItNode = &It{}
