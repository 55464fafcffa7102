package pass3

import (
	"fmt"

	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
	"github.com/embers-lang/embers/lang/token"
)

// Insn is one emitted bytecode instruction.
type Insn struct {
	Op      Opcode
	Operand int
	HasOperand bool
}

func (i Insn) String() string {
	if !i.HasOperand {
		return i.Op.String()
	}
	return fmt.Sprintf("%s %d", i.Op, i.Operand)
}

// Code is the flat result of compiling one IR tree: its instructions plus
// the constant, global, and nested-function tables the immediate operands
// above index into.
type Code struct {
	Insns     []Insn
	Consts    []*ir.Const     // CONST operands index here
	Globals   []ir.Identifier // GREF/GSET/GDEF operands index here
	Functions []*Code         // CLOSURE operands index here
	MaxStack  int             // deepest the operand stack reaches executing Insns
}

// frame is one compile-time lexical scope: the LVars a Let/Lambda bound, in
// the order the runtime environment frame holds them, linked to its parent
// so LREF/LSET can compute a (depth, index) pair (spec §4.10).
type frame struct {
	lvars  []*ir.LVar
	parent *frame
}

func (f *frame) lookup(lv *ir.LVar) (depth, index int, ok bool) {
	for cur := f; cur != nil; cur = cur.parent {
		for i, v := range cur.lvars {
			if v == lv {
				return depth, i, true
			}
		}
		depth++
	}
	return 0, 0, false
}

type gen struct {
	code      []Insn
	consts    []*ir.Const
	globals   []ir.Identifier
	functions []*Code
	labelAddr map[*ir.Label]int
	frame     *frame
}

// Generate compiles an optimized IR tree into flat bytecode (spec §4.10),
// the entry point diag and the toplevel compile package call after pass 1
// and pass 2.
func Generate(node ir.Node) *Code {
	g := &gen{labelAddr: make(map[*ir.Label]int)}
	g.genNode(node, true)
	g.emit(RET, 0, false)
	insns := combine(g.code)
	return &Code{Insns: insns, Consts: g.consts, Globals: g.globals, Functions: g.functions, MaxStack: maxStack(insns)}
}

func (g *gen) emit(op Opcode, operand int, hasOperand bool) int {
	g.code = append(g.code, Insn{Op: op, Operand: operand, HasOperand: hasOperand})
	return len(g.code) - 1
}

func (g *gen) constIndex(n *ir.Const) int {
	g.consts = append(g.consts, n)
	return len(g.consts) - 1
}

func (g *gen) functionIndex(c *Code) int {
	g.functions = append(g.functions, c)
	return len(g.functions) - 1
}

func (g *gen) globalIndex(id ir.Identifier) int {
	g.globals = append(g.globals, id)
	return len(g.globals) - 1
}

// genNode compiles node, leaving its value in the accumulator. tail marks a
// tail position: Call consumes it, and If, Let, Receive, Label and Seq pass
// it on to their result positions; every other operand compiles with tail
// false.
func (g *gen) genNode(node ir.Node, tail bool) {
	switch n := node.(type) {
	case *ir.Const:
		g.genConst(n)
	case *ir.LRef:
		depth, index, ok := g.frame.lookup(n.LVar)
		if !ok {
			// a free variable pass 2's classification left unresolved
			// (spec §9 Open Question): fall back to a global lookup by name.
			g.emit(GREF, g.globalIndex(ir.Identifier{Name: n.LVar.Name}), true)
			return
		}
		g.emit(LREF, depth<<16|index, true)
	case *ir.LSet:
		g.genNode(n.Expr, false)
		depth, index, ok := g.frame.lookup(n.LVar)
		if !ok {
			g.emit(GSET, g.globalIndex(ir.Identifier{Name: n.LVar.Name}), true)
			return
		}
		g.emit(LSET, depth<<16|index, true)
	case *ir.GRef:
		g.emit(GREF, g.globalIndex(n.Ident), true)
	case *ir.GSet:
		g.genNode(n.Expr, false)
		g.emit(GSET, g.globalIndex(n.Ident), true)
	case *ir.Define:
		g.genNode(n.Expr, false)
		g.emit(GDEF, g.globalIndex(n.Ident), true)
	case *ir.If:
		g.genIf(n, tail)
	case *ir.Let:
		g.genLet(n, tail)
	case *ir.Lambda:
		g.genLambda(n)
	case *ir.Label:
		g.genLabelRef(n, tail)
	case *ir.Seq:
		g.genSeq(n, tail)
	case *ir.Call:
		g.genCall(n, tail)
	case *ir.Asm:
		g.genAsm(n)
	case *ir.Promise:
		g.genNode(n.Expr, false)
		g.emit(MAKEPROMISE, 0, false)
	case *ir.Cons:
		g.genBinary(n.X, n.Y, CONS)
	case *ir.Append:
		g.genBinary(n.X, n.Y, APPEND)
	case *ir.Memv:
		g.genBinary(n.X, n.Y, MEMV)
	case *ir.Eq:
		g.genBinary(n.X, n.Y, EQP)
	case *ir.Eqv:
		g.genBinary(n.X, n.Y, EQVP)
	case *ir.List:
		g.genVariadic(n.Args, LISTN)
	case *ir.ListStar:
		g.genVariadic(n.Args, LISTSTARN)
	case *ir.Vector:
		g.genVariadic(n.Args, VECTORN)
	case *ir.List2Vector:
		g.genNode(n.Arg, false)
		g.emit(LIST2VECTOR, 0, false)
	case *ir.It:
		// left in the accumulator by the branch just taken; nothing to emit.
	case *ir.Receive:
		g.genReceive(n, tail)
	default:
		panic(fmt.Sprintf("pass3: unhandled node %T", node))
	}
}

func (g *gen) genConst(n *ir.Const) {
	switch n {
	case ir.NilConst:
		g.emit(CONSTN, 0, false)
	case ir.UndefConst:
		g.emit(CONSTU, 0, false)
	default:
		if b, ok := n.Value.(sexpr.Bool); ok {
			if bool(b) {
				g.emit(CONSTT, 0, false)
			} else {
				g.emit(CONSTF, 0, false)
			}
			return
		}
		g.emit(CONST, g.constIndex(n), true)
	}
}

// genIf compiles test, then a BF over the Then branch to the Else branch,
// patching both jump targets once they're known (spec §4.10).
func (g *gen) genIf(n *ir.If, tail bool) {
	g.genNode(n.Test, false)
	bf := g.emit(BF, 0, true)
	g.genNode(n.Then, tail)
	jmp := g.emit(JUMP, 0, true)
	g.code[bf].Operand = len(g.code)
	g.genNode(n.Else, tail)
	g.code[jmp].Operand = len(g.code)
}

// genLabelRef emits the shared Label's body the first time it's reached and
// a JUMP to the already-emitted copy on every subsequent reference,
// preserving the sharing pass 2's IF-of-IF restructuring relies on.
func (g *gen) genLabelRef(n *ir.Label, tail bool) {
	if addr, ok := g.labelAddr[n]; ok {
		g.emit(JUMP, addr, true)
		return
	}
	g.labelAddr[n] = len(g.code)
	g.genNode(n.Body, tail)
}

func (g *gen) genLet(n *ir.Let, tail bool) {
	for _, init := range n.Inits {
		g.genNode(init, false)
		g.emit(PUSH, 0, false)
	}
	g.emit(LOCALENV, len(n.LVars), true)
	g.frame = &frame{lvars: n.LVars, parent: g.frame}
	g.genNode(n.Body, tail)
	g.frame = g.frame.parent
	if !tail {
		g.emit(POPENV, 0, false)
	}
}

func (g *gen) genReceive(n *ir.Receive, tail bool) {
	g.genNode(n.Producer, false)
	g.emit(LOCALENV, len(n.LVars), true)
	g.frame = &frame{lvars: n.LVars, parent: g.frame}
	g.genNode(n.Body, tail)
	g.frame = g.frame.parent
	if !tail {
		g.emit(POPENV, 0, false)
	}
}

func (g *gen) genLambda(n *ir.Lambda) {
	inner := &gen{labelAddr: make(map[*ir.Label]int), frame: &frame{lvars: n.LVars, parent: g.frame}}
	inner.genNode(n.Body, true)
	inner.emit(RET, 0, false)
	innerInsns := combine(inner.code)
	template := &Code{
		Insns: innerInsns, Consts: inner.consts, Globals: inner.globals,
		Functions: inner.functions, MaxStack: maxStack(innerInsns),
	}
	g.emit(CLOSURE, g.functionIndex(template), true)
}

func (g *gen) genSeq(n *ir.Seq, tail bool) {
	for i, e := range n.Body {
		g.genNode(e, tail && i == len(n.Body)-1)
	}
}

// genCall lowers an ordinary procedure call. A CallEmbed call never reaches
// here: pass 2's embedding rewrite (lang/pass2's embedCall) replaces the
// Call node itself with a Let binding the formals directly, so by the time
// pass3 walks the tree the embedded call site is already an ordinary
// LOCAL-ENV/Label pair that genLet/genLabelRef handle generically. A
// CallJump call (a self-recursive tail call pass 2 paired with an embed)
// does reach here, and is lowered by genJump instead.
func (g *gen) genCall(n *ir.Call, tail bool) {
	if n.Flag == ir.CallJump {
		g.genJump(n)
		return
	}
	for _, a := range n.Args {
		g.genNode(a, false)
		g.emit(PUSH, 0, false)
	}
	g.genNode(n.Proc, false)
	if tail {
		g.emit(TAILCALL, len(n.Args), true)
	} else {
		g.emit(CALL, len(n.Args), true)
	}
}

// genJump lowers a CallJump: the call's formals already live in the
// enclosing frame (the embedded LABEL this jump targets is that same
// frame's body), so this only needs to rebind them to the new argument
// values and branch back to the label, not open a fresh frame or return.
func (g *gen) genJump(n *ir.Call) {
	for _, a := range n.Args {
		g.genNode(a, false)
		g.emit(PUSH, 0, false)
	}
	g.emit(LOCALENVJUMP, len(n.Args), true)
	addr, ok := g.labelAddr[n.Label]
	if !ok {
		panic("pass3: jump to a label not yet resolved")
	}
	g.emit(JUMP, addr, true)
}

func (g *gen) genAsm(n *ir.Asm) {
	op, ok := fromToken[token.Op(n.Insn.Opcode)]
	if !ok {
		panic(fmt.Sprintf("pass3: unmapped asm opcode %d", n.Insn.Opcode))
	}
	if len(n.Args) == 1 {
		g.genNode(n.Args[0], false)
		g.emit(op, 0, false)
		return
	}
	g.genBinary(n.Args[0], n.Args[1], op)
}

func (g *gen) genBinary(x, y ir.Node, op Opcode) {
	g.genNode(x, false)
	g.emit(PUSH, 0, false)
	g.genNode(y, false)
	g.emit(op, 0, false)
}

func (g *gen) genVariadic(args []ir.Node, op Opcode) {
	for _, a := range args {
		g.genNode(a, false)
		g.emit(PUSH, 0, false)
	}
	g.emit(op, len(args), true)
}
