// Package pass2 implements the compiler's optimization pass (spec §4.9): a
// bottom-up rewrite of IR into IR, performed by recursing into every node's
// children and then applying, in order, LREF constant folding, the IF-of-IF
// restructuring, closure classification for Let-bound Lambdas, and
// dead-binding elimination.
package pass2

import (
	"golang.org/x/exp/slices"

	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
	"github.com/embers-lang/embers/lang/token"
)

// SmallLambdaSize is the node-count threshold below which a Lambda with a
// single, non-recursive local call site is eligible for embedding (spec
// §4.9/§8's inlining-size-threshold invariant).
const SmallLambdaSize = 12

// Optimize rewrites node in place (structurally; it returns the possibly
// different root the caller should use in node's place) and returns the
// optimized tree.
func Optimize(node ir.Node) ir.Node {
	return optimize(node)
}

func optimize(node ir.Node) ir.Node {
	if node == nil {
		return nil
	}
	switch n := node.(type) {
	case *ir.Define:
		n.Expr = optimize(n.Expr)
		return n

	case *ir.LRef:
		return optimizeLRef(n)

	case *ir.LSet:
		n.Expr = optimize(n.Expr)
		return n

	case *ir.GSet:
		n.Expr = optimize(n.Expr)
		return n

	case *ir.If:
		n.Test = optimize(n.Test)
		n.Then = optimize(n.Then)
		n.Else = optimize(n.Else)
		return optimizeIf(n)

	case *ir.Let:
		return optimizeLet(n)

	case *ir.Receive:
		n.Producer = optimize(n.Producer)
		n.Body = optimize(n.Body)
		return n

	case *ir.Lambda:
		n.Body = optimize(n.Body)
		return n

	case *ir.Label:
		n.Body = optimize(n.Body)
		return n

	case *ir.Seq:
		for i, e := range n.Body {
			n.Body[i] = optimize(e)
		}
		return n

	case *ir.Call:
		n.Proc = optimize(n.Proc)
		for i, a := range n.Args {
			n.Args[i] = optimize(a)
		}
		return optimizeCall(n)

	case *ir.Asm:
		for i, a := range n.Args {
			n.Args[i] = optimize(a)
		}
		return foldAsm(n)

	case *ir.Promise:
		n.Expr = optimize(n.Expr)
		return n

	case *ir.Cons:
		n.X, n.Y = optimize(n.X), optimize(n.Y)
		return n
	case *ir.Append:
		n.X, n.Y = optimize(n.X), optimize(n.Y)
		return n
	case *ir.Memv:
		n.X, n.Y = optimize(n.X), optimize(n.Y)
		return n
	case *ir.Eq:
		n.X, n.Y = optimize(n.X), optimize(n.Y)
		return n
	case *ir.Eqv:
		n.X, n.Y = optimize(n.X), optimize(n.Y)
		return n

	case *ir.List:
		for i, a := range n.Args {
			n.Args[i] = optimize(a)
		}
		return n
	case *ir.ListStar:
		for i, a := range n.Args {
			n.Args[i] = optimize(a)
		}
		return n
	case *ir.Vector:
		for i, a := range n.Args {
			n.Args[i] = optimize(a)
		}
		return n
	case *ir.List2Vector:
		n.Arg = optimize(n.Arg)
		return n

	default:
		// GRef, Const, It: nothing to rewrite.
		return node
	}
}

// optimizeLRef implements LREF folding (spec §4.9): a reference to a never
// assigned variable whose initializer is a constant is replaced by a fresh
// copy of that constant, and the variable's reference count is adjusted to
// reflect the now-vanished use.
func optimizeLRef(ref *ir.LRef) ir.Node {
	lv := ref.LVar
	if !lv.Unassigned() {
		return ref
	}
	c, ok := lv.Init.(*ir.Const)
	if !ok {
		return ref
	}
	lv.Unref()
	return &ir.Const{Value: c.Value}
}

// optimizeIf folds a constant test away entirely, and otherwise applies the
// IF-of-IF restructuring: when the test of an If is itself an If built (by
// source-level and/or/cond/case expansion) around the IT marker, push the
// outer Then/Else down into the inner If's branches instead of evaluating
// the inner If for its boolean value and then re-testing it. The outer
// Then/Else are wrapped in a shared Label so pushing them into multiple
// branches does not duplicate their code (spec §3's sharing invariant).
func optimizeIf(n *ir.If) ir.Node {
	if c, ok := n.Test.(*ir.Const); ok {
		if truthy(c.Value) {
			if _, isIt := n.Then.(*ir.It); isIt {
				return c // IT stands for the test's own value
			}
			return n.Then
		}
		return n.Else
	}
	inner, ok := n.Test.(*ir.If)
	if !ok {
		return n
	}
	thenBranch := shareable(n.Then)
	elseBranch := shareable(n.Else)
	return distribute(inner, thenBranch, elseBranch)
}

// shareable wraps a node in a Label unless it's already cheap enough that
// duplicating it outright is no worse (a leaf reference or constant).
func shareable(n ir.Node) ir.Node {
	switch n.(type) {
	case *ir.Const, *ir.LRef, *ir.GRef, *ir.It:
		return n
	default:
		return &ir.Label{LabelID: -1, Body: n}
	}
}

// distribute pushes thenBranch/elseBranch into the branches of a nested If
// chain built around the IT marker, recursing through further nested Ifs.
func distribute(node ir.Node, thenBranch, elseBranch ir.Node) ir.Node {
	switch n := node.(type) {
	case *ir.It:
		return thenBranch
	case *ir.If:
		return &ir.If{
			Test: n.Test,
			Then: distribute(n.Then, thenBranch, elseBranch),
			Else: distribute(n.Else, thenBranch, elseBranch),
		}
	default:
		return &ir.If{Test: node, Then: thenBranch, Else: elseBranch}
	}
}

// truthy implements Scheme's truthiness rule: everything except #f counts.
func truthy(v sexpr.Value) bool {
	b, ok := v.(sexpr.Bool)
	return !ok || bool(b)
}

// optimizeCall implements direct beta-reduction: a call whose operator is a
// literal LAMBDA (not a reference to one) with a matching fixed arity is
// rewritten to a LET binding the formals to the arguments, re-optimized so
// the fold this enables (e.g. an LREF folding straight into a constant
// argument) happens immediately rather than waiting for another pass.
func optimizeCall(n *ir.Call) ir.Node {
	lam, ok := n.Proc.(*ir.Lambda)
	if !ok || lam.OptArg != 0 || lam.ReqArgs != len(n.Args) {
		return n
	}
	for i, lv := range lam.LVars {
		lv.Init = n.Args[i]
	}
	return optimize(&ir.Let{Kind: ir.LetPlain, LVars: lam.LVars, Inits: n.Args, Body: lam.Body})
}

// foldAsm constant-folds a binary numeric/comparison ASM node whose operands
// both collapsed to literal numbers, leaving anything else (including a
// mismatched or non-numeric operand pair) untouched for pass 3 to emit as an
// instruction.
func foldAsm(n *ir.Asm) ir.Node {
	if len(n.Args) != 2 {
		return n
	}
	x, ok := n.Args[0].(*ir.Const)
	if !ok {
		return n
	}
	y, ok := n.Args[1].(*ir.Const)
	if !ok {
		return n
	}
	op := token.Op(n.Insn.Opcode)

	if xi, ok := x.Value.(sexpr.Int); ok {
		if yi, ok := y.Value.(sexpr.Int); ok {
			return foldIntAsm(op, xi, yi, n)
		}
	}
	xf, xIsNum := asFloat(x.Value)
	yf, yIsNum := asFloat(y.Value)
	if !xIsNum || !yIsNum {
		return n
	}
	return foldFloatAsm(op, xf, yf, n)
}

func foldIntAsm(op token.Op, x, y sexpr.Int, orig ir.Node) ir.Node {
	switch op {
	case token.ADD:
		return &ir.Const{Value: x + y}
	case token.SUB:
		return &ir.Const{Value: x - y}
	case token.MUL:
		return &ir.Const{Value: x * y}
	case token.DIV:
		if y != 0 && x%y == 0 {
			return &ir.Const{Value: x / y}
		}
		return orig
	case token.LT:
		return &ir.Const{Value: sexpr.Bool(x < y)}
	case token.LE:
		return &ir.Const{Value: sexpr.Bool(x <= y)}
	case token.GT:
		return &ir.Const{Value: sexpr.Bool(x > y)}
	case token.GE:
		return &ir.Const{Value: sexpr.Bool(x >= y)}
	case token.NUMEQ:
		return &ir.Const{Value: sexpr.Bool(x == y)}
	default:
		return orig
	}
}

func foldFloatAsm(op token.Op, x, y float64, orig ir.Node) ir.Node {
	switch op {
	case token.ADD:
		return &ir.Const{Value: sexpr.Float(x + y)}
	case token.SUB:
		return &ir.Const{Value: sexpr.Float(x - y)}
	case token.MUL:
		return &ir.Const{Value: sexpr.Float(x * y)}
	case token.DIV:
		if y != 0 {
			return &ir.Const{Value: sexpr.Float(x / y)}
		}
		return orig
	case token.LT:
		return &ir.Const{Value: sexpr.Bool(x < y)}
	case token.LE:
		return &ir.Const{Value: sexpr.Bool(x <= y)}
	case token.GT:
		return &ir.Const{Value: sexpr.Bool(x > y)}
	case token.GE:
		return &ir.Const{Value: sexpr.Bool(x >= y)}
	case token.NUMEQ:
		return &ir.Const{Value: sexpr.Bool(x == y)}
	default:
		return orig
	}
}

func asFloat(v sexpr.Value) (float64, bool) {
	switch n := v.(type) {
	case sexpr.Int:
		return float64(n), true
	case sexpr.Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// optimizeLet optimizes a Let's inits and body, classifies any Lambda-bound
// local procedures (spec §4.9), rewrites their call sites accordingly, and
// finally drops any binding left with no live reference.
func optimizeLet(n *ir.Let) ir.Node {
	for i, init := range n.Inits {
		n.Inits[i] = optimize(init)
		n.LVars[i].Init = n.Inits[i]
	}

	for i, lv := range n.LVars {
		if lam, ok := n.Inits[i].(*ir.Lambda); ok {
			n.Body = classifyAndRewrite(lv, lam, n.Body)
		}
	}

	n.Body = optimize(n.Body)

	keep := make([]int, 0, len(n.LVars))
	for i, lv := range n.LVars {
		if lv.Dead() && pure(n.Inits[i]) {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == len(n.LVars) {
		return n
	}
	if len(keep) == 0 {
		return n.Body
	}
	lvars := make([]*ir.LVar, len(keep))
	inits := make([]ir.Node, len(keep))
	for j, i := range keep {
		lvars[j], inits[j] = n.LVars[i], n.Inits[i]
	}
	n.LVars, n.Inits = lvars, inits
	return n
}

// pure reports whether dropping node (as a dead binding's initializer)
// cannot change a program's observable behavior, i.e. it has no side effect
// of its own. Conservative: anything not obviously pure is kept.
func pure(n ir.Node) bool {
	switch n.(type) {
	case *ir.Const, *ir.LRef, *ir.GRef, *ir.Lambda:
		return true
	default:
		return false
	}
}

// classifyAndRewrite finds every Call whose Proc is a reference to lv,
// split into calls reachable from body (external) and calls reachable from
// lam's own body (self-recursive), and decides, per spec §4.9, whether the
// use should be embedded (dissolving the closure entirely into the call
// site). Two shapes are recognized: a single external call with no
// self-recursion at all (ordinary embed), and a single external call paired
// with exactly one self-recursive call that sits in tail position of lam's
// body (a named-let-style loop, embedded with its self-call rewritten into
// a jump back to the embedded body instead of a real closure call). Anything
// that doesn't match one of those shapes is left as an ordinary closure call
// (CallGeneric), i.e. classification here is deliberately conservative
// rather than attempting the full embed/inline/rec/tail-rec lattice spec
// §4.9 describes.
func classifyAndRewrite(lv *ir.LVar, lam *ir.Lambda, body ir.Node) ir.Node {
	external := collectCalls(lv, body)
	internal := collectCalls(lv, lam.Body)
	lam.Calls = append(append([]ir.CallSite{}, external...), internal...)

	fits := ir.CountSizeUpTo(lam.Body, SmallLambdaSize+1) <= SmallLambdaSize
	if !fits || len(external) != 1 {
		return body
	}

	if len(internal) == 0 && lv.RefCount == 1 {
		lam.Flag = ir.LambdaDissolved
		lv.Unref() // the call's Proc (an LRef to lv) is discarded along with it
		return embedCall(external[0].Call, lam, body)
	}

	if len(internal) == 1 && lv.RefCount == 2 {
		tail := tailCalls(lam.Body)
		if len(tail) == 1 && slices.Contains(tail, internal[0].Call) {
			lam.Flag = ir.LambdaDissolved
			lv.Unref() // the external call's Proc
			lv.Unref() // the self-call's Proc, replaced by a jump below
			// The jump rebinds every formal to a fresh argument on each
			// iteration, so none of them are safe to LREF-fold to their
			// single, first-iteration Init; Set marks them as assigned
			// without needing an actual LSet node.
			for _, formal := range lam.LVars {
				formal.Set()
			}
			replaced := embedCall(external[0].Call, lam, body)
			self := internal[0].Call
			self.Flag = ir.CallJump
			self.Label = external[0].Call.Label
			self.Proc = nil
			return replaced
		}
	}
	return body
}

// collectCalls walks tree for every Call whose Proc names lv.
func collectCalls(lv *ir.LVar, tree ir.Node) []ir.CallSite {
	var calls []ir.CallSite
	ir.Walk(tree, func(n ir.Node) {
		call, ok := n.(*ir.Call)
		if !ok {
			return
		}
		ref, ok := call.Proc.(*ir.LRef)
		if ok && ref.LVar == lv {
			calls = append(calls, ir.CallSite{Call: call, Kind: ir.CallLocal})
		}
	})
	return calls
}

// tailCalls returns every Call reachable from n by following only the
// positions pass 3 itself treats as tail (If's branches, a Seq's last
// expression, Let/Label bodies) — the same positions a TAILCALL would
// otherwise be emitted for.
func tailCalls(n ir.Node) []*ir.Call {
	var calls []*ir.Call
	var walk func(n ir.Node)
	walk = func(n ir.Node) {
		switch t := n.(type) {
		case *ir.Call:
			calls = append(calls, t)
		case *ir.If:
			walk(t.Then)
			walk(t.Else)
		case *ir.Seq:
			if len(t.Body) > 0 {
				walk(t.Body[len(t.Body)-1])
			}
		case *ir.Let:
			walk(t.Body)
		case *ir.Label:
			walk(t.Body)
		}
	}
	walk(n)
	return calls
}

// embedCall replaces the unique call site (found anywhere in body) with a
// Let that binds the lambda's formals to the call's arguments and evaluates
// a Label wrapping the lambda body moved in directly (spec §4.9's
// embedding). The body is moved rather than copied: this is the single call
// site, lam itself is discarded, so there is nothing left to share it with.
func embedCall(call *ir.Call, lam *ir.Lambda, body ir.Node) ir.Node {
	call.Flag = ir.CallEmbed
	label := &ir.Label{LabelID: -1, Body: lam.Body}
	call.Label = label
	replacement := &ir.Let{Kind: ir.LetPlain, LVars: lam.LVars, Inits: call.Args, Body: label}
	return replaceNode(body, call, replacement)
}

// replaceNode rebuilds tree with every occurrence of target (compared by
// pointer identity) replaced by replacement.
func replaceNode(tree ir.Node, target ir.Node, replacement ir.Node) ir.Node {
	if tree == target {
		return replacement
	}
	switch n := tree.(type) {
	case *ir.Define:
		n.Expr = replaceNode(n.Expr, target, replacement)
	case *ir.LSet:
		n.Expr = replaceNode(n.Expr, target, replacement)
	case *ir.GSet:
		n.Expr = replaceNode(n.Expr, target, replacement)
	case *ir.If:
		n.Test = replaceNode(n.Test, target, replacement)
		n.Then = replaceNode(n.Then, target, replacement)
		n.Else = replaceNode(n.Else, target, replacement)
	case *ir.Let:
		for i, init := range n.Inits {
			n.Inits[i] = replaceNode(init, target, replacement)
		}
		n.Body = replaceNode(n.Body, target, replacement)
	case *ir.Receive:
		n.Producer = replaceNode(n.Producer, target, replacement)
		n.Body = replaceNode(n.Body, target, replacement)
	case *ir.Lambda:
		n.Body = replaceNode(n.Body, target, replacement)
	case *ir.Label:
		n.Body = replaceNode(n.Body, target, replacement)
	case *ir.Seq:
		for i, e := range n.Body {
			n.Body[i] = replaceNode(e, target, replacement)
		}
	case *ir.Call:
		n.Proc = replaceNode(n.Proc, target, replacement)
		for i, a := range n.Args {
			n.Args[i] = replaceNode(a, target, replacement)
		}
	case *ir.Asm:
		for i, a := range n.Args {
			n.Args[i] = replaceNode(a, target, replacement)
		}
	case *ir.Promise:
		n.Expr = replaceNode(n.Expr, target, replacement)
	case *ir.Cons:
		n.X, n.Y = replaceNode(n.X, target, replacement), replaceNode(n.Y, target, replacement)
	case *ir.Append:
		n.X, n.Y = replaceNode(n.X, target, replacement), replaceNode(n.Y, target, replacement)
	case *ir.Memv:
		n.X, n.Y = replaceNode(n.X, target, replacement), replaceNode(n.Y, target, replacement)
	case *ir.Eq:
		n.X, n.Y = replaceNode(n.X, target, replacement), replaceNode(n.Y, target, replacement)
	case *ir.Eqv:
		n.X, n.Y = replaceNode(n.X, target, replacement), replaceNode(n.Y, target, replacement)
	case *ir.List:
		for i, a := range n.Args {
			n.Args[i] = replaceNode(a, target, replacement)
		}
	case *ir.ListStar:
		for i, a := range n.Args {
			n.Args[i] = replaceNode(a, target, replacement)
		}
	case *ir.Vector:
		for i, a := range n.Args {
			n.Args[i] = replaceNode(a, target, replacement)
		}
	case *ir.List2Vector:
		n.Arg = replaceNode(n.Arg, target, replacement)
	}
	return tree
}
