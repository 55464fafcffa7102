// Package diag implements the diagnostic/inspection entry points a REPL or
// test harness drives directly: compiling a single form through exactly one,
// two, or all three passes and rendering the result as indented text,
// mirroring the role the teacher's ast.Printer plays for its own AST (lang/
// ast/printer.go) — a depth-indented dump driven by a tree walk, just over
// ir.Node instead of ast.Node, and with no comment-association step since IR
// carries no comments.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/embers-lang/embers/lang/asm"
	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/host"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/pass1"
	"github.com/embers-lang/embers/lang/pass2"
	"github.com/embers-lang/embers/lang/pass3"
	"github.com/embers-lang/embers/lang/sexpr"
)

// CompileP1 runs form through pass 1 only and returns the resulting IR,
// compiling into a fresh scratch module/VM (spec §6's compile-p1 debugging
// hook).
func CompileP1(form sexpr.Value) (ir.Node, error) {
	mod := host.NewModule(sexpr.Symbol{Name: "diag"})
	vm := host.NewVM(mod)
	return pass1.Compile(form, cenv.New(mod), vm)
}

// CompileP2 runs form through pass 1 then pass 2, returning the optimized IR.
func CompileP2(form sexpr.Value) (ir.Node, error) {
	node, err := CompileP1(form)
	if err != nil {
		return nil, err
	}
	return pass2.Optimize(node), nil
}

// CompileP3 runs form through all three passes, returning flat bytecode.
func CompileP3(form sexpr.Value) (*pass3.Code, error) {
	node, err := CompileP2(form)
	if err != nil {
		return nil, err
	}
	return pass3.Generate(node), nil
}

// PrintIR writes an indented dump of node to w, one line per node with a
// leading ". "-per-depth indent matching the teacher's own printNode indent
// convention.
func PrintIR(w io.Writer, node ir.Node) error {
	p := &printer{w: w}
	p.print(node, 0)
	return p.err
}

// SprintIR is PrintIR rendered to a string, convenient for tests and REPL
// output.
func SprintIR(node ir.Node) string {
	var buf strings.Builder
	_ = PrintIR(&buf, node)
	return buf.String()
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) print(node ir.Node, depth int) {
	if p.err != nil || node == nil {
		return
	}
	indent := strings.Repeat(". ", depth)
	line := node.Tag().String()
	if d := detail(node); d != "" {
		line += " " + d
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", indent, line)
	for _, child := range children(node) {
		p.print(child, depth+1)
	}
}

// detail renders the leaf information a node's Tag alone doesn't convey:
// the constant's value, a variable's name, and so on.
func detail(node ir.Node) string {
	switch n := node.(type) {
	case *ir.Const:
		if n == ir.NilConst {
			return "()"
		}
		if n == ir.UndefConst {
			return "#<undef>"
		}
		return n.Value.String()
	case *ir.LRef:
		return n.LVar.Name.Name
	case *ir.LSet:
		return n.LVar.Name.Name
	case *ir.GRef:
		return n.Ident.Name.Name
	case *ir.GSet:
		return n.Ident.Name.Name
	case *ir.Define:
		return n.Ident.Name.Name
	case *ir.Lambda:
		names := make([]string, len(n.LVars))
		for i, lv := range n.LVars {
			names[i] = lv.Name.Name
		}
		return fmt.Sprintf("(%s)", strings.Join(names, " "))
	case *ir.Let:
		names := make([]string, len(n.LVars))
		for i, lv := range n.LVars {
			names[i] = lv.Name.Name
		}
		return fmt.Sprintf("(%s)", strings.Join(names, " "))
	case *ir.Label:
		return fmt.Sprintf("#%d", n.LabelID)
	default:
		return ""
	}
}

// children lists the subtrees print should descend into, in source order.
func children(node ir.Node) []ir.Node {
	switch n := node.(type) {
	case *ir.Define:
		return []ir.Node{n.Expr}
	case *ir.LSet:
		return []ir.Node{n.Expr}
	case *ir.GSet:
		return []ir.Node{n.Expr}
	case *ir.If:
		return []ir.Node{n.Test, n.Then, n.Else}
	case *ir.Let:
		cs := append([]ir.Node{}, n.Inits...)
		return append(cs, n.Body)
	case *ir.Receive:
		return []ir.Node{n.Producer, n.Body}
	case *ir.Lambda:
		return []ir.Node{n.Body}
	case *ir.Label:
		return []ir.Node{n.Body}
	case *ir.Seq:
		return n.Body
	case *ir.Call:
		cs := append([]ir.Node{n.Proc}, n.Args...)
		return cs
	case *ir.Asm:
		return n.Args
	case *ir.Promise:
		return []ir.Node{n.Expr}
	case *ir.Cons:
		return []ir.Node{n.X, n.Y}
	case *ir.Append:
		return []ir.Node{n.X, n.Y}
	case *ir.Memv:
		return []ir.Node{n.X, n.Y}
	case *ir.Eq:
		return []ir.Node{n.X, n.Y}
	case *ir.Eqv:
		return []ir.Node{n.X, n.Y}
	case *ir.List:
		return n.Args
	case *ir.ListStar:
		return n.Args
	case *ir.Vector:
		return n.Args
	case *ir.List2Vector:
		return []ir.Node{n.Arg}
	default:
		return nil
	}
}

// Disassemble renders a Code's bytecode in the lang/asm textual format,
// exposed here so callers driving the full compile-dasm pipeline don't need
// to import lang/asm directly for this one call.
func Disassemble(code *pass3.Code) string {
	return asm.Disassemble(code)
}
