// Package pass1 implements the compiler's first pass (spec §4.4): parsing
// and resolving an s-expression program against a compile-time environment
// into the intermediate representation lang/ir defines. It is the only
// package that looks at sexpr.Value shapes directly; every later pass only
// ever sees ir.Node.
package pass1

import (
	"fmt"

	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/errors"
	"github.com/embers-lang/embers/lang/host"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
	"github.com/embers-lang/embers/lang/token"
)

// special is a special-form compiler: given the full form (including its
// keyword in Car) and the environment to compile it under, produce IR.
type special func(p *pass1, form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error)

// specials is the dispatch table for keywords pass 1 recognizes directly,
// rather than as ordinary procedure calls or macros. Indexed by symbol name
// instead of a type switch because every call into Compile consults it.
var specials map[string]special

func init() {
	specials = map[string]special{
		"quote":            (*pass1).compileQuote,
		"quasiquote":       (*pass1).compileQuasiquote,
		"if":               (*pass1).compileIf,
		"and":              (*pass1).compileAnd,
		"or":               (*pass1).compileOr,
		"when":             (*pass1).compileWhen,
		"unless":           (*pass1).compileUnless,
		"cond":             (*pass1).compileCond,
		"case":             (*pass1).compileCase,
		"begin":            (*pass1).compileBegin,
		"set!":             (*pass1).compileSet,
		"lambda":           (*pass1).compileLambda,
		"let":              (*pass1).compileLet,
		"let*":             (*pass1).compileLetStar,
		"letrec":           (*pass1).compileLetrec,
		"letrec*":          (*pass1).compileLetrec,
		"receive":          (*pass1).compileReceive,
		"do":               (*pass1).compileDo,
		"and-let*":         (*pass1).compileAndLetStar,
		"delay":            (*pass1).compileDelay,
		"define":           (*pass1).compileDefine,
		"define-constant":  (*pass1).compileDefineConstant,
		"define-inline":    (*pass1).compileDefineInline,
		"define-syntax":    (*pass1).compileDefineSyntax,
		"define-macro":     (*pass1).compileDefineSyntax,
		"define-module":    (*pass1).compileDefineModule,
		"with-module":      (*pass1).compileWithModule,
		"select-module":    (*pass1).compileSelectModule,
		"export":           (*pass1).compileExport,
		"import":           (*pass1).compileImport,
		"eval-when":        (*pass1).compileEvalWhen,
	}
}

// inlineOp is the table of core procedures spec §4.11 requires pass 1 to
// recognize and compile directly to an ASM node, keyed by the procedure's
// toplevel name. Anything not in this table and not an ir-native node
// (compileApplication's other special case) compiles to an ordinary CALL.
var inlineOp = map[string]token.Op{
	"<":     token.LT,
	"<=":    token.LE,
	">":     token.GT,
	">=":    token.GE,
	"=":     token.NUMEQ,
	"+":     token.ADD,
	"-":     token.SUB,
	"*":     token.MUL,
	"/":     token.DIV,
	"not":   token.NOT,
	"null?": token.NULLP,
}

// pass1 holds the state one compilation pass shares: the host VM (for
// current-module/eval-when/compile-flag queries) and a symbol table used to
// intern the symbols pass1 itself synthesizes (e.g. gensym'd let-loop
// names).
type pass1 struct {
	vm      host.VM
	symbols map[string]sexpr.Symbol
	gensym  int
	// modules records modules this pass has created via define-module, so a
	// later with-module/select-module referencing the same name resolves to
	// the same Module rather than a fresh empty one.
	modules map[string]host.Module
}

// Compile compiles form under env using vm for host queries (spec §4.4,
// §6's top-level entry point).
func Compile(form sexpr.Value, env *cenv.CEnv, vm host.VM) (ir.Node, error) {
	p := &pass1{vm: vm, symbols: make(map[string]sexpr.Symbol), modules: make(map[string]host.Module)}
	return p.compile(form, env)
}

func (p *pass1) intern(name string) sexpr.Symbol {
	return sexpr.Intern(p.symbols, name)
}

// newTemp returns a symbol guaranteed not to collide with any symbol a
// program could itself write, used for the synthetic bindings do, cond's =>
// clauses and case desugar into (do's hidden loop procedure name, the
// temporary holding a cond test's value or a case key).
func (p *pass1) newTemp(hint string) sexpr.Symbol {
	p.gensym++
	return sexpr.Symbol{Name: fmt.Sprintf(" %s.%d", hint, p.gensym)}
}

func (p *pass1) compile(form sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	switch v := form.(type) {
	case sexpr.Symbol:
		return p.compileVarRef(v, env)
	case *sexpr.Pair:
		return p.compileForm(v, env)
	default:
		// self-evaluating literal: Bool, Int, Float, Str, Char, Vector, Nil
		return &ir.Const{Value: v}, nil
	}
}

func (p *pass1) compileVarRef(sym sexpr.Symbol, env *cenv.CEnv) (ir.Node, error) {
	if lv, ok := env.LookupLVar(sym); ok {
		lv.Ref()
		return &ir.LRef{LVar: lv}, nil
	}
	b, ok := env.Module.Lookup(sym)
	if !ok {
		return nil, &errors.CompileError{Stage: "pass1", Msg: "unbound variable: " + sym.Name}
	}
	if b.Const() {
		if val, has := b.Value(); has {
			return &ir.Const{Value: val}, nil
		}
	}
	return &ir.GRef{Ident: host.MakeIdentifier(sym, env.Module)}, nil
}

func (p *pass1) compileForm(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	if sym, ok := form.Car.(sexpr.Symbol); ok {
		if _, bound := env.LookupLVar(sym); !bound {
			if xf, ok := env.LookupMacro(sym); ok {
				expanded, err := xf.Expand(form, env)
				if err != nil {
					return nil, err
				}
				return p.compile(expanded, env)
			}
			if sf, ok := specials[sym.Name]; ok {
				return sf(p, form, env)
			}
		}
	}
	return p.compileApplication(form, env)
}

// compileApplication compiles an ordinary procedure call: (proc args...).
// If proc names a core inlinable operation (spec §4.5/§4.11) and the
// reference is unshadowed and applied to a supported arity, it compiles
// directly to the IR node or ASM instruction that operation maps to instead
// of a generic CALL.
func (p *pass1) compileApplication(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, ok := sexpr.ToSlice(form.Cdr)
	if !ok {
		return nil, &errors.SyntaxError{Form: "application", Msg: "improper argument list"}
	}

	if sym, ok := form.Car.(sexpr.Symbol); ok {
		if _, bound := env.LookupLVar(sym); !bound {
			if node, handled, err := p.compileInlinable(sym, args, env); handled {
				return node, err
			}
		}
	}

	proc, err := p.compile(form.Car, env.SansName())
	if err != nil {
		return nil, err
	}
	argNodes := make([]ir.Node, len(args))
	for i, a := range args {
		argNodes[i], err = p.compile(a, env.SansName())
		if err != nil {
			return nil, err
		}
	}
	return &ir.Call{Proc: proc, Args: argNodes}, nil
}

func (p *pass1) compileInlinable(sym sexpr.Symbol, args []sexpr.Value, env *cenv.CEnv) (ir.Node, bool, error) {
	binary := func(make func(x, y ir.Node) ir.Node) (ir.Node, bool, error) {
		if len(args) != 2 {
			return nil, true, &errors.ArityError{Form: sym.Name, Got: len(args), WantLow: 2, WantHigh: 2}
		}
		x, err := p.compile(args[0], env.SansName())
		if err != nil {
			return nil, true, err
		}
		y, err := p.compile(args[1], env.SansName())
		if err != nil {
			return nil, true, err
		}
		return make(x, y), true, nil
	}

	switch sym.Name {
	case "cons":
		return binary(func(x, y ir.Node) ir.Node { return &ir.Cons{X: x, Y: y} })
	case "append":
		return binary(func(x, y ir.Node) ir.Node { return &ir.Append{X: x, Y: y} })
	case "memv":
		return binary(func(x, y ir.Node) ir.Node { return &ir.Memv{X: x, Y: y} })
	case "eq?":
		return binary(func(x, y ir.Node) ir.Node { return &ir.Eq{X: x, Y: y} })
	case "eqv?":
		return binary(func(x, y ir.Node) ir.Node { return &ir.Eqv{X: x, Y: y} })
	case "list":
		nodes, err := p.compileList(args, env)
		return &ir.List{Args: nodes}, true, err
	case "list*":
		nodes, err := p.compileList(args, env)
		return &ir.ListStar{Args: nodes}, true, err
	case "vector":
		nodes, err := p.compileList(args, env)
		return &ir.Vector{Args: nodes}, true, err
	case "list->vector":
		if len(args) != 1 {
			return nil, true, &errors.ArityError{Form: sym.Name, Got: len(args), WantLow: 1, WantHigh: 1}
		}
		arg, err := p.compile(args[0], env.SansName())
		return &ir.List2Vector{Arg: arg}, true, err
	}

	op, isOp := inlineOp[sym.Name]
	if !isOp {
		return nil, false, nil
	}
	switch op {
	case token.NOT, token.NULLP:
		if len(args) != 1 {
			return nil, true, &errors.ArityError{Form: sym.Name, Got: len(args), WantLow: 1, WantHigh: 1}
		}
		arg, err := p.compile(args[0], env.SansName())
		if err != nil {
			return nil, true, err
		}
		return &ir.Asm{Insn: ir.Insn{Opcode: int(op)}, Args: []ir.Node{arg}}, true, nil
	case token.ADD, token.SUB, token.MUL, token.DIV:
		// arithmetic inliners fold left-associatively: (+ a b c d) becomes
		// ((a+b)+c)+d, one binary ASM per pair, rather than a single n-ary node.
		if len(args) < 2 {
			return nil, true, &errors.ArityError{Form: sym.Name, Got: len(args), WantLow: 2, WantHigh: -1}
		}
		node, err := p.compile(args[0], env.SansName())
		if err != nil {
			return nil, true, err
		}
		for _, a := range args[1:] {
			y, err := p.compile(a, env.SansName())
			if err != nil {
				return nil, true, err
			}
			node = &ir.Asm{Insn: ir.Insn{Opcode: int(op)}, Args: []ir.Node{node, y}}
		}
		return node, true, nil
	default:
		// comparisons are strictly binary; more than two arguments falls back
		// to an ordinary call rather than an inlined ASM.
		if len(args) != 2 {
			return nil, false, nil
		}
		x, err := p.compile(args[0], env.SansName())
		if err != nil {
			return nil, true, err
		}
		y, err := p.compile(args[1], env.SansName())
		if err != nil {
			return nil, true, err
		}
		return &ir.Asm{Insn: ir.Insn{Opcode: int(op)}, Args: []ir.Node{x, y}}, true, nil
	}
}

func (p *pass1) compileList(vals []sexpr.Value, env *cenv.CEnv) ([]ir.Node, error) {
	nodes := make([]ir.Node, len(vals))
	for i, v := range vals {
		n, err := p.compile(v, env.SansName())
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}
