package pass1

import (
	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/errors"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

func formArgs(form *sexpr.Pair, name string) ([]sexpr.Value, error) {
	args, ok := sexpr.ToSlice(form.Cdr)
	if !ok {
		return nil, &errors.SyntaxError{Form: name, Msg: "improper form"}
	}
	return args, nil
}

func (p *pass1) compileIf(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "if")
	if err != nil {
		return nil, err
	}
	if len(args) != 2 && len(args) != 3 {
		return nil, &errors.ArityError{Form: "if", Got: len(args), WantLow: 2, WantHigh: 3}
	}
	test, err := p.compile(args[0], env.SansName())
	if err != nil {
		return nil, err
	}
	then, err := p.compile(args[1], env.SansName())
	if err != nil {
		return nil, err
	}
	var els ir.Node = ir.UndefConst
	if len(args) == 3 {
		els, err = p.compile(args[2], env.SansName())
		if err != nil {
			return nil, err
		}
	}
	return &ir.If{Test: test, Then: then, Else: els}, nil
}

func (p *pass1) compileAnd(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "and")
	if err != nil {
		return nil, err
	}
	return p.compileAndList(args, env)
}

func (p *pass1) compileAndList(args []sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	if len(args) == 0 {
		return &ir.Const{Value: sexpr.Bool(true)}, nil
	}
	if len(args) == 1 {
		return p.compile(args[0], env.SansName())
	}
	test, err := p.compile(args[0], env.SansName())
	if err != nil {
		return nil, err
	}
	rest, err := p.compileAndList(args[1:], env)
	if err != nil {
		return nil, err
	}
	return &ir.If{Test: test, Then: rest, Else: &ir.Const{Value: sexpr.Bool(false)}}, nil
}

func (p *pass1) compileOr(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "or")
	if err != nil {
		return nil, err
	}
	return p.compileOrList(args, env)
}

func (p *pass1) compileOrList(args []sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	if len(args) == 0 {
		return &ir.Const{Value: sexpr.Bool(false)}, nil
	}
	if len(args) == 1 {
		return p.compile(args[0], env.SansName())
	}
	test, err := p.compile(args[0], env.SansName())
	if err != nil {
		return nil, err
	}
	rest, err := p.compileOrList(args[1:], env)
	if err != nil {
		return nil, err
	}
	return &ir.If{Test: test, Then: ir.ItNode, Else: rest}, nil
}

func (p *pass1) compileWhen(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "when")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "when", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	test, err := p.compile(args[0], env.SansName())
	if err != nil {
		return nil, err
	}
	then, err := p.compileBeginList(args[1:], env)
	if err != nil {
		return nil, err
	}
	return &ir.If{Test: test, Then: then, Else: ir.UndefConst}, nil
}

func (p *pass1) compileUnless(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "unless")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "unless", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	test, err := p.compile(args[0], env.SansName())
	if err != nil {
		return nil, err
	}
	els, err := p.compileBeginList(args[1:], env)
	if err != nil {
		return nil, err
	}
	return &ir.If{Test: test, Then: ir.UndefConst, Else: els}, nil
}

func (p *pass1) compileBegin(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "begin")
	if err != nil {
		return nil, err
	}
	return p.compileBeginList(args, env)
}

func (p *pass1) compileBeginList(args []sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	if len(args) == 0 {
		return ir.UndefConst, nil
	}
	if len(args) == 1 {
		return p.compile(args[0], env)
	}
	body := make([]ir.Node, len(args))
	for i, a := range args {
		n, err := p.compile(a, env.SansName())
		if err != nil {
			return nil, err
		}
		body[i] = n
	}
	return &ir.Seq{Body: body}, nil
}

// compileCond desugars cond's clause list into nested Ifs (spec §4.4). A
// bare (test) clause compiles using the IT marker so the test's own value is
// reused as the result without re-evaluating or re-binding it.
func (p *pass1) compileCond(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "cond")
	if err != nil {
		return nil, err
	}
	return p.compileCondClauses(args, env)
}

func (p *pass1) compileCondClauses(clauses []sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	if len(clauses) == 0 {
		return ir.UndefConst, nil
	}
	clause, ok := sexpr.ToSlice(clauses[0])
	if !ok || len(clause) == 0 {
		return nil, &errors.SyntaxError{Form: "cond", Msg: "clause must be a non-empty list"}
	}
	rest := clauses[1:]

	if sym, ok := clause[0].(sexpr.Symbol); ok && sym.Name == "else" {
		return p.compileBeginList(clause[1:], env)
	}

	test, err := p.compile(clause[0], env.SansName())
	if err != nil {
		return nil, err
	}
	elseNode, err := p.compileCondClauses(rest, env)
	if err != nil {
		return nil, err
	}

	if len(clause) == 1 {
		return &ir.If{Test: test, Then: ir.ItNode, Else: elseNode}, nil
	}
	if arrow, ok := clause[1].(sexpr.Symbol); ok && arrow.Name == "=>" && len(clause) == 3 {
		tmp := ir.NewLVar(p.newTemp("cond"))
		tmp.Init = test
		inner := env.Extend(cenv.Lexical, map[sexpr.Symbol]any{tmp.Name: tmp})
		proc, err := p.compile(clause[2], inner.SansName())
		if err != nil {
			return nil, err
		}
		ref := func() ir.Node { tmp.Ref(); return &ir.LRef{LVar: tmp} }
		return &ir.Let{
			Kind: ir.LetPlain, LVars: []*ir.LVar{tmp}, Inits: []ir.Node{test},
			Body: &ir.If{Test: ref(), Then: &ir.Call{Proc: proc, Args: []ir.Node{ref()}}, Else: elseNode},
		}, nil
	}
	then, err := p.compileBeginList(clause[1:], env)
	if err != nil {
		return nil, err
	}
	return &ir.If{Test: test, Then: then, Else: elseNode}, nil
}

// compileCase desugars case into a chain of Ifs testing the single evaluated
// key against each clause's datum list, picking EQ?, EQV?, or MEMV per
// caseTest.
func (p *pass1) compileCase(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "case")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "case", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	key, err := p.compile(args[0], env.SansName())
	if err != nil {
		return nil, err
	}
	tmp := ir.NewLVar(p.newTemp("case"))
	tmp.Init = key
	inner := env.Extend(cenv.Lexical, map[sexpr.Symbol]any{tmp.Name: tmp})
	body, err := p.compileCaseClauses(args[1:], tmp, inner)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Kind: ir.LetPlain, LVars: []*ir.LVar{tmp}, Inits: []ir.Node{key}, Body: body}, nil
}

func (p *pass1) compileCaseClauses(clauses []sexpr.Value, tmp *ir.LVar, env *cenv.CEnv) (ir.Node, error) {
	if len(clauses) == 0 {
		return ir.UndefConst, nil
	}
	clause, ok := sexpr.ToSlice(clauses[0])
	if !ok || len(clause) == 0 {
		return nil, &errors.SyntaxError{Form: "case", Msg: "clause must be a non-empty list"}
	}
	rest := clauses[1:]

	ref := func() ir.Node { tmp.Ref(); return &ir.LRef{LVar: tmp} }

	if sym, ok := clause[0].(sexpr.Symbol); ok && sym.Name == "else" {
		if len(clause) >= 2 {
			if arrow, ok := clause[1].(sexpr.Symbol); ok && arrow.Name == "=>" && len(clause) == 3 {
				proc, err := p.compile(clause[2], env.SansName())
				if err != nil {
					return nil, err
				}
				return &ir.Call{Proc: proc, Args: []ir.Node{ref()}}, nil
			}
		}
		return p.compileBeginList(clause[1:], env)
	}

	datums, ok := sexpr.ToSlice(clause[0])
	if !ok {
		return nil, &errors.SyntaxError{Form: "case", Msg: "datum list must be a proper list"}
	}
	test := caseTest(ref, datums)
	elseNode, err := p.compileCaseClauses(rest, tmp, env)
	if err != nil {
		return nil, err
	}
	if len(clause) >= 2 {
		if arrow, ok := clause[1].(sexpr.Symbol); ok && arrow.Name == "=>" && len(clause) == 3 {
			proc, err := p.compile(clause[2], env.SansName())
			if err != nil {
				return nil, err
			}
			return &ir.If{Test: test, Then: &ir.Call{Proc: proc, Args: []ir.Node{ref()}}, Else: elseNode}, nil
		}
	}
	then, err := p.compileBeginList(clause[1:], env)
	if err != nil {
		return nil, err
	}
	return &ir.If{Test: test, Then: then, Else: elseNode}, nil
}

// caseTest builds a case clause's membership test against datums, matching
// the datum-list shape to the cheapest comparison that's still correct: a
// single symbol compares with EQ?, a single non-symbol datum with EQV?
// (neither needs MEMV's list walk), and only two-or-more datums actually
// need MEMV.
func caseTest(ref func() ir.Node, datums []sexpr.Value) ir.Node {
	if len(datums) == 1 {
		if _, ok := datums[0].(sexpr.Symbol); ok {
			return &ir.Eq{X: ref(), Y: &ir.Const{Value: datums[0]}}
		}
		return &ir.Eqv{X: ref(), Y: &ir.Const{Value: datums[0]}}
	}
	return &ir.Memv{X: ref(), Y: &ir.Const{Value: sexpr.List(datums...)}}
}

// compileSet handles both ordinary variable assignment and the
// (set! (op args...) val) setter-rewrite form, which this compiler resolves
// by the common R7RS naming convention (op -> set-op!) rather than a dynamic
// setter registry (spec §9 Open Question: no generic setter protocol is in
// scope here).
func (p *pass1) compileSet(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "set!")
	if err != nil {
		return nil, err
	}
	if len(args) != 2 {
		return nil, &errors.ArityError{Form: "set!", Got: len(args), WantLow: 2, WantHigh: 2}
	}

	if place, ok := args[0].(*sexpr.Pair); ok {
		op, ok := place.Car.(sexpr.Symbol)
		if !ok {
			return nil, &errors.SyntaxError{Form: "set!", Msg: "setter target must be (op args...)"}
		}
		placeArgs, ok := sexpr.ToSlice(place.Cdr)
		if !ok {
			return nil, &errors.SyntaxError{Form: "set!", Msg: "improper setter argument list"}
		}
		rewritten := &sexpr.Pair{
			Car: sexpr.Symbol{Name: "set-" + op.Name + "!"},
			Cdr: sexpr.List(append(append([]sexpr.Value{}, placeArgs...), args[1])...),
		}
		return p.compileApplication(rewritten, env)
	}

	sym, ok := args[0].(sexpr.Symbol)
	if !ok {
		return nil, &errors.SyntaxError{Form: "set!", Msg: "target must be a variable or (op args...)"}
	}
	val, err := p.compile(args[1], env.SansName())
	if err != nil {
		return nil, err
	}
	if lv, ok := env.LookupLVar(sym); ok {
		lv.Set()
		return &ir.LSet{LVar: lv, Expr: val}, nil
	}
	return &ir.GSet{Ident: ir.Identifier{Name: sym, Module: env.Module}, Expr: val}, nil
}

func (p *pass1) compileQuote(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "quote")
	if err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, &errors.ArityError{Form: "quote", Got: len(args), WantLow: 1, WantHigh: 1}
	}
	return &ir.Const{Value: args[0]}, nil
}

func (p *pass1) compileDelay(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "delay")
	if err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, &errors.ArityError{Form: "delay", Got: len(args), WantLow: 1, WantHigh: 1}
	}
	body, err := p.compile(args[0], env.SansName())
	if err != nil {
		return nil, err
	}
	thunk := &ir.Lambda{Body: body, Flag: ir.LambdaPlain}
	return &ir.Promise{Expr: thunk}, nil
}
