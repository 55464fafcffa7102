package pass1

import (
	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/errors"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

type bindingSpec struct {
	name sexpr.Symbol
	init sexpr.Value
}

// parseBindings parses a let-style binding list: ((name init) ...).
func parseBindings(form string, v sexpr.Value) ([]bindingSpec, error) {
	items, ok := sexpr.ToSlice(v)
	if !ok {
		return nil, &errors.SyntaxError{Form: form, Msg: "binding list must be a proper list"}
	}
	specs := make([]bindingSpec, len(items))
	for i, item := range items {
		pair, ok := sexpr.ToSlice(item)
		if !ok || len(pair) != 2 {
			return nil, &errors.SyntaxError{Form: form, Msg: "each binding must be (name init)"}
		}
		name, ok := pair[0].(sexpr.Symbol)
		if !ok {
			return nil, &errors.SyntaxError{Form: form, Msg: "binding name must be a symbol"}
		}
		specs[i] = bindingSpec{name: name, init: pair[1]}
	}
	return specs, nil
}

// compileLet handles both ordinary and named let (spec §4.4): a named let
// desugars to a letrec binding a local procedure and immediately calling it.
func (p *pass1) compileLet(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "let")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "let", Got: len(args), WantLow: 1, WantHigh: -1}
	}

	if name, ok := args[0].(sexpr.Symbol); ok {
		if len(args) < 2 {
			return nil, &errors.ArityError{Form: "let", Got: len(args), WantLow: 2, WantHigh: -1}
		}
		return p.compileNamedLet(name, args[1], args[2:], env)
	}

	specs, err := parseBindings("let", args[0])
	if err != nil {
		return nil, err
	}
	inits := make([]ir.Node, len(specs))
	for i, s := range specs {
		n, err := p.compile(s.init, env.SansName())
		if err != nil {
			return nil, err
		}
		inits[i] = n
	}
	lvars := make([]*ir.LVar, len(specs))
	bindings := make(map[sexpr.Symbol]any, len(specs))
	for i, s := range specs {
		lv := ir.NewLVar(s.name)
		lv.Init = inits[i]
		lvars[i] = lv
		bindings[s.name] = lv
	}
	inner := env.Extend(cenv.Lexical, bindings)
	body, err := p.compileBody(args[1:], inner)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Kind: ir.LetPlain, LVars: lvars, Inits: inits, Body: body}, nil
}

func (p *pass1) compileNamedLet(name sexpr.Symbol, bindingsForm sexpr.Value, body []sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	specs, err := parseBindings("let", bindingsForm)
	if err != nil {
		return nil, err
	}
	inits := make([]ir.Node, len(specs))
	for i, s := range specs {
		n, err := p.compile(s.init, env.SansName())
		if err != nil {
			return nil, err
		}
		inits[i] = n
	}

	loopVar := ir.NewLVar(name)
	outer := env.Extend(cenv.Lexical, map[sexpr.Symbol]any{name: loopVar})

	formalVars := make([]*ir.LVar, len(specs))
	lambdaBindings := make(map[sexpr.Symbol]any, len(specs))
	for i, s := range specs {
		lv := ir.NewLVar(s.name)
		formalVars[i] = lv
		lambdaBindings[s.name] = lv
	}
	lambdaEnv := outer.Extend(cenv.Lexical, lambdaBindings)

	lam := &ir.Lambda{Name: name, HasName: true, ReqArgs: len(specs), LVars: formalVars, Flag: ir.LambdaPlain}
	lambdaEnv = lambdaEnv.WithLambda(lam)
	lamBody, err := p.compileBody(body, lambdaEnv)
	if err != nil {
		return nil, err
	}
	lam.Body = lamBody
	loopVar.Init = lam

	loopRef := &ir.LRef{LVar: loopVar}
	loopVar.Ref()
	call := &ir.Call{Proc: loopRef, Args: inits}
	return &ir.Let{Kind: ir.LetRec, LVars: []*ir.LVar{loopVar}, Inits: []ir.Node{lam}, Body: call}, nil
}

func (p *pass1) compileLetStar(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "let*")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "let*", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	specs, err := parseBindings("let*", args[0])
	if err != nil {
		return nil, err
	}
	return p.compileLetStarChain(specs, args[1:], env)
}

// compileLetStarChain lowers let* to nested single-binding Lets, each seeing
// the previous binding (spec §4.4): (let* () body) is just body; otherwise
// peel the first binding into its own Let and recurse for the rest.
func (p *pass1) compileLetStarChain(specs []bindingSpec, body []sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	if len(specs) == 0 {
		return p.compileBody(body, env)
	}
	init, err := p.compile(specs[0].init, env.SansName())
	if err != nil {
		return nil, err
	}
	lv := ir.NewLVar(specs[0].name)
	lv.Init = init
	inner := env.Extend(cenv.Lexical, map[sexpr.Symbol]any{specs[0].name: lv})
	rest, err := p.compileLetStarChain(specs[1:], body, inner)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Kind: ir.LetPlain, LVars: []*ir.LVar{lv}, Inits: []ir.Node{init}, Body: rest}, nil
}

func (p *pass1) compileLetrec(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "letrec")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "letrec", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	specs, err := parseBindings("letrec", args[0])
	if err != nil {
		return nil, err
	}
	lvars := make([]*ir.LVar, len(specs))
	bindings := make(map[sexpr.Symbol]any, len(specs))
	for i, s := range specs {
		lv := ir.NewLVar(s.name)
		lvars[i] = lv
		bindings[s.name] = lv
	}
	inner := env.Extend(cenv.Lexical, bindings)
	inits := make([]ir.Node, len(specs))
	for i, s := range specs {
		n, err := p.compile(s.init, inner.AddName(s.name))
		if err != nil {
			return nil, err
		}
		inits[i] = n
		lvars[i].Init = n
	}
	body, err := p.compileBody(args[1:], inner)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Kind: ir.LetRec, LVars: lvars, Inits: inits, Body: body}, nil
}

// compileLambda parses a formals list of the three shapes R7RS allows:
// a proper list (fixed arity), a single symbol (a pure rest-arg procedure,
// ReqArgs 0 OptArg 1), or a dotted list (fixed args plus a rest arg).
func (p *pass1) compileLambda(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "lambda")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "lambda", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	names, hasRest, err := parseFormals(args[0])
	if err != nil {
		return nil, err
	}

	lvars := make([]*ir.LVar, len(names))
	bindings := make(map[sexpr.Symbol]any, len(names))
	for i, n := range names {
		lv := ir.NewLVar(n)
		lvars[i] = lv
		bindings[n] = lv
	}
	reqArgs := len(names)
	optArg := 0
	if hasRest {
		reqArgs--
		optArg = 1
	}

	lam := &ir.Lambda{ReqArgs: reqArgs, OptArg: optArg, LVars: lvars, Flag: ir.LambdaPlain}
	if env.HasNameHint {
		lam.Name, lam.HasName = env.NameHint, true
	}
	inner := env.Extend(cenv.Lexical, bindings).WithLambda(lam).SansName()
	body, err := p.compileBody(args[1:], inner)
	if err != nil {
		return nil, err
	}
	lam.Body = body
	return lam, nil
}

// parseFormals returns the parameter names in order (the rest parameter, if
// any, last) and whether the formals list ends in a rest parameter.
func parseFormals(v sexpr.Value) ([]sexpr.Symbol, bool, error) {
	if sym, ok := v.(sexpr.Symbol); ok {
		return []sexpr.Symbol{sym}, true, nil
	}
	var names []sexpr.Symbol
	for {
		if sexpr.IsNull(v) {
			return names, false, nil
		}
		pair, ok := v.(*sexpr.Pair)
		if !ok {
			sym, ok := v.(sexpr.Symbol)
			if !ok {
				return nil, false, &errors.SyntaxError{Form: "lambda", Msg: "malformed formals list"}
			}
			names = append(names, sym)
			return names, true, nil
		}
		sym, ok := pair.Car.(sexpr.Symbol)
		if !ok {
			return nil, false, &errors.SyntaxError{Form: "lambda", Msg: "formal parameter must be a symbol"}
		}
		names = append(names, sym)
		v = pair.Cdr
	}
}

// compileReceive handles (receive formals producer body...) (spec §4.4).
func (p *pass1) compileReceive(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "receive")
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, &errors.ArityError{Form: "receive", Got: len(args), WantLow: 2, WantHigh: -1}
	}
	names, hasRest, err := parseFormals(args[0])
	if err != nil {
		return nil, err
	}
	producer, err := p.compile(args[1], env.SansName())
	if err != nil {
		return nil, err
	}
	reqArgs := len(names)
	optArg := 0
	if hasRest {
		reqArgs--
		optArg = 1
	}
	lvars := make([]*ir.LVar, len(names))
	bindings := make(map[sexpr.Symbol]any, len(names))
	for i, n := range names {
		lv := ir.NewLVar(n)
		lvars[i] = lv
		bindings[n] = lv
	}
	inner := env.Extend(cenv.Lexical, bindings)
	body, err := p.compileBody(args[2:], inner)
	if err != nil {
		return nil, err
	}
	return &ir.Receive{ReqArgs: reqArgs, OptArg: optArg, LVars: lvars, Producer: producer, Body: body}, nil
}

// compileDo lowers (do ((var init step) ...) (test expr...) body...) to a
// named-let loop (spec §4.4): the classic Scheme expansion.
func (p *pass1) compileDo(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "do")
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, &errors.ArityError{Form: "do", Got: len(args), WantLow: 2, WantHigh: -1}
	}
	specItems, ok := sexpr.ToSlice(args[0])
	if !ok {
		return nil, &errors.SyntaxError{Form: "do", Msg: "binding list must be a proper list"}
	}
	type doSpec struct {
		name       sexpr.Symbol
		init, step sexpr.Value
	}
	specs := make([]doSpec, len(specItems))
	for i, item := range specItems {
		parts, ok := sexpr.ToSlice(item)
		if !ok || (len(parts) != 2 && len(parts) != 3) {
			return nil, &errors.SyntaxError{Form: "do", Msg: "each binding must be (var init [step])"}
		}
		name, ok := parts[0].(sexpr.Symbol)
		if !ok {
			return nil, &errors.SyntaxError{Form: "do", Msg: "binding name must be a symbol"}
		}
		step := parts[0] // no step given: re-bind to itself each iteration
		if len(parts) == 3 {
			step = parts[2]
		}
		specs[i] = doSpec{name: name, init: parts[1], step: step}
	}
	testClause, ok := sexpr.ToSlice(args[1])
	if !ok || len(testClause) < 1 {
		return nil, &errors.SyntaxError{Form: "do", Msg: "test clause must be (test expr...)"}
	}

	loopName := p.newTemp("do-loop")
	var bindingForms []sexpr.Value
	for _, s := range specs {
		bindingForms = append(bindingForms, sexpr.List(s.name, s.init))
	}
	var stepCall []sexpr.Value
	stepCall = append(stepCall, loopName)
	for _, s := range specs {
		stepCall = append(stepCall, s.step)
	}
	commandBody := args[2:]
	loopBody := append(append([]sexpr.Value{}, commandBody...), sexpr.List(stepCall...))
	ifForm := sexpr.List(append([]sexpr.Value{
		sexpr.Symbol{Name: "if"}, testClause[0],
		sexpr.List(append([]sexpr.Value{sexpr.Symbol{Name: "begin"}}, testClause[1:]...)...),
		sexpr.List(append([]sexpr.Value{sexpr.Symbol{Name: "begin"}}, loopBody...)...),
	})...)
	namedLet := sexpr.List(
		sexpr.Symbol{Name: "let"}, loopName, sexpr.List(bindingForms...), ifForm,
	)
	return p.compile(namedLet, env)
}

// compileAndLetStar lowers SRFI-2's and-let* (spec §4.4): a chain of
// bindings and bare tests, all required to be truthy, with the last clause's
// (or the last binding's) value as the result.
func (p *pass1) compileAndLetStar(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "and-let*")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "and-let*", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	clauses, ok := sexpr.ToSlice(args[0])
	if !ok {
		return nil, &errors.SyntaxError{Form: "and-let*", Msg: "clause list must be a proper list"}
	}
	return p.compileAndLetClauses(clauses, args[1:], env)
}

func (p *pass1) compileAndLetClauses(clauses []sexpr.Value, body []sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	if len(clauses) == 0 {
		if len(body) == 0 {
			return &ir.Const{Value: sexpr.Bool(true)}, nil
		}
		return p.compileBody(body, env)
	}
	clause := clauses[0]
	rest := clauses[1:]
	// next compiles what follows this clause; with no clause and no body
	// left, this clause's own value (built by self) is the result.
	next := func(self func() ir.Node, env *cenv.CEnv) (ir.Node, error) {
		if len(rest) == 0 && len(body) == 0 {
			return self(), nil
		}
		return p.compileAndLetClauses(rest, body, env)
	}
	testValue := func() ir.Node { return ir.ItNode }

	if sym, ok := clause.(sexpr.Symbol); ok {
		lv, found := env.LookupLVar(sym)
		var test ir.Node
		if found {
			lv.Ref()
			test = &ir.LRef{LVar: lv}
		} else {
			var err error
			test, err = p.compileVarRef(sym, env)
			if err != nil {
				return nil, err
			}
		}
		elseNode, err := next(testValue, env)
		if err != nil {
			return nil, err
		}
		return &ir.If{Test: test, Then: elseNode, Else: &ir.Const{Value: sexpr.Bool(false)}}, nil
	}

	parts, ok := sexpr.ToSlice(clause)
	if !ok || len(parts) == 0 {
		return nil, &errors.SyntaxError{Form: "and-let*", Msg: "clause must be a symbol, (expr), or (var expr)"}
	}
	if len(parts) == 1 {
		test, err := p.compile(parts[0], env.SansName())
		if err != nil {
			return nil, err
		}
		elseNode, err := next(testValue, env)
		if err != nil {
			return nil, err
		}
		return &ir.If{Test: test, Then: elseNode, Else: &ir.Const{Value: sexpr.Bool(false)}}, nil
	}
	name, ok := parts[0].(sexpr.Symbol)
	if !ok || len(parts) != 2 {
		return nil, &errors.SyntaxError{Form: "and-let*", Msg: "bound clause must be (var expr)"}
	}
	init, err := p.compile(parts[1], env.SansName())
	if err != nil {
		return nil, err
	}
	lv := ir.NewLVar(name)
	lv.Init = init
	inner := env.Extend(cenv.Lexical, map[sexpr.Symbol]any{name: lv})
	ref := &ir.LRef{LVar: lv}
	lv.Ref()
	elseNode, err := next(func() ir.Node { lv.Ref(); return &ir.LRef{LVar: lv} }, inner)
	if err != nil {
		return nil, err
	}
	return &ir.Let{
		Kind: ir.LetPlain, LVars: []*ir.LVar{lv}, Inits: []ir.Node{init},
		Body: &ir.If{Test: ref, Then: elseNode, Else: &ir.Const{Value: sexpr.Bool(false)}},
	}, nil
}
