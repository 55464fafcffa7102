package pass1

import (
	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/errors"
	"github.com/embers-lang/embers/lang/host"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

func (p *pass1) requireToplevel(env *cenv.CEnv, form string) error {
	if !env.Toplevel() {
		return &errors.SyntaxError{Form: form, Msg: "only allowed at toplevel"}
	}
	return nil
}

func (p *pass1) compileDefine(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	if err := p.requireToplevel(env, "define"); err != nil {
		return nil, err
	}
	name, exprForm, err := parseDefineForm(form)
	if err != nil {
		return nil, err
	}
	expr, err := p.compile(exprForm, env.AddName(name))
	if err != nil {
		return nil, err
	}
	env.Module.Define(name, host.NewBinding(env.Module, name, nil, false, false))
	return &ir.Define{Ident: host.MakeIdentifier(name, env.Module), Expr: expr}, nil
}

// compileDefineConstant handles define-constant (spec §4.4): the bound name
// is marked Const in the module table so later references to it may be
// folded directly to its value (spec §4.4, rule 2), provided the
// initializer itself compiled down to a Const.
func (p *pass1) compileDefineConstant(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	if err := p.requireToplevel(env, "define-constant"); err != nil {
		return nil, err
	}
	name, exprForm, err := parseDefineForm(form)
	if err != nil {
		return nil, err
	}
	expr, err := p.compile(exprForm, env.AddName(name))
	if err != nil {
		return nil, err
	}
	if c, ok := expr.(*ir.Const); ok {
		env.Module.Define(name, host.NewBinding(env.Module, name, c.Value, true, true))
	} else {
		env.Module.Define(name, host.NewBinding(env.Module, name, nil, false, true))
	}
	return &ir.Define{Flags: ir.DefineConst, Ident: host.MakeIdentifier(name, env.Module), Expr: expr}, nil
}

// compileDefineInline handles define-inline (spec §4.4, §4.5): like define,
// but a compiled Lambda is flagged LambdaInlined and packed (spec §4.7) to
// check that it packs. The packed form is not stored on the binding, and no
// call site is inlined from it.
func (p *pass1) compileDefineInline(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	if err := p.requireToplevel(env, "define-inline"); err != nil {
		return nil, err
	}
	name, exprForm, err := parseDefineForm(form)
	if err != nil {
		return nil, err
	}
	expr, err := p.compile(exprForm, env.AddName(name))
	if err != nil {
		return nil, err
	}
	if lam, ok := expr.(*ir.Lambda); ok {
		lam.Flag = ir.LambdaInlined
		_ = ir.Pack(lam) // packed only to check that it packs; the result is dropped
	}
	env.Module.Define(name, host.NewBinding(env.Module, name, nil, false, false))
	return &ir.Define{Ident: host.MakeIdentifier(name, env.Module), Expr: expr}, nil
}

// compileDefineSyntax handles define-syntax and define-macro. Macro
// expansion itself is out of scope for this core (spec §1): the form is only
// checked to be at toplevel and compiles to a no-op. No transformer is
// installed and nothing is recorded about the name.
func (p *pass1) compileDefineSyntax(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	if err := p.requireToplevel(env, "define-syntax"); err != nil {
		return nil, err
	}
	return ir.UndefConst, nil
}

func (p *pass1) compileDefineModule(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "define-module")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "define-module", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	name, ok := args[0].(sexpr.Symbol)
	if !ok {
		return nil, &errors.SyntaxError{Form: "define-module", Msg: "module name must be a symbol"}
	}
	mod := p.getOrCreateModule(name)
	inner := &cenv.CEnv{Module: mod}
	body, err := p.compileBeginList(args[1:], inner)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (p *pass1) getOrCreateModule(name sexpr.Symbol) host.Module {
	if m, ok := p.modules[name.Name]; ok {
		return m
	}
	m := host.NewModule(name)
	p.modules[name.Name] = m
	return m
}

func (p *pass1) compileWithModule(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "with-module")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "with-module", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	name, ok := args[0].(sexpr.Symbol)
	if !ok {
		return nil, &errors.SyntaxError{Form: "with-module", Msg: "module name must be a symbol"}
	}
	mod := p.getOrCreateModule(name)
	inner := env.Extend(cenv.Lexical, nil)
	inner.Module = mod
	return p.compileBeginList(args[1:], inner)
}

func (p *pass1) compileSelectModule(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	if err := p.requireToplevel(env, "select-module"); err != nil {
		return nil, err
	}
	args, err := formArgs(form, "select-module")
	if err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, &errors.ArityError{Form: "select-module", Got: len(args), WantLow: 1, WantHigh: 1}
	}
	name, ok := args[0].(sexpr.Symbol)
	if !ok {
		return nil, &errors.SyntaxError{Form: "select-module", Msg: "module name must be a symbol"}
	}
	mod := p.getOrCreateModule(name)
	p.vm.SetCurrentModule(mod)
	env.Module = mod
	return ir.UndefConst, nil
}

// compileExport and compileImport have no IR effect of their own in this
// core: both compile to a no-op so they can appear without error alongside
// the forms that do carry semantics. export records nothing; import adds
// each named module to the current module's imports (host.Module.Import).
func (p *pass1) compileExport(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	return ir.UndefConst, nil
}

func (p *pass1) compileImport(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "import")
	if err != nil {
		return nil, err
	}
	for _, a := range args {
		name, ok := a.(sexpr.Symbol)
		if !ok {
			return nil, &errors.SyntaxError{Form: "import", Msg: "imported module name must be a symbol"}
		}
		env.Module.Import(p.getOrCreateModule(name))
	}
	return ir.UndefConst, nil
}

// compileEvalWhen handles eval-when's three situations (spec §4.4): the
// body is only compiled (and hence only appears in the resulting IR) when
// the requested situation includes the VM's current one.
func (p *pass1) compileEvalWhen(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "eval-when")
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, &errors.ArityError{Form: "eval-when", Got: len(args), WantLow: 1, WantHigh: -1}
	}
	situations, ok := sexpr.ToSlice(args[0])
	if !ok {
		return nil, &errors.SyntaxError{Form: "eval-when", Msg: "situation list must be a proper list"}
	}
	want := p.vm.EvalSituation()
	matched := false
	for _, s := range situations {
		sym, ok := s.(sexpr.Symbol)
		if !ok {
			return nil, &errors.SyntaxError{Form: "eval-when", Msg: "situation must be a symbol"}
		}
		if situationName(want) == sym.Name {
			matched = true
		}
	}
	if !matched {
		return ir.UndefConst, nil
	}
	return p.compileBeginList(args[1:], env)
}

func situationName(s host.EvalSituation) string {
	switch s {
	case host.SituationCompile:
		return "compile"
	case host.SituationLoad:
		return "load"
	default:
		return "eval"
	}
}
