package pass1

import (
	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/errors"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

// compileBody compiles a lambda/let/receive body (spec §4.4): a sequence of
// forms whose leading run of (define ...) / (define-constant ...) forms (or
// begins thereof) is rewritten to an implicit letrec binding every name
// visible to every other definition's initializer, exactly as internal
// defines in Scheme are specified to behave.
func (p *pass1) compileBody(forms []sexpr.Value, env *cenv.CEnv) (ir.Node, error) {
	defines, rest, err := collectInternalDefines(forms)
	if err != nil {
		return nil, err
	}
	if len(defines) == 0 {
		return p.compileBeginList(forms, env)
	}

	lvars := make([]*ir.LVar, len(defines))
	bindings := make(map[sexpr.Symbol]any, len(defines))
	for i, d := range defines {
		lv := ir.NewLVar(d.name)
		lvars[i] = lv
		bindings[d.name] = lv
	}
	inner := env.Extend(cenv.Lexical, bindings)

	inits := make([]ir.Node, len(defines))
	for i, d := range defines {
		init, err := p.compile(d.expr, inner.AddName(d.name))
		if err != nil {
			return nil, err
		}
		inits[i] = init
		lvars[i].Init = init
	}

	bodyNode, err := p.compileBeginList(rest, inner)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Kind: ir.LetRec, LVars: lvars, Inits: inits, Body: bodyNode}, nil
}

type internalDefine struct {
	name sexpr.Symbol
	expr sexpr.Value
}

// collectInternalDefines peels the leading run of define forms (transparent
// through a wrapping begin) off forms, returning them alongside whatever
// follows.
func collectInternalDefines(forms []sexpr.Value) ([]internalDefine, []sexpr.Value, error) {
	var defines []internalDefine
	i := 0
	for i < len(forms) {
		pair, ok := forms[i].(*sexpr.Pair)
		if !ok {
			break
		}
		sym, ok := pair.Car.(sexpr.Symbol)
		if !ok {
			break
		}
		switch sym.Name {
		case "define", "define-constant":
			name, expr, err := parseDefineForm(pair)
			if err != nil {
				return nil, nil, err
			}
			defines = append(defines, internalDefine{name: name, expr: expr})
			i++
		case "begin":
			inner, ok := sexpr.ToSlice(pair.Cdr)
			if !ok {
				return nil, nil, &errors.SyntaxError{Form: "begin", Msg: "improper form"}
			}
			nested, rest, err := collectInternalDefines(inner)
			if err != nil {
				return nil, nil, err
			}
			if len(rest) != 0 {
				// a begin that mixes defines with other forms ends the
				// leading-define run right there, same as Scheme requires.
				defines = append(defines, nested...)
				return defines, append(rest, forms[i+1:]...), nil
			}
			defines = append(defines, nested...)
			i++
		default:
			goto done
		}
	}
done:
	return defines, forms[i:], nil
}

// parseDefineForm extracts the bound name and initializer expression from a
// (define name expr), (define-constant name expr), or procedure shorthand
// (define (name . formals) body...) form.
func parseDefineForm(pair *sexpr.Pair) (sexpr.Symbol, sexpr.Value, error) {
	args, ok := sexpr.ToSlice(pair.Cdr)
	if !ok || len(args) == 0 {
		return sexpr.Symbol{}, nil, &errors.SyntaxError{Form: "define", Msg: "missing target"}
	}
	switch target := args[0].(type) {
	case sexpr.Symbol:
		if len(args) == 1 {
			return target, sexpr.Unspecified, nil
		}
		if len(args) != 2 {
			return sexpr.Symbol{}, nil, &errors.SyntaxError{Form: "define", Msg: "too many forms for a variable definition"}
		}
		return target, args[1], nil
	case *sexpr.Pair:
		name, ok := target.Car.(sexpr.Symbol)
		if !ok {
			return sexpr.Symbol{}, nil, &errors.SyntaxError{Form: "define", Msg: "procedure name must be a symbol"}
		}
		lambdaForm := &sexpr.Pair{
			Car: sexpr.Symbol{Name: "lambda"},
			Cdr: &sexpr.Pair{Car: target.Cdr, Cdr: sexpr.List(args[1:]...)},
		}
		return name, lambdaForm, nil
	default:
		return sexpr.Symbol{}, nil, &errors.SyntaxError{Form: "define", Msg: "target must be a symbol or (name . formals)"}
	}
}
