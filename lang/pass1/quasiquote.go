package pass1

import (
	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/errors"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/sexpr"
)

func (p *pass1) compileQuasiquote(form *sexpr.Pair, env *cenv.CEnv) (ir.Node, error) {
	args, err := formArgs(form, "quasiquote")
	if err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, &errors.ArityError{Form: "quasiquote", Got: len(args), WantLow: 1, WantHigh: 1}
	}
	return p.qq(args[0], 1, env)
}

// qq lowers a quasiquote template at nesting depth (spec §4.4). A template
// with no unquote/unquote-splicing anywhere inside it folds to a single
// Const; otherwise it is rebuilt with Cons/Append/List->Vector IR
// nodes around whichever sub-templates do contain one.
func (p *pass1) qq(v sexpr.Value, depth int, env *cenv.CEnv) (ir.Node, error) {
	pair, isPair := v.(*sexpr.Pair)
	if !isPair {
		if vec, ok := v.(sexpr.Vector); ok {
			return p.qqVector(vec, depth, env)
		}
		return &ir.Const{Value: v}, nil
	}

	if sym, ok := pair.Car.(sexpr.Symbol); ok {
		switch sym.Name {
		case "unquote":
			args, ok := sexpr.ToSlice(pair.Cdr)
			if !ok || len(args) != 1 {
				return nil, &errors.SyntaxError{Form: "unquote", Msg: "wants exactly one sub-expression"}
			}
			if depth == 1 {
				return p.compile(args[0], env.SansName())
			}
			inner, err := p.qq(args[0], depth-1, env)
			if err != nil {
				return nil, err
			}
			return &ir.Cons{X: &ir.Const{Value: sym}, Y: &ir.Cons{X: inner, Y: ir.NilConst}}, nil
		case "quasiquote":
			args, ok := sexpr.ToSlice(pair.Cdr)
			if !ok || len(args) != 1 {
				return nil, &errors.SyntaxError{Form: "quasiquote", Msg: "wants exactly one sub-expression"}
			}
			inner, err := p.qq(args[0], depth+1, env)
			if err != nil {
				return nil, err
			}
			return &ir.Cons{X: &ir.Const{Value: sym}, Y: &ir.Cons{X: inner, Y: ir.NilConst}}, nil
		}
	}

	// (unquote-splicing e) spliced into the Car position of a list: the
	// result of e is appended rather than cons'd.
	if headPair, ok := pair.Car.(*sexpr.Pair); ok {
		if sym, ok := headPair.Car.(sexpr.Symbol); ok && sym.Name == "unquote-splicing" {
			args, ok := sexpr.ToSlice(headPair.Cdr)
			if !ok || len(args) != 1 {
				return nil, &errors.SyntaxError{Form: "unquote-splicing", Msg: "wants exactly one sub-expression"}
			}
			if depth == 1 {
				spliced, err := p.compile(args[0], env.SansName())
				if err != nil {
					return nil, err
				}
				rest, err := p.qq(pair.Cdr, depth, env)
				if err != nil {
					return nil, err
				}
				return &ir.Append{X: spliced, Y: rest}, nil
			}
		}
	}

	car, err := p.qq(pair.Car, depth, env)
	if err != nil {
		return nil, err
	}
	cdr, err := p.qq(pair.Cdr, depth, env)
	if err != nil {
		return nil, err
	}
	if carConst, ok := car.(*ir.Const); ok {
		if cdrConst, ok := cdr.(*ir.Const); ok {
			return &ir.Const{Value: &sexpr.Pair{Car: carConst.Value, Cdr: cdrConst.Value}}, nil
		}
	}
	return &ir.Cons{X: car, Y: cdr}, nil
}

func (p *pass1) qqVector(vec sexpr.Vector, depth int, env *cenv.CEnv) (ir.Node, error) {
	listNode, err := p.qq(sexpr.List(vec.Items...), depth, env)
	if err != nil {
		return nil, err
	}
	if c, ok := listNode.(*ir.Const); ok {
		items, _ := sexpr.ToSlice(c.Value)
		return &ir.Const{Value: sexpr.Vector{Items: items}}, nil
	}
	return &ir.List2Vector{Arg: listNode}, nil
}
