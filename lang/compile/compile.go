// Package compile wires the three passes together into the entry points a
// host embeds (spec §6): compile one toplevel form, or compile a standalone
// lambda (source text plus a formals/body split) into a closure template
// ready to hand to a VM's MAKE-CLOSURE.
package compile

import (
	"fmt"

	"github.com/embers-lang/embers/lang/cenv"
	"github.com/embers-lang/embers/lang/host"
	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/pass1"
	"github.com/embers-lang/embers/lang/pass2"
	"github.com/embers-lang/embers/lang/pass3"
	"github.com/embers-lang/embers/lang/sexpr"
)

// Compile runs form through all three passes against mod (or a fresh scratch
// module if mod is nil) and returns the flat bytecode a VM executes.
func Compile(form sexpr.Value, mod host.Module) (*pass3.Code, error) {
	if mod == nil {
		mod = host.NewModule(sexpr.Symbol{Name: "user"})
	}
	vm := host.NewVM(mod)
	node, err := pass1.Compile(form, cenv.New(mod), vm)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	optimized := pass2.Optimize(node)
	return pass3.Generate(optimized), nil
}

// CompileToplevelLambda compiles a standalone (lambda formals . body) into a
// closure template, the shape a REPL's "define this procedure" path needs
// without first wrapping it in a synthetic define. formals and body are
// combined as `(lambda ,formals ,@body) before going through the ordinary
// pipeline, and the resulting Lambda's nested template is returned directly
// rather than the CLOSURE-wrapped outer Code pass3.Generate would otherwise
// produce for a bare Lambda node.
func CompileToplevelLambda(formals sexpr.Value, body []sexpr.Value, name sexpr.Symbol, mod host.Module) (*pass3.Code, error) {
	if mod == nil {
		mod = host.NewModule(sexpr.Symbol{Name: "user"})
	}
	form := sexpr.List(append([]sexpr.Value{sexpr.Symbol{Name: "lambda"}, formals}, body...)...)

	vm := host.NewVM(mod)
	node, err := pass1.Compile(form, cenv.New(mod), vm)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	lam, ok := node.(*ir.Lambda)
	if !ok {
		return nil, fmt.Errorf("compile: expected a lambda form, got %T", node)
	}
	lam.Name, lam.HasName = name, true

	optimized := pass2.Optimize(lam)
	wrapped, ok := optimized.(*ir.Lambda)
	if !ok {
		// pass 2 only ever leaves a toplevel Lambda as itself: it has no
		// call sites to classify for embedding/inlining at this scope.
		return nil, fmt.Errorf("compile: optimizer unexpectedly rewrote a toplevel lambda to %T", optimized)
	}

	whole := pass3.Generate(wrapped)
	if len(whole.Functions) != 1 {
		return nil, fmt.Errorf("compile: expected exactly one compiled function template, got %d", len(whole.Functions))
	}
	return whole.Functions[0], nil
}
