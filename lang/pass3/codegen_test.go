package pass3_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embers-lang/embers/lang/ir"
	"github.com/embers-lang/embers/lang/pass3"
	"github.com/embers-lang/embers/lang/sexpr"
)

func sym(name string) sexpr.Symbol { return sexpr.Symbol{Name: name} }

func opcodes(c *pass3.Code) []pass3.Opcode {
	ops := make([]pass3.Opcode, len(c.Insns))
	for i, insn := range c.Insns {
		ops[i] = insn.Op
	}
	return ops
}

func TestGenerateConst(t *testing.T) {
	c := pass3.Generate(&ir.Const{Value: sexpr.Int(42)})
	assert.Equal(t, []pass3.Opcode{pass3.CONST, pass3.RET}, opcodes(c))
	assert.Len(t, c.Consts, 1)
}

func TestGenerateIfEmitsBranchAndJump(t *testing.T) {
	n := &ir.If{
		Test: &ir.Const{Value: sexpr.Bool(true)},
		Then: &ir.Const{Value: sexpr.Int(1)},
		Else: &ir.Const{Value: sexpr.Int(2)},
	}
	c := pass3.Generate(n)
	assert.Equal(t, []pass3.Opcode{pass3.CONSTT, pass3.BF, pass3.CONST, pass3.JUMP, pass3.CONST, pass3.RET}, opcodes(c))

	bf := c.Insns[1]
	assert.Equal(t, 4, bf.Operand) // jumps to the Else branch (index of the second CONST)
	jmp := c.Insns[3]
	assert.Equal(t, 5, jmp.Operand) // jumps past the Else branch, to RET
}

func TestGenerateCallPushesArgsThenProc(t *testing.T) {
	call := &ir.Call{
		Proc: &ir.GRef{Ident: ir.Identifier{Name: sym("f")}},
		Args: []ir.Node{&ir.Const{Value: sexpr.Int(1)}, &ir.Const{Value: sexpr.Int(2)}},
	}
	c := pass3.Generate(call)
	assert.Equal(t, []pass3.Opcode{
		pass3.CONST, pass3.PUSH,
		pass3.CONST, pass3.PUSH,
		pass3.GREF,
		pass3.TAILCALL, // the call is in tail position as the whole program
		pass3.RET,
	}, opcodes(c))
	assert.Equal(t, 2, c.Insns[5].Operand)
}

func TestGenerateLRefUsesDepthIndexWithinLet(t *testing.T) {
	x := ir.NewLVar(sym("x"))
	init := &ir.Const{Value: sexpr.Int(1)}
	x.Init = init
	ref := &ir.LRef{LVar: x}
	x.Ref()
	let := &ir.Let{Kind: ir.LetPlain, LVars: []*ir.LVar{x}, Inits: []ir.Node{init}, Body: ref}

	c := pass3.Generate(let)
	assert.Equal(t, []pass3.Opcode{pass3.CONST, pass3.PUSH, pass3.LOCALENV, pass3.LREF, pass3.RET}, opcodes(c))
	assert.Equal(t, 0, c.Insns[3].Operand) // depth 0, index 0
}

func TestGenerateSharedLabelEmitsJumpOnSecondReference(t *testing.T) {
	shared := &ir.Label{LabelID: -1, Body: &ir.Const{Value: sexpr.Int(9)}}
	n := &ir.If{
		Test: &ir.Const{Value: sexpr.Bool(true)},
		Then: shared,
		Else: shared,
	}
	c := pass3.Generate(n)
	// Then emits the shared body inline; Else, reaching the same *Label,
	// emits a JUMP back to that already-generated code instead of
	// duplicating it.
	assert.Equal(t, []pass3.Opcode{pass3.CONSTT, pass3.BF, pass3.CONST, pass3.JUMP, pass3.JUMP, pass3.RET}, opcodes(c))
	assert.Equal(t, 2, c.Insns[4].Operand)
}

func TestGenerateLambdaEmitsClosureWithFunctionTemplate(t *testing.T) {
	param := ir.NewLVar(sym("x"))
	ref := &ir.LRef{LVar: param}
	param.Ref()
	lam := &ir.Lambda{ReqArgs: 1, LVars: []*ir.LVar{param}, Body: ref}

	c := pass3.Generate(lam)
	assert.Equal(t, []pass3.Opcode{pass3.CLOSURE, pass3.RET}, opcodes(c))
	assert.Len(t, c.Functions, 1)
	assert.Equal(t, []pass3.Opcode{pass3.LREF, pass3.RET}, opcodes(c.Functions[0]))
}
