package pass3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineDropsPushPop(t *testing.T) {
	insns := []Insn{
		{Op: CONST, Operand: 0, HasOperand: true},
		{Op: PUSH},
		{Op: POP},
		{Op: RET},
	}
	got := combine(insns)
	assert.Equal(t, []Insn{
		{Op: CONST, Operand: 0, HasOperand: true},
		{Op: RET},
	}, got)
}

func TestCombineRemapsJumpPastDroppedPair(t *testing.T) {
	insns := []Insn{
		{Op: CONSTT},
		{Op: BF, Operand: 4, HasOperand: true},
		{Op: PUSH},
		{Op: POP},
		{Op: CONST, Operand: 0, HasOperand: true},
		{Op: RET},
	}
	got := combine(insns)
	assert.Equal(t, []Insn{
		{Op: CONSTT},
		{Op: BF, Operand: 2, HasOperand: true},
		{Op: CONST, Operand: 0, HasOperand: true},
		{Op: RET},
	}, got)
}

func TestMaxStackTracksCallArguments(t *testing.T) {
	insns := []Insn{
		{Op: CONST, Operand: 0, HasOperand: true},
		{Op: PUSH},
		{Op: CONST, Operand: 1, HasOperand: true},
		{Op: PUSH},
		{Op: GREF, Operand: 0, HasOperand: true},
		{Op: CALL, Operand: 2, HasOperand: true},
		{Op: RET},
	}
	assert.Equal(t, 2, maxStack(insns))
}
