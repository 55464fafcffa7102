package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embers-lang/embers/lang/token"
)

func TestMakePosRoundTripsLineCol(t *testing.T) {
	p := token.MakePos(12, 34)
	line, col := p.LineCol()
	assert.Equal(t, 12, line)
	assert.Equal(t, 34, col)
	assert.False(t, p.Unknown())
}

func TestNoPosIsUnknown(t *testing.T) {
	assert.True(t, token.NoPos.Unknown())
	line, col := token.NoPos.LineCol()
	assert.Equal(t, 0, line)
	assert.Equal(t, 0, col)
}

func TestPosUnknownWhenEitherComponentMissing(t *testing.T) {
	assert.True(t, token.MakePos(0, 1).Unknown())
	assert.True(t, token.MakePos(1, 0).Unknown())
}
