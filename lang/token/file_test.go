package token_test

import (
	"testing"

	"github.com/embers-lang/embers/lang/token"
	"github.com/stretchr/testify/assert"
)

func TestFileLineCol(t *testing.T) {
	src := []byte("(define x 1)\n(+ x 2)\n")
	f := token.NewFile("t.scm", src)

	p := f.Pos(13) // start of second line
	line, col := p.LineCol()
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)
	assert.Equal(t, "t.scm:2:1", f.Position(p).String())
}

func TestFormatPosShort(t *testing.T) {
	f := token.NewFile("t.scm", []byte("()"))
	p := f.Pos(0)
	assert.Equal(t, "t.scm", token.FormatPos(token.PosShort, f, p))
	assert.Equal(t, "t.scm:1:1", token.FormatPos(token.PosLong, f, p))
}

func TestNoPos(t *testing.T) {
	assert.True(t, token.NoPos.Unknown())
}
