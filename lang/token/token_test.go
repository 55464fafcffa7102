package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embers-lang/embers/lang/token"
)

func TestOpStringNamesKnownOperators(t *testing.T) {
	assert.Equal(t, "+", token.ADD.String())
	assert.Equal(t, "<", token.LT.String())
	assert.Equal(t, "not", token.NOT.String())
}

func TestOpStringOnInvalidValue(t *testing.T) {
	assert.Equal(t, "<invalid op>", token.Op(99).String())
}
