package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/embers-lang/embers/lang/errors"
	"github.com/embers-lang/embers/lang/token"
)

func TestErrorListSortsByPosition(t *testing.T) {
	var l errors.ErrorList
	l.Add(token.Position{Filename: "a.scm", Line: 3, Column: 1}, "second")
	l.Add(token.Position{Filename: "a.scm", Line: 1, Column: 1}, "first")
	l.Sort()

	assert.Equal(t, "first", l[0].Msg)
	assert.Equal(t, "second", l[1].Msg)
}

func TestErrorListErrNilWhenEmpty(t *testing.T) {
	var l errors.ErrorList
	assert.Nil(t, l.Err())
	l.Add(token.Position{}, "oops")
	assert.NotNil(t, l.Err())
}

func TestArityErrorMessages(t *testing.T) {
	exact := &errors.ArityError{Form: "cons", Got: 1, WantLow: 2, WantHigh: 2}
	assert.Contains(t, exact.Error(), "wants 2 argument(s), got 1")

	atLeast := &errors.ArityError{Form: "list", Got: 0, WantLow: 0, WantHigh: -1}
	assert.Contains(t, atLeast.Error(), "wants at least 0")

	rangeErr := &errors.ArityError{Form: "substring", Got: 4, WantLow: 2, WantHigh: 3}
	assert.Contains(t, rangeErr.Error(), "wants 2 to 3")
}

func TestSyntaxErrorIncludesForm(t *testing.T) {
	e := &errors.SyntaxError{Form: "let", Msg: "bad binding list"}
	assert.Contains(t, e.Error(), "let")
	assert.Contains(t, e.Error(), "bad binding list")
}
