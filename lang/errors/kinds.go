package errors

import (
	"fmt"

	"github.com/embers-lang/embers/lang/token"
)

// SyntaxError reports malformed use of a special form, e.g. a let binding
// list that isn't a list of two-element lists (spec §4.4's edge cases).
type SyntaxError struct {
	Pos  token.Position
	Form string // the keyword being compiled, e.g. "let" or "define"
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Form, e.Msg)
}

// ArityError reports a procedure call, inlined operation, or special form
// applied to the wrong number of operands.
type ArityError struct {
	Pos      token.Position
	Form     string
	Got      int
	WantLow  int
	WantHigh int // -1 means unbounded
}

func (e *ArityError) Error() string {
	switch {
	case e.WantHigh < 0:
		return fmt.Sprintf("%s: %s: wants at least %d argument(s), got %d", e.Pos, e.Form, e.WantLow, e.Got)
	case e.WantLow == e.WantHigh:
		return fmt.Sprintf("%s: %s: wants %d argument(s), got %d", e.Pos, e.Form, e.WantLow, e.Got)
	default:
		return fmt.Sprintf("%s: %s: wants %d to %d argument(s), got %d", e.Pos, e.Form, e.WantLow, e.WantHigh, e.Got)
	}
}

// CompileError is a catch-all for pass 1/2/3 failures that don't fit
// SyntaxError or ArityError: an unbound variable, an invalid set! target, a
// macro expansion failure, and so on.
type CompileError struct {
	Pos   token.Position
	Stage string // "pass1", "pass2", or "pass3"
	Msg   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Stage, e.Msg)
}

// InternalError reports a compiler invariant violated by the compiler
// itself rather than by the source program, e.g. pass 3 asked to lower a
// CallJump whose Label was never assigned an ID. These should never surface
// to a well-formed program; they exist so a violated invariant panics with a
// useful message instead of corrupting bytecode silently.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}
