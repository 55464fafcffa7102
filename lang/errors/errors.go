// Package errors implements the compiler's diagnostic error types. It
// mirrors the shape of go/scanner's Error/ErrorList (a positioned message,
// accumulated into a sorted list with a combined Error() string) — the same
// re-export the teacher leans on for its own scanner package
// (lang/scanner/scanner.go) — reimplemented against this module's own
// token.Position rather than go/token's, since the two are not
// interchangeable.
package errors

import (
	"fmt"
	"sort"

	"github.com/embers-lang/embers/lang/token"
)

// Error is one positioned diagnostic.
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string {
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.Msg
	}
	return e.Msg
}

// ErrorList accumulates Errors in the order Add is called, until Sort
// reorders them by position.
type ErrorList []*Error

// Add appends a new Error built from pos and msg.
func (l *ErrorList) Add(pos token.Position, msg string) {
	*l = append(*l, &Error{Pos: pos, Msg: msg})
}

func (l ErrorList) Len() int      { return len(l) }
func (l ErrorList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }
func (l ErrorList) Less(i, j int) bool {
	pi, pj := l[i].Pos, l[j].Pos
	if pi.Filename != pj.Filename {
		return pi.Filename < pj.Filename
	}
	if pi.Line != pj.Line {
		return pi.Line < pj.Line
	}
	return pi.Column < pj.Column
}

// Sort orders the list by position, in place.
func (l ErrorList) Sort() { sort.Sort(l) }

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// Err returns nil if l is empty, and l otherwise (as an error). Matches
// go/scanner.ErrorList.Err, the idiom the teacher's own ScanFiles relies on
// to turn "did we accumulate anything" into a single return value.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
