package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/embers-lang/embers/lang/asm"
)

// Asm reads each file as bytecode assembler text, parses it, and prints it
// back out disassembled — a round-trip check useful for hand-written test
// fixtures, the same role the teacher's Asm/Dasm pair serves for its own
// Program format (lang/compiler/asm.go).
func (c *Cmd) Asm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var firstErr error
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		code, err := asm.Assemble(src)
		if err != nil {
			printError(stdio, fmt.Errorf("%s: %w", path, err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprint(stdio.Stdout, asm.Disassemble(code))
	}
	return firstErr
}
