package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/embers-lang/embers/lang/diag"
)

func (c *Cmd) Pass1(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return forEachForm(stdio, args, func(form form) error {
		node, err := diag.CompileP1(form.value)
		if err != nil {
			return fmt.Errorf("%s: form %d: %w", form.file, form.index, err)
		}
		fmt.Fprint(stdio.Stdout, diag.SprintIR(node))
		return nil
	})
}

func (c *Cmd) Pass2(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return forEachForm(stdio, args, func(form form) error {
		node, err := diag.CompileP2(form.value)
		if err != nil {
			return fmt.Errorf("%s: form %d: %w", form.file, form.index, err)
		}
		fmt.Fprint(stdio.Stdout, diag.SprintIR(node))
		return nil
	})
}

func (c *Cmd) Pass3(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return forEachForm(stdio, args, func(form form) error {
		code, err := diag.CompileP3(form.value)
		if err != nil {
			return fmt.Errorf("%s: form %d: %w", form.file, form.index, err)
		}
		fmt.Fprint(stdio.Stdout, diag.Disassemble(code))
		return nil
	})
}

type form struct {
	file  string
	index int
	value interface{ String() string }
}

// forEachForm reads every file's source text, parses it into top-level
// forms with the CLI's own minimal reader, and invokes fn on each in turn,
// reporting the first error it hits (and continuing to the next file, the
// way the teacher's own *Files helpers accumulate across files rather than
// stopping at the first one).
func forEachForm(stdio mainer.Stdio, paths []string, fn func(form) error) error {
	var firstErr error
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			printError(stdio, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		forms, err := readForms(string(src))
		if err != nil {
			printError(stdio, fmt.Errorf("%s: %w", path, err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for i, v := range forms {
			if err := fn(form{file: path, index: i, value: v}); err != nil {
				printError(stdio, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}
