package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"

	"github.com/embers-lang/embers/internal/filetest"
	"github.com/embers-lang/embers/internal/maincmd"
)

var testUpdateGoldenTests = flag.Bool("test.update-golden-tests", false, "update the maincmd golden test files")

func TestPassesGoldenOutput(t *testing.T) {
	ctx := context.Background()
	srcDir := filepath.Join("testdata", "in")

	cases := []struct {
		name      string
		resultDir string
		run       func(*maincmd.Cmd, context.Context, mainer.Stdio, []string) error
	}{
		{"pass1", filepath.Join("testdata", "out-pass1"), (*maincmd.Cmd).Pass1},
		{"pass2", filepath.Join("testdata", "out-pass2"), (*maincmd.Cmd).Pass2},
		{"pass3", filepath.Join("testdata", "out-pass3"), (*maincmd.Cmd).Pass3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, fi := range filetest.SourceFiles(t, srcDir, ".scm") {
				t.Run(fi.Name(), func(t *testing.T) {
					var buf, ebuf bytes.Buffer
					stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}
					var c maincmd.Cmd
					_ = tc.run(&c, ctx, stdio, []string{filepath.Join(srcDir, fi.Name())})
					filetest.DiffOutput(t, fi, buf.String(), tc.resultDir, testUpdateGoldenTests)
				})
			}
		})
	}
}
