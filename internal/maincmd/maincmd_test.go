package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embers-lang/embers/internal/maincmd"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.scm")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func run(t *testing.T, args []string) (string, string, mainer.ExitCode) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := maincmd.Cmd{BuildVersion: "0.0.0", BuildDate: "2026-01-01"}
	code := c.Main(args, mainer.Stdio{Stdout: &stdout, Stderr: &stderr})
	return stdout.String(), stderr.String(), code
}

func TestPass1PrintsIRForConstant(t *testing.T) {
	path := writeTempFile(t, "42")
	stdout, stderr, code := run(t, []string{"schemec", "pass1", path})
	assert.Equal(t, mainer.Success, code)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "CONST")
	assert.Contains(t, stdout, "42")
}

func TestPass2FoldsConstantIf(t *testing.T) {
	path := writeTempFile(t, "(if #t 1 2)")
	stdout, _, code := run(t, []string{"schemec", "pass2", path})
	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "CONST 1\n", stdout)
}

func TestCompileAliasDisassemblesBytecode(t *testing.T) {
	path := writeTempFile(t, "7")
	stdout, _, code := run(t, []string{"schemec", "compile", path})
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, stdout, "CONST 0")
	assert.Contains(t, stdout, "RET")
}

func TestUnknownCommandFails(t *testing.T) {
	_, stderr, code := run(t, []string{"schemec", "bogus", "x"})
	assert.Equal(t, mainer.InvalidArgs, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestHelpPrintsUsage(t *testing.T) {
	stdout, _, code := run(t, []string{"schemec", "--help"})
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, stdout, "usage: schemec")
}
