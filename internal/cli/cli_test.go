package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/lox/internal/cli"
)

func stdio(stdin string) (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestRunFileSucceeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 2;`), 0o644))

	io, stdout, _ := stdio("")
	c := cli.Cmd{}
	code := c.Main([]string{"lox", path}, io)

	assert.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, "3\n", stdout.String())
}

func TestRunFileCompileErrorExitsWithCompileCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.lox")
	require.NoError(t, os.WriteFile(path, []byte(`var x = ;`), 0o644))

	io, _, stderr := stdio("")
	c := cli.Cmd{}
	code := c.Main([]string{"lox", path}, io)

	assert.Equal(t, cli.ExitCompileError, code)
	assert.NotEmpty(t, stderr.String())
}

func TestRunFileRuntimeErrorExitsWithRuntimeCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boom.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + nil;`), 0o644))

	io, _, stderr := stdio("")
	c := cli.Cmd{}
	code := c.Main([]string{"lox", path}, io)

	assert.Equal(t, cli.ExitRuntimeError, code)
	assert.NotEmpty(t, stderr.String())
}

func TestMissingFileExitsWithIOError(t *testing.T) {
	io, _, stderr := stdio("")
	c := cli.Cmd{}
	code := c.Main([]string{"lox", filepath.Join(t.TempDir(), "nope.lox")}, io)

	assert.Equal(t, cli.ExitIOError, code)
	assert.NotEmpty(t, stderr.String())
}

func TestTooManyPositionalArgsIsUsageError(t *testing.T) {
	io, _, stderr := stdio("")
	c := cli.Cmd{}
	code := c.Main([]string{"lox", "a.lox", "b.lox"}, io)

	assert.Equal(t, cli.ExitUsageError, code)
	assert.NotEmpty(t, stderr.String())
}

func TestHelpFlagPrintsUsageAndExitsSuccess(t *testing.T) {
	io, stdout, _ := stdio("")
	c := cli.Cmd{}
	code := c.Main([]string{"lox", "--help"}, io)

	assert.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, stdout.String(), "usage:")
}

func TestVersionFlagPrintsVersionAndExitsSuccess(t *testing.T) {
	io, stdout, _ := stdio("")
	c := cli.Cmd{BuildVersion: "1.2.3", BuildDate: "2026-01-01"}
	code := c.Main([]string{"lox", "--version"}, io)

	assert.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, stdout.String(), "1.2.3")
}

func TestREPLEchoesEachLineAsAProgram(t *testing.T) {
	io, stdout, _ := stdio("print 1;\nprint 2;\n")
	c := cli.Cmd{}
	code := c.Main([]string{"lox"}, io)

	assert.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, "> 1\n> 2\n> ", stdout.String())
}
