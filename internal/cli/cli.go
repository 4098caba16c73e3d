// Package cli implements the lox command-line tool: running a script file
// or, with no file given, a line-at-a-time REPL, following the teacher's
// mainer-based Cmd/Main/SetArgs/SetFlags/Validate shape (SPEC_FULL.md
// §2.1, §2.3).
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/loxlang/lox/internal/config"
	"github.com/loxlang/lox/lang/heap"
	"github.com/loxlang/lox/lang/vm"
)

const binName = "lox"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Bytecode interpreter for the %[1]s scripting language. With <path>, runs
that script; with no <path>, starts an interactive REPL.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --config <path>           Load runtime configuration from a YAML
                                  file (default: ~/.loxrc.yaml).
`, binName)
)

// Exit codes, per spec.md §6.
const (
	ExitSuccess      mainer.ExitCode = 0
	ExitUsageError   mainer.ExitCode = 64
	ExitCompileError mainer.ExitCode = 65
	ExitRuntimeError mainer.ExitCode = 70
	ExitIOError      mainer.ExitCode = 74
)

// Cmd is the mainer entry point: flags parsed via struct tags, one
// positional script path.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool   `flag:"h,help"`
	Version bool   `flag:"v,version"`
	Config  string `flag:"config"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("at most one script path may be given")
	}
	return nil
}

// Main implements mainer's entry point contract, translating a script's
// outcome into the exit codes spec.md §6 defines.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitUsageError
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return ExitSuccess
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return ExitSuccess
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "lox: reading configuration: %s\n", err)
		return ExitIOError
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 1 {
		return runFile(ctx, stdio, cfg, c.args[0])
	}
	return runREPL(ctx, stdio, cfg)
}

func newVM(cfg *config.Config, stdio mainer.Stdio) *vm.VM {
	h := heap.New()
	h.StressGC = cfg.StressGC
	h.LogGC = cfg.LogGC
	h.Log = func(line string) { fmt.Fprintln(stdio.Stderr, line) }

	v := vm.New(h, stdio.Stdout, stdio.Stdin, cfg.DiagTools)
	return v
}

func runFile(_ context.Context, stdio mainer.Stdio, cfg *config.Config, path string) mainer.ExitCode {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "lox: %s\n", err)
		return ExitIOError
	}

	v := newVM(cfg, stdio)
	if err := v.Interpret(string(source)); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runREPL reads one line at a time until EOF, interpreting each as a
// complete program, per the teacher's REPL convention of treating Ctrl-D
// as the exit signal.
func runREPL(_ context.Context, stdio mainer.Stdio, cfg *config.Config) mainer.ExitCode {
	v := newVM(cfg, stdio)
	scanner := bufio.NewScanner(stdio.Stdin)

	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			break
		}
		if err := v.Interpret(scanner.Text()); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		fmt.Fprintf(stdio.Stderr, "lox: %s\n", err)
		return ExitIOError
	}
	return ExitSuccess
}

func exitCodeFor(err error) mainer.ExitCode {
	switch err.(type) {
	case *vm.CompileError:
		return ExitCompileError
	case *vm.RuntimeError:
		return ExitRuntimeError
	default:
		return ExitRuntimeError
	}
}
