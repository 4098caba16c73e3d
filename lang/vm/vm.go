// Package vm implements the stack-based bytecode interpreter: call frames,
// the operand stack, closures and upvalue capture, class/instance/bound-
// method dispatch and the handful of runtime operations (arithmetic,
// indexing, equality) the compiler's opcodes assume (spec.md §4.3).
package vm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/loxlang/lox/lang/compiler"
	"github.com/loxlang/lox/lang/heap"
	"github.com/loxlang/lox/lang/table"
	"github.com/loxlang/lox/lang/types"
)

// RuntimeError is a failed script's uncaught runtime fault: spec.md §7's
// "<message>\n[line N] in <frame>\n..." traceback, innermost frame first.
type RuntimeError struct {
	Message string
	Trace   []string
}

func (e *RuntimeError) Error() string {
	s := e.Message
	for _, line := range e.Trace {
		s += "\n" + line
	}
	return s
}

// VM is one instance of the interpreter: its own heap, value stack, call
// frames and globals. Nothing about it is package-level/global state, so
// multiple VMs can coexist (spec.md §4 "Non-goals" still allows this much
// for testability, even without exposing embedding as a feature).
type VM struct {
	Heap    *heap.Heap
	Stdout  io.Writer
	Stdin   *bufio.Reader // feeds the scan() native; nil disables it
	Verbose bool          // gates the diagnostic-only natives (print_stack, ...)

	stack  []types.Value
	frames []callFrame

	globals      *table.Table[*types.String, types.Value]
	openUpvalues []*types.Upvalue // kept sorted by descending Location
	initString   *types.String
}

func hashStringKey(k *types.String) uint32 { return k.Hash }

// New creates a VM with natives installed and ready to Interpret source.
// stdin may be nil, which disables the scan() native; verbose enables the
// diagnostic natives (bytes_allocated, print_stack, ...).
func New(h *heap.Heap, stdout io.Writer, stdin io.Reader, verbose bool) *VM {
	vm := &VM{
		Heap:    h,
		Stdout:  stdout,
		Verbose: verbose,
		stack:   make([]types.Value, 0, stackMax),
		frames:  make([]callFrame, 0, framesMax),
		globals: table.New[*types.String, types.Value](hashStringKey),
	}
	if stdin != nil {
		vm.Stdin = bufio.NewReader(stdin)
	}
	vm.initString = h.NewString("init")
	vm.defineNatives()
	return vm
}

// Interpret compiles source and, if compilation succeeds, runs it to
// completion. Compile errors are returned as a []error wrapped via
// CompileError; runtime faults are returned as *RuntimeError.
func (vm *VM) Interpret(source string) error {
	fn, errs := compiler.Compile(vm.Heap, source)
	if len(errs) > 0 {
		return &CompileError{Errs: errs}
	}

	closure := vm.Heap.NewClosure(fn)
	vm.push(types.ObjValue(closure))
	if err := vm.callValue(types.ObjValue(closure), 0); err != nil {
		return err
	}

	return vm.run()
}

// CompileError wraps every diagnostic a failed compile produced.
type CompileError struct{ Errs []error }

func (e *CompileError) Error() string {
	s := ""
	for i, err := range e.Errs {
		if i > 0 {
			s += "\n"
		}
		s += err.Error()
	}
	return s
}

// --- operand stack ----------------------------------------------------------

func (vm *VM) push(v types.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() types.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) types.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = vm.openUpvalues[:0]
}

// --- GC rooting --------------------------------------------------------------

// markRoots enumerates every GC root: the value stack, every active frame's
// closure, the open-upvalue chain, the globals table and the interned
// "init" name (spec.md §4.5).
func (vm *VM) markRoots(mark heap.MarkFn) {
	for _, v := range vm.stack {
		mark(v)
	}
	for i := range vm.frames {
		mark(types.ObjValue(vm.frames[i].closure))
	}
	for _, uv := range vm.openUpvalues {
		mark(types.ObjValue(uv))
	}
	vm.globals.Each(func(k *types.String, v types.Value) {
		mark(types.ObjValue(k))
		mark(v)
	})
	if vm.initString != nil {
		mark(types.ObjValue(vm.initString))
	}
}

func (vm *VM) collectIfNeeded() {
	if vm.Heap.ShouldCollect() {
		vm.Heap.Collect(vm.markRoots)
	}
}

// --- runtime errors -----------------------------------------------------------

// runtimeError builds a *RuntimeError carrying the full call-frame
// traceback, innermost first, per spec.md §7.
func (vm *VM) runtimeError(format string, args ...any) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	var trace []string
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Function
		line := fn.Chunk.Lines[fr.ip-1]
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Data + "()"
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}
	vm.resetStack()
	return &RuntimeError{Message: msg, Trace: trace}
}

func isFalsey(v types.Value) bool { return !v.Truthy() }

func valuesEqual(a, b types.Value) bool { return types.Equal(a, b) }
