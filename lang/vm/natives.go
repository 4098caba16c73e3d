package vm

import (
	"fmt"
	"math"
	"time"

	"github.com/dolthub/swiss"

	"github.com/loxlang/lox/lang/types"
)

// defineNatives installs the always-on natives (clock, scan, sin) and,
// when Verbose is enabled, the introspection natives spec.md §6 lists
// (bytes_allocated, next_gc, gc, print_stack, print_globals, print_strings).
// The name->implementation registry is a swiss.Map built once per VM and
// iterated once to define each native as a global; lookups during the run
// go through the globals table, not the registry (SPEC_FULL.md §3).
func (vm *VM) defineNatives() {
	registry := swiss.NewMap[string, types.NativeFn](8)

	registry.Put("clock", vm.nativeClock)
	registry.Put("scan", vm.nativeScan)
	registry.Put("sin", vm.nativeSin)

	if vm.Verbose {
		registry.Put("bytes_allocated", vm.nativeBytesAllocated)
		registry.Put("next_gc", vm.nativeNextGC)
		registry.Put("gc", vm.nativeGC)
		registry.Put("print_stack", vm.nativePrintStack)
		registry.Put("print_globals", vm.nativePrintGlobals)
		registry.Put("print_strings", vm.nativePrintStrings)
	}

	registry.Iter(func(name string, fn types.NativeFn) (stop bool) {
		n := vm.Heap.NewNative(name, fn)
		vm.globals.Set(vm.Heap.NewString(name), types.ObjValue(n))
		return false
	})
}

func (vm *VM) nativeClock(args []types.Value) (types.Value, error) {
	if len(args) != 0 {
		return types.NilValue, fmt.Errorf("clock() takes no arguments")
	}
	return types.NumberValue(float64(time.Now().UnixNano()) / 1e9), nil
}

func (vm *VM) nativeSin(args []types.Value) (types.Value, error) {
	if len(args) != 1 || !args[0].IsNumber() {
		return types.NilValue, fmt.Errorf("sin() takes one number argument")
	}
	return types.NumberValue(math.Sin(args[0].AsNumber())), nil
}

func (vm *VM) nativeScan(args []types.Value) (types.Value, error) {
	if len(args) != 0 {
		return types.NilValue, fmt.Errorf("scan() takes no arguments")
	}
	if vm.Stdin == nil {
		return types.NilValue, fmt.Errorf("scan() is unavailable: no stdin configured")
	}
	line, err := vm.Stdin.ReadString('\n')
	if err != nil && line == "" {
		return types.NilValue, fmt.Errorf("scan(): %w", err)
	}
	line = trimTrailingNewline(line)
	return types.ObjValue(vm.Heap.NewString(line)), nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// --- diagnostic natives, gated behind Verbose (LOX_DIAG_TOOLS) --------------

func (vm *VM) nativeBytesAllocated(args []types.Value) (types.Value, error) {
	return types.NumberValue(float64(vm.Heap.BytesAllocated())), nil
}

func (vm *VM) nativeNextGC(args []types.Value) (types.Value, error) {
	return types.NumberValue(float64(vm.Heap.NextGC())), nil
}

func (vm *VM) nativeGC(args []types.Value) (types.Value, error) {
	vm.Heap.Collect(vm.markRoots)
	return types.NilValue, nil
}

// nativePrintStack dumps the current operand stack, one line per slot. A
// swiss.Map-backed visited set makes an object that already appeared
// earlier in the same dump print as "<cycle>"; the objects' own references
// are not walked (SPEC_FULL.md §3).
func (vm *VM) nativePrintStack(args []types.Value) (types.Value, error) {
	visited := swiss.NewMap[types.Object, struct{}](8)
	for i, v := range vm.stack {
		fmt.Fprintf(vm.Stdout, "[%d] %s\n", i, displayAcyclic(v, visited))
	}
	return types.NilValue, nil
}

func (vm *VM) nativePrintGlobals(args []types.Value) (types.Value, error) {
	visited := swiss.NewMap[types.Object, struct{}](8)
	vm.globals.Each(func(name *types.String, v types.Value) {
		fmt.Fprintf(vm.Stdout, "%s = %s\n", name.Data, displayAcyclic(v, visited))
	})
	return types.NilValue, nil
}

func (vm *VM) nativePrintStrings(args []types.Value) (types.Value, error) {
	for obj := vm.Heap.Objects(); obj != nil; obj = obj.Next() {
		if s, ok := obj.(*types.String); ok {
			fmt.Fprintf(vm.Stdout, "%q\n", s.Data)
		}
	}
	return types.NilValue, nil
}

// displayAcyclic renders v like Value.Display, except an object already
// visited in this dump renders as "<cycle>". Only v itself is checked: an
// array's elements are rendered by Array.Display, which does not consult
// visited, so an array that contains itself is not guarded.
func displayAcyclic(v types.Value, visited *swiss.Map[types.Object, struct{}]) string {
	if !v.IsObj() {
		return v.Display()
	}
	obj := v.AsObj()
	if obj == nil {
		return v.Display()
	}
	if visited.Has(obj) {
		return "<cycle>"
	}
	visited.Put(obj, struct{}{})
	return v.Display()
}
