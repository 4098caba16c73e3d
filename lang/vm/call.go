package vm

import (
	"golang.org/x/exp/slices"

	"github.com/loxlang/lox/lang/types"
)

// callValue dispatches a call to whatever is on the stack below its
// argCount arguments: a Closure pushes a new call frame, a Class
// constructs an Instance and optionally runs init(), a BoundMethod rebinds
// its receiver into slot 0 before calling its method Closure, and a Native
// is invoked immediately (spec.md §4.3 "Call semantics").
func (vm *VM) callValue(callee types.Value, argCount int) error {
	if !callee.IsObj() {
		return vm.runtimeError("can only call functions and classes")
	}

	switch obj := callee.AsObj().(type) {
	case *types.Closure:
		return vm.call(obj, argCount)

	case *types.Native:
		args := vm.stack[len(vm.stack)-argCount:]
		result, err := obj.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		vm.push(result)
		return nil

	case *types.Class:
		instance := vm.Heap.NewInstance(obj)
		vm.stack[len(vm.stack)-argCount-1] = types.ObjValue(instance)
		if init, ok := obj.Methods.Get(vm.initString); ok {
			return vm.call(init.AsObj().(*types.Closure), argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("expected 0 arguments but got %d", argCount)
		}
		return nil

	case *types.BoundMethod:
		vm.stack[len(vm.stack)-argCount-1] = obj.Receiver
		return vm.call(obj.Method, argCount)

	default:
		return vm.runtimeError("can only call functions and classes")
	}
}

// call pushes a new call frame for closure, verifying argCount matches its
// declared arity and that the frame stack has room (spec.md §4.3).
func (vm *VM) call(closure *types.Closure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("expected %d arguments but got %d", closure.Function.Arity, argCount)
	}
	if len(vm.frames) == framesMax {
		return vm.runtimeError("stack overflow")
	}
	vm.frames = append(vm.frames, callFrame{
		closure:   closure,
		slotsBase: len(vm.stack) - argCount - 1,
	})
	return nil
}

// invoke fuses a property lookup with a call: a plain method is found on
// the instance's class and called directly; a field holding a callable
// value falls back to an ordinary callValue (spec.md §4.3 "INVOKE fuses
// GET_PROPERTY + CALL").
func (vm *VM) invoke(name *types.String, argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsObj() {
		return vm.runtimeError("only instances have methods")
	}
	instance, ok := receiver.AsObj().(*types.Instance)
	if !ok {
		return vm.runtimeError("only instances have methods")
	}

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argCount-1] = field
		return vm.callValue(field, argCount)
	}

	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *types.Class, name *types.String, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("undefined property '%s'", name.Data)
	}
	return vm.call(method.AsObj().(*types.Closure), argCount)
}

// bindMethod looks up name on class, wraps it with receiver into a
// BoundMethod and pushes it, replacing the instance on the stack (spec.md
// §4.3 "Bound methods").
func (vm *VM) bindMethod(class *types.Class, name *types.String) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("undefined property '%s'", name.Data)
	}
	bound := vm.Heap.NewBoundMethod(vm.peek(0), method.AsObj().(*types.Closure))
	vm.pop()
	vm.push(types.ObjValue(bound))
	return nil
}

// captureUpvalue returns the open Upvalue already watching the stack slot
// at index, or creates one and inserts it in place, keeping the
// open-upvalue slice sorted by descending Location (spec.md §4.3
// "Upvalues") so both this lookup and closeUpvalues below can stop at the
// first entry that no longer qualifies, rather than scanning the whole set.
func (vm *VM) captureUpvalue(index int) *types.Upvalue {
	pos, found := slices.BinarySearchFunc(vm.openUpvalues, index, func(uv *types.Upvalue, index int) int {
		// The slice is sorted by descending Location, so as the scan
		// position advances, Location decreases and index-uv.Location
		// increases monotonically — the ascending order BinarySearchFunc
		// requires.
		return index - uv.Location
	})
	if found {
		return vm.openUpvalues[pos]
	}

	created := vm.Heap.NewOpenUpvalue(index)
	vm.openUpvalues = slices.Insert(vm.openUpvalues, pos, created)
	return created
}

// closeUpvalues closes every open upvalue watching a slot at or above
// index, copying the stack value into the upvalue itself so it outlives
// the frame being popped (spec.md §4.3 "Upvalues").
func (vm *VM) closeUpvalues(index int) {
	cut := len(vm.openUpvalues)
	for i, uv := range vm.openUpvalues {
		if uv.Location < index {
			cut = i
			break
		}
		uv.Close(vm.stack[uv.Location])
	}
	vm.openUpvalues = vm.openUpvalues[cut:]
}
