package vm

import (
	"github.com/loxlang/lox/lang/compiler"
	"github.com/loxlang/lox/lang/table"
	"github.com/loxlang/lox/lang/types"
)

// run is the dispatch loop: it decodes and executes opcodes from the
// current (innermost) call frame's chunk until the top-level frame
// returns, or a runtime fault unwinds the whole stack (spec.md §4.3).
func (vm *VM) run() error {
	frame := &vm.frames[len(vm.frames)-1]

	for {
		vm.collectIfNeeded()

		op := compiler.Opcode(frame.readByte())
		switch op {
		case compiler.OpConstant:
			vm.push(frame.readConstant())

		case compiler.OpNil:
			vm.push(types.NilValue)
		case compiler.OpTrue:
			vm.push(types.BoolValue(true))
		case compiler.OpFalse:
			vm.push(types.BoolValue(false))
		case compiler.OpPop:
			vm.pop()

		case compiler.OpGetLocal:
			slot := int(frame.readByte())
			vm.push(vm.stack[frame.slotsBase+slot])
		case compiler.OpSetLocal:
			slot := int(frame.readByte())
			vm.stack[frame.slotsBase+slot] = vm.peek(0)

		case compiler.OpGetGlobal:
			name := frame.readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("undefined variable '%s'", name.Data)
			}
			vm.push(v)
		case compiler.OpDefineGlobal:
			name := frame.readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case compiler.OpSetGlobal:
			name := frame.readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("undefined variable '%s'", name.Data)
			}

		case compiler.OpGetUpvalue:
			slot := int(frame.readByte())
			uv := frame.closure.Upvalues[slot]
			if uv.IsClosed() {
				vm.push(uv.Closed)
			} else {
				vm.push(vm.stack[uv.Location])
			}
		case compiler.OpSetUpvalue:
			slot := int(frame.readByte())
			uv := frame.closure.Upvalues[slot]
			if uv.IsClosed() {
				uv.Closed = vm.peek(0)
			} else {
				vm.stack[uv.Location] = vm.peek(0)
			}

		case compiler.OpGetProperty:
			if err := vm.execGetProperty(frame); err != nil {
				return err
			}
		case compiler.OpSetProperty:
			if err := vm.execSetProperty(frame); err != nil {
				return err
			}
		case compiler.OpGetSuper:
			name := frame.readString()
			superclass := vm.pop().AsObj().(*types.Class)
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case compiler.OpGetIndex:
			if err := vm.execGetIndex(); err != nil {
				return err
			}
		case compiler.OpSetIndex:
			if err := vm.execSetIndex(); err != nil {
				return err
			}

		case compiler.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(types.BoolValue(valuesEqual(a, b)))
		case compiler.OpGreater:
			if err := vm.execNumericBinary(func(a, b float64) types.Value { return types.BoolValue(a > b) }); err != nil {
				return err
			}
		case compiler.OpLess:
			if err := vm.execNumericBinary(func(a, b float64) types.Value { return types.BoolValue(a < b) }); err != nil {
				return err
			}

		case compiler.OpAdd:
			if err := vm.execAdd(); err != nil {
				return err
			}
		case compiler.OpSubtract:
			if err := vm.execNumericBinary(func(a, b float64) types.Value { return types.NumberValue(a - b) }); err != nil {
				return err
			}
		case compiler.OpMultiply:
			if err := vm.execNumericBinary(func(a, b float64) types.Value { return types.NumberValue(a * b) }); err != nil {
				return err
			}
		case compiler.OpDivide:
			if err := vm.execNumericBinary(func(a, b float64) types.Value { return types.NumberValue(a / b) }); err != nil {
				return err
			}

		case compiler.OpNot:
			vm.push(types.BoolValue(isFalsey(vm.pop())))
		case compiler.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("operand must be a number")
			}
			vm.push(types.NumberValue(-vm.pop().AsNumber()))

		case compiler.OpPrint:
			_, _ = vm.Stdout.Write([]byte(vm.pop().Display() + "\n"))

		case compiler.OpJump:
			offset := frame.readShort()
			frame.ip += offset
		case compiler.OpJumpIfFalse:
			offset := frame.readShort()
			if isFalsey(vm.peek(0)) {
				frame.ip += offset
			}
		case compiler.OpLoop:
			offset := frame.readShort()
			frame.ip -= offset

		case compiler.OpCall:
			argCount := int(frame.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[len(vm.frames)-1]

		case compiler.OpInvoke:
			name := frame.readString()
			argCount := int(frame.readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[len(vm.frames)-1]

		case compiler.OpSuperInvoke:
			name := frame.readString()
			argCount := int(frame.readByte())
			superclass := vm.pop().AsObj().(*types.Class)
			if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[len(vm.frames)-1]

		case compiler.OpClosure:
			fn := frame.readConstant().AsObj().(*types.Function)
			closure := vm.Heap.NewClosure(fn)
			vm.push(types.ObjValue(closure))
			for i := range closure.Upvalues {
				isLocal := frame.readByte()
				index := int(frame.readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slotsBase + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case compiler.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case compiler.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slotsBase)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop() // the top-level script closure
				return nil
			}
			vm.stack = vm.stack[:frame.slotsBase]
			vm.push(result)
			frame = &vm.frames[len(vm.frames)-1]

		case compiler.OpClass:
			name := frame.readString()
			vm.push(types.ObjValue(vm.Heap.NewClass(name)))
		case compiler.OpInherit:
			if err := vm.execInherit(); err != nil {
				return err
			}
		case compiler.OpMethod:
			name := frame.readString()
			method := vm.pop()
			class := vm.peek(0).AsObj().(*types.Class)
			class.Methods.Set(name, method)

		case compiler.OpArray:
			count := int(frame.readByte())
			elems := append([]types.Value(nil), vm.stack[len(vm.stack)-count:]...)
			vm.stack = vm.stack[:len(vm.stack)-count]
			vm.push(types.ObjValue(vm.Heap.NewArray(elems)))

		default:
			return vm.runtimeError("unknown opcode %d", op)
		}
	}
}

func (vm *VM) execNumericBinary(apply func(a, b float64) types.Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("operands must be numbers")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(apply(a, b))
	return nil
}

// execAdd implements spec.md §4.3's ADD overload: number+number adds;
// if either operand is a String, both are coerced via valueToString
// (Value.Display) and concatenated.
func (vm *VM) execAdd() error {
	b := vm.peek(0)
	a := vm.peek(1)

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(types.NumberValue(a.AsNumber() + b.AsNumber()))
	case a.IsObjType(types.ObjStringT) || b.IsObjType(types.ObjStringT):
		vm.pop()
		vm.pop()
		vm.push(types.ObjValue(vm.Heap.NewString(a.Display() + b.Display())))
	default:
		return vm.runtimeError("operands must be two numbers or at least one string")
	}
	return nil
}

// execInherit copies a superclass's methods down into its subclass. It pops
// only the subclass value: the superclass stays on the stack, bound by the
// compiler's synthetic "super" local (spec.md §4.3 "Inheritance").
func (vm *VM) execInherit() error {
	superVal := vm.peek(1)
	if !superVal.IsObjType(types.ObjClassT) {
		return vm.runtimeError("superclass must be a class")
	}
	superclass := superVal.AsObj().(*types.Class)
	subclass := vm.peek(0).AsObj().(*types.Class)
	table.AddAll(superclass.Methods, subclass.Methods)
	vm.pop()
	return nil
}
