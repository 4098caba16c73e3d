package vm

import "github.com/loxlang/lox/lang/types"

// execGetProperty implements OP_GET_PROPERTY: `.length` on String/Array is
// a built-in accessor (spec.md §4.3 "Property access"); otherwise the
// receiver must be an Instance, whose fields shadow its class's methods.
func (vm *VM) execGetProperty(frame *callFrame) error {
	name := frame.readString()
	receiver := vm.peek(0)

	if receiver.IsObj() {
		switch obj := receiver.AsObj().(type) {
		case *types.String:
			if name.Data == "length" {
				vm.pop()
				vm.push(types.NumberValue(float64(obj.Len())))
				return nil
			}
		case *types.Array:
			if name.Data == "length" {
				vm.pop()
				vm.push(types.NumberValue(float64(obj.Count)))
				return nil
			}
		case *types.Instance:
			if field, ok := obj.Fields.Get(name); ok {
				vm.pop()
				vm.push(field)
				return nil
			}
			return vm.bindMethod(obj.Class, name)
		}
	}
	return vm.runtimeError("only instances have properties")
}

// execSetProperty implements OP_SET_PROPERTY: only Instances have
// assignable fields (spec.md §4.3).
func (vm *VM) execSetProperty(frame *callFrame) error {
	name := frame.readString()
	receiver := vm.peek(1)
	if !receiver.IsObj() {
		return vm.runtimeError("only instances have fields")
	}
	instance, ok := receiver.AsObj().(*types.Instance)
	if !ok {
		return vm.runtimeError("only instances have fields")
	}

	value := vm.pop()
	instance.Fields.Set(name, value)
	vm.pop()
	vm.push(value)
	return nil
}
