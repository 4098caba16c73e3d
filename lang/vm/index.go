package vm

import "github.com/loxlang/lox/lang/types"

// execGetIndex implements OP_GET_INDEX over Array and String (spec.md §4.3
// "Indexing"): the index must be a whole number and in range.
func (vm *VM) execGetIndex() error {
	indexVal := vm.pop()
	receiver := vm.pop()

	idx, err := vm.indexOf(indexVal)
	if err != nil {
		return err
	}

	if !receiver.IsObj() {
		return vm.runtimeError("only arrays and strings can be indexed")
	}
	switch obj := receiver.AsObj().(type) {
	case *types.Array:
		if idx < 0 || idx >= obj.Count {
			return vm.runtimeError("array index out of bounds")
		}
		vm.push(obj.Get(idx))
	case *types.String:
		if idx < 0 || idx >= len(obj.Data) {
			return vm.runtimeError("string index out of bounds")
		}
		vm.push(types.ObjValue(vm.Heap.NewString(string(obj.Data[idx]))))
	default:
		return vm.runtimeError("only arrays and strings can be indexed")
	}
	return nil
}

// execSetIndex implements OP_SET_INDEX on Array: an index equal to the
// current length appends; anything greater is out of bounds (spec.md §5
// Open Questions, resolved in SPEC_FULL.md). Strings are immutable and
// cannot be index-assigned.
func (vm *VM) execSetIndex() error {
	value := vm.pop()
	indexVal := vm.pop()
	receiver := vm.pop()

	idx, err := vm.indexOf(indexVal)
	if err != nil {
		return err
	}

	if !receiver.IsObjType(types.ObjArrayT) {
		return vm.runtimeError("only arrays support index assignment")
	}
	arr := receiver.AsObj().(*types.Array)
	if idx < 0 || idx > arr.Count {
		return vm.runtimeError("array index out of bounds")
	}
	arr.Set(idx, value)
	vm.push(value)
	return nil
}

func (vm *VM) indexOf(v types.Value) (int, error) {
	if !v.IsNumber() {
		return 0, vm.runtimeError("index must be a number")
	}
	f := v.AsNumber()
	idx := int(f)
	if float64(idx) != f {
		return 0, vm.runtimeError("index must be a whole number")
	}
	return idx, nil
}
