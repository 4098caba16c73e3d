// Package types implements the data model shared by the compiler and the
// VM: the tagged Value union, the heap Object variants, the Chunk a
// compiled function's bytecode lives in, and the shared hash Table's
// instantiations for globals/fields/methods (see lang/table).
package types

import "math"

// ValueKind discriminates the tagged union that is Value.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is one of Nil, Bool, Number (an IEEE-754 double) or an Obj
// reference. spec.md §3 permits either a tagged record or a NaN-boxed
// encoding; this is the tagged record, since Go has no portable way to
// smuggle a pointer inside a float's bit pattern without `unsafe` games
// that buy nothing idiomatic Go cares about.
type Value struct {
	kind ValueKind
	num  float64
	obj  Object
}

// NilValue is the singleton nil value.
var NilValue = Value{kind: KindNil}

// BoolValue constructs a boolean Value.
func BoolValue(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool, num: 0}
}

// NumberValue constructs a numeric Value.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// ObjValue constructs a Value wrapping a heap Object.
func ObjValue(o Object) Value { return Value{kind: KindObj, obj: o} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNil() bool     { return v.kind == KindNil }
func (v Value) IsBool() bool    { return v.kind == KindBool }
func (v Value) IsNumber() bool  { return v.kind == KindNumber }
func (v Value) IsObj() bool     { return v.kind == KindObj }

// AsBool returns the boolean payload. The caller must have checked IsBool.
func (v Value) AsBool() bool { return v.num != 0 }

// AsNumber returns the numeric payload. The caller must have checked IsNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsObj returns the Object payload. The caller must have checked IsObj.
func (v Value) AsObj() Object { return v.obj }

// IsObjType reports whether v is an Obj of the given ObjType.
func (v Value) IsObjType(t ObjType) bool { return v.kind == KindObj && v.obj.ObjType() == t }

// numberEpsilon is the tolerance spec.md §4.3/§8 specify for numeric
// equality ("0.1 + 0.2 == 0.3 within ε"). A NaN operand makes |a-b| NaN,
// which never compares less than epsilon, so NaN is correctly never equal
// to anything including itself without any special case.
const numberEpsilon = 1e-9

// Equal implements valuesEqual from spec.md §4.3: values of different kinds
// are never equal; Obj values compare by identity, which is sufficient
// because strings are interned (pointer equality == content equality).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindNumber:
		return math.Abs(a.num-b.num) < numberEpsilon
	case KindObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// Truthy implements Lox's truthiness rule (spec.md §4.3): nil, false, the
// number 0, the empty string and the empty array are falsey; everything
// else, including every other object, is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.AsBool()
	case KindNumber:
		return v.num != 0
	case KindObj:
		switch o := v.obj.(type) {
		case *String:
			return len(o.Data) != 0
		case *Array:
			return o.Count != 0
		default:
			return true
		}
	default:
		return true
	}
}

// Display renders v the way PRINT and string-coercion render it (spec.md
// §4.3 "Printing / stringification"). Object kinds each implement their own
// Display; numbers go through FormatNumber, the shortest-round-trip
// formatter spec.md §1 treats as an external collaborator.
func (v Value) Display() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.num)
	case KindObj:
		return v.obj.Display()
	default:
		return ""
	}
}
