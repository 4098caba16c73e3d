package types

// ObjType tags the concrete kind of a heap-allocated Object, mirroring
// clox's ObjType enum.
type ObjType uint8

const (
	ObjStringT ObjType = iota
	ObjUpvalueT
	ObjNativeT
	ObjFunctionT
	ObjClosureT
	ObjClassT
	ObjBoundMethodT
	ObjInstanceT
	ObjArrayT
)

func (t ObjType) String() string {
	switch t {
	case ObjStringT:
		return "string"
	case ObjUpvalueT:
		return "upvalue"
	case ObjNativeT:
		return "native"
	case ObjFunctionT:
		return "function"
	case ObjClosureT:
		return "closure"
	case ObjClassT:
		return "class"
	case ObjBoundMethodT:
		return "bound method"
	case ObjInstanceT:
		return "instance"
	case ObjArrayT:
		return "array"
	default:
		return "unknown object"
	}
}

// Object is implemented by every heap-allocated value variant. Every Object
// carries a mark bit and a next-link into the VM's intrusive allocation
// list; the GC uses the list for sweep and Trace for mark.
type Object interface {
	ObjType() ObjType
	Marked() bool
	SetMarked(bool)
	Next() Object
	SetNext(Object)

	// Trace calls mark on every Value this object directly references, so
	// the collector can blacken it during mark-sweep tracing.
	Trace(mark func(Value))

	// Display renders the value the way Lox's PRINT statement and string
	// coercion render it.
	Display() string
}

// header is embedded by every concrete Object implementation; it supplies
// the mark bit and intrusive-list link so each kind only needs to implement
// ObjType, Trace and Display.
type header struct {
	marked bool
	next   Object
}

func (h *header) Marked() bool     { return h.marked }
func (h *header) SetMarked(m bool) { h.marked = m }
func (h *header) Next() Object     { return h.next }
func (h *header) SetNext(o Object) { h.next = o }
