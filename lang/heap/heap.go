// Package heap implements the object heap described in spec.md §3-§4.5: the
// intrusive allocation list every heap object is linked into, the string
// intern table, and the byte-accounting allocator funnel the tricolor
// mark-sweep collector (gc.go) drives off of.
//
// Go's own runtime already manages real memory; what this package recreates
// is the *bookkeeping* clox's reallocate/collectGarbage perform around that
// memory, so the adaptive heap-growth threshold and the diagnostic natives
// (bytes_allocated, next_gc) behave the way spec.md §4.5/§6 specifies.
package heap

import (
	"github.com/loxlang/lox/lang/table"
	"github.com/loxlang/lox/lang/types"
)

func hashStringKey(k *types.String) uint32 { return k.Hash }

// Heap owns the intrusive object list and the string intern table. A VM
// embeds one Heap and is responsible for supplying GC roots (see gc.go).
type Heap struct {
	objects        types.Object // head of the intrusive allocation list
	strings        *table.Table[*types.String, struct{}]
	bytesAllocated int64
	nextGC         int64

	// StressGC, when true, makes ShouldCollect always report true, so the
	// VM runs a collection before every instruction it executes. The heap
	// itself never collects on allocation.
	StressGC bool
	// LogGC, when true, writes a line to Log for every collection.
	LogGC bool
	Log   func(string)
}

const initialNextGC = 1 << 20 // 1 MiB, same order of magnitude as clox's default

// New creates an empty Heap.
func New() *Heap {
	return &Heap{
		strings: table.New[*types.String, struct{}](hashStringKey),
		nextGC:  initialNextGC,
	}
}

// BytesAllocated is the bytes_allocated() diagnostic native's backing value.
func (h *Heap) BytesAllocated() int64 { return h.bytesAllocated }

// NextGC is the next_gc() diagnostic native's backing value.
func (h *Heap) NextGC() int64 { return h.nextGC }

// ShouldCollect reports whether a collection is due: either stress mode, or
// bytesAllocated has crossed nextGC (spec.md §4.5). The VM checks it between
// instructions, not inside an allocation.
func (h *Heap) ShouldCollect() bool {
	return h.StressGC || h.bytesAllocated > h.nextGC
}

// register links obj into the intrusive allocation list and accounts its
// approximate size, matching the single allocate() funnel every clox
// object is built through.
func (h *Heap) register(obj types.Object) {
	obj.SetNext(h.objects)
	h.objects = obj
	h.bytesAllocated += sizeOf(obj)
}

// NewString allocates and interns a string with the given content,
// returning the existing interned *String if one with equal content
// already exists (spec.md §3 "two Strings with equal content have the
// same identity").
func (h *Heap) NewString(data string) *types.String {
	hash := types.HashFNV1a(data)
	if existing, ok := h.strings.FindBy(hash, func(k *types.String) bool {
		return k.Hash == hash && k.Data == data
	}); ok {
		return existing
	}
	s := types.NewString(data)
	h.register(s)
	h.strings.Set(s, struct{}{})
	return s
}

// NewArray allocates an Array holding elems.
func (h *Heap) NewArray(elems []types.Value) *types.Array {
	a := types.NewArray(elems)
	h.register(a)
	return a
}

// NewFunction allocates an empty Function for the compiler to emit into.
func (h *Heap) NewFunction() *types.Function {
	fn := types.NewFunction()
	h.register(fn)
	return fn
}

// NewNative allocates a Native wrapping fn.
func (h *Heap) NewNative(name string, fn types.NativeFn) *types.Native {
	n := types.NewNative(name, fn)
	h.register(n)
	return n
}

// NewClosure allocates a Closure over fn.
func (h *Heap) NewClosure(fn *types.Function) *types.Closure {
	c := types.NewClosure(fn)
	h.register(c)
	return c
}

// NewClass allocates a Class named name.
func (h *Heap) NewClass(name *types.String) *types.Class {
	c := types.NewClass(name)
	h.register(c)
	return c
}

// NewInstance allocates an Instance of class.
func (h *Heap) NewInstance(class *types.Class) *types.Instance {
	i := types.NewInstance(class)
	h.register(i)
	return i
}

// NewBoundMethod allocates a BoundMethod pairing receiver and method.
func (h *Heap) NewBoundMethod(receiver types.Value, method *types.Closure) *types.BoundMethod {
	b := types.NewBoundMethod(receiver, method)
	h.register(b)
	return b
}

// NewOpenUpvalue allocates an open Upvalue watching the given stack slot.
func (h *Heap) NewOpenUpvalue(slot int) *types.Upvalue {
	u := types.NewOpenUpvalue(slot)
	h.register(u)
	return u
}

// Objects returns the head of the intrusive allocation list, for
// diagnostic dumps (print_strings) that walk live objects.
func (h *Heap) Objects() types.Object { return h.objects }

// sizeOf approximates an object's footprint for the heap-growth heuristic.
// Go doesn't expose the allocator's real per-object size the way clox's
// reallocate does, so these are nominal, stable weights rather than exact
// byte counts; what matters for spec.md §4.5 is that the total grows with
// the number and size of live objects and that nextGC tracks it.
func sizeOf(obj types.Object) int64 {
	const headerSize = 24
	switch o := obj.(type) {
	case *types.String:
		return headerSize + int64(len(o.Data))
	case *types.Array:
		return headerSize + int64(cap(o.Values))*32
	case *types.Upvalue:
		return headerSize + 32
	case *types.Native:
		return headerSize + int64(len(o.Name))
	case *types.Function:
		return headerSize + int64(len(o.Chunk.Code)) + int64(len(o.Chunk.Constants))*32
	case *types.Closure:
		return headerSize + int64(len(o.Upvalues))*8
	case *types.Class:
		return headerSize + 32
	case *types.Instance:
		return headerSize + 32
	case *types.BoundMethod:
		return headerSize + 32
	default:
		return headerSize
	}
}
