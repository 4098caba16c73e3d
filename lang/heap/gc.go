package heap

import (
	"fmt"

	"github.com/loxlang/lox/lang/types"
)

// MarkFn is the callback Collect passes to a root-marking function: call it
// on every Value that is a GC root.
type MarkFn func(types.Value)

// Collect runs one full tricolor mark-sweep cycle (spec.md §4.5).
// markRoots is supplied by the caller (the VM) and must call the MarkFn on
// every root Value: the value stack, active call frames' closures, the
// open-upvalue list, the globals table, and the interned init-method name.
// The heap owns only the generic gray-stack tracing and sweep; it has no
// notion of what a "root" is, matching the design note that an idiomatic
// rewrite should need only "a stable enumeration of roots" from its caller.
func (h *Heap) Collect(markRoots func(MarkFn)) {
	before := h.bytesAllocated
	var gray []types.Object

	mark := func(v types.Value) {
		if !v.IsObj() {
			return
		}
		obj := v.AsObj()
		if obj == nil || obj.Marked() {
			return
		}
		obj.SetMarked(true)
		gray = append(gray, obj)
	}

	markRoots(mark)

	for len(gray) > 0 {
		obj := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		obj.Trace(mark)
	}

	// Weakly drop interned strings that were not reached: they are in the
	// intern table but otherwise unreferenced.
	h.strings.RemoveWhite(func(k *types.String) bool { return k.Marked() })

	freed := h.sweep()

	h.nextGC = h.bytesAllocated * 2
	if h.nextGC < initialNextGC {
		h.nextGC = initialNextGC
	}

	if h.LogGC && h.Log != nil {
		h.Log(fmt.Sprintf("gc: collected %d object(s), %d -> %d bytes, next at %d",
			freed, before, h.bytesAllocated, h.nextGC))
	}
}

// sweep walks the intrusive object list, unlinking and discarding every
// unmarked object and clearing the mark bit of every survivor, per
// spec.md §4.5. Since the backing storage is Go-managed, "freeing" an
// object means only unlinking it (and deducting its accounted size) —
// once unreachable from the list, Go's own collector reclaims the memory.
func (h *Heap) sweep() int {
	var prev types.Object
	obj := h.objects
	freed := 0
	for obj != nil {
		if obj.Marked() {
			obj.SetMarked(false)
			prev = obj
			obj = obj.Next()
			continue
		}

		unreached := obj
		obj = obj.Next()
		if prev != nil {
			prev.SetNext(obj)
		} else {
			h.objects = obj
		}
		h.bytesAllocated -= sizeOf(unreached)
		freed++
	}
	return freed
}
