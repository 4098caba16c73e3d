package types

// Upvalue is the indirection a closure uses to reach a variable owned by an
// enclosing function's frame. It is "open" while that frame's stack slot is
// still live (Location indexes into the shared value stack) and "closed"
// once the slot has been copied out (Closed holds the value, Location is
// -1). The VM keeps the set of open upvalues in a slice ordered by
// descending stack-slot index rather than threading them itself (spec.md
// §3, §4.3).
type Upvalue struct {
	header
	Location int // index into the VM's value stack; -1 once closed
	Closed   Value
}

// NewOpenUpvalue creates an Upvalue watching the live stack slot at
// location.
func NewOpenUpvalue(location int) *Upvalue {
	return &Upvalue{Location: location, Closed: NilValue}
}

func (*Upvalue) ObjType() ObjType { return ObjUpvalueT }

func (u *Upvalue) Trace(mark func(Value)) {
	if u.IsClosed() {
		mark(u.Closed)
	}
	// While open, the location it points at is a stack slot, which the VM
	// already marks directly as a root; tracing it again here would be
	// redundant.
}

func (u *Upvalue) Display() string { return "upvalue" }

// IsClosed reports whether the upvalue has transitioned from open to
// closed.
func (u *Upvalue) IsClosed() bool { return u.Location < 0 }

// Close copies value out of the stack and marks the upvalue as closed.
func (u *Upvalue) Close(value Value) {
	u.Closed = value
	u.Location = -1
}
