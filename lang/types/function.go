package types

// Function is a compiled Lox function: its arity, the number of upvalues
// its closures must allocate, the Chunk holding its body, and an optional
// name (nil for the implicit top-level script).
type Function struct {
	header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *String // nil for the top-level script
}

// NewFunction creates an empty Function ready for the compiler to emit
// into.
func NewFunction() *Function { return &Function{} }

func (*Function) ObjType() ObjType { return ObjFunctionT }

func (f *Function) Trace(mark func(Value)) {
	if f.Name != nil {
		mark(ObjValue(f.Name))
	}
	for _, c := range f.Chunk.Constants {
		mark(c)
	}
}

func (f *Function) Display() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Data + ">"
}

// NativeFn is the Go function signature backing a Native object: it
// receives the call's arguments and returns a result or an error.
type NativeFn func(args []Value) (Value, error)

// Native wraps a Go-implemented function (clock, scan, sin, the
// diagnostic natives, ...) so it can be called like any other Lox
// callable.
type Native struct {
	header
	Name string
	Fn   NativeFn
}

func NewNative(name string, fn NativeFn) *Native {
	return &Native{Name: name, Fn: fn}
}

func (*Native) ObjType() ObjType       { return ObjNativeT }
func (*Native) Trace(mark func(Value)) {}
func (*Native) Display() string        { return "<native fn>" }

// Closure pairs a compiled Function with the live Upvalue references its
// nested functions need to reach captured variables.
type Closure struct {
	header
	Function *Function
	Upvalues []*Upvalue
}

// NewClosure creates a Closure over fn with upvalueCount empty upvalue
// slots, to be filled in by the VM's CLOSURE opcode handler.
func NewClosure(fn *Function) *Closure {
	return &Closure{Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
}

func (*Closure) ObjType() ObjType { return ObjClosureT }

func (c *Closure) Trace(mark func(Value)) {
	mark(ObjValue(c.Function))
	for _, uv := range c.Upvalues {
		if uv != nil {
			mark(ObjValue(uv))
		}
	}
}

func (c *Closure) Display() string { return c.Function.Display() }

// BoundMethod pairs a receiver instance with the method Closure looked up
// on its class, produced when a method is accessed as a value rather than
// immediately invoked.
type BoundMethod struct {
	header
	Receiver Value
	Method   *Closure
}

func NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	return &BoundMethod{Receiver: receiver, Method: method}
}

func (*BoundMethod) ObjType() ObjType { return ObjBoundMethodT }

func (b *BoundMethod) Trace(mark func(Value)) {
	mark(b.Receiver)
	mark(ObjValue(b.Method))
}

func (b *BoundMethod) Display() string { return b.Method.Display() }
