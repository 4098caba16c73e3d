package types

// String is the heap representation of a Lox string. Every reachable
// String is, by invariant, present in the VM's intern table, so pointer
// equality between two *String values implies content equality (spec.md
// §3).
type String struct {
	header
	Data string
	Hash uint32
}

// HashFNV1a computes the FNV-1a hash used to key interned strings, matching
// clox's hashString.
func HashFNV1a(data string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(data); i++ {
		h ^= uint32(data[i])
		h *= 16777619
	}
	return h
}

// NewString constructs a String object. Callers that intend to intern the
// result should go through the heap package's string interning entry
// point rather than calling this directly, so the intern-table invariant
// holds.
func NewString(data string) *String {
	return &String{Data: data, Hash: HashFNV1a(data)}
}

func (*String) ObjType() ObjType          { return ObjStringT }
func (*String) Trace(mark func(Value))    {} // strings hold no Values
func (s *String) Display() string         { return s.Data }
func (s *String) Len() int                { return len(s.Data) }
