package types

import "github.com/loxlang/lox/lang/table"

// hashStringKey hashes a *String key by its precomputed content hash,
// rather than its pointer, so that the method/field tables below have the
// same probe sequence the string intern table uses to find it (they key on
// the same interned *String instances).
func hashStringKey(k *String) uint32 { return k.Hash }

// NewNameTable creates the Table[*String, Value] used for class method
// tables and instance field tables — both are the same shared hash table
// spec.md §4.4 describes, keyed on interned strings.
func NewNameTable() *table.Table[*String, Value] {
	return table.New[*String, Value](hashStringKey)
}

// Class is a Lox class: its name and the table of methods declared on it
// (and, after INHERIT, copied in from every superclass).
type Class struct {
	header
	Name    *String
	Methods *table.Table[*String, Value]
}

func NewClass(name *String) *Class {
	return &Class{Name: name, Methods: NewNameTable()}
}

func (*Class) ObjType() ObjType { return ObjClassT }

func (c *Class) Trace(mark func(Value)) {
	mark(ObjValue(c.Name))
	c.Methods.Each(func(k *String, v Value) {
		mark(ObjValue(k))
		mark(v)
	})
}

func (c *Class) Display() string { return c.Name.Data }

// Instance is an instance of a Class with its own table of fields.
type Instance struct {
	header
	Class  *Class
	Fields *table.Table[*String, Value]
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: NewNameTable()}
}

func (*Instance) ObjType() ObjType { return ObjInstanceT }

func (i *Instance) Trace(mark func(Value)) {
	mark(ObjValue(i.Class))
	i.Fields.Each(func(k *String, v Value) {
		mark(ObjValue(k))
		mark(v)
	})
}

func (i *Instance) Display() string { return i.Class.Name.Data + " instance" }
