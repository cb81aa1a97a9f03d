package typesystem

import "strings"

// Type is the interface for all types in the language. The set of
// implementations is closed: Scalar, Array, MutableList and Func.
type Type interface {
	String() string
	Equal(Type) bool
	typeNode()
}

// Scalar is one of the built-in value types.
type Scalar int

const (
	Int Scalar = iota
	Boolean
	String
	Unit
	Any
)

func (s Scalar) typeNode() {}

func (s Scalar) String() string {
	switch s {
	case Int:
		return "Int"
	case Boolean:
		return "Boolean"
	case String:
		return "String"
	case Unit:
		return "Unit"
	case Any:
		return "Any"
	}
	return "?"
}

func (s Scalar) Equal(t Type) bool {
	o, ok := t.(Scalar)
	return ok && o == s
}

// Array is a fixed-size array of scalars.
type Array struct {
	Elem Scalar
}

func (a Array) typeNode()        {}
func (a Array) String() string   { return "Array<" + a.Elem.String() + ">" }
func (a Array) Equal(t Type) bool {
	o, ok := t.(Array)
	return ok && o.Elem == a.Elem
}

// MutableList is a growable list of scalars.
type MutableList struct {
	Elem Scalar
}

func (l MutableList) typeNode()      {}
func (l MutableList) String() string { return "MutableList<" + l.Elem.String() + ">" }
func (l MutableList) Equal(t Type) bool {
	o, ok := t.(MutableList)
	return ok && o.Elem == l.Elem
}

// Func is the type of a first-class function value.
type Func struct {
	Params []Type
	Return Type
}

func (f Func) typeNode() {}

func (f Func) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	ret := "Unit"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + ret
}

func (f Func) Equal(t Type) bool {
	o, ok := t.(Func)
	if !ok || len(o.Params) != len(f.Params) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return Equal(f.Return, o.Return)
}

// Equal compares two possibly-nil types.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// ElementType returns the element type of an indexable type.
func ElementType(t Type) (Scalar, bool) {
	switch c := t.(type) {
	case Array:
		return c.Elem, true
	case MutableList:
		return c.Elem, true
	}
	return 0, false
}

// AssignableTo reports whether a value of type from may be stored where to
// is expected. Any accepts every value except Unit.
func AssignableTo(from, to Type) bool {
	if Equal(from, to) {
		return true
	}
	if to == Any {
		return from != nil && !from.Equal(Unit)
	}
	return false
}

// IsReference reports whether values of t are object references on the JVM.
func IsReference(t Type) bool {
	switch t {
	case Int, Boolean, Unit:
		return false
	}
	return t != nil
}
