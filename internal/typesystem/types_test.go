package typesystem

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Int, "Int"},
		{Any, "Any"},
		{Array{Elem: String}, "Array<String>"},
		{MutableList{Elem: Boolean}, "MutableList<Boolean>"},
		{Func{Params: []Type{Int, String}, Return: Boolean}, "(Int, String) -> Boolean"},
		{Func{}, "() -> Unit"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b Type
		want bool
	}{
		{Int, Int, true},
		{Int, Boolean, false},
		{Array{Elem: Int}, Array{Elem: Int}, true},
		{Array{Elem: Int}, MutableList{Elem: Int}, false},
		{MutableList{Elem: Int}, MutableList{Elem: Any}, false},
		{Func{Params: []Type{Int}, Return: Int}, Func{Params: []Type{Int}, Return: Int}, true},
		{Func{Params: []Type{Int}, Return: Int}, Func{Params: []Type{Int, Int}, Return: Int}, false},
		{Func{Params: []Type{Int}}, Func{Params: []Type{Int}, Return: Unit}, false},
		{nil, nil, true},
		{nil, Int, false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAssignableTo(t *testing.T) {
	tests := []struct {
		from, to Type
		want     bool
	}{
		{Int, Int, true},
		{Int, Any, true},
		{String, Any, true},
		{Unit, Any, false},
		{nil, Any, false},
		{Any, Int, false},
		{Array{Elem: Int}, Array{Elem: Any}, false},
	}
	for _, tt := range tests {
		if got := AssignableTo(tt.from, tt.to); got != tt.want {
			t.Errorf("AssignableTo(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestElementTypeAndReferences(t *testing.T) {
	if e, ok := ElementType(MutableList{Elem: String}); !ok || e != String {
		t.Errorf("ElementType(MutableList<String>) = %v, %v", e, ok)
	}
	if _, ok := ElementType(Int); ok {
		t.Error("Int reported as indexable")
	}
	for _, typ := range []Type{Int, Boolean, Unit} {
		if IsReference(typ) {
			t.Errorf("%s reported as a reference", typ)
		}
	}
	for _, typ := range []Type{String, Any, Array{Elem: Int}, Func{}} {
		if !IsReference(typ) {
			t.Errorf("%s not reported as a reference", typ)
		}
	}
}
