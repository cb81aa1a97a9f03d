package symbols

import (
	"testing"

	"github.com/funvibe/ktjvm/internal/typesystem"
)

func TestScopes(t *testing.T) {
	root := NewSymbolTable()
	f := root.DefineFunction("f", typesystem.Func{Return: typesystem.Int}, nil)
	global := NewEnclosedSymbolTable(root, ScopeGlobal)
	x := global.Define("x", typesystem.Int, false, nil, nil)
	block := NewEnclosedSymbolTable(global, ScopeBlock)
	inner := block.Define("x", typesystem.String, true, nil, nil)

	if got, _ := block.Find("x"); got != inner {
		t.Error("inner declaration does not shadow the outer one")
	}
	if got, _ := global.Find("x"); got != x {
		t.Error("outer scope sees the inner declaration")
	}
	if got, ok := block.Find("f"); !ok || got != f || !got.IsFunction() {
		t.Error("function not visible from a nested block")
	}
	if _, ok := block.Find("missing"); ok {
		t.Error("undeclared name resolved")
	}
	if block.IsDefinedLocally("f") || !block.IsDefinedLocally("x") {
		t.Error("IsDefinedLocally looks past its own scope")
	}
	if block.Outer() != global || block.ScopeType() != ScopeBlock || block.IsFunctionScope() {
		t.Error("scope bookkeeping is wrong")
	}
}

func TestParametersAndOrder(t *testing.T) {
	fn := NewEnclosedSymbolTable(NewSymbolTable(), ScopeFunction)
	a := fn.DefineParameter("a", typesystem.Int, nil, nil)
	b := fn.Define("b", typesystem.Boolean, false, nil, nil)
	if !fn.IsFunctionScope() {
		t.Error("function scope not recognised")
	}
	if !a.IsConstant || !a.Assigned || a.Kind.String() != "parameter" {
		t.Errorf("parameter symbol = %+v", a)
	}
	if b.Kind.String() != "variable" {
		t.Errorf("kind = %s", b.Kind)
	}
	syms := fn.Symbols()
	if len(syms) != 2 || syms[0] != a || syms[1] != b {
		t.Errorf("Symbols() not in definition order: %v", syms)
	}
}
