package symbols

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// SymbolTable is one lexical scope.
type SymbolTable struct {
	store     map[string]*Symbol
	order     []*Symbol
	outer     *SymbolTable
	scopeType ScopeType
}

// NewSymbolTable creates the root scope that holds top-level functions.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{store: make(map[string]*Symbol), scopeType: ScopeFunctions}
}

func NewEnclosedSymbolTable(outer *SymbolTable, scopeType ScopeType) *SymbolTable {
	st := NewSymbolTable()
	st.outer = outer
	st.scopeType = scopeType
	return st
}

// Outer returns the outer scope symbol table
func (s *SymbolTable) Outer() *SymbolTable {
	return s.outer
}

func (s *SymbolTable) ScopeType() ScopeType {
	return s.scopeType
}

// IsFunctionScope returns true if this symbol table is the outermost scope
// of a function or lambda body.
func (s *SymbolTable) IsFunctionScope() bool {
	return s.scopeType == ScopeFunction || s.scopeType == ScopeLambda
}

// Define adds a variable to this scope and returns it.
func (s *SymbolTable) Define(name string, t typesystem.Type, constant bool, owner, node ast.Node) *Symbol {
	return s.insert(&Symbol{Name: name, Type: t, Kind: VariableSymbol, IsConstant: constant, Owner: owner, DefinitionNode: node})
}

// DefineParameter adds a parameter; parameters are never reassigned.
func (s *SymbolTable) DefineParameter(name string, t typesystem.Type, owner, node ast.Node) *Symbol {
	return s.insert(&Symbol{Name: name, Type: t, Kind: ParameterSymbol, IsConstant: true, Assigned: true, Owner: owner, DefinitionNode: node})
}

// DefineFunction adds a top-level function.
func (s *SymbolTable) DefineFunction(name string, t typesystem.Func, node ast.Node) *Symbol {
	return s.insert(&Symbol{Name: name, Type: t, Kind: FunctionSymbol, IsConstant: true, Assigned: true, DefinitionNode: node})
}

func (s *SymbolTable) insert(sym *Symbol) *Symbol {
	s.store[sym.Name] = sym
	s.order = append(s.order, sym)
	return sym
}

// Find resolves name from this scope outwards.
func (s *SymbolTable) Find(name string) (*Symbol, bool) {
	sym, ok := s.store[name]
	if !ok && s.outer != nil {
		return s.outer.Find(name)
	}
	return sym, ok
}

// IsDefinedLocally reports whether name is declared in this very scope.
func (s *SymbolTable) IsDefinedLocally(name string) bool {
	_, ok := s.store[name]
	return ok
}

// Symbols returns this scope's symbols in definition order.
func (s *SymbolTable) Symbols() []*Symbol {
	return s.order
}
