package symbols

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

type SymbolKind int

type ScopeType int

const (
	ScopeFunctions ScopeType = iota // Top-level functions, visible everywhere
	ScopeGlobal                     // Top-level statements of the script
	ScopeFunction
	ScopeLambda
	ScopeBlock
)

const (
	VariableSymbol SymbolKind = iota
	ParameterSymbol
	FunctionSymbol
)

func (k SymbolKind) String() string {
	switch k {
	case ParameterSymbol:
		return "parameter"
	case FunctionSymbol:
		return "function"
	}
	return "variable"
}

// Symbol is one declared name. Symbols are handed out as pointers and their
// identity is the variable's identity: two uses resolve to the same variable
// exactly when they resolve to the same *Symbol.
type Symbol struct {
	Name       string
	Type       typesystem.Type
	Kind       SymbolKind
	IsConstant bool // declared with val
	// Assigned is set once a val without initializer has received its value.
	Assigned bool
	// Owner is the routine the symbol lives in: *ast.Program for the
	// top-level routine, *ast.FunctionStatement or *ast.LambdaExpression.
	Owner          ast.Node
	DefinitionNode ast.Node
}

func (s *Symbol) IsFunction() bool {
	return s.Kind == FunctionSymbol
}
