// Package analyzer is the typechecker. It walks a parsed program once, in
// statement order, and either accepts it or reports the first violation as an
// ill-typed program error.
//
// The tree is never modified. Everything learned along the way (expression
// types, which declaration every name refers to, function signatures and
// lambda captures) is returned in an Info side table keyed by node identity.
package analyzer

import (
	"fmt"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// FunctionSignature describes a top-level function.
type FunctionSignature struct {
	Name   string
	Type   typesystem.Func
	Decl   *ast.FunctionStatement
	Symbol *symbols.Symbol
}

// Info is the typechecker's result.
type Info struct {
	// Types holds the static type of every checked expression.
	Types map[ast.Expression]typesystem.Type
	// Decls maps every identifier occurrence (declarations, parameters,
	// loop variables, uses and call names) to the symbol it denotes.
	Decls map[*ast.Identifier]*symbols.Symbol
	// Functions holds the top-level functions by name.
	Functions map[string]*FunctionSignature
	// Captures lists, per lambda, the outer variables its body reads, in
	// first-use order.
	Captures map[*ast.LambdaExpression][]*symbols.Symbol
}

func newInfo() *Info {
	return &Info{
		Types:     make(map[ast.Expression]typesystem.Type),
		Decls:     make(map[*ast.Identifier]*symbols.Symbol),
		Functions: make(map[string]*FunctionSignature),
		Captures:  make(map[*ast.LambdaExpression][]*symbols.Symbol),
	}
}

// TypeOf returns the recorded type of e, or nil.
func (info *Info) TypeOf(e ast.Expression) typesystem.Type {
	return info.Types[e]
}

// SymbolOf returns the symbol an identifier resolved to, or nil.
func (info *Info) SymbolOf(id *ast.Identifier) *symbols.Symbol {
	return info.Decls[id]
}

// Typecheck checks prog and returns what it learned about it.
func Typecheck(prog *ast.Program) (*Info, error) {
	w := newWalker(prog)
	if err := w.program(prog); err != nil {
		return nil, err
	}
	return w.info, nil
}

type walker struct {
	info *Info

	functions *symbols.SymbolTable // root scope: top-level functions
	scope     *symbols.SymbolTable

	prog     *ast.Program
	owner    ast.Node                // routine whose locals are being declared
	fn       *ast.FunctionStatement  // enclosing function, nil at top level
	lambdas  []*ast.LambdaExpression // enclosing lambdas, innermost last
	loops    int

	// deferred holds the vals declared without an initializer, with the
	// loop depth of their declaration.
	deferred map[*symbols.Symbol]int

	expected typesystem.Type // type the context wants from the current expression
	result   typesystem.Type
	err      error
}

func newWalker(prog *ast.Program) *walker {
	functions := symbols.NewSymbolTable()
	return &walker{
		info:      newInfo(),
		functions: functions,
		scope:     symbols.NewEnclosedSymbolTable(functions, symbols.ScopeGlobal),
		prog:      prog,
		owner:     prog,
		deferred:  make(map[*symbols.Symbol]int),
	}
}

func (w *walker) errorf(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) error {
	return diagnostics.NewErrorf(code, tok, format, args...)
}

// check computes the type of e. expected, when not nil, is the type the
// context wants; it is used to infer lambda parameter types.
func (w *walker) check(e ast.Expression, expected typesystem.Type) (typesystem.Type, error) {
	if w.err != nil {
		return nil, w.err
	}
	saved := w.expected
	w.expected = expected
	w.result = nil
	e.Accept(w)
	w.expected = saved
	if w.err != nil {
		return nil, w.err
	}
	if w.result == nil {
		w.err = diagnostics.NewErrorf(diagnostics.ErrG002, e.GetToken(), "typechecker produced no type for %T", e)
		return nil, w.err
	}
	w.info.Types[e] = w.result
	return w.result, nil
}

// value checks e and rejects Unit, which has no value.
func (w *walker) value(e ast.Expression, expected typesystem.Type) (typesystem.Type, error) {
	t, err := w.check(e, expected)
	if err != nil {
		return nil, err
	}
	if t.Equal(typesystem.Unit) {
		return nil, w.errorf(diagnostics.ErrT002, e.GetToken(), "expression of type Unit has no value")
	}
	return t, nil
}

// expectType checks e and requires exactly type want.
func (w *walker) expectType(e ast.Expression, want typesystem.Type, what string) error {
	t, err := w.check(e, want)
	if err != nil {
		return err
	}
	if !t.Equal(want) {
		return w.errorf(diagnostics.ErrT002, e.GetToken(), "%s must be %s, found %s", what, want, t)
	}
	return nil
}

func (w *walker) stmt(s ast.Statement) error {
	if w.err != nil {
		return w.err
	}
	s.Accept(w)
	return w.err
}

// withScope runs fn in a fresh scope of the given type.
func (w *walker) withScope(scopeType symbols.ScopeType, fn func() error) error {
	outer := w.scope
	w.scope = symbols.NewEnclosedSymbolTable(outer, scopeType)
	defer func() { w.scope = outer }()
	return fn()
}

// resolve looks a name up and records the reference. A variable that belongs
// to a routine other than the current one is captured by every lambda
// between the use and the variable's owner.
func (w *walker) resolve(id *ast.Identifier) (*symbols.Symbol, bool) {
	sym, ok := w.scope.Find(id.Value)
	if !ok {
		return nil, false
	}
	w.info.Decls[id] = sym
	if sym.IsFunction() || sym.Owner == w.owner {
		return sym, true
	}
	for i := len(w.lambdas) - 1; i >= 0; i-- {
		lambda := w.lambdas[i]
		if ast.Node(lambda) == sym.Owner {
			break
		}
		w.addCapture(lambda, sym)
	}
	return sym, true
}

func (w *walker) addCapture(lambda *ast.LambdaExpression, sym *symbols.Symbol) {
	for _, c := range w.info.Captures[lambda] {
		if c == sym {
			return
		}
	}
	w.info.Captures[lambda] = append(w.info.Captures[lambda], sym)
}

func (w *walker) isCaptured(sym *symbols.Symbol) bool {
	return !sym.IsFunction() && sym.Owner != w.owner
}

func describeTypes(a, b typesystem.Type) string {
	return fmt.Sprintf("%s and %s", a, b)
}
