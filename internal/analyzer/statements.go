package analyzer

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// program hoists every top-level function so calls may precede the
// declaration, then checks the statements in order.
func (w *walker) program(prog *ast.Program) error {
	for _, s := range prog.Statements {
		fn, ok := s.(*ast.FunctionStatement)
		if !ok {
			continue
		}
		if err := w.declareFunction(fn); err != nil {
			return err
		}
	}
	for _, s := range prog.Statements {
		if err := w.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) declareFunction(fn *ast.FunctionStatement) error {
	name := fn.Name.Value
	if w.functions.IsDefinedLocally(name) {
		return w.errorf(diagnostics.ErrT003, fn.Name.Token, "function '%s' is already declared", name)
	}
	for _, p := range fn.Parameters {
		if p.Type.Equal(typesystem.Unit) {
			return w.errorf(diagnostics.ErrT002, p.Token, "parameter '%s' cannot have type Unit", p.Name.Value)
		}
	}
	sig := fn.Signature()
	sym := w.functions.DefineFunction(name, sig, fn)
	w.info.Decls[fn.Name] = sym
	w.info.Functions[name] = &FunctionSignature{Name: name, Type: sig, Decl: fn, Symbol: sym}
	return nil
}

func (w *walker) VisitProgram(n *ast.Program) {
	w.err = w.program(n)
}

func (w *walker) VisitBlockStatement(n *ast.BlockStatement) {
	w.err = w.withScope(symbols.ScopeBlock, func() error {
		return w.statements(n.Statements)
	})
}

func (w *walker) statements(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := w.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) VisitVarDeclaration(n *ast.VarDeclaration) {
	w.err = w.varDeclaration(n)
}

func (w *walker) varDeclaration(n *ast.VarDeclaration) error {
	name := n.Name.Value
	if w.scope.IsDefinedLocally(name) {
		return w.errorf(diagnostics.ErrT003, n.Name.Token, "'%s' is already declared in this scope", name)
	}
	if n.Type != nil && n.Type.Equal(typesystem.Unit) {
		return w.errorf(diagnostics.ErrT002, n.Name.Token, "variable '%s' cannot have type Unit", name)
	}

	declared := n.Type
	if n.Value != nil {
		// the variable is not in scope yet, so its own initializer cannot see it
		vt, err := w.value(n.Value, n.Type)
		if err != nil {
			return err
		}
		if declared == nil {
			declared = vt
		} else if !typesystem.AssignableTo(vt, declared) {
			return w.errorf(diagnostics.ErrT002, n.Value.GetToken(),
				"cannot initialize '%s' of type %s with a value of type %s", name, declared, vt)
		}
	}
	if declared == nil {
		return w.errorf(diagnostics.ErrT006, n.Name.Token, "cannot infer type of '%s': add a type or an initializer", name)
	}

	sym := w.scope.Define(name, declared, !n.Mutable, w.owner, n)
	sym.Assigned = n.Value != nil
	if sym.IsConstant && !sym.Assigned {
		w.deferred[sym] = w.loops
	}
	w.info.Decls[n.Name] = sym
	return nil
}

func (w *walker) VisitAssignStatement(n *ast.AssignStatement) {
	w.err = w.assign(n)
}

func (w *walker) assign(n *ast.AssignStatement) error {
	switch target := n.Target.(type) {
	case *ast.Identifier:
		sym, err := w.assignableVariable(target, true)
		if err != nil {
			return err
		}
		vt, err := w.value(n.Value, sym.Type)
		if err != nil {
			return err
		}
		if !typesystem.AssignableTo(vt, sym.Type) {
			return w.errorf(diagnostics.ErrT002, n.Value.GetToken(),
				"cannot assign a value of type %s to '%s' of type %s", vt, target.Value, sym.Type)
		}
		sym.Assigned = true
		w.info.Types[target] = sym.Type
		return nil
	case *ast.IndexExpression:
		elem, err := w.check(target, nil)
		if err != nil {
			return err
		}
		vt, err := w.value(n.Value, elem)
		if err != nil {
			return err
		}
		if !typesystem.AssignableTo(vt, elem) {
			return w.errorf(diagnostics.ErrT002, n.Value.GetToken(),
				"cannot store a value of type %s in an element of type %s", vt, elem)
		}
		return nil
	}
	return w.errorf(diagnostics.ErrG002, n.Token, "unknown assignment target %T", n.Target)
}

// assignableVariable resolves a plain variable that is about to be written.
// firstAssignment allows the single assignment of a val declared without
// an initializer, provided no earlier path may have assigned it and the
// assignment does not sit in a loop the val was declared outside of.
func (w *walker) assignableVariable(id *ast.Identifier, firstAssignment bool) (*symbols.Symbol, error) {
	sym, ok := w.resolve(id)
	if !ok {
		return nil, w.errorf(diagnostics.ErrT001, id.Token, "undeclared variable '%s'", id.Value)
	}
	switch {
	case sym.IsFunction():
		return nil, w.errorf(diagnostics.ErrT005, id.Token, "cannot assign to function '%s'", id.Value)
	case sym.Kind == symbols.ParameterSymbol:
		return nil, w.errorf(diagnostics.ErrT005, id.Token, "cannot assign to parameter '%s'", id.Value)
	case w.isCaptured(sym):
		return nil, w.errorf(diagnostics.ErrT005, id.Token, "captured variable '%s' cannot be modified inside a lambda", id.Value)
	case sym.IsConstant && (sym.Assigned || !firstAssignment):
		return nil, w.errorf(diagnostics.ErrT005, id.Token, "val '%s' cannot be reassigned", id.Value)
	case sym.IsConstant && w.loops > w.deferred[sym]:
		return nil, w.errorf(diagnostics.ErrT005, id.Token, "val '%s' cannot be assigned inside a loop", id.Value)
	}
	return sym, nil
}

func (w *walker) VisitCompoundAssignStatement(n *ast.CompoundAssignStatement) {
	w.err = w.compoundAssign(n)
}

func (w *walker) compoundAssign(n *ast.CompoundAssignStatement) error {
	tt, err := w.intTarget(n.Target, n.Operator)
	if err != nil {
		return err
	}
	vt, err := w.check(n.Value, tt)
	if err != nil {
		return err
	}
	if !vt.Equal(typesystem.Int) {
		return w.errorf(diagnostics.ErrT002, n.Value.GetToken(),
			"operator %s cannot be applied to %s", n.Operator, describeTypes(tt, vt))
	}
	return nil
}

// intTarget checks a target that is read and written as an Int.
func (w *walker) intTarget(target ast.Target, op string) (typesystem.Type, error) {
	var tt typesystem.Type
	switch t := target.(type) {
	case *ast.Identifier:
		sym, err := w.assignableVariable(t, false)
		if err != nil {
			return nil, err
		}
		tt = sym.Type
		w.info.Types[t] = tt
	case *ast.IndexExpression:
		elem, err := w.check(t, nil)
		if err != nil {
			return nil, err
		}
		tt = elem
	default:
		return nil, w.errorf(diagnostics.ErrG002, target.GetToken(), "unknown target %T", target)
	}
	if !tt.Equal(typesystem.Int) {
		return nil, w.errorf(diagnostics.ErrT002, target.GetToken(), "operator %s requires an Int, found %s", op, tt)
	}
	return tt, nil
}

func (w *walker) VisitSelfOpStatement(n *ast.SelfOpStatement) {
	_, w.err = w.check(n.Expression, nil)
}

func (w *walker) VisitPrintStatement(n *ast.PrintStatement) {
	if n.Value == nil {
		return
	}
	t, err := w.check(n.Value, nil)
	if err != nil {
		w.err = err
		return
	}
	if !printable(t) {
		w.err = w.errorf(diagnostics.ErrT011, n.Value.GetToken(), "cannot print a value of type %s", t)
	}
}

func printable(t typesystem.Type) bool {
	switch t.(type) {
	case typesystem.Array, typesystem.MutableList:
		return true
	case typesystem.Scalar:
		return !t.Equal(typesystem.Unit)
	}
	return false
}

func (w *walker) VisitIfStatement(n *ast.IfStatement) {
	if err := w.expectType(n.Condition, typesystem.Boolean, "if condition"); err != nil {
		w.err = err
		return
	}
	before := w.assignedVals()
	if err := w.stmt(n.Consequence); err != nil {
		return
	}
	afterThen := w.assignedVals()
	thenFlows := !alwaysJumps(n.Consequence.Statements)
	for sym, assigned := range before {
		sym.Assigned = assigned
	}
	elseFlows := true
	if n.Alternative != nil {
		if err := w.stmt(n.Alternative); err != nil {
			return
		}
		elseFlows = !alwaysJumps(n.Alternative.Statements)
	}
	// a val counts as assigned after the if when some branch that falls
	// through may have assigned it
	for sym := range w.deferred {
		sym.Assigned = (thenFlows && afterThen[sym]) || (elseFlows && sym.Assigned)
	}
}

func (w *walker) assignedVals() map[*symbols.Symbol]bool {
	state := make(map[*symbols.Symbol]bool, len(w.deferred))
	for sym := range w.deferred {
		state[sym] = sym.Assigned
	}
	return state
}

func (w *walker) VisitWhileStatement(n *ast.WhileStatement) {
	if err := w.expectType(n.Condition, typesystem.Boolean, "while condition"); err != nil {
		w.err = err
		return
	}
	w.loops++
	w.stmt(n.Body)
	w.loops--
}

func (w *walker) VisitForStatement(n *ast.ForStatement) {
	w.err = w.forStatement(n)
}

func (w *walker) forStatement(n *ast.ForStatement) error {
	var elem typesystem.Type
	if n.Range != nil {
		if err := w.rangeHeader(n.Range); err != nil {
			return err
		}
		elem = typesystem.Int
	} else {
		it, err := w.check(n.Iterable, nil)
		if err != nil {
			return err
		}
		e, ok := typesystem.ElementType(it)
		if !ok {
			return w.errorf(diagnostics.ErrT012, n.Iterable.GetToken(), "cannot iterate over a value of type %s", it)
		}
		elem = e
	}

	return w.withScope(symbols.ScopeBlock, func() error {
		sym := w.scope.Define(n.Variable.Value, elem, true, w.owner, n)
		sym.Assigned = true
		w.info.Decls[n.Variable] = sym
		w.loops++
		defer func() { w.loops-- }()
		return w.stmt(n.Body)
	})
}

func (w *walker) rangeHeader(r *ast.RangeExpression) error {
	if err := w.expectType(r.From, typesystem.Int, "range start"); err != nil {
		return err
	}
	if err := w.expectType(r.To, typesystem.Int, "range end"); err != nil {
		return err
	}
	if r.Step != nil {
		if err := w.expectType(r.Step, typesystem.Int, "range step"); err != nil {
			return err
		}
		if lit, ok := r.Step.(*ast.IntegerLiteral); ok && lit.Value <= 0 {
			return w.errorf(diagnostics.ErrT012, lit.Token, "step must be positive, was %d", lit.Value)
		}
	}
	w.info.Types[r] = typesystem.Int
	return nil
}

func (w *walker) VisitFunctionStatement(n *ast.FunctionStatement) {
	if w.fn != nil || w.scope.ScopeType() != symbols.ScopeGlobal {
		w.err = w.errorf(diagnostics.ErrT010, n.Token, "function '%s' must be declared at top level", n.Name.Value)
		return
	}
	w.err = w.functionBody(n)
}

// functionBody checks a function in its own scope. Top-level variables are
// locals of the script routine and are not visible here.
func (w *walker) functionBody(n *ast.FunctionStatement) error {
	savedScope, savedOwner, savedLoops := w.scope, w.owner, w.loops
	w.scope = symbols.NewEnclosedSymbolTable(w.functions, symbols.ScopeFunction)
	w.owner, w.fn, w.loops = n, n, 0
	defer func() {
		w.scope, w.owner, w.fn, w.loops = savedScope, savedOwner, nil, savedLoops
	}()

	for _, p := range n.Parameters {
		w.info.Decls[p.Name] = w.scope.DefineParameter(p.Name.Value, p.Type, n, p.Name)
	}
	if err := w.statements(n.Body.Statements); err != nil {
		return err
	}
	if !n.ReturnType.Equal(typesystem.Unit) && !alwaysReturns(n.Body.Statements) {
		return w.errorf(diagnostics.ErrT009, n.Body.RBraceToken,
			"missing return in function '%s' returning %s", n.Name.Value, n.ReturnType)
	}
	return nil
}

// alwaysReturns reports whether every path through stmts ends in a return.
func alwaysReturns(stmts []ast.Statement) bool {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.ReturnStatement:
			return true
		case *ast.BlockStatement:
			if alwaysReturns(st.Statements) {
				return true
			}
		case *ast.IfStatement:
			if st.Alternative != nil && alwaysReturns(st.Consequence.Statements) && alwaysReturns(st.Alternative.Statements) {
				return true
			}
		}
	}
	return false
}

// alwaysJumps reports whether every path through stmts leaves with a
// return, break or continue.
func alwaysJumps(stmts []ast.Statement) bool {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.ReturnStatement, *ast.BreakStatement, *ast.ContinueStatement:
			return true
		case *ast.BlockStatement:
			if alwaysJumps(st.Statements) {
				return true
			}
		case *ast.IfStatement:
			if st.Alternative != nil && alwaysJumps(st.Consequence.Statements) && alwaysJumps(st.Alternative.Statements) {
				return true
			}
		}
	}
	return false
}

func (w *walker) VisitCallStatement(n *ast.CallStatement) {
	_, w.err = w.check(n.Call, nil)
}

func (w *walker) VisitReturnStatement(n *ast.ReturnStatement) {
	w.err = w.returnStatement(n)
}

func (w *walker) returnStatement(n *ast.ReturnStatement) error {
	if w.fn == nil {
		if n.Value != nil {
			return w.errorf(diagnostics.ErrT009, n.Token, "return with a value outside a function")
		}
		return nil
	}
	want := w.fn.ReturnType
	if want.Equal(typesystem.Unit) {
		if n.Value != nil {
			return w.errorf(diagnostics.ErrT009, n.Value.GetToken(), "function '%s' returns Unit and cannot return a value", w.fn.Name.Value)
		}
		return nil
	}
	if n.Value == nil {
		return w.errorf(diagnostics.ErrT009, n.Token, "function '%s' must return a value of type %s", w.fn.Name.Value, want)
	}
	vt, err := w.check(n.Value, want)
	if err != nil {
		return err
	}
	if !typesystem.AssignableTo(vt, want) {
		return w.errorf(diagnostics.ErrT009, n.Value.GetToken(), "return type mismatch: expected %s, found %s", want, vt)
	}
	return nil
}

func (w *walker) VisitBreakStatement(n *ast.BreakStatement) {
	if w.loops == 0 {
		w.err = w.errorf(diagnostics.ErrT010, n.Token, "'break' outside a loop")
	}
}

func (w *walker) VisitContinueStatement(n *ast.ContinueStatement) {
	if w.loops == 0 {
		w.err = w.errorf(diagnostics.ErrT010, n.Token, "'continue' outside a loop")
	}
}
