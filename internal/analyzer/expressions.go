package analyzer

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

func (w *walker) VisitIntegerLiteral(n *ast.IntegerLiteral) {
	w.result = typesystem.Int
}

func (w *walker) VisitBooleanLiteral(n *ast.BooleanLiteral) {
	w.result = typesystem.Boolean
}

func (w *walker) VisitStringLiteral(n *ast.StringLiteral) {
	for _, in := range n.Interpolations {
		t, err := w.check(in.Expr, nil)
		if err != nil {
			w.err = err
			return
		}
		if !printable(t) {
			w.err = w.errorf(diagnostics.ErrT011, in.Expr.GetToken(), "cannot interpolate a value of type %s", t)
			return
		}
	}
	w.result = typesystem.String
}

func (w *walker) VisitIdentifier(n *ast.Identifier) {
	sym, ok := w.resolve(n)
	if !ok {
		w.err = w.errorf(diagnostics.ErrT001, n.Token, "undeclared variable '%s'", n.Value)
		return
	}
	w.result = sym.Type
}

func (w *walker) VisitArithmeticExpression(n *ast.ArithmeticExpression) {
	left, right, err := w.operands(n.Left, n.Right)
	if err != nil {
		w.err = err
		return
	}
	if !left.Equal(typesystem.Int) || !right.Equal(typesystem.Int) {
		w.err = w.errorf(diagnostics.ErrT002, n.Token, "operator %s cannot be applied to %s", n.Operator, describeTypes(left, right))
		return
	}
	w.result = typesystem.Int
}

func (w *walker) operands(l, r ast.Expression) (typesystem.Type, typesystem.Type, error) {
	left, err := w.check(l, nil)
	if err != nil {
		return nil, nil, err
	}
	right, err := w.check(r, nil)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// VisitComparisonExpression accepts == and != on two values of the same
// Int, Boolean or String type, and ordering on Int or String pairs.
func (w *walker) VisitComparisonExpression(n *ast.ComparisonExpression) {
	left, right, err := w.operands(n.Left, n.Right)
	if err != nil {
		w.err = err
		return
	}
	ok := left.Equal(right)
	switch n.Operator {
	case "==", "!=":
		ok = ok && (left.Equal(typesystem.Int) || left.Equal(typesystem.Boolean) || left.Equal(typesystem.String))
	default:
		ok = ok && (left.Equal(typesystem.Int) || left.Equal(typesystem.String))
	}
	if !ok {
		w.err = w.errorf(diagnostics.ErrT002, n.Token, "operator %s cannot be applied to %s", n.Operator, describeTypes(left, right))
		return
	}
	w.result = typesystem.Boolean
}

func (w *walker) VisitLogicalExpression(n *ast.LogicalExpression) {
	left, right, err := w.operands(n.Left, n.Right)
	if err != nil {
		w.err = err
		return
	}
	if !left.Equal(typesystem.Boolean) || !right.Equal(typesystem.Boolean) {
		w.err = w.errorf(diagnostics.ErrT002, n.Token, "operator %s cannot be applied to %s", n.Operator, describeTypes(left, right))
		return
	}
	w.result = typesystem.Boolean
}

func (w *walker) VisitNotExpression(n *ast.NotExpression) {
	t, err := w.check(n.Right, nil)
	if err != nil {
		w.err = err
		return
	}
	if !t.Equal(typesystem.Boolean) {
		w.err = w.errorf(diagnostics.ErrT002, n.Token, "operator ! cannot be applied to %s", t)
		return
	}
	w.result = typesystem.Boolean
}

func (w *walker) VisitIncDecExpression(n *ast.IncDecExpression) {
	w.result, w.err = w.intTarget(n.Target, n.Operator)
}

func (w *walker) VisitIndexExpression(n *ast.IndexExpression) {
	sym, ok := w.resolve(n.Left)
	if !ok {
		w.err = w.errorf(diagnostics.ErrT001, n.Left.Token, "undeclared variable '%s'", n.Left.Value)
		return
	}
	w.info.Types[n.Left] = sym.Type
	elem, ok := typesystem.ElementType(sym.Type)
	if !ok {
		w.err = w.errorf(diagnostics.ErrT004, n.Left.Token, "'%s' of type %s is not indexable", n.Left.Value, sym.Type)
		return
	}
	if err := w.expectType(n.Index, typesystem.Int, "index"); err != nil {
		w.err = err
		return
	}
	w.result = elem
}

func isElementType(t typesystem.Type) bool {
	s, ok := t.(typesystem.Scalar)
	return ok && s != typesystem.Unit
}

// expectedElement returns the element type the context wants for a
// collection of the given kind.
func (w *walker) expectedElement(kind ast.CollectionKind) (typesystem.Scalar, bool) {
	switch t := w.expected.(type) {
	case typesystem.Array:
		if kind == ast.ArrayKind {
			return t.Elem, true
		}
	case typesystem.MutableList:
		if kind == ast.MutableListKind {
			return t.Elem, true
		}
	}
	return 0, false
}

func collectionType(kind ast.CollectionKind, elem typesystem.Scalar) typesystem.Type {
	if kind == ast.MutableListKind {
		return typesystem.MutableList{Elem: elem}
	}
	return typesystem.Array{Elem: elem}
}

// VisitCollectionLiteral requires all elements to share one scalar type,
// unless the context asks for a collection of Any.
func (w *walker) VisitCollectionLiteral(n *ast.CollectionLiteral) {
	want, hasWant := w.expectedElement(n.Kind)
	var elem typesystem.Type
	for _, e := range n.Elements {
		t, err := w.check(e, nil)
		if err != nil {
			w.err = err
			return
		}
		if !isElementType(t) {
			w.err = w.errorf(diagnostics.ErrT002, e.GetToken(), "collection elements must be Int, Boolean, String or Any, found %s", t)
			return
		}
		if hasWant && want == typesystem.Any {
			continue
		}
		if elem == nil {
			elem = t
		} else if !elem.Equal(t) {
			w.err = w.errorf(diagnostics.ErrT002, e.GetToken(), "%s elements must share one type: found %s", n.Token.Lexeme, describeTypes(elem, t))
			return
		}
	}
	if hasWant && want == typesystem.Any {
		elem = typesystem.Any
	}
	if elem == nil {
		// only a tree built without the parser has no elements
		if !hasWant {
			w.err = w.errorf(diagnostics.ErrT006, n.Token, "cannot infer the element type of an empty %s", n.Token.Lexeme)
			return
		}
		elem = want
	}
	w.result = collectionType(n.Kind, elem.(typesystem.Scalar))
}

func (w *walker) VisitSizedConstructor(n *ast.SizedConstructor) {
	if err := w.expectType(n.Size, typesystem.Int, "size"); err != nil {
		w.err = err
		return
	}
	if len(n.Generator.Parameters) != 1 {
		w.err = w.errorf(diagnostics.ErrT007, n.Generator.Token, "generator lambda must take exactly one Int parameter, takes %d", len(n.Generator.Parameters))
		return
	}
	gt, err := w.check(n.Generator, typesystem.Func{Params: []typesystem.Type{typesystem.Int}})
	if err != nil {
		w.err = err
		return
	}
	fn := gt.(typesystem.Func)
	if !fn.Params[0].Equal(typesystem.Int) {
		w.err = w.errorf(diagnostics.ErrT002, n.Generator.Parameters[0].Token, "generator parameter must be Int, found %s", fn.Params[0])
		return
	}
	if !isElementType(fn.Return) {
		w.err = w.errorf(diagnostics.ErrT002, n.Generator.Body.GetToken(), "generator must produce Int, Boolean, String or Any, found %s", fn.Return)
		return
	}
	elem := fn.Return.(typesystem.Scalar)
	if want, ok := w.expectedElement(n.Kind); ok && want == typesystem.Any {
		elem = typesystem.Any
	}
	w.result = collectionType(n.Kind, elem)
}

// VisitLambdaExpression takes parameter types from the annotations or, when
// missing, from the function type the context expects.
func (w *walker) VisitLambdaExpression(n *ast.LambdaExpression) {
	expected, _ := w.expected.(typesystem.Func)
	params := make([]typesystem.Type, len(n.Parameters))
	for i, p := range n.Parameters {
		switch {
		case p.Type != nil:
			params[i] = p.Type
		case len(expected.Params) == len(n.Parameters) && expected.Params[i] != nil:
			params[i] = expected.Params[i]
		default:
			w.err = w.errorf(diagnostics.ErrT006, p.Token, "cannot infer type of lambda parameter '%s'", p.Name.Value)
			return
		}
		if params[i].Equal(typesystem.Unit) {
			w.err = w.errorf(diagnostics.ErrT002, p.Token, "parameter '%s' cannot have type Unit", p.Name.Value)
			return
		}
	}

	var body typesystem.Type
	err := w.withScope(symbols.ScopeLambda, func() error {
		savedOwner := w.owner
		w.owner = n
		w.lambdas = append(w.lambdas, n)
		defer func() {
			w.owner = savedOwner
			w.lambdas = w.lambdas[:len(w.lambdas)-1]
		}()
		for i, p := range n.Parameters {
			w.info.Decls[p.Name] = w.scope.DefineParameter(p.Name.Value, params[i], n, p.Name)
		}
		var err error
		body, err = w.check(n.Body, expected.Return)
		return err
	})
	if err != nil {
		w.err = err
		return
	}

	ret := body
	if expected.Return != nil {
		if !typesystem.AssignableTo(body, expected.Return) && !expected.Return.Equal(typesystem.Unit) {
			w.err = w.errorf(diagnostics.ErrT002, n.Body.GetToken(), "lambda must return %s, found %s", expected.Return, body)
			return
		}
		ret = expected.Return
	}
	w.result = typesystem.Func{Params: params, Return: ret}
}

// VisitCallExpression calls a top-level function or a variable holding a
// function value; the innermost declaration of the name wins.
func (w *walker) VisitCallExpression(n *ast.CallExpression) {
	sym, ok := w.resolve(n.Function)
	if !ok {
		w.err = w.errorf(diagnostics.ErrT008, n.Function.Token, "unknown function '%s'", n.Function.Value)
		return
	}
	fn, ok := sym.Type.(typesystem.Func)
	if !ok {
		w.err = w.errorf(diagnostics.ErrT008, n.Function.Token, "'%s' of type %s is not callable", n.Function.Value, sym.Type)
		return
	}
	w.info.Types[n.Function] = fn
	if len(n.Arguments) != len(fn.Params) {
		w.err = w.errorf(diagnostics.ErrT007, n.Token, "'%s' expects %d arguments, got %d", n.Function.Value, len(fn.Params), len(n.Arguments))
		return
	}
	for i, arg := range n.Arguments {
		at, err := w.value(arg, fn.Params[i])
		if err != nil {
			w.err = err
			return
		}
		if !typesystem.AssignableTo(at, fn.Params[i]) {
			w.err = w.errorf(diagnostics.ErrT002, arg.GetToken(), "argument %d of '%s': expected %s, found %s", i+1, n.Function.Value, fn.Params[i], at)
			return
		}
	}
	w.result = fn.Return
}

func (w *walker) VisitRangeExpression(n *ast.RangeExpression) {
	w.err = w.errorf(diagnostics.ErrT012, n.Token, "a range is only allowed in a for loop header")
}
