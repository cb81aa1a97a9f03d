package evaluator

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// evalLambda snapshots the variables the body reads from enclosing
// routines. Later assignments to them are not seen by the closure.
func (e *Evaluator) evalLambda(node *ast.LambdaExpression, env *Environment) Object {
	caps := e.info.Captures[node]
	closure := &Closure{Lambda: node, Captured: make(map[*symbols.Symbol]Object, len(caps))}
	for _, sym := range caps {
		val, ok := env.Get(sym)
		if !ok {
			return newErrorAt(node.Token, "captured '%s' has no value", sym.Name)
		}
		closure.Captured[sym] = val
	}
	return closure
}

func (e *Evaluator) evalCall(node *ast.CallExpression, env *Environment) Object {
	callee := e.evalIdentifier(node.Function, env)
	if isError(callee) {
		return callee
	}
	args := make([]Object, 0, len(node.Arguments))
	for _, a := range node.Arguments {
		val := e.Eval(a, env)
		if isError(val) {
			return val
		}
		args = append(args, val)
	}
	return e.applyFunction(node.Function.Value, node.Token, callee, args)
}

func (e *Evaluator) applyFunction(name string, tok token.Token, fn Object, args []Object) Object {
	if len(e.CallStack) >= maxCallDepth {
		return e.withStack(newErrorAt(tok, "stack overflow"))
	}
	switch fn := fn.(type) {
	case *Function:
		return e.callFunction(name, tok, fn.Decl, args)
	case *Closure:
		return e.callClosure(name, tok, fn, args)
	case *Null:
		return newErrorAt(tok, "'%s' is null", name)
	}
	return newErrorAt(tok, "'%s' of type %s is not callable", name, fn.Type())
}

func (e *Evaluator) bindParameters(tok token.Token, params []*ast.Parameter, args []Object, env *Environment) *Error {
	if len(params) != len(args) {
		return newErrorAt(tok, "expected %d arguments, got %d", len(params), len(args))
	}
	for i, p := range params {
		sym, err := e.symbolOf(p.Name)
		if err != nil {
			return err
		}
		env.Set(sym, args[i])
	}
	return nil
}

func (e *Evaluator) callFunction(name string, tok token.Token, decl *ast.FunctionStatement, args []Object) Object {
	env := NewEnvironment()
	if err := e.bindParameters(tok, decl.Parameters, args, env); err != nil {
		return err
	}
	e.pushCall(decl.Name.Value, tok)
	result := e.withStack(e.Eval(decl.Body, env))
	e.popCall()

	switch result.(type) {
	case *Error:
		return result
	case *ReturnValue:
		return unwrapReturnValue(result)
	}
	if decl.ReturnType != nil && !decl.ReturnType.Equal(typesystem.Unit) {
		return newErrorAt(decl.Body.RBraceToken, "missing return")
	}
	return UNIT
}

func (e *Evaluator) callClosure(name string, tok token.Token, c *Closure, args []Object) Object {
	env := NewEnvironment()
	for sym, val := range c.Captured {
		env.Set(sym, val)
	}
	if err := e.bindParameters(tok, c.Lambda.Parameters, args, env); err != nil {
		return err
	}
	e.pushCall(name, tok)
	result := e.withStack(e.Eval(c.Lambda.Body, env))
	e.popCall()
	if isError(result) {
		return result
	}
	if fn, ok := e.info.TypeOf(c.Lambda).(typesystem.Func); ok && fn.Return.Equal(typesystem.Unit) {
		return UNIT
	}
	return result
}
