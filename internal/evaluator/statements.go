package evaluator

import (
	"fmt"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

func (e *Evaluator) symbolOf(id *ast.Identifier) (*symbols.Symbol, *Error) {
	sym := e.info.SymbolOf(id)
	if sym == nil {
		return nil, newErrorAt(id.Token, "'%s' was not resolved", id.Value)
	}
	return sym, nil
}

// defaultValue is what a variable holds before its first assignment.
func defaultValue(t typesystem.Type) Object {
	switch {
	case t.Equal(typesystem.Int):
		return &Integer{Value: 0}
	case t.Equal(typesystem.Boolean):
		return FALSE
	case t.Equal(typesystem.String):
		return &String{Value: ""}
	}
	return NULL
}

func (e *Evaluator) evalVarDeclaration(node *ast.VarDeclaration, env *Environment) Object {
	sym, err := e.symbolOf(node.Name)
	if err != nil {
		return err
	}
	if node.Value == nil {
		env.Set(sym, defaultValue(sym.Type))
		return UNIT
	}
	val := e.Eval(node.Value, env)
	if isError(val) {
		return val
	}
	env.Set(sym, val)
	return UNIT
}

func (e *Evaluator) evalAssign(node *ast.AssignStatement, env *Environment) Object {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		sym, err := e.symbolOf(target)
		if err != nil {
			return err
		}
		val := e.Eval(node.Value, env)
		if isError(val) {
			return val
		}
		env.Set(sym, val)
		return UNIT
	case *ast.IndexExpression:
		elements, idx, errObj := e.element(target, env)
		if errObj != nil {
			return errObj
		}
		val := e.Eval(node.Value, env)
		if isError(val) {
			return val
		}
		if err := checkIndex(target, elements, idx); err != nil {
			return err
		}
		elements[idx] = val
		return UNIT
	}
	return newError("unknown assignment target %T", node.Target)
}

func (e *Evaluator) evalCompoundAssign(node *ast.CompoundAssignStatement, env *Environment) Object {
	op := node.BinaryOperator()
	switch target := node.Target.(type) {
	case *ast.Identifier:
		sym, err := e.symbolOf(target)
		if err != nil {
			return err
		}
		current, ok := env.Get(sym)
		if !ok {
			return newErrorAt(target.Token, "'%s' has no value", target.Value)
		}
		right := e.Eval(node.Value, env)
		if isError(right) {
			return right
		}
		result := applyArithmetic(node.Token, op, current, right)
		if isError(result) {
			return result
		}
		env.Set(sym, result)
		return UNIT
	case *ast.IndexExpression:
		elements, idx, errObj := e.element(target, env)
		if errObj != nil {
			return errObj
		}
		if err := checkIndex(target, elements, idx); err != nil {
			return err
		}
		right := e.Eval(node.Value, env)
		if isError(right) {
			return right
		}
		result := applyArithmetic(node.Token, op, elements[idx], right)
		if isError(result) {
			return result
		}
		elements[idx] = result
		return UNIT
	}
	return newError("unknown assignment target %T", node.Target)
}

func (e *Evaluator) evalPrint(node *ast.PrintStatement, env *Environment) Object {
	text := ""
	if node.Value != nil {
		val := e.Eval(node.Value, env)
		if isError(val) {
			return val
		}
		text = val.Inspect()
	}
	if node.Newline {
		text += "\n"
	}
	if _, err := fmt.Fprint(e.Out, text); err != nil {
		return newErrorAt(node.Token, "writing output: %v", err)
	}
	return UNIT
}

func (e *Evaluator) condition(cond ast.Expression, env *Environment) (bool, Object) {
	val := e.Eval(cond, env)
	if isError(val) {
		return false, val
	}
	b, ok := val.(*Boolean)
	if !ok {
		return false, newErrorAt(cond.GetToken(), "condition is %s, not a Boolean", val.Type())
	}
	return b.Value, nil
}

func (e *Evaluator) evalIf(node *ast.IfStatement, env *Environment) Object {
	ok, errObj := e.condition(node.Condition, env)
	if errObj != nil {
		return errObj
	}
	if ok {
		return e.Eval(node.Consequence, env)
	}
	if node.Alternative != nil {
		return e.Eval(node.Alternative, env)
	}
	return UNIT
}

func (e *Evaluator) evalReturn(node *ast.ReturnStatement, env *Environment) Object {
	if node.Value == nil {
		return &ReturnValue{Value: UNIT}
	}
	val := e.Eval(node.Value, env)
	if isError(val) {
		return val
	}
	return &ReturnValue{Value: val}
}
