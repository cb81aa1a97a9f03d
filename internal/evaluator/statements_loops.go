package evaluator

import (
	"github.com/funvibe/ktjvm/internal/ast"
)

// loopBody runs one iteration. It reports whether the loop goes on and,
// when it must stop for a reason other than break, the signal to pass up.
func (e *Evaluator) loopBody(body *ast.BlockStatement, env *Environment) (bool, Object) {
	result := e.Eval(body, env)
	switch result.(type) {
	case *BreakSignal:
		return false, nil
	case *ContinueSignal:
		return true, nil
	case *ReturnValue, *Error:
		return false, result
	}
	return true, nil
}

func (e *Evaluator) evalWhile(node *ast.WhileStatement, env *Environment) Object {
	for {
		ok, errObj := e.condition(node.Condition, env)
		if errObj != nil {
			return errObj
		}
		if !ok {
			return UNIT
		}
		more, signal := e.loopBody(node.Body, env)
		if signal != nil {
			return signal
		}
		if !more {
			return UNIT
		}
	}
}

func (e *Evaluator) evalFor(node *ast.ForStatement, env *Environment) Object {
	sym, errObj := e.symbolOf(node.Variable)
	if errObj != nil {
		return errObj
	}
	if node.Range != nil {
		return e.evalForRange(node, env)
	}

	coll := e.Eval(node.Iterable, env)
	if isError(coll) {
		return coll
	}
	var elements func() []Object
	switch c := coll.(type) {
	case *Array:
		elements = func() []Object { return c.Elements }
	case *List:
		elements = func() []Object { return c.Elements }
	default:
		return newErrorAt(node.Iterable.GetToken(), "cannot iterate over %s", coll.Type())
	}
	for i := 0; i < len(elements()); i++ {
		env.Set(sym, elements()[i])
		more, signal := e.loopBody(node.Body, env)
		if signal != nil {
			return signal
		}
		if !more {
			break
		}
	}
	return UNIT
}

// evalForRange evaluates the bounds and the step once and walks the range
// inclusively. The arithmetic is done in 64 bits so a range ending at the
// largest Int terminates.
func (e *Evaluator) evalForRange(node *ast.ForStatement, env *Environment) Object {
	sym, _ := e.symbolOf(node.Variable)
	r := node.Range
	bounds := make([]int32, 0, 3)
	for _, part := range []ast.Expression{r.From, r.To, r.Step} {
		if part == nil {
			bounds = append(bounds, 1)
			continue
		}
		val := e.Eval(part, env)
		if isError(val) {
			return val
		}
		i, ok := val.(*Integer)
		if !ok {
			return newErrorAt(part.GetToken(), "range bound is %s, not an Int", val.Type())
		}
		bounds = append(bounds, i.Value)
	}
	from, to, step := int64(bounds[0]), int64(bounds[1]), int64(bounds[2])
	if step <= 0 {
		return newErrorAt(r.Step.GetToken(), "Step must be positive, was: %d", step)
	}

	for v := from; v <= to; v += step {
		env.Set(sym, &Integer{Value: int32(v)})
		more, signal := e.loopBody(node.Body, env)
		if signal != nil {
			return signal
		}
		if !more {
			break
		}
	}
	return UNIT
}
