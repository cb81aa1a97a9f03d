package evaluator

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// newCollection wraps elements in the runtime value the checked type of
// node calls for.
func (e *Evaluator) newCollection(node ast.Expression, kind ast.CollectionKind, elements []Object) Object {
	if kind == ast.MutableListKind {
		return &List{Elements: elements}
	}
	var elem typesystem.Scalar
	if arr, ok := e.info.TypeOf(node).(typesystem.Array); ok {
		elem = arr.Elem
	}
	return &Array{Elem: elem, Elements: elements}
}

func (e *Evaluator) evalCollectionLiteral(node *ast.CollectionLiteral, env *Environment) Object {
	elements := make([]Object, 0, len(node.Elements))
	for _, el := range node.Elements {
		val := e.Eval(el, env)
		if isError(val) {
			return val
		}
		elements = append(elements, val)
	}
	return e.newCollection(node, node.Kind, elements)
}

// evalSizedConstructor runs the generator body once per index with the
// parameter bound in the current environment, without creating a closure.
func (e *Evaluator) evalSizedConstructor(node *ast.SizedConstructor, env *Environment) Object {
	size := e.Eval(node.Size, env)
	if isError(size) {
		return size
	}
	n, ok := size.(*Integer)
	if !ok {
		return newErrorAt(node.Size.GetToken(), "size is %s, not an Int", size.Type())
	}
	if n.Value < 0 {
		return newErrorAt(node.Token, "Negative size: %d", n.Value)
	}
	param, errObj := e.symbolOf(node.Generator.Parameters[0].Name)
	if errObj != nil {
		return errObj
	}
	elements := make([]Object, 0, n.Value)
	for i := int32(0); i < n.Value; i++ {
		env.Set(param, &Integer{Value: i})
		val := e.Eval(node.Generator.Body, env)
		if isError(val) {
			return val
		}
		elements = append(elements, val)
	}
	return e.newCollection(node, node.Kind, elements)
}
