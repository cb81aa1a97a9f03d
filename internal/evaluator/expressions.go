package evaluator

import (
	"math"
	"strings"
	"unicode/utf16"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/token"
)

func (e *Evaluator) evalString(node *ast.StringLiteral, env *Environment) Object {
	if len(node.Interpolations) == 0 {
		return &String{Value: node.Value}
	}
	text := []rune(node.Value)
	var sb strings.Builder
	pos := 0
	for _, in := range node.Interpolations {
		if in.Offset < pos || in.Offset > len(text) {
			return newErrorAt(node.Token, "interpolation offset %d out of order", in.Offset)
		}
		sb.WriteString(string(text[pos:in.Offset]))
		pos = in.Offset
		val := e.Eval(in.Expr, env)
		if isError(val) {
			return val
		}
		sb.WriteString(val.Inspect())
	}
	sb.WriteString(string(text[pos:]))
	return &String{Value: sb.String()}
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier, env *Environment) Object {
	sym, errObj := e.symbolOf(node)
	if errObj != nil {
		return errObj
	}
	if sym.IsFunction() {
		fn, ok := e.info.Functions[sym.Name]
		if !ok {
			return newErrorAt(node.Token, "function '%s' has no declaration", sym.Name)
		}
		return &Function{Decl: fn.Decl}
	}
	val, ok := env.Get(sym)
	if !ok {
		return newErrorAt(node.Token, "'%s' has no value", node.Value)
	}
	return val
}

func (e *Evaluator) evalArithmetic(node *ast.ArithmeticExpression, env *Environment) Object {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}
	return applyArithmetic(node.Token, node.Operator, left, right)
}

// applyArithmetic computes an Int operation with 32-bit wraparound.
// Division truncates towards zero and MinInt / -1 stays MinInt, both as Go
// already does for int32.
func applyArithmetic(tok token.Token, op string, left, right Object) Object {
	l, lok := left.(*Integer)
	r, rok := right.(*Integer)
	if !lok || !rok {
		return newErrorAt(tok, "operator %s applied to %s and %s", op, left.Type(), right.Type())
	}
	a, b := l.Value, r.Value
	switch op {
	case "+":
		return &Integer{Value: a + b}
	case "-":
		return &Integer{Value: a - b}
	case "*":
		return &Integer{Value: a * b}
	case "/", "%":
		if b == 0 {
			return newErrorAt(tok, "/ by zero")
		}
		if b == -1 {
			// a / -1 overflows only for MinInt; the remainder is always 0.
			if op == "%" {
				return &Integer{Value: 0}
			}
			if a == math.MinInt32 {
				return &Integer{Value: a}
			}
		}
		if op == "/" {
			return &Integer{Value: a / b}
		}
		return &Integer{Value: a % b}
	}
	return newErrorAt(tok, "unknown operator %s", op)
}

func (e *Evaluator) evalComparison(node *ast.ComparisonExpression, env *Environment) Object {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}
	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}

	var cmp int
	switch l := left.(type) {
	case *Integer:
		r, ok := right.(*Integer)
		if !ok {
			break
		}
		switch {
		case l.Value < r.Value:
			cmp = -1
		case l.Value > r.Value:
			cmp = 1
		}
		return compareResult(node, cmp)
	case *String:
		r, ok := right.(*String)
		if !ok {
			break
		}
		return compareResult(node, compareUTF16(l.Value, r.Value))
	case *Boolean:
		r, ok := right.(*Boolean)
		if !ok || (node.Operator != "==" && node.Operator != "!=") {
			break
		}
		if l.Value != r.Value {
			cmp = 1
		}
		return compareResult(node, cmp)
	}
	return newErrorAt(node.Token, "operator %s applied to %s and %s", node.Operator, left.Type(), right.Type())
}

func compareResult(node *ast.ComparisonExpression, cmp int) Object {
	var b bool
	switch node.Operator {
	case "==":
		b = cmp == 0
	case "!=":
		b = cmp != 0
	case "<":
		b = cmp < 0
	case "<=":
		b = cmp <= 0
	case ">":
		b = cmp > 0
	case ">=":
		b = cmp >= 0
	default:
		return newErrorAt(node.Token, "unknown operator %s", node.Operator)
	}
	return nativeBoolToBooleanObject(b)
}

// compareUTF16 orders strings by UTF-16 code units, which is how
// String.compareTo orders them.
func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return int(ua[i]) - int(ub[i])
		}
	}
	return len(ua) - len(ub)
}

func (e *Evaluator) evalLogical(node *ast.LogicalExpression, env *Environment) Object {
	left, errObj := e.condition(node.Left, env)
	if errObj != nil {
		return errObj
	}
	if node.Operator == "&&" && !left {
		return FALSE
	}
	if node.Operator == "||" && left {
		return TRUE
	}
	right, errObj := e.condition(node.Right, env)
	if errObj != nil {
		return errObj
	}
	return nativeBoolToBooleanObject(right)
}

func (e *Evaluator) evalIncDec(node *ast.IncDecExpression, env *Environment) Object {
	delta := int32(1)
	if node.Operator == "--" {
		delta = -1
	}
	var old Object
	var store func(Object)
	switch target := node.Target.(type) {
	case *ast.Identifier:
		sym, errObj := e.symbolOf(target)
		if errObj != nil {
			return errObj
		}
		val, ok := env.Get(sym)
		if !ok {
			return newErrorAt(target.Token, "'%s' has no value", target.Value)
		}
		old = val
		store = func(v Object) { env.Set(sym, v) }
	case *ast.IndexExpression:
		elements, idx, errObj := e.element(target, env)
		if errObj != nil {
			return errObj
		}
		if err := checkIndex(target, elements, idx); err != nil {
			return err
		}
		old = elements[idx]
		store = func(v Object) { elements[idx] = v }
	default:
		return newErrorAt(node.Token, "unknown %s target %T", node.Operator, node.Target)
	}

	i, ok := old.(*Integer)
	if !ok {
		return newErrorAt(node.Token, "operator %s applied to %s", node.Operator, old.Type())
	}
	updated := &Integer{Value: i.Value + delta}
	store(updated)
	if node.Prefix {
		return updated
	}
	return i
}

// element evaluates the collection and the index of an indexed access. The
// index is not checked against the bounds.
func (e *Evaluator) element(node *ast.IndexExpression, env *Environment) ([]Object, int32, *Error) {
	coll := e.evalIdentifier(node.Left, env)
	if err, ok := coll.(*Error); ok {
		return nil, 0, err
	}
	idx := e.Eval(node.Index, env)
	if err, ok := idx.(*Error); ok {
		return nil, 0, err
	}
	i, ok := idx.(*Integer)
	if !ok {
		return nil, 0, newErrorAt(node.Index.GetToken(), "index is %s, not an Int", idx.Type())
	}
	switch c := coll.(type) {
	case *Array:
		return c.Elements, i.Value, nil
	case *List:
		return c.Elements, i.Value, nil
	case *Null:
		return nil, 0, newErrorAt(node.Left.Token, "'%s' is null", node.Left.Value)
	}
	return nil, 0, newErrorAt(node.Left.Token, "'%s' of type %s is not indexable", node.Left.Value, coll.Type())
}

func checkIndex(node *ast.IndexExpression, elements []Object, idx int32) *Error {
	if idx < 0 || int(idx) >= len(elements) {
		return newErrorAt(node.Token, "Index %d out of bounds for length %d", idx, len(elements))
	}
	return nil
}

func (e *Evaluator) evalIndex(node *ast.IndexExpression, env *Environment) Object {
	elements, idx, errObj := e.element(node, env)
	if errObj != nil {
		return errObj
	}
	if err := checkIndex(node, elements, idx); err != nil {
		return err
	}
	return elements[idx]
}
