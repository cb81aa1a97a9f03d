package codegen

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// expression emits e, leaving its value on the stack. A Unit expression
// (a call of a Unit function) leaves nothing.
func (g *Generator) expression(e ast.Expression) error {
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		g.code().PushInt(e.Value)
		return nil
	case *ast.BooleanLiteral:
		g.code().PushBool(e.Value)
		return nil
	case *ast.StringLiteral:
		return g.compileString(e)
	case *ast.Identifier:
		return g.compileIdentifier(e)
	case *ast.ArithmeticExpression:
		if err := g.expression(e.Left); err != nil {
			return err
		}
		if err := g.expression(e.Right); err != nil {
			return err
		}
		op, ok := arithmeticOps[e.Operator]
		if !ok {
			return diagnostics.NewErrorf(diagnostics.ErrG002, e.Token, "unknown operator %s", e.Operator)
		}
		g.code().Emit(op)
		return nil
	case *ast.NotExpression:
		if err := g.expression(e.Right); err != nil {
			return err
		}
		g.code().PushInt(1)
		g.code().Emit(classfile.OP_IXOR)
		return nil
	case *ast.ComparisonExpression, *ast.LogicalExpression:
		return g.materialize(e)
	case *ast.IncDecExpression:
		return g.compileIncDec(e)
	case *ast.IndexExpression:
		return g.compileIndex(e)
	case *ast.CollectionLiteral:
		return g.compileCollectionLiteral(e)
	case *ast.SizedConstructor:
		return g.compileSizedConstructor(e)
	case *ast.LambdaExpression:
		return g.compileLambda(e)
	case *ast.CallExpression:
		return g.compileCall(e)
	case *ast.RangeExpression:
		return diagnostics.NewError(diagnostics.ErrG002, e.Token, "range used outside a for loop header")
	}
	return diagnostics.NewErrorf(diagnostics.ErrG001, e.GetToken(), "unsupported expression %T", e)
}

// valueAs emits e converted to type want.
func (g *Generator) valueAs(e ast.Expression, want typesystem.Type) error {
	t, err := g.typeOf(e)
	if err != nil {
		return err
	}
	if err := g.expression(e); err != nil {
		return err
	}
	g.coerce(t, want)
	return nil
}

// coerce converts the value on the stack from one static type to another.
// The only conversion the type system allows is into Any, which boxes.
func (g *Generator) coerce(from, to typesystem.Type) {
	if to.Equal(typesystem.Any) {
		g.box(from)
	}
}

func (g *Generator) box(t typesystem.Type) {
	c := g.code()
	switch {
	case t.Equal(typesystem.Int):
		c.Invoke(classfile.OP_INVOKESTATIC, integerClass, "valueOf", "(I)L"+integerClass+";")
	case t.Equal(typesystem.Boolean):
		c.Invoke(classfile.OP_INVOKESTATIC, booleanClass, "valueOf", "(Z)L"+booleanClass+";")
	}
}

// unbox converts an Object on the stack to t.
func (g *Generator) unbox(t typesystem.Type) {
	c := g.code()
	switch {
	case t.Equal(typesystem.Int):
		c.TypeOp(classfile.OP_CHECKCAST, integerClass)
		c.Invoke(classfile.OP_INVOKEVIRTUAL, integerClass, "intValue", "()I")
	case t.Equal(typesystem.Boolean):
		c.TypeOp(classfile.OP_CHECKCAST, booleanClass)
		c.Invoke(classfile.OP_INVOKEVIRTUAL, booleanClass, "booleanValue", "()Z")
	case t.Equal(typesystem.Any):
	default:
		c.TypeOp(classfile.OP_CHECKCAST, internalName(t))
	}
}

// compileString builds an interpolated string with a StringBuilder,
// splicing each value in at its offset.
func (g *Generator) compileString(s *ast.StringLiteral) error {
	c := g.code()
	if len(s.Interpolations) == 0 {
		c.PushString(s.Value)
		return nil
	}
	appendDesc := func(arg string) string {
		return "(" + arg + ")L" + stringBuilderClass + ";"
	}
	c.TypeOp(classfile.OP_NEW, stringBuilderClass)
	c.Emit(classfile.OP_DUP)
	c.Invoke(classfile.OP_INVOKESPECIAL, stringBuilderClass, "<init>", "()V")

	text := []rune(s.Value)
	pos := 0
	for _, in := range s.Interpolations {
		if in.Offset < pos || in.Offset > len(text) {
			return diagnostics.NewErrorf(diagnostics.ErrG002, s.Token, "interpolation offset %d out of order", in.Offset)
		}
		if in.Offset > pos {
			c.PushString(string(text[pos:in.Offset]))
			c.Invoke(classfile.OP_INVOKEVIRTUAL, stringBuilderClass, "append", appendDesc("L"+stringClass+";"))
		}
		pos = in.Offset
		t, err := g.printable(in.Expr)
		if err != nil {
			return err
		}
		c.Invoke(classfile.OP_INVOKEVIRTUAL, stringBuilderClass, "append", appendDesc(printDescriptor(t)))
	}
	if pos < len(text) {
		c.PushString(string(text[pos:]))
		c.Invoke(classfile.OP_INVOKEVIRTUAL, stringBuilderClass, "append", appendDesc("L"+stringClass+";"))
	}
	c.Invoke(classfile.OP_INVOKEVIRTUAL, stringBuilderClass, "toString", "()L"+stringClass+";")
	return nil
}

func (g *Generator) compileIdentifier(id *ast.Identifier) error {
	sym, err := g.symbolOf(id)
	if err != nil {
		return err
	}
	if sym.IsFunction() {
		fn, ok := g.info.Functions[sym.Name]
		if !ok {
			return diagnostics.NewErrorf(diagnostics.ErrG002, id.Token, "unknown function '%s'", sym.Name)
		}
		g.methodHandle(g.methodNames[sym.Name], methodDescriptor(fn.Type.Params, fn.Type.Return))
		return nil
	}
	l, err := g.variable(id)
	if err != nil {
		return err
	}
	l.load(g.code())
	return nil
}

// variable returns the slot of a variable in the current method.
func (g *Generator) variable(id *ast.Identifier) (local, error) {
	sym, err := g.symbolOf(id)
	if err != nil {
		return local{}, err
	}
	l, ok := g.fn.lookup(sym)
	if !ok {
		return local{}, diagnostics.NewErrorf(diagnostics.ErrG002, id.Token, "'%s' has no slot in this method", id.Value)
	}
	return l, nil
}

// indexTarget pushes the collection and the index of an element access and
// returns the collection's type.
func (g *Generator) indexTarget(e *ast.IndexExpression) (typesystem.Type, error) {
	l, err := g.variable(e.Left)
	if err != nil {
		return nil, err
	}
	if _, ok := typesystem.ElementType(l.typ); !ok {
		return nil, diagnostics.NewErrorf(diagnostics.ErrG002, e.Token, "'%s' of type %s is not indexable", e.Left.Value, l.typ)
	}
	l.load(g.code())
	if err := g.expression(e.Index); err != nil {
		return nil, err
	}
	return l.typ, nil
}

func (g *Generator) compileIndex(e *ast.IndexExpression) error {
	coll, err := g.indexTarget(e)
	if err != nil {
		return err
	}
	elem, _ := typesystem.ElementType(coll)
	if _, isList := coll.(typesystem.MutableList); isList {
		g.listGet(elem)
		return nil
	}
	g.code().Emit(arrayLoadOp(elem))
	return nil
}

// listGet turns list, index into the element as type elem.
func (g *Generator) listGet(elem typesystem.Type) {
	g.code().Invoke(classfile.OP_INVOKEINTERFACE, listInterface, "get", "(I)L"+objectClass+";")
	g.unbox(elem)
}

// listSet consumes list, index, boxed value.
func (g *Generator) listSet() {
	c := g.code()
	c.Invoke(classfile.OP_INVOKEINTERFACE, listInterface, "set", "(IL"+objectClass+";)L"+objectClass+";")
	c.Emit(classfile.OP_POP)
}

func incDelta(e *ast.IncDecExpression) int32 {
	if e.Operator == "--" {
		return -1
	}
	return 1
}

// compileIncDec leaves the new value for prefix forms and the old one for
// postfix forms.
func (g *Generator) compileIncDec(e *ast.IncDecExpression) error {
	c := g.code()
	delta := incDelta(e)
	switch target := e.Target.(type) {
	case *ast.Identifier:
		l, err := g.variable(target)
		if err != nil {
			return err
		}
		if e.Prefix {
			c.Iinc(l.slot, delta)
			l.load(c)
		} else {
			l.load(c)
			c.Iinc(l.slot, delta)
		}
		return nil
	case *ast.IndexExpression:
		coll, err := g.indexTarget(target)
		if err != nil {
			return err
		}
		_, isList := coll.(typesystem.MutableList)
		c.Emit(classfile.OP_DUP2)
		if isList {
			g.listGet(typesystem.Int)
		} else {
			c.Emit(classfile.OP_IALOAD)
		}
		// stack: coll, index, old
		if !e.Prefix {
			c.Emit(classfile.OP_DUP_X2)
		}
		c.PushInt(delta)
		c.Emit(classfile.OP_IADD)
		if e.Prefix {
			c.Emit(classfile.OP_DUP_X2)
		}
		if isList {
			g.box(typesystem.Int)
			g.listSet()
		} else {
			c.Emit(classfile.OP_IASTORE)
		}
		return nil
	}
	return diagnostics.NewErrorf(diagnostics.ErrG002, e.Token, "unknown increment target %T", e.Target)
}

var compareOps = map[string]classfile.Opcode{
	"==": classfile.OP_IF_ICMPEQ,
	"!=": classfile.OP_IF_ICMPNE,
	"<":  classfile.OP_IF_ICMPLT,
	">=": classfile.OP_IF_ICMPGE,
	">":  classfile.OP_IF_ICMPGT,
	"<=": classfile.OP_IF_ICMPLE,
}

// zeroCompareOps are the single-operand forms that compare against zero.
var zeroCompareOps = map[string]classfile.Opcode{
	"==": classfile.OP_IFEQ,
	"!=": classfile.OP_IFNE,
	"<":  classfile.OP_IFLT,
	">=": classfile.OP_IFGE,
	">":  classfile.OP_IFGT,
	"<=": classfile.OP_IFLE,
}

// materialize pushes 1 or 0 for a condition.
func (g *Generator) materialize(e ast.Expression) error {
	c := g.code()
	isTrue, end := g.fn.label(), g.fn.label()
	if err := g.jumpIf(e, true, isTrue); err != nil {
		return err
	}
	c.PushInt(0)
	c.Jump(classfile.OP_GOTO, end)
	c.Bind(isTrue)
	c.PushInt(1)
	c.Bind(end)
	return nil
}

// jumpIf branches to target when e evaluates to want and falls through
// otherwise. && and || short-circuit.
func (g *Generator) jumpIf(e ast.Expression, want bool, target *classfile.Label) error {
	c := g.code()
	switch e := e.(type) {
	case *ast.BooleanLiteral:
		if e.Value == want {
			c.Jump(classfile.OP_GOTO, target)
		}
		return nil
	case *ast.NotExpression:
		return g.jumpIf(e.Right, !want, target)
	case *ast.LogicalExpression:
		and := e.Operator == "&&"
		if and == want {
			// the left operand decides alone only against want
			skip := g.fn.label()
			if err := g.jumpIf(e.Left, !want, skip); err != nil {
				return err
			}
			if err := g.jumpIf(e.Right, want, target); err != nil {
				return err
			}
			c.Bind(skip)
			return nil
		}
		if err := g.jumpIf(e.Left, want, target); err != nil {
			return err
		}
		return g.jumpIf(e.Right, want, target)
	case *ast.ComparisonExpression:
		return g.jumpIfCompare(e, want, target)
	}
	if err := g.expression(e); err != nil {
		return err
	}
	if want {
		c.Jump(classfile.OP_IFNE, target)
	} else {
		c.Jump(classfile.OP_IFEQ, target)
	}
	return nil
}

func (g *Generator) jumpIfCompare(e *ast.ComparisonExpression, want bool, target *classfile.Label) error {
	c := g.code()
	lt, err := g.typeOf(e.Left)
	if err != nil {
		return err
	}
	op, ok := compareOps[e.Operator]
	if !ok {
		return diagnostics.NewErrorf(diagnostics.ErrG002, e.Token, "unknown comparison %s", e.Operator)
	}
	if err := g.expression(e.Left); err != nil {
		return err
	}

	if lt.Equal(typesystem.String) {
		if err := g.expression(e.Right); err != nil {
			return err
		}
		switch e.Operator {
		case "==", "!=":
			c.Invoke(classfile.OP_INVOKEVIRTUAL, stringClass, "equals", "(L"+objectClass+";)Z")
			// equals leaves 1 when equal
			op = classfile.OP_IFNE
			if e.Operator == "!=" {
				op = classfile.OP_IFEQ
			}
		default:
			c.Invoke(classfile.OP_INVOKEVIRTUAL, stringClass, "compareTo", "(L"+stringClass+";)I")
			op = zeroCompareOps[e.Operator]
		}
	} else if lit, ok := e.Right.(*ast.IntegerLiteral); ok && lit.Value == 0 && lt.Equal(typesystem.Int) {
		op = zeroCompareOps[e.Operator]
	} else if err := g.expression(e.Right); err != nil {
		return err
	}

	if !want {
		op = op.Negate()
	}
	c.Jump(op, target)
	return nil
}
