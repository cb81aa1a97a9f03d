package codegen

import (
	"math"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

func (g *Generator) statements(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := g.statement(s); err != nil {
			return err
		}
	}
	return nil
}

// statement emits s. Statements that cannot be reached are skipped, and a
// statement must leave the operand stack as deep as it found it.
func (g *Generator) statement(s ast.Statement) error {
	c := g.code()
	if !c.Reachable() {
		return nil
	}
	depth := c.Depth()
	if err := g.compileStatement(s); err != nil {
		return err
	}
	if err := c.Err(); err != nil {
		return g.classfileError(s.GetToken(), err)
	}
	if c.Reachable() && c.Depth() != depth {
		return diagnostics.NewErrorf(diagnostics.ErrG002, s.GetToken(), "statement changed the operand stack depth from %d to %d", depth, c.Depth())
	}
	return nil
}

func (g *Generator) compileStatement(s ast.Statement) error {
	switch s := s.(type) {
	case *ast.VarDeclaration:
		return g.compileVarDeclaration(s)
	case *ast.AssignStatement:
		return g.compileAssign(s)
	case *ast.CompoundAssignStatement:
		return g.compileCompoundAssign(s)
	case *ast.SelfOpStatement:
		return g.compileSelfOp(s)
	case *ast.PrintStatement:
		return g.compilePrint(s)
	case *ast.IfStatement:
		return g.compileIf(s)
	case *ast.WhileStatement:
		return g.compileWhile(s)
	case *ast.ForStatement:
		return g.compileFor(s)
	case *ast.CallStatement:
		return g.compileCallStatement(s)
	case *ast.ReturnStatement:
		return g.compileReturn(s)
	case *ast.BreakStatement:
		return g.compileJumpOut(s.Token, true)
	case *ast.ContinueStatement:
		return g.compileJumpOut(s.Token, false)
	case *ast.BlockStatement:
		return g.statements(s.Statements)
	case *ast.FunctionStatement:
		return diagnostics.NewErrorf(diagnostics.ErrG002, s.Token, "function '%s' is not at top level", s.Name.Value)
	}
	return diagnostics.NewErrorf(diagnostics.ErrG001, s.GetToken(), "unsupported statement %T", s)
}

func (g *Generator) compileVarDeclaration(s *ast.VarDeclaration) error {
	sym, err := g.symbolOf(s.Name)
	if err != nil {
		return err
	}
	// the initializer cannot see the variable, so it is emitted first
	if s.Value != nil {
		if err := g.valueAs(s.Value, sym.Type); err != nil {
			return err
		}
	} else {
		g.pushDefault(sym.Type)
	}
	l, err := g.fn.declare(sym, s.Name.Token)
	if err != nil {
		return err
	}
	l.store(g.code())
	return nil
}

// pushDefault pushes the value a variable holds before its first
// assignment, so every slot is written before any read.
func (g *Generator) pushDefault(t typesystem.Type) {
	c := g.code()
	switch {
	case isPrimitive(t):
		c.PushInt(0)
	case t.Equal(typesystem.String):
		c.PushString("")
	default:
		c.Emit(classfile.OP_ACONST_NULL)
	}
}

func (g *Generator) compileAssign(s *ast.AssignStatement) error {
	c := g.code()
	switch target := s.Target.(type) {
	case *ast.Identifier:
		l, err := g.variable(target)
		if err != nil {
			return err
		}
		if err := g.valueAs(s.Value, l.typ); err != nil {
			return err
		}
		l.store(c)
		return nil
	case *ast.IndexExpression:
		coll, err := g.indexTarget(target)
		if err != nil {
			return err
		}
		elem, _ := typesystem.ElementType(coll)
		if _, isList := coll.(typesystem.MutableList); isList {
			if err := g.valueAs(s.Value, typesystem.Any); err != nil {
				return err
			}
			g.listSet()
			return nil
		}
		if err := g.valueAs(s.Value, elem); err != nil {
			return err
		}
		c.Emit(arrayStoreOp(elem))
		return nil
	}
	return diagnostics.NewErrorf(diagnostics.ErrG002, s.Token, "unknown assignment target %T", s.Target)
}

var arithmeticOps = map[string]classfile.Opcode{
	"+": classfile.OP_IADD,
	"-": classfile.OP_ISUB,
	"*": classfile.OP_IMUL,
	"/": classfile.OP_IDIV,
	"%": classfile.OP_IREM,
}

func (g *Generator) compileCompoundAssign(s *ast.CompoundAssignStatement) error {
	c := g.code()
	op := arithmeticOps[s.BinaryOperator()]
	switch target := s.Target.(type) {
	case *ast.Identifier:
		l, err := g.variable(target)
		if err != nil {
			return err
		}
		if delta, ok := constantDelta(s); ok {
			c.Iinc(l.slot, delta)
			return nil
		}
		l.load(c)
		if err := g.expression(s.Value); err != nil {
			return err
		}
		c.Emit(op)
		l.store(c)
		return nil
	case *ast.IndexExpression:
		coll, err := g.indexTarget(target)
		if err != nil {
			return err
		}
		c.Emit(classfile.OP_DUP2)
		_, isList := coll.(typesystem.MutableList)
		if isList {
			g.listGet(typesystem.Int)
		} else {
			c.Emit(classfile.OP_IALOAD)
		}
		if err := g.expression(s.Value); err != nil {
			return err
		}
		c.Emit(op)
		if isList {
			g.box(typesystem.Int)
			g.listSet()
		} else {
			c.Emit(classfile.OP_IASTORE)
		}
		return nil
	}
	return diagnostics.NewErrorf(diagnostics.ErrG002, s.Token, "unknown assignment target %T", s.Target)
}

// constantDelta reports whether x += k or x -= k can be emitted as iinc.
func constantDelta(s *ast.CompoundAssignStatement) (int32, bool) {
	lit, ok := s.Value.(*ast.IntegerLiteral)
	if !ok {
		return 0, false
	}
	delta := int64(lit.Value)
	switch s.BinaryOperator() {
	case "+":
	case "-":
		delta = -delta
	default:
		return 0, false
	}
	if delta < math.MinInt16 || delta > math.MaxInt16 {
		return 0, false
	}
	return int32(delta), true
}

func (g *Generator) compileSelfOp(s *ast.SelfOpStatement) error {
	if id, ok := s.Expression.Target.(*ast.Identifier); ok {
		l, err := g.variable(id)
		if err != nil {
			return err
		}
		g.code().Iinc(l.slot, incDelta(s.Expression))
		return nil
	}
	if err := g.expression(s.Expression); err != nil {
		return err
	}
	g.code().Emit(classfile.OP_POP)
	return nil
}

func (g *Generator) compilePrint(s *ast.PrintStatement) error {
	c := g.code()
	name := "print"
	if s.Newline {
		name = "println"
	}
	c.Field(classfile.OP_GETSTATIC, systemClass, "out", "L"+printStreamClass+";")
	if s.Value == nil {
		c.Invoke(classfile.OP_INVOKEVIRTUAL, printStreamClass, name, "()V")
		return nil
	}
	t, err := g.printable(s.Value)
	if err != nil {
		return err
	}
	c.Invoke(classfile.OP_INVOKEVIRTUAL, printStreamClass, name, "("+printDescriptor(t)+")V")
	return nil
}

// printable emits e and converts arrays, and anything that may hold one, to
// their string form. It returns the type of the value left on the stack.
func (g *Generator) printable(e ast.Expression) (typesystem.Type, error) {
	t, err := g.typeOf(e)
	if err != nil {
		return nil, err
	}
	if err := g.expression(e); err != nil {
		return nil, err
	}
	if needsShow(t) {
		g.callShow()
		return typesystem.String, nil
	}
	if a, ok := t.(typesystem.Array); ok {
		g.code().Invoke(classfile.OP_INVOKESTATIC, arraysClass, "toString", arraysToStringDescriptor(a))
	}
	return t, nil
}

func (g *Generator) compileIf(s *ast.IfStatement) error {
	c := g.code()
	elseL := g.fn.label()
	if err := g.jumpIf(s.Condition, false, elseL); err != nil {
		return err
	}
	if err := g.statement(s.Consequence); err != nil {
		return err
	}
	if s.Alternative == nil {
		c.Bind(elseL)
		return nil
	}
	end := g.fn.label()
	c.Jump(classfile.OP_GOTO, end)
	c.Bind(elseL)
	if err := g.statement(s.Alternative); err != nil {
		return err
	}
	c.Bind(end)
	return nil
}

func (g *Generator) compileWhile(s *ast.WhileStatement) error {
	c := g.code()
	top, end := g.fn.label(), g.fn.label()
	c.Bind(top)
	if err := g.jumpIf(s.Condition, false, end); err != nil {
		return err
	}
	g.fn.pushLoop(end, top)
	err := g.statement(s.Body)
	g.fn.popLoop()
	if err != nil {
		return err
	}
	c.Jump(classfile.OP_GOTO, top)
	c.Bind(end)
	return nil
}

func (g *Generator) compileFor(s *ast.ForStatement) error {
	if s.Range != nil {
		return g.compileForRange(s)
	}
	return g.compileForEach(s)
}

// compileForRange evaluates the bounds and step once. The loop exits when
// the next value would pass the end, computed in long arithmetic so a range
// ending at the largest Int terminates.
func (g *Generator) compileForRange(s *ast.ForStatement) error {
	c := g.code()
	r := s.Range
	sym, err := g.symbolOf(s.Variable)
	if err != nil {
		return err
	}

	if err := g.expression(r.From); err != nil {
		return err
	}
	v, err := g.fn.declare(sym, s.Variable.Token)
	if err != nil {
		return err
	}
	v.store(c)

	if err := g.expression(r.To); err != nil {
		return err
	}
	end, err := g.fn.scratch(typesystem.Int, r.Token)
	if err != nil {
		return err
	}
	end.store(c)

	var stepSlot local
	stepConst := int32(1)
	dynamicStep := false
	switch step := r.Step.(type) {
	case nil:
	case *ast.IntegerLiteral:
		stepConst = step.Value
	default:
		dynamicStep = true
		if err := g.expression(step); err != nil {
			return err
		}
		if stepSlot, err = g.fn.scratch(typesystem.Int, step.GetToken()); err != nil {
			return err
		}
		stepSlot.store(c)
		ok := g.fn.label()
		stepSlot.load(c)
		c.Jump(classfile.OP_IFGT, ok)
		g.throwNew(illegalArgClass, "Step must be positive")
		c.Bind(ok)
	}
	pushStep := func() {
		if dynamicStep {
			stepSlot.load(c)
		} else {
			c.PushInt(stepConst)
		}
	}

	top, next, exit := g.fn.label(), g.fn.label(), g.fn.label()
	c.Bind(top)
	v.load(c)
	end.load(c)
	c.Jump(classfile.OP_IF_ICMPGT, exit)

	g.fn.pushLoop(exit, next)
	err = g.statement(s.Body)
	g.fn.popLoop()
	if err != nil {
		return err
	}

	c.Bind(next)
	if !dynamicStep && stepConst == 1 {
		v.load(c)
		end.load(c)
		c.Jump(classfile.OP_IF_ICMPEQ, exit)
	} else {
		v.load(c)
		c.Emit(classfile.OP_I2L)
		pushStep()
		c.Emit(classfile.OP_I2L)
		c.Emit(classfile.OP_LADD)
		end.load(c)
		c.Emit(classfile.OP_I2L)
		c.Emit(classfile.OP_LCMP)
		c.Jump(classfile.OP_IFGT, exit)
	}
	if !dynamicStep && stepConst <= math.MaxInt16 {
		c.Iinc(v.slot, stepConst)
	} else {
		v.load(c)
		pushStep()
		c.Emit(classfile.OP_IADD)
		v.store(c)
	}
	c.Jump(classfile.OP_GOTO, top)
	c.Bind(exit)
	return nil
}

// compileForEach walks an array or list by index. The collection is
// evaluated once; a list's size is read on every iteration.
func (g *Generator) compileForEach(s *ast.ForStatement) error {
	c := g.code()
	ct, err := g.typeOf(s.Iterable)
	if err != nil {
		return err
	}
	elem, ok := typesystem.ElementType(ct)
	if !ok {
		return diagnostics.NewErrorf(diagnostics.ErrG002, s.Iterable.GetToken(), "cannot iterate over %s", ct)
	}
	_, isList := ct.(typesystem.MutableList)

	if err := g.expression(s.Iterable); err != nil {
		return err
	}
	coll, err := g.fn.scratch(ct, s.Iterable.GetToken())
	if err != nil {
		return err
	}
	coll.store(c)
	idx, err := g.fn.scratch(typesystem.Int, s.Token)
	if err != nil {
		return err
	}
	c.PushInt(0)
	idx.store(c)

	sym, err := g.symbolOf(s.Variable)
	if err != nil {
		return err
	}
	v, err := g.fn.declare(sym, s.Variable.Token)
	if err != nil {
		return err
	}

	top, next, exit := g.fn.label(), g.fn.label(), g.fn.label()
	c.Bind(top)
	idx.load(c)
	coll.load(c)
	if isList {
		c.Invoke(classfile.OP_INVOKEINTERFACE, listInterface, "size", "()I")
	} else {
		c.Emit(classfile.OP_ARRAYLENGTH)
	}
	c.Jump(classfile.OP_IF_ICMPGE, exit)
	coll.load(c)
	idx.load(c)
	if isList {
		g.listGet(elem)
	} else {
		c.Emit(arrayLoadOp(elem))
	}
	v.store(c)

	g.fn.pushLoop(exit, next)
	err = g.statement(s.Body)
	g.fn.popLoop()
	if err != nil {
		return err
	}

	c.Bind(next)
	c.Iinc(idx.slot, 1)
	c.Jump(classfile.OP_GOTO, top)
	c.Bind(exit)
	return nil
}

func (g *Generator) compileCallStatement(s *ast.CallStatement) error {
	t, err := g.typeOf(s.Call)
	if err != nil {
		return err
	}
	if err := g.expression(s.Call); err != nil {
		return err
	}
	if !isUnit(t) {
		g.code().Emit(classfile.OP_POP)
	}
	return nil
}

func (g *Generator) compileReturn(s *ast.ReturnStatement) error {
	c := g.code()
	ret := g.fn.ret
	if s.Value == nil {
		if !isUnit(ret) {
			return diagnostics.NewErrorf(diagnostics.ErrG002, s.Token, "bare return in a method returning %s", ret)
		}
		c.Emit(classfile.OP_RETURN)
		return nil
	}
	if isUnit(ret) {
		return diagnostics.NewError(diagnostics.ErrG002, s.Token, "return with a value in a Unit method")
	}
	if err := g.valueAs(s.Value, ret); err != nil {
		return err
	}
	c.Emit(returnOp(ret))
	return nil
}

func (g *Generator) compileJumpOut(tok token.Token, isBreak bool) error {
	loop, ok := g.fn.innermostLoop()
	if !ok {
		return diagnostics.NewErrorf(diagnostics.ErrG002, tok, "'%s' outside a loop", tok.Lexeme)
	}
	target := loop.continueTo
	if isBreak {
		target = loop.breakTo
	}
	g.code().Jump(classfile.OP_GOTO, target)
	return nil
}
