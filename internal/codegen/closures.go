package codegen

import (
	"fmt"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/config"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// compileLambda emits the lambda's body as a synthetic method taking its
// parameters followed by its captures, then pushes a handle to it with the
// current capture values bound.
func (g *Generator) compileLambda(e *ast.LambdaExpression) error {
	t, err := g.typeOf(e)
	if err != nil {
		return err
	}
	fn, ok := t.(typesystem.Func)
	if !ok {
		return diagnostics.NewErrorf(diagnostics.ErrG002, e.Token, "lambda typed as %s", t)
	}
	captures := g.info.Captures[e]

	params := make([]*symbols.Symbol, 0, len(e.Parameters)+len(captures))
	types := make([]typesystem.Type, 0, cap(params))
	for _, p := range e.Parameters {
		sym, err := g.symbolOf(p.Name)
		if err != nil {
			return err
		}
		params = append(params, sym)
		types = append(types, sym.Type)
	}
	for _, sym := range captures {
		params = append(params, sym)
		types = append(types, sym.Type)
	}

	name := fmt.Sprintf("%s%d", config.LambdaPrefix, g.lambdas)
	g.lambdas++
	desc := methodDescriptor(types, fn.Return)
	m, err := g.addMethod(classfile.AccPrivate|classfile.AccStatic|classfile.AccSynthetic, name, types, fn.Return, e.Token)
	if err != nil {
		return err
	}
	err = g.withFunction(m, fn.Return, params, func() error {
		return g.lambdaBody(e.Body, fn.Return)
	}, e.Body.GetToken())
	if err != nil {
		return err
	}

	g.methodHandle(name, desc)
	if len(captures) == 0 {
		return nil
	}
	c := g.code()
	c.PushInt(int32(len(e.Parameters)))
	c.PushInt(int32(len(captures)))
	c.TypeOp(classfile.OP_ANEWARRAY, objectClass)
	for i, sym := range captures {
		l, ok := g.fn.lookup(sym)
		if !ok {
			return diagnostics.NewErrorf(diagnostics.ErrG002, e.Token, "captured '%s' has no slot", sym.Name)
		}
		c.Emit(classfile.OP_DUP)
		c.PushInt(int32(i))
		l.load(c)
		g.box(l.typ)
		c.Emit(classfile.OP_AASTORE)
	}
	c.Invoke(classfile.OP_INVOKESTATIC, methodHandlesClass, "insertArguments",
		"(L"+methodHandleClass+";I[L"+objectClass+";)L"+methodHandleClass+";")
	return nil
}

// lambdaBody returns the body's value. A lambda whose expected result is
// Unit discards it.
func (g *Generator) lambdaBody(body ast.Expression, ret typesystem.Type) error {
	bt, err := g.typeOf(body)
	if err != nil {
		return err
	}
	if err := g.expression(body); err != nil {
		return err
	}
	c := g.code()
	if isUnit(ret) {
		if !isUnit(bt) {
			c.Emit(classfile.OP_POP)
		}
		c.Emit(classfile.OP_RETURN)
		return nil
	}
	g.coerce(bt, ret)
	c.Emit(returnOp(ret))
	return nil
}

// methodHandle pushes a handle to one of this class's static methods.
func (g *Generator) methodHandle(name, desc string) {
	c := g.code()
	c.Invoke(classfile.OP_INVOKESTATIC, methodHandlesClass, "lookup", "()L"+lookupClass+";")
	c.PushClass(g.unit)
	c.PushString(name)
	c.PushString(desc)
	c.Emit(classfile.OP_ACONST_NULL)
	c.Invoke(classfile.OP_INVOKESTATIC, methodTypeClass, "fromMethodDescriptorString",
		"(L"+stringClass+";Ljava/lang/ClassLoader;)L"+methodTypeClass+";")
	c.Invoke(classfile.OP_INVOKEVIRTUAL, lookupClass, "findStatic",
		"(Ljava/lang/Class;L"+stringClass+";L"+methodTypeClass+";)L"+methodHandleClass+";")
}

// compileCall calls a top-level function directly, or a function value
// through MethodHandle.invokeWithArguments.
func (g *Generator) compileCall(e *ast.CallExpression) error {
	sym, err := g.symbolOf(e.Function)
	if err != nil {
		return err
	}
	fn, ok := sym.Type.(typesystem.Func)
	if !ok || len(fn.Params) != len(e.Arguments) {
		return diagnostics.NewErrorf(diagnostics.ErrG002, e.Token, "'%s' of type %s cannot be called with %d arguments", e.Function.Value, sym.Type, len(e.Arguments))
	}
	c := g.code()

	if sym.IsFunction() {
		for i, arg := range e.Arguments {
			if err := g.valueAs(arg, fn.Params[i]); err != nil {
				return err
			}
		}
		c.Invoke(classfile.OP_INVOKESTATIC, g.unit, g.methodNames[sym.Name], methodDescriptor(fn.Params, fn.Return))
		return nil
	}

	l, err := g.variable(e.Function)
	if err != nil {
		return err
	}
	l.load(c)
	c.PushInt(int32(len(e.Arguments)))
	c.TypeOp(classfile.OP_ANEWARRAY, objectClass)
	for i, arg := range e.Arguments {
		c.Emit(classfile.OP_DUP)
		c.PushInt(int32(i))
		if err := g.valueAs(arg, typesystem.Any); err != nil {
			return err
		}
		c.Emit(classfile.OP_AASTORE)
	}
	c.Invoke(classfile.OP_INVOKEVIRTUAL, methodHandleClass, "invokeWithArguments", "([L"+objectClass+";)L"+objectClass+";")
	if isUnit(fn.Return) {
		c.Emit(classfile.OP_POP)
		return nil
	}
	g.unbox(fn.Return)
	return nil
}
