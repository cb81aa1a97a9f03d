package codegen

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

func (g *Generator) newArray(elem typesystem.Scalar) {
	c := g.code()
	switch elem {
	case typesystem.Int:
		c.NewArray(classfile.T_INT)
	case typesystem.Boolean:
		c.NewArray(classfile.T_BOOLEAN)
	case typesystem.String:
		c.TypeOp(classfile.OP_ANEWARRAY, stringClass)
	default:
		c.TypeOp(classfile.OP_ANEWARRAY, objectClass)
	}
}

// newList pushes an ArrayList; the capacity is on the stack.
func (g *Generator) newList() {
	c := g.code()
	c.TypeOp(classfile.OP_NEW, arrayListClass)
	c.Emit(classfile.OP_DUP_X1)
	c.Emit(classfile.OP_SWAP)
	c.Invoke(classfile.OP_INVOKESPECIAL, arrayListClass, "<init>", "(I)V")
}

// listAdd consumes list, boxed value.
func (g *Generator) listAdd() {
	c := g.code()
	c.Invoke(classfile.OP_INVOKEINTERFACE, listInterface, "add", "(L"+objectClass+";)Z")
	c.Emit(classfile.OP_POP)
}

func (g *Generator) collectionType(e ast.Expression) (typesystem.Type, typesystem.Scalar, error) {
	t, err := g.typeOf(e)
	if err != nil {
		return nil, 0, err
	}
	elem, ok := typesystem.ElementType(t)
	if !ok {
		return nil, 0, diagnostics.NewErrorf(diagnostics.ErrG002, e.GetToken(), "collection typed as %s", t)
	}
	return t, elem, nil
}

func (g *Generator) compileCollectionLiteral(e *ast.CollectionLiteral) error {
	t, elem, err := g.collectionType(e)
	if err != nil {
		return err
	}
	c := g.code()
	c.PushInt(int32(len(e.Elements)))
	if _, isList := t.(typesystem.MutableList); isList {
		g.newList()
		for _, el := range e.Elements {
			c.Emit(classfile.OP_DUP)
			if err := g.valueAs(el, typesystem.Any); err != nil {
				return err
			}
			g.listAdd()
		}
		return nil
	}
	g.newArray(elem)
	for i, el := range e.Elements {
		c.Emit(classfile.OP_DUP)
		c.PushInt(int32(i))
		if err := g.valueAs(el, elem); err != nil {
			return err
		}
		c.Emit(arrayStoreOp(elem))
	}
	return nil
}

// compileSizedConstructor inlines the generator: its parameter becomes the
// loop index and its body is evaluated once per element, in order.
func (g *Generator) compileSizedConstructor(e *ast.SizedConstructor) error {
	t, elem, err := g.collectionType(e)
	if err != nil {
		return err
	}
	if len(e.Generator.Parameters) != 1 {
		return diagnostics.NewError(diagnostics.ErrG002, e.Generator.Token, "generator must take one parameter")
	}
	param, err := g.symbolOf(e.Generator.Parameters[0].Name)
	if err != nil {
		return err
	}
	_, isList := t.(typesystem.MutableList)
	c := g.code()

	if err := g.expression(e.Size); err != nil {
		return err
	}
	size, err := g.fn.scratch(typesystem.Int, e.Size.GetToken())
	if err != nil {
		return err
	}
	size.store(c)
	size.load(c)
	if isList {
		g.newList()
	} else {
		g.newArray(elem)
	}
	coll, err := g.fn.scratch(t, e.Token)
	if err != nil {
		return err
	}
	coll.store(c)

	c.PushInt(0)
	idx, err := g.fn.declare(param, e.Generator.Parameters[0].Name.Token)
	if err != nil {
		return err
	}
	idx.store(c)

	top, exit := g.fn.label(), g.fn.label()
	c.Bind(top)
	idx.load(c)
	size.load(c)
	c.Jump(classfile.OP_IF_ICMPGE, exit)
	coll.load(c)
	if isList {
		if err := g.valueAs(e.Generator.Body, typesystem.Any); err != nil {
			return err
		}
		g.listAdd()
	} else {
		idx.load(c)
		if err := g.valueAs(e.Generator.Body, elem); err != nil {
			return err
		}
		c.Emit(arrayStoreOp(elem))
	}
	c.Iinc(idx.slot, 1)
	c.Jump(classfile.OP_GOTO, top)
	c.Bind(exit)
	coll.load(c)
	return nil
}
