package codegen

import (
	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// showMethodName cannot clash with a user function: '$' is not an
// identifier character in source programs.
const showMethodName = "show$"

var showDescriptor = "(L" + objectClass + ";)L" + stringClass + ";"

// needsShow reports whether printing a value of static type t has to look
// at its runtime class. An Any may hold an array, and a collection of Any
// may hold arrays or lists at any depth; PrintStream and the JDK toString
// methods would print those as [I@1b6d3586.
func needsShow(t typesystem.Type) bool {
	switch t := t.(type) {
	case typesystem.Scalar:
		return t == typesystem.Any
	case typesystem.Array:
		return t.Elem == typesystem.Any
	case typesystem.MutableList:
		return t.Elem == typesystem.Any
	}
	return false
}

// callShow converts the reference on the stack with the show$ helper,
// which is added to the class on first use.
func (g *Generator) callShow() {
	g.usesShow = true
	g.code().Invoke(classfile.OP_INVOKESTATIC, g.unit, showMethodName, showDescriptor)
}

// showMethod emits
//
//	static String show$(Object o) {
//	    if (o instanceof int[]) return Arrays.toString((int[]) o);
//	    if (o instanceof boolean[]) return Arrays.toString((boolean[]) o);
//	    Object[] a;
//	    if (o instanceof List) a = ((List) o).toArray();
//	    else if (o instanceof Object[]) a = (Object[]) o;
//	    else return String.valueOf(o);
//	    StringBuilder sb = new StringBuilder("[");
//	    for (int i = 0; i < a.length; i++) {
//	        if (i != 0) sb.append(", ");
//	        sb.append(show$(a[i]));
//	    }
//	    return sb.append("]").toString();
//	}
func (g *Generator) showMethod() error {
	m, err := g.cf.AddMethod(classfile.AccPrivate|classfile.AccStatic|classfile.AccSynthetic, showMethodName, showDescriptor)
	if err != nil {
		return g.classfileError(token.Token{}, err)
	}
	c := m.Code
	const (
		objSlot = 0
		sbSlot  = 1
		iSlot   = 2
		arrSlot = 3
	)
	objectArray := "[L" + objectClass + ";"
	appendString := "(L" + stringClass + ";)L" + stringBuilderClass + ";"

	primitive := func(array, desc string) {
		next := c.NewLabel()
		c.Load(classfile.RefLocal, objSlot)
		c.TypeOp(classfile.OP_INSTANCEOF, array)
		c.Jump(classfile.OP_IFEQ, next)
		c.Load(classfile.RefLocal, objSlot)
		c.TypeOp(classfile.OP_CHECKCAST, array)
		c.Invoke(classfile.OP_INVOKESTATIC, arraysClass, "toString", desc)
		c.Emit(classfile.OP_ARETURN)
		c.Bind(next)
	}
	primitive("[I", "([I)L"+stringClass+";")
	primitive("[Z", "([Z)L"+stringClass+";")

	notList, notArray, join := c.NewLabel(), c.NewLabel(), c.NewLabel()
	c.Load(classfile.RefLocal, objSlot)
	c.TypeOp(classfile.OP_INSTANCEOF, listInterface)
	c.Jump(classfile.OP_IFEQ, notList)
	c.Load(classfile.RefLocal, objSlot)
	c.TypeOp(classfile.OP_CHECKCAST, listInterface)
	c.Invoke(classfile.OP_INVOKEINTERFACE, listInterface, "toArray", "()"+objectArray)
	c.Store(classfile.RefLocal, arrSlot)
	c.Jump(classfile.OP_GOTO, join)

	c.Bind(notList)
	c.Load(classfile.RefLocal, objSlot)
	c.TypeOp(classfile.OP_INSTANCEOF, objectArray)
	c.Jump(classfile.OP_IFEQ, notArray)
	c.Load(classfile.RefLocal, objSlot)
	c.TypeOp(classfile.OP_CHECKCAST, objectArray)
	c.Store(classfile.RefLocal, arrSlot)

	c.Bind(join)
	c.TypeOp(classfile.OP_NEW, stringBuilderClass)
	c.Emit(classfile.OP_DUP)
	c.PushString("[")
	c.Invoke(classfile.OP_INVOKESPECIAL, stringBuilderClass, "<init>", "(L"+stringClass+";)V")
	c.Store(classfile.RefLocal, sbSlot)
	c.PushInt(0)
	c.Store(classfile.IntLocal, iSlot)

	loop, first, done := c.NewLabel(), c.NewLabel(), c.NewLabel()
	c.Bind(loop)
	c.Load(classfile.IntLocal, iSlot)
	c.Load(classfile.RefLocal, arrSlot)
	c.Emit(classfile.OP_ARRAYLENGTH)
	c.Jump(classfile.OP_IF_ICMPGE, done)
	c.Load(classfile.IntLocal, iSlot)
	c.Jump(classfile.OP_IFEQ, first)
	c.Load(classfile.RefLocal, sbSlot)
	c.PushString(", ")
	c.Invoke(classfile.OP_INVOKEVIRTUAL, stringBuilderClass, "append", appendString)
	c.Emit(classfile.OP_POP)
	c.Bind(first)
	c.Load(classfile.RefLocal, sbSlot)
	c.Load(classfile.RefLocal, arrSlot)
	c.Load(classfile.IntLocal, iSlot)
	c.Emit(classfile.OP_AALOAD)
	c.Invoke(classfile.OP_INVOKESTATIC, g.unit, showMethodName, showDescriptor)
	c.Invoke(classfile.OP_INVOKEVIRTUAL, stringBuilderClass, "append", appendString)
	c.Emit(classfile.OP_POP)
	c.Iinc(iSlot, 1)
	c.Jump(classfile.OP_GOTO, loop)

	c.Bind(done)
	c.Load(classfile.RefLocal, sbSlot)
	c.PushString("]")
	c.Invoke(classfile.OP_INVOKEVIRTUAL, stringBuilderClass, "append", appendString)
	c.Invoke(classfile.OP_INVOKEVIRTUAL, stringBuilderClass, "toString", "()L"+stringClass+";")
	c.Emit(classfile.OP_ARETURN)

	c.Bind(notArray)
	c.Load(classfile.RefLocal, objSlot)
	c.Invoke(classfile.OP_INVOKESTATIC, stringClass, "valueOf", showDescriptor)
	c.Emit(classfile.OP_ARETURN)
	return g.finish(c, token.Token{}, notList, notArray, join, loop, first, done)
}
