package codegen

import (
	"strings"

	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// JVM names used by the generated code.
const (
	objectClass        = "java/lang/Object"
	stringClass        = "java/lang/String"
	integerClass       = "java/lang/Integer"
	booleanClass       = "java/lang/Boolean"
	listInterface      = "java/util/List"
	arrayListClass     = "java/util/ArrayList"
	arraysClass        = "java/util/Arrays"
	systemClass        = "java/lang/System"
	printStreamClass   = "java/io/PrintStream"
	stringBuilderClass = "java/lang/StringBuilder"
	methodHandleClass  = "java/lang/invoke/MethodHandle"
	methodHandlesClass = "java/lang/invoke/MethodHandles"
	lookupClass        = "java/lang/invoke/MethodHandles$Lookup"
	methodTypeClass    = "java/lang/invoke/MethodType"
	illegalStateClass  = "java/lang/IllegalStateException"
	illegalArgClass    = "java/lang/IllegalArgumentException"
)

// descriptor returns the field descriptor of t. Unit maps to V, which is
// only valid as a return type.
func descriptor(t typesystem.Type) string {
	switch t := t.(type) {
	case typesystem.Scalar:
		switch t {
		case typesystem.Int:
			return "I"
		case typesystem.Boolean:
			return "Z"
		case typesystem.String:
			return "L" + stringClass + ";"
		case typesystem.Unit:
			return "V"
		}
		return "L" + objectClass + ";"
	case typesystem.Array:
		return "[" + descriptor(t.Elem)
	case typesystem.MutableList:
		return "L" + listInterface + ";"
	case typesystem.Func:
		return "L" + methodHandleClass + ";"
	}
	return "V"
}

func methodDescriptor(params []typesystem.Type, ret typesystem.Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(descriptor(p))
	}
	sb.WriteByte(')')
	if ret == nil {
		ret = typesystem.Unit
	}
	sb.WriteString(descriptor(ret))
	return sb.String()
}

// internalName returns the operand of checkcast for a reference type.
func internalName(t typesystem.Type) string {
	switch t := t.(type) {
	case typesystem.Array:
		return descriptor(t)
	case typesystem.MutableList:
		return listInterface
	case typesystem.Func:
		return methodHandleClass
	}
	if t.Equal(typesystem.String) {
		return stringClass
	}
	return objectClass
}

func isPrimitive(t typesystem.Type) bool {
	return t.Equal(typesystem.Int) || t.Equal(typesystem.Boolean)
}

func isUnit(t typesystem.Type) bool {
	return t == nil || t.Equal(typesystem.Unit)
}

func kindOf(t typesystem.Type) classfile.LocalKind {
	if isPrimitive(t) {
		return classfile.IntLocal
	}
	return classfile.RefLocal
}

func returnOp(t typesystem.Type) classfile.Opcode {
	switch {
	case isUnit(t):
		return classfile.OP_RETURN
	case isPrimitive(t):
		return classfile.OP_IRETURN
	}
	return classfile.OP_ARETURN
}

func arrayLoadOp(elem typesystem.Scalar) classfile.Opcode {
	switch elem {
	case typesystem.Int:
		return classfile.OP_IALOAD
	case typesystem.Boolean:
		return classfile.OP_BALOAD
	}
	return classfile.OP_AALOAD
}

func arrayStoreOp(elem typesystem.Scalar) classfile.Opcode {
	switch elem {
	case typesystem.Int:
		return classfile.OP_IASTORE
	case typesystem.Boolean:
		return classfile.OP_BASTORE
	}
	return classfile.OP_AASTORE
}

// printDescriptor picks the PrintStream.print/println and
// StringBuilder.append overload for a value of type t. Arrays are converted
// with Arrays.toString first and use the String overload.
func printDescriptor(t typesystem.Type) string {
	switch t.(type) {
	case typesystem.Array:
		return "L" + stringClass + ";"
	case typesystem.MutableList, typesystem.Func:
		return "L" + objectClass + ";"
	}
	return descriptor(t)
}

// arraysToStringDescriptor selects the Arrays.toString overload.
func arraysToStringDescriptor(a typesystem.Array) string {
	switch a.Elem {
	case typesystem.Int:
		return "([I)L" + stringClass + ";"
	case typesystem.Boolean:
		return "([Z)L" + stringClass + ";"
	}
	return "([L" + objectClass + ";)L" + stringClass + ";"
}
