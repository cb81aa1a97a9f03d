// Package classfile models, writes and reads JVM class files.
//
// Only the subset of the format the compiler produces is modelled for
// writing: a constant pool, methods and their Code attributes, and the
// SourceFile attribute. The reader understands any well-formed class file so
// the disassembler can also be pointed at classes compiled by other tools.
package classfile

import "strings"

// Opcode is a JVM instruction opcode.
type Opcode byte

const (
	OP_NOP         Opcode = 0x00
	OP_ACONST_NULL Opcode = 0x01
	OP_ICONST_M1   Opcode = 0x02
	OP_ICONST_0    Opcode = 0x03
	OP_ICONST_1    Opcode = 0x04
	OP_ICONST_2    Opcode = 0x05
	OP_ICONST_3    Opcode = 0x06
	OP_ICONST_4    Opcode = 0x07
	OP_ICONST_5    Opcode = 0x08
	OP_BIPUSH      Opcode = 0x10
	OP_SIPUSH      Opcode = 0x11
	OP_LDC         Opcode = 0x12
	OP_LDC_W       Opcode = 0x13

	OP_ILOAD   Opcode = 0x15
	OP_ALOAD   Opcode = 0x19
	OP_ILOAD_0 Opcode = 0x1a
	OP_ALOAD_0 Opcode = 0x2a
	OP_IALOAD  Opcode = 0x2e
	OP_AALOAD  Opcode = 0x32
	OP_BALOAD  Opcode = 0x33

	OP_ISTORE   Opcode = 0x36
	OP_ASTORE   Opcode = 0x3a
	OP_ISTORE_0 Opcode = 0x3b
	OP_ASTORE_0 Opcode = 0x4b
	OP_IASTORE  Opcode = 0x4f
	OP_AASTORE  Opcode = 0x53
	OP_BASTORE  Opcode = 0x54

	OP_POP     Opcode = 0x57
	OP_POP2    Opcode = 0x58
	OP_DUP     Opcode = 0x59
	OP_DUP_X1  Opcode = 0x5a
	OP_DUP_X2  Opcode = 0x5b
	OP_DUP2    Opcode = 0x5c
	OP_DUP2_X1 Opcode = 0x5d
	OP_DUP2_X2 Opcode = 0x5e
	OP_SWAP    Opcode = 0x5f

	OP_IADD Opcode = 0x60
	OP_LADD Opcode = 0x61
	OP_ISUB Opcode = 0x64
	OP_IMUL Opcode = 0x68
	OP_IDIV Opcode = 0x6c
	OP_IREM Opcode = 0x70
	OP_INEG Opcode = 0x74
	OP_IXOR Opcode = 0x82
	OP_IINC Opcode = 0x84
	OP_I2L  Opcode = 0x85
	OP_LCMP Opcode = 0x94

	OP_IFEQ      Opcode = 0x99
	OP_IFNE      Opcode = 0x9a
	OP_IFLT      Opcode = 0x9b
	OP_IFGE      Opcode = 0x9c
	OP_IFGT      Opcode = 0x9d
	OP_IFLE      Opcode = 0x9e
	OP_IF_ICMPEQ Opcode = 0x9f
	OP_IF_ICMPNE Opcode = 0xa0
	OP_IF_ICMPLT Opcode = 0xa1
	OP_IF_ICMPGE Opcode = 0xa2
	OP_IF_ICMPGT Opcode = 0xa3
	OP_IF_ICMPLE Opcode = 0xa4
	OP_IF_ACMPEQ Opcode = 0xa5
	OP_IF_ACMPNE Opcode = 0xa6
	OP_GOTO      Opcode = 0xa7

	OP_IRETURN Opcode = 0xac
	OP_ARETURN Opcode = 0xb0
	OP_RETURN  Opcode = 0xb1

	OP_GETSTATIC       Opcode = 0xb2
	OP_PUTSTATIC       Opcode = 0xb3
	OP_GETFIELD        Opcode = 0xb4
	OP_PUTFIELD        Opcode = 0xb5
	OP_INVOKEVIRTUAL   Opcode = 0xb6
	OP_INVOKESPECIAL   Opcode = 0xb7
	OP_INVOKESTATIC    Opcode = 0xb8
	OP_INVOKEINTERFACE Opcode = 0xb9
	OP_NEW             Opcode = 0xbb
	OP_NEWARRAY        Opcode = 0xbc
	OP_ANEWARRAY       Opcode = 0xbd
	OP_ARRAYLENGTH     Opcode = 0xbe
	OP_ATHROW          Opcode = 0xbf
	OP_CHECKCAST       Opcode = 0xc0
	OP_INSTANCEOF      Opcode = 0xc1
	OP_WIDE            Opcode = 0xc4
	OP_IFNULL          Opcode = 0xc6
	OP_IFNONNULL       Opcode = 0xc7
)

// Array type codes for newarray.
const (
	T_BOOLEAN byte = 4
	T_INT     byte = 10
)

// mnemonics is indexed by opcode, 0x00 through 0xc9.
var mnemonics = strings.Fields(`
nop aconst_null iconst_m1 iconst_0 iconst_1 iconst_2 iconst_3 iconst_4 iconst_5
lconst_0 lconst_1 fconst_0 fconst_1 fconst_2 dconst_0 dconst_1
bipush sipush ldc ldc_w ldc2_w iload lload fload dload aload
iload_0 iload_1 iload_2 iload_3 lload_0 lload_1 lload_2 lload_3
fload_0 fload_1 fload_2 fload_3 dload_0 dload_1 dload_2 dload_3
aload_0 aload_1 aload_2 aload_3
iaload laload faload daload aaload baload caload saload
istore lstore fstore dstore astore
istore_0 istore_1 istore_2 istore_3 lstore_0 lstore_1 lstore_2 lstore_3
fstore_0 fstore_1 fstore_2 fstore_3 dstore_0 dstore_1 dstore_2 dstore_3
astore_0 astore_1 astore_2 astore_3
iastore lastore fastore dastore aastore bastore castore sastore
pop pop2 dup dup_x1 dup_x2 dup2 dup2_x1 dup2_x2 swap
iadd ladd fadd dadd isub lsub fsub dsub imul lmul fmul dmul idiv ldiv fdiv ddiv
irem lrem frem drem ineg lneg fneg dneg ishl lshl ishr lshr iushr lushr
iand land ior lor ixor lxor iinc
i2l i2f i2d l2i l2f l2d f2i f2l f2d d2i d2l d2f i2b i2c i2s
lcmp fcmpl fcmpg dcmpl dcmpg
ifeq ifne iflt ifge ifgt ifle if_icmpeq if_icmpne if_icmplt if_icmpge if_icmpgt if_icmple
if_acmpeq if_acmpne goto jsr ret tableswitch lookupswitch
ireturn lreturn freturn dreturn areturn return
getstatic putstatic getfield putfield
invokevirtual invokespecial invokestatic invokeinterface invokedynamic
new newarray anewarray arraylength athrow checkcast instanceof
monitorenter monitorexit wide multianewarray ifnull ifnonnull goto_w jsr_w
`)

func (op Opcode) String() string {
	if int(op) < len(mnemonics) {
		return mnemonics[op]
	}
	return "unknown"
}

// stackEffect is the net operand-stack change of instructions whose effect
// does not depend on their operands.
var stackEffect = map[Opcode]int{
	OP_NOP:         0,
	OP_ACONST_NULL: 1,
	OP_ICONST_M1:   1, OP_ICONST_0: 1, OP_ICONST_1: 1, OP_ICONST_2: 1,
	OP_ICONST_3: 1, OP_ICONST_4: 1, OP_ICONST_5: 1,
	OP_BIPUSH: 1, OP_SIPUSH: 1, OP_LDC: 1, OP_LDC_W: 1,
	OP_IALOAD: -1, OP_AALOAD: -1, OP_BALOAD: -1,
	OP_IASTORE: -3, OP_AASTORE: -3, OP_BASTORE: -3,
	OP_POP: -1, OP_POP2: -2,
	OP_DUP: 1, OP_DUP_X1: 1, OP_DUP_X2: 1,
	OP_DUP2: 2, OP_DUP2_X1: 2, OP_DUP2_X2: 2,
	OP_SWAP: 0,
	OP_IADD: -1, OP_ISUB: -1, OP_IMUL: -1, OP_IDIV: -1, OP_IREM: -1,
	OP_INEG: 0, OP_IXOR: -1,
	OP_I2L: 1, OP_LADD: -2, OP_LCMP: -3,
	OP_IFEQ: -1, OP_IFNE: -1, OP_IFLT: -1, OP_IFGE: -1, OP_IFGT: -1, OP_IFLE: -1,
	OP_IF_ICMPEQ: -2, OP_IF_ICMPNE: -2, OP_IF_ICMPLT: -2,
	OP_IF_ICMPGE: -2, OP_IF_ICMPGT: -2, OP_IF_ICMPLE: -2,
	OP_IF_ACMPEQ: -2, OP_IF_ACMPNE: -2,
	OP_IFNULL: -1, OP_IFNONNULL: -1,
	OP_GOTO:    0,
	OP_IRETURN: -1, OP_ARETURN: -1, OP_RETURN: 0,
	OP_NEW: 1, OP_NEWARRAY: 0, OP_ANEWARRAY: 0,
	OP_ARRAYLENGTH: 0, OP_ATHROW: -1,
	OP_CHECKCAST: 0, OP_INSTANCEOF: 0,
}

// IsBranch reports whether op takes a 16-bit branch offset.
func (op Opcode) IsBranch() bool {
	return (op >= OP_IFEQ && op <= 0xa8) || op == OP_IFNULL || op == OP_IFNONNULL
}

// endsBlock reports whether control never falls through op.
func (op Opcode) endsBlock() bool {
	switch op {
	case OP_GOTO, OP_IRETURN, OP_ARETURN, OP_RETURN, OP_ATHROW:
		return true
	}
	return false
}

// Negate returns the conditional branch with the opposite condition.
func (op Opcode) Negate() Opcode {
	switch op {
	case OP_IFEQ, OP_IF_ICMPEQ, OP_IF_ACMPEQ:
		return op + 1
	case OP_IFNE, OP_IF_ICMPNE, OP_IF_ACMPNE:
		return op - 1
	case OP_IFLT, OP_IF_ICMPLT:
		return op + 1 // ge
	case OP_IFGE, OP_IF_ICMPGE:
		return op - 1 // lt
	case OP_IFGT, OP_IF_ICMPGT:
		return op + 1 // le
	case OP_IFLE, OP_IF_ICMPLE:
		return op - 1 // gt
	case OP_IFNULL:
		return OP_IFNONNULL
	case OP_IFNONNULL:
		return OP_IFNULL
	}
	return op
}
