package classfile

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrLimit marks errors caused by a class file format limit rather than by
// misuse of the builder.
var ErrLimit = errors.New("class file limit exceeded")

// Label marks a position in a Code body. It may be jumped to before it is
// bound; the branch offsets are patched when it is.
type Label struct {
	offset int // -1 until bound
	depth  int // operand stack depth at the label, -1 until known
	fixups []fixup
}

type fixup struct {
	at   int // position of the 16-bit offset
	from int // start of the branch instruction
}

// LocalKind selects between the int and reference forms of load and store.
type LocalKind int

const (
	IntLocal LocalKind = iota
	RefLocal
)

// Code builds the body of one method. It tracks the operand stack depth of
// every instruction and the number of local slots in use.
//
// Instructions emitted while the current position is unreachable (after a
// goto, return or athrow, and before a label something jumps to) are
// dropped, so dead code never reaches the class file.
type Code struct {
	pool      *ConstantPool
	code      []byte
	depth     int
	maxStack  int
	maxLocals int
	reachable bool
	err       error
}

// NewCode starts an empty body whose first params slots hold the arguments.
func NewCode(pool *ConstantPool, params int) *Code {
	return &Code{pool: pool, maxLocals: params, reachable: true}
}

func (c *Code) Bytes() []byte   { return c.code }
func (c *Code) Len() int        { return len(c.code) }
func (c *Code) MaxStack() int   { return c.maxStack }
func (c *Code) MaxLocals() int  { return c.maxLocals }
func (c *Code) Depth() int      { return c.depth }
func (c *Code) Reachable() bool { return c.reachable }

// Err returns the first misuse of the builder.
func (c *Code) Err() error { return c.err }

func (c *Code) fail(format string, args ...interface{}) {
	if c.err == nil {
		c.err = fmt.Errorf(format, args...)
	}
}

func (c *Code) adjust(delta int) {
	c.depth += delta
	if c.depth < 0 {
		c.fail("operand stack underflow at offset %d", len(c.code))
		c.depth = 0
	}
	if c.depth > c.maxStack {
		c.maxStack = c.depth
	}
}

func (c *Code) write(b ...byte) {
	c.code = append(c.code, b...)
}

func (c *Code) write2(v uint16) {
	c.code = append(c.code, byte(v>>8), byte(v))
}

func (c *Code) useLocal(slot int) {
	if slot+1 > c.maxLocals {
		c.maxLocals = slot + 1
	}
}

func (c *Code) endBlock(op Opcode) {
	if op.endsBlock() {
		c.reachable = false
		c.depth = 0
	}
}

// Emit writes an instruction without operands.
func (c *Code) Emit(op Opcode) {
	if !c.reachable {
		return
	}
	delta, ok := stackEffect[op]
	if !ok {
		c.fail("%s needs operands", op)
		return
	}
	c.write(byte(op))
	c.adjust(delta)
	c.endBlock(op)
}

// PushInt pushes an int constant.
func (c *Code) PushInt(v int32) {
	if v >= -1 && v <= 5 {
		c.Emit(OP_ICONST_0 + Opcode(v))
		return
	}
	c.ldc(c.pool.Integer(v))
}

// PushBool pushes 1 or 0.
func (c *Code) PushBool(v bool) {
	if v {
		c.Emit(OP_ICONST_1)
	} else {
		c.Emit(OP_ICONST_0)
	}
}

// PushString pushes a string constant.
func (c *Code) PushString(s string) {
	c.ldc(c.pool.StringConst(s))
}

// PushClass pushes the java.lang.Class of an internal name.
func (c *Code) PushClass(name string) {
	c.ldc(c.pool.Class(name))
}

func (c *Code) ldc(idx uint16) {
	if !c.reachable {
		return
	}
	if idx <= math.MaxUint8 {
		c.write(byte(OP_LDC), byte(idx))
	} else {
		c.write(byte(OP_LDC_W))
		c.write2(idx)
	}
	c.adjust(1)
}

func (c *Code) local(short, long Opcode, slot int) {
	switch {
	case slot < 0 || slot > math.MaxUint16:
		c.fail("%w: local slot %d", ErrLimit, slot)
	case slot <= 3:
		c.write(byte(short) + byte(slot))
	case slot <= math.MaxUint8:
		c.write(byte(long), byte(slot))
	default:
		c.write(byte(OP_WIDE), byte(long))
		c.write2(uint16(slot))
	}
	c.useLocal(slot)
}

func (c *Code) Load(kind LocalKind, slot int) {
	if !c.reachable {
		return
	}
	if kind == RefLocal {
		c.local(OP_ALOAD_0, OP_ALOAD, slot)
	} else {
		c.local(OP_ILOAD_0, OP_ILOAD, slot)
	}
	c.adjust(1)
}

func (c *Code) Store(kind LocalKind, slot int) {
	if !c.reachable {
		return
	}
	if kind == RefLocal {
		c.local(OP_ASTORE_0, OP_ASTORE, slot)
	} else {
		c.local(OP_ISTORE_0, OP_ISTORE, slot)
	}
	c.adjust(-1)
}

// Iinc adds delta to an int local in place.
func (c *Code) Iinc(slot int, delta int32) {
	if !c.reachable {
		return
	}
	switch {
	case delta < math.MinInt16 || delta > math.MaxInt16:
		c.fail("iinc delta %d out of range", delta)
	case slot <= math.MaxUint8 && delta >= math.MinInt8 && delta <= math.MaxInt8:
		c.write(byte(OP_IINC), byte(slot), byte(int8(delta)))
	default:
		c.write(byte(OP_WIDE), byte(OP_IINC))
		c.write2(uint16(slot))
		c.write2(uint16(int16(delta)))
	}
	c.useLocal(slot)
}

func (c *Code) NewLabel() *Label {
	return &Label{offset: -1, depth: -1}
}

// Jump emits a branch to l. op is goto or any conditional branch.
func (c *Code) Jump(op Opcode, l *Label) {
	if !c.reachable {
		return
	}
	if !op.IsBranch() {
		c.fail("%s is not a branch", op)
		return
	}
	from := len(c.code)
	c.write(byte(op), 0, 0)
	c.adjust(stackEffect[op])
	c.arrive(l)
	if l.offset >= 0 {
		c.patch(fixup{at: from + 1, from: from}, l.offset)
	} else {
		l.fixups = append(l.fixups, fixup{at: from + 1, from: from})
	}
	c.endBlock(op)
}

// arrive records that control reaches l with the current stack depth.
func (c *Code) arrive(l *Label) {
	switch {
	case l.depth < 0 && l.offset >= 0:
		c.fail("jump to a label bound in unreachable code")
	case l.depth < 0:
		l.depth = c.depth
	case l.depth != c.depth:
		c.fail("inconsistent stack depth at label: %d and %d", l.depth, c.depth)
	}
}

func (c *Code) patch(f fixup, target int) {
	rel := target - f.from
	if rel < math.MinInt16 || rel > math.MaxInt16 {
		c.fail("%w: branch offset %d", ErrLimit, rel)
		return
	}
	c.code[f.at] = byte(uint16(int16(rel)) >> 8)
	c.code[f.at+1] = byte(uint16(int16(rel)))
}

// Bind places l at the current position. Binding a label that something
// jumps to makes the position reachable again.
func (c *Code) Bind(l *Label) {
	if l.offset >= 0 {
		c.fail("label bound twice")
		return
	}
	if c.reachable {
		c.arrive(l)
	} else if l.depth >= 0 {
		c.reachable = true
		c.depth = l.depth
	}
	l.offset = len(c.code)
	for _, f := range l.fixups {
		c.patch(f, l.offset)
	}
	l.fixups = nil
}

// Field emits getstatic, putstatic, getfield or putfield.
func (c *Code) Field(op Opcode, owner, name, desc string) {
	if !c.reachable {
		return
	}
	size := slotSize(desc)
	var delta int
	switch op {
	case OP_GETSTATIC:
		delta = size
	case OP_PUTSTATIC:
		delta = -size
	case OP_GETFIELD:
		delta = size - 1
	case OP_PUTFIELD:
		delta = -size - 1
	default:
		c.fail("%s is not a field instruction", op)
		return
	}
	c.write(byte(op))
	c.write2(c.pool.Fieldref(owner, name, desc))
	c.adjust(delta)
}

// Invoke emits a method call; the stack effect follows from desc.
func (c *Code) Invoke(op Opcode, owner, name, desc string) {
	if !c.reachable {
		return
	}
	args, ret, err := DescriptorSlots(desc)
	if err != nil {
		c.fail("%v", err)
		return
	}
	delta := ret - args
	switch op {
	case OP_INVOKESTATIC:
		c.write(byte(op))
		c.write2(c.pool.Methodref(owner, name, desc))
	case OP_INVOKEVIRTUAL, OP_INVOKESPECIAL:
		c.write(byte(op))
		c.write2(c.pool.Methodref(owner, name, desc))
		delta--
	case OP_INVOKEINTERFACE:
		c.write(byte(op))
		c.write2(c.pool.InterfaceMethodref(owner, name, desc))
		c.write(byte(args+1), 0)
		delta--
	default:
		c.fail("%s is not an invoke instruction", op)
		return
	}
	c.adjust(delta)
}

// TypeOp emits new, anewarray, checkcast or instanceof.
func (c *Code) TypeOp(op Opcode, class string) {
	if !c.reachable {
		return
	}
	switch op {
	case OP_NEW, OP_ANEWARRAY, OP_CHECKCAST, OP_INSTANCEOF:
	default:
		c.fail("%s does not take a class operand", op)
		return
	}
	c.write(byte(op))
	c.write2(c.pool.Class(class))
	c.adjust(stackEffect[op])
}

// NewArray emits newarray for a primitive element type.
func (c *Code) NewArray(atype byte) {
	if !c.reachable {
		return
	}
	c.write(byte(OP_NEWARRAY), atype)
}

// Finish checks that every label that was jumped to has been bound.
func (c *Code) Finish(labels ...*Label) error {
	for _, l := range labels {
		if len(l.fixups) > 0 {
			c.fail("label jumped to but never bound")
		}
	}
	if len(c.code) == 0 {
		c.fail("empty method body")
	}
	if len(c.code) > math.MaxUint16 {
		c.fail("%w: method body of %d bytes", ErrLimit, len(c.code))
	}
	return c.err
}

// DescriptorSlots returns the argument slots and return slots of a method
// descriptor such as (ILjava/lang/String;)V.
func DescriptorSlots(desc string) (args, ret int, err error) {
	if !strings.HasPrefix(desc, "(") {
		return 0, 0, fmt.Errorf("malformed method descriptor %q", desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		n, size := fieldType(desc[i:])
		if n == 0 {
			return 0, 0, fmt.Errorf("malformed method descriptor %q", desc)
		}
		args += size
		i += n
	}
	if i >= len(desc) {
		return 0, 0, fmt.Errorf("malformed method descriptor %q", desc)
	}
	rest := desc[i+1:]
	if rest == "V" {
		return args, 0, nil
	}
	n, size := fieldType(rest)
	if n == 0 || n != len(rest) {
		return 0, 0, fmt.Errorf("malformed method descriptor %q", desc)
	}
	return args, size, nil
}

// fieldType measures the field descriptor at the start of s: its length and
// the number of slots a value of it occupies. A zero length means malformed.
func fieldType(s string) (n, slots int) {
	if s == "" {
		return 0, 0
	}
	switch s[0] {
	case 'B', 'C', 'F', 'I', 'S', 'Z':
		return 1, 1
	case 'J', 'D':
		return 1, 2
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return 0, 0
		}
		return end + 1, 1
	case '[':
		n, _ := fieldType(s[1:])
		if n == 0 {
			return 0, 0
		}
		return n + 1, 1
	}
	return 0, 0
}

func slotSize(desc string) int {
	if desc == "J" || desc == "D" {
		return 2
	}
	return 1
}
