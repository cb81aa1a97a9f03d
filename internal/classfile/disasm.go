package classfile

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Instruction is one decoded instruction.
type Instruction struct {
	Offset  int
	Op      Opcode
	Operand string // rendered operands, empty when there are none
}

func (in Instruction) String() string {
	if in.Operand == "" {
		return in.Op.String()
	}
	return in.Op.String() + " " + in.Operand
}

// Instructions decodes a method body.
func (pc *ParsedClass) Instructions(code []byte) ([]Instruction, error) {
	var out []Instruction
	for offset := 0; offset < len(code); {
		in, size, err := pc.decode(code, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
		offset += size
	}
	return out, nil
}

func s1(b byte) int { return int(int8(b)) }

func s2(b []byte) int { return int(int16(binary.BigEndian.Uint16(b))) }

func s4(b []byte) int { return int(int32(binary.BigEndian.Uint32(b))) }

func (pc *ParsedClass) decode(code []byte, offset int) (Instruction, int, error) {
	op := Opcode(code[offset])
	in := Instruction{Offset: offset, Op: op}
	need := func(n int) error {
		if offset+n > len(code) {
			return fmt.Errorf("truncated %s at offset %d", op, offset)
		}
		return nil
	}
	if int(op) >= len(mnemonics) {
		return in, 0, fmt.Errorf("unknown opcode %#x at offset %d", byte(op), offset)
	}

	switch {
	case op == OP_BIPUSH, op == 0xbc: // newarray
		if err := need(2); err != nil {
			return in, 0, err
		}
		if op == OP_BIPUSH {
			in.Operand = fmt.Sprint(s1(code[offset+1]))
		} else {
			in.Operand = arrayTypeName(code[offset+1])
		}
		return in, 2, nil
	case op == OP_SIPUSH:
		if err := need(3); err != nil {
			return in, 0, err
		}
		in.Operand = fmt.Sprint(s2(code[offset+1:]))
		return in, 3, nil
	case op == OP_LDC:
		if err := need(2); err != nil {
			return in, 0, err
		}
		in.Operand = pc.Constant(uint16(code[offset+1]))
		return in, 2, nil
	case op >= 0x15 && op <= 0x19, op >= 0x36 && op <= 0x3a, op == 0xa9: // xload, xstore, ret
		if err := need(2); err != nil {
			return in, 0, err
		}
		in.Operand = fmt.Sprint(code[offset+1])
		return in, 2, nil
	case op == OP_IINC:
		if err := need(3); err != nil {
			return in, 0, err
		}
		in.Operand = fmt.Sprintf("%d %d", code[offset+1], s1(code[offset+2]))
		return in, 3, nil
	case op.IsBranch():
		if err := need(3); err != nil {
			return in, 0, err
		}
		in.Operand = fmt.Sprint(offset + s2(code[offset+1:]))
		return in, 3, nil
	case op == 0xc8 || op == 0xc9: // goto_w, jsr_w
		if err := need(5); err != nil {
			return in, 0, err
		}
		in.Operand = fmt.Sprint(offset + s4(code[offset+1:]))
		return in, 5, nil
	case op == OP_LDC_W, op == 0x14, op >= OP_GETSTATIC && op <= OP_INVOKESTATIC,
		op == OP_NEW, op == OP_ANEWARRAY, op == OP_CHECKCAST, op == OP_INSTANCEOF:
		if err := need(3); err != nil {
			return in, 0, err
		}
		in.Operand = pc.Constant(binary.BigEndian.Uint16(code[offset+1:]))
		return in, 3, nil
	case op == OP_INVOKEINTERFACE, op == 0xba: // invokedynamic
		if err := need(5); err != nil {
			return in, 0, err
		}
		in.Operand = pc.Constant(binary.BigEndian.Uint16(code[offset+1:]))
		return in, 5, nil
	case op == 0xc5: // multianewarray
		if err := need(4); err != nil {
			return in, 0, err
		}
		in.Operand = fmt.Sprintf("%s %d", pc.Constant(binary.BigEndian.Uint16(code[offset+1:])), code[offset+3])
		return in, 4, nil
	case op == OP_WIDE:
		if err := need(4); err != nil {
			return in, 0, err
		}
		inner := Opcode(code[offset+1])
		slot := binary.BigEndian.Uint16(code[offset+2:])
		if inner == OP_IINC {
			if err := need(6); err != nil {
				return in, 0, err
			}
			in.Operand = fmt.Sprintf("iinc %d %d", slot, s2(code[offset+4:]))
			return in, 6, nil
		}
		in.Operand = fmt.Sprintf("%s %d", inner, slot)
		return in, 4, nil
	case op == 0xaa || op == 0xab: // tableswitch, lookupswitch
		return pc.decodeSwitch(code, offset)
	}
	return in, 1, nil
}

func (pc *ParsedClass) decodeSwitch(code []byte, offset int) (Instruction, int, error) {
	op := Opcode(code[offset])
	in := Instruction{Offset: offset, Op: op}
	pos := offset + 1
	for pos%4 != 0 {
		pos++
	}
	word := func() (int, error) {
		if pos+4 > len(code) {
			return 0, fmt.Errorf("truncated %s at offset %d", op, offset)
		}
		v := s4(code[pos:])
		pos += 4
		return v, nil
	}
	def, err := word()
	if err != nil {
		return in, 0, err
	}
	var cases []string
	if op == 0xaa {
		low, err := word()
		if err != nil {
			return in, 0, err
		}
		high, err := word()
		if err != nil {
			return in, 0, err
		}
		for k := low; k <= high; k++ {
			target, err := word()
			if err != nil {
				return in, 0, err
			}
			cases = append(cases, fmt.Sprintf("%d:%d", k, offset+target))
		}
	} else {
		n, err := word()
		if err != nil {
			return in, 0, err
		}
		for ; n > 0; n-- {
			key, err := word()
			if err != nil {
				return in, 0, err
			}
			target, err := word()
			if err != nil {
				return in, 0, err
			}
			cases = append(cases, fmt.Sprintf("%d:%d", key, offset+target))
		}
	}
	cases = append(cases, fmt.Sprintf("default:%d", offset+def))
	in.Operand = "{" + strings.Join(cases, " ") + "}"
	return in, pos - offset, nil
}

func arrayTypeName(atype byte) string {
	names := map[byte]string{4: "boolean", 5: "char", 6: "float", 7: "double", 8: "byte", 9: "short", 10: "int", 11: "long"}
	if n, ok := names[atype]; ok {
		return n
	}
	return fmt.Sprintf("type%d", atype)
}

func accessString(flags uint16) string {
	var parts []string
	for _, f := range []struct {
		bit  uint16
		name string
	}{
		{AccPublic, "public"},
		{AccPrivate, "private"},
		{0x0004, "protected"},
		{AccStatic, "static"},
		{AccFinal, "final"},
		{AccSynthetic, "synthetic"},
	} {
		if flags&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, " ")
}

// Disassemble renders a class file as text: the header, then every method
// with its instructions.
func Disassemble(data []byte) (string, error) {
	pc, err := Parse(data)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("class %s extends %s (version %d.%d)\n", pc.ThisClass, pc.SuperClass, pc.MajorVersion, pc.MinorVersion))
	if pc.SourceFile != "" {
		sb.WriteString(fmt.Sprintf("  source %s\n", pc.SourceFile))
	}
	for _, m := range pc.Methods {
		sb.WriteString("\n")
		if acc := accessString(m.AccessFlags); acc != "" {
			sb.WriteString(acc + " ")
		}
		sb.WriteString(m.Name + m.Descriptor + "\n")
		if m.Code == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("  stack=%d locals=%d\n", m.Code.MaxStack, m.Code.MaxLocals))
		ins, err := pc.Instructions(m.Code.Code)
		if err != nil {
			return "", fmt.Errorf("method %s: %w", m.Name, err)
		}
		for _, in := range ins {
			sb.WriteString(fmt.Sprintf("  %4d: %s\n", in.Offset, in))
		}
	}
	return sb.String(), nil
}
