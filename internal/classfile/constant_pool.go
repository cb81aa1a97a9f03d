package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
	"unicode/utf8"
)

// Constant pool tags.
const (
	TagUtf8               byte = 1
	TagInteger            byte = 3
	TagFloat              byte = 4
	TagLong               byte = 5
	TagDouble             byte = 6
	TagClass              byte = 7
	TagString             byte = 8
	TagFieldref           byte = 9
	TagMethodref          byte = 10
	TagInterfaceMethodref byte = 11
	TagNameAndType        byte = 12
	TagMethodHandle       byte = 15
	TagMethodType         byte = 16
	TagDynamic            byte = 17
	TagInvokeDynamic      byte = 18
	TagModule             byte = 19
	TagPackage            byte = 20
)

const maxPoolSize = math.MaxUint16

type constant struct {
	tag  byte
	data []byte // encoded payload, without the tag
}

// ConstantPool collects the constants of one class. Every entry is added at
// most once; asking for the same constant again returns its index.
type ConstantPool struct {
	entries []constant
	index   map[string]uint16
	err     error
}

func NewConstantPool() *ConstantPool {
	return &ConstantPool{index: make(map[string]uint16)}
}

// Len is the constant_pool_count written to the class file.
func (cp *ConstantPool) Len() int {
	return len(cp.entries) + 1
}

// Err reports the first overflow, if any.
func (cp *ConstantPool) Err() error {
	return cp.err
}

func (cp *ConstantPool) add(key string, tag byte, data []byte) uint16 {
	if idx, ok := cp.index[key]; ok {
		return idx
	}
	if len(cp.entries)+1 >= maxPoolSize {
		if cp.err == nil {
			cp.err = fmt.Errorf("%w: more than %d constants", ErrLimit, maxPoolSize-1)
		}
		return 0
	}
	cp.entries = append(cp.entries, constant{tag: tag, data: data})
	idx := uint16(len(cp.entries))
	cp.index[key] = idx
	return idx
}

func u2(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func (cp *ConstantPool) Utf8(s string) uint16 {
	enc := ModifiedUTF8(s)
	if len(enc) > math.MaxUint16 {
		if cp.err == nil {
			cp.err = fmt.Errorf("%w: string constant of %d bytes", ErrLimit, len(enc))
		}
		return 0
	}
	return cp.add("U"+s, TagUtf8, append(u2(uint16(len(enc))), enc...))
}

func (cp *ConstantPool) Integer(v int32) uint16 {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, uint32(v))
	return cp.add(fmt.Sprintf("I%d", v), TagInteger, data)
}

// Class takes an internal name such as java/lang/Object or [I.
func (cp *ConstantPool) Class(name string) uint16 {
	return cp.add("C"+name, TagClass, u2(cp.Utf8(name)))
}

func (cp *ConstantPool) StringConst(s string) uint16 {
	return cp.add("S"+s, TagString, u2(cp.Utf8(s)))
}

func (cp *ConstantPool) NameAndType(name, desc string) uint16 {
	return cp.add("N"+name+":"+desc, TagNameAndType, append(u2(cp.Utf8(name)), u2(cp.Utf8(desc))...))
}

func (cp *ConstantPool) member(tag byte, prefix, owner, name, desc string) uint16 {
	data := append(u2(cp.Class(owner)), u2(cp.NameAndType(name, desc))...)
	return cp.add(prefix+owner+"."+name+":"+desc, tag, data)
}

func (cp *ConstantPool) Fieldref(owner, name, desc string) uint16 {
	return cp.member(TagFieldref, "F", owner, name, desc)
}

func (cp *ConstantPool) Methodref(owner, name, desc string) uint16 {
	return cp.member(TagMethodref, "M", owner, name, desc)
}

func (cp *ConstantPool) InterfaceMethodref(owner, name, desc string) uint16 {
	return cp.member(TagInterfaceMethodref, "IM", owner, name, desc)
}

// ModifiedUTF8 encodes s the way class files store strings: NUL takes two
// bytes and characters outside the BMP are written as surrogate pairs.
func ModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xc0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			out = appendUnit(out, hi)
			out = appendUnit(out, lo)
		default:
			out = appendUnit(out, r)
		}
	}
	return out
}

func appendUnit(out []byte, u rune) []byte {
	if u < 0x800 {
		return append(out, byte(0xc0|u>>6), byte(0x80|u&0x3f))
	}
	return append(out, byte(0xe0|u>>12), byte(0x80|(u>>6)&0x3f), byte(0x80|u&0x3f))
}

// DecodeModifiedUTF8 reverses ModifiedUTF8.
func DecodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xe0 == 0xc0 && i+1 < len(b):
			units = append(units, uint16(c&0x1f)<<6|uint16(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0 && i+2 < len(b):
			units = append(units, uint16(c&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			return "", fmt.Errorf("malformed modified UTF-8 at byte %d", i)
		}
	}
	runes := utf16.Decode(units)
	buf := make([]byte, 0, len(runes))
	for _, r := range runes {
		buf = utf8.AppendRune(buf, r)
	}
	return string(buf), nil
}
