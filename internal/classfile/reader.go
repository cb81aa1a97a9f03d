package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var errTruncated = errors.New("truncated class file")

// PoolEntry is one decoded constant pool entry.
type PoolEntry struct {
	Tag  byte
	Utf8 string
	Int  int64   // Integer and Long values
	Num  float64 // Float and Double values
	Ref1 uint16
	Ref2 uint16
}

// Member is a field or method of a parsed class.
type Member struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Code        *CodeAttribute // methods only, nil when abstract or native
}

type CodeAttribute struct {
	MaxStack  uint16
	MaxLocals uint16
	Code      []byte
}

// ParsedClass is a class file read back from bytes.
type ParsedClass struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         []PoolEntry // index 0 unused
	AccessFlags  uint16
	ThisClass    string
	SuperClass   string
	Interfaces   []string
	Fields       []Member
	Methods      []Member
	SourceFile   string
}

// Method looks a method up by name.
func (pc *ParsedClass) Method(name string) *Member {
	for i := range pc.Methods {
		if pc.Methods[i].Name == name {
			return &pc.Methods[i]
		}
	}
	return nil
}

type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = errTruncated
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u1() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u2() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u4() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Parse decodes a class file.
func Parse(data []byte) (*ParsedClass, error) {
	r := &reader{data: data}
	if magic := r.u4(); r.err == nil && magic != Magic {
		return nil, fmt.Errorf("not a class file: magic %#x", magic)
	}
	pc := &ParsedClass{}
	pc.MinorVersion = r.u2()
	pc.MajorVersion = r.u2()
	if err := pc.readPool(r); err != nil {
		return nil, err
	}

	pc.AccessFlags = r.u2()
	var err error
	if pc.ThisClass, err = pc.className(r.u2()); err != nil {
		return nil, err
	}
	if super := r.u2(); super != 0 {
		if pc.SuperClass, err = pc.className(super); err != nil {
			return nil, err
		}
	}
	for n := int(r.u2()); n > 0 && r.err == nil; n-- {
		name, err := pc.className(r.u2())
		if err != nil {
			return nil, err
		}
		pc.Interfaces = append(pc.Interfaces, name)
	}
	if pc.Fields, err = pc.readMembers(r); err != nil {
		return nil, err
	}
	if pc.Methods, err = pc.readMembers(r); err != nil {
		return nil, err
	}
	for n := int(r.u2()); n > 0 && r.err == nil; n-- {
		name, err := pc.utf8(r.u2())
		if err != nil {
			return nil, err
		}
		body := r.take(int(r.u4()))
		if name == "SourceFile" && len(body) == 2 {
			if pc.SourceFile, err = pc.utf8(binary.BigEndian.Uint16(body)); err != nil {
				return nil, err
			}
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.pos != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after class file", len(data)-r.pos)
	}
	return pc, nil
}

func (pc *ParsedClass) readPool(r *reader) error {
	count := int(r.u2())
	pc.Pool = make([]PoolEntry, count)
	for i := 1; i < count; i++ {
		e := PoolEntry{Tag: r.u1()}
		switch e.Tag {
		case TagUtf8:
			s, err := DecodeModifiedUTF8(r.take(int(r.u2())))
			if err != nil {
				return fmt.Errorf("constant %d: %w", i, err)
			}
			e.Utf8 = s
		case TagInteger:
			e.Int = int64(int32(r.u4()))
		case TagFloat:
			e.Num = float64(math.Float32frombits(r.u4()))
		case TagLong:
			e.Int = int64(uint64(r.u4())<<32 | uint64(r.u4()))
		case TagDouble:
			e.Num = math.Float64frombits(uint64(r.u4())<<32 | uint64(r.u4()))
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			e.Ref1 = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			e.Ref1 = r.u2()
			e.Ref2 = r.u2()
		case TagMethodHandle:
			e.Ref1 = uint16(r.u1())
			e.Ref2 = r.u2()
		default:
			if r.err != nil {
				return r.err
			}
			return fmt.Errorf("constant %d: unknown tag %d", i, e.Tag)
		}
		pc.Pool[i] = e
		if e.Tag == TagLong || e.Tag == TagDouble {
			i++ // takes two entries
		}
	}
	return r.err
}

func (pc *ParsedClass) readMembers(r *reader) ([]Member, error) {
	var members []Member
	for n := int(r.u2()); n > 0 && r.err == nil; n-- {
		m := Member{AccessFlags: r.u2()}
		var err error
		if m.Name, err = pc.utf8(r.u2()); err != nil {
			return nil, err
		}
		if m.Descriptor, err = pc.utf8(r.u2()); err != nil {
			return nil, err
		}
		for a := int(r.u2()); a > 0 && r.err == nil; a-- {
			name, err := pc.utf8(r.u2())
			if err != nil {
				return nil, err
			}
			body := r.take(int(r.u4()))
			if name == "Code" && body != nil {
				if m.Code, err = parseCode(body); err != nil {
					return nil, fmt.Errorf("method %s: %w", m.Name, err)
				}
			}
		}
		members = append(members, m)
	}
	return members, r.err
}

func parseCode(body []byte) (*CodeAttribute, error) {
	r := &reader{data: body}
	ca := &CodeAttribute{MaxStack: r.u2(), MaxLocals: r.u2()}
	ca.Code = r.take(int(r.u4()))
	return ca, r.err
}

func (pc *ParsedClass) entry(idx uint16, tag byte) (PoolEntry, error) {
	if idx == 0 || int(idx) >= len(pc.Pool) || pc.Pool[idx].Tag != tag {
		return PoolEntry{}, fmt.Errorf("bad constant pool reference #%d", idx)
	}
	return pc.Pool[idx], nil
}

func (pc *ParsedClass) utf8(idx uint16) (string, error) {
	e, err := pc.entry(idx, TagUtf8)
	return e.Utf8, err
}

func (pc *ParsedClass) className(idx uint16) (string, error) {
	e, err := pc.entry(idx, TagClass)
	if err != nil {
		return "", err
	}
	return pc.utf8(e.Ref1)
}

// Constant renders a pool entry the way the disassembler prints operands.
func (pc *ParsedClass) Constant(idx uint16) string {
	if idx == 0 || int(idx) >= len(pc.Pool) {
		return fmt.Sprintf("#%d", idx)
	}
	e := pc.Pool[idx]
	switch e.Tag {
	case TagUtf8:
		return e.Utf8
	case TagInteger, TagLong:
		return strconv.FormatInt(e.Int, 10)
	case TagFloat, TagDouble:
		return strconv.FormatFloat(e.Num, 'g', -1, 64)
	case TagClass, TagModule, TagPackage, TagMethodType:
		return pc.Constant(e.Ref1)
	case TagString:
		return strconv.Quote(pc.Constant(e.Ref1))
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		return pc.Constant(e.Ref1) + "." + pc.Constant(e.Ref2)
	case TagNameAndType:
		return pc.Constant(e.Ref1) + ":" + pc.Constant(e.Ref2)
	case TagDynamic, TagInvokeDynamic:
		return fmt.Sprintf("#%d:%s", e.Ref1, pc.Constant(e.Ref2))
	case TagMethodHandle:
		return fmt.Sprintf("%d:%s", e.Ref1, pc.Constant(e.Ref2))
	}
	return fmt.Sprintf("#%d", idx)
}
