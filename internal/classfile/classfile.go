package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const Magic uint32 = 0xCAFEBABE

// Access flags.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSuper     uint16 = 0x0020
	AccSynthetic uint16 = 0x1000
)

// ClassFile is a class being assembled.
type ClassFile struct {
	MajorVersion uint16
	MinorVersion uint16
	AccessFlags  uint16
	ThisClass    string
	SuperClass   string
	SourceFile   string // omitted when empty
	Pool         *ConstantPool
	Methods      []*Method
}

// Method is one method with its body.
type Method struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Code        *Code
}

// New starts a public class extending super.
func New(name, super string, major uint16) *ClassFile {
	return &ClassFile{
		MajorVersion: major,
		AccessFlags:  AccPublic | AccSuper,
		ThisClass:    name,
		SuperClass:   super,
		Pool:         NewConstantPool(),
	}
}

// AddMethod declares a method and returns it with an empty body sized for
// its arguments.
func (cf *ClassFile) AddMethod(flags uint16, name, desc string) (*Method, error) {
	for _, m := range cf.Methods {
		if m.Name == name && m.Descriptor == desc {
			return nil, fmt.Errorf("duplicate method %s%s", name, desc)
		}
	}
	args, _, err := DescriptorSlots(desc)
	if err != nil {
		return nil, err
	}
	if flags&AccStatic == 0 {
		args++ // this
	}
	m := &Method{AccessFlags: flags, Name: name, Descriptor: desc, Code: NewCode(cf.Pool, args)}
	cf.Methods = append(cf.Methods, m)
	return m, nil
}

// Method looks a method up by name.
func (cf *ClassFile) Method(name string) *Method {
	for _, m := range cf.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Bytes serializes the class.
func (cf *ClassFile) Bytes() ([]byte, error) {
	cp := cf.Pool
	thisIdx := cp.Class(cf.ThisClass)
	superIdx := cp.Class(cf.SuperClass)
	codeName := cp.Utf8("Code")
	type methodIdx struct{ name, desc uint16 }
	idx := make([]methodIdx, len(cf.Methods))
	for i, m := range cf.Methods {
		idx[i] = methodIdx{cp.Utf8(m.Name), cp.Utf8(m.Descriptor)}
	}
	var sourceName, sourceValue uint16
	if cf.SourceFile != "" {
		sourceName = cp.Utf8("SourceFile")
		sourceValue = cp.Utf8(cf.SourceFile)
	}
	if err := cp.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := func(v interface{}) {
		binary.Write(&buf, binary.BigEndian, v)
	}

	w(Magic)
	w(cf.MinorVersion)
	w(cf.MajorVersion)

	w(uint16(cp.Len()))
	for _, c := range cp.entries {
		buf.WriteByte(c.tag)
		buf.Write(c.data)
	}

	w(cf.AccessFlags)
	w(thisIdx)
	w(superIdx)
	w(uint16(0)) // interfaces
	w(uint16(0)) // fields

	w(uint16(len(cf.Methods)))
	for i, m := range cf.Methods {
		code := m.Code
		if err := code.Err(); err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		w(m.AccessFlags)
		w(idx[i].name)
		w(idx[i].desc)
		w(uint16(1)) // attributes
		w(codeName)
		w(uint32(12 + code.Len()))
		w(uint16(code.MaxStack()))
		w(uint16(code.MaxLocals()))
		w(uint32(code.Len()))
		buf.Write(code.Bytes())
		w(uint16(0)) // exception table
		w(uint16(0)) // code attributes
	}

	if cf.SourceFile != "" {
		w(uint16(1))
		w(sourceName)
		w(uint32(2))
		w(sourceValue)
	} else {
		w(uint16(0))
	}
	return buf.Bytes(), nil
}
