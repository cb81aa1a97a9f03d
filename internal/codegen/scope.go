package codegen

import (
	"math"

	"github.com/funvibe/ktjvm/internal/classfile"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// local is a variable's slot in the current method.
type local struct {
	slot int
	typ  typesystem.Type
}

type loopLabels struct {
	breakTo    *classfile.Label
	continueTo *classfile.Label
}

// funcContext is the state of the method being emitted. Slots are handed
// out monotonically and never reused, so a slot always holds one type.
type funcContext struct {
	code   *classfile.Code
	ret    typesystem.Type
	slots  map[*symbols.Symbol]local
	next   int
	loops  []loopLabels
	labels []*classfile.Label
}

func newFuncContext(code *classfile.Code, ret typesystem.Type) *funcContext {
	return &funcContext{
		code:  code,
		ret:   ret,
		slots: make(map[*symbols.Symbol]local),
	}
}

// declare gives sym the next free slot.
func (fc *funcContext) declare(sym *symbols.Symbol, tok token.Token) (local, error) {
	if _, ok := fc.slots[sym]; ok {
		return local{}, diagnostics.NewErrorf(diagnostics.ErrG002, tok, "'%s' already has a slot", sym.Name)
	}
	l, err := fc.scratch(sym.Type, tok)
	if err != nil {
		return local{}, err
	}
	fc.slots[sym] = l
	return l, nil
}

// scratch reserves an anonymous slot.
func (fc *funcContext) scratch(t typesystem.Type, tok token.Token) (local, error) {
	if fc.next > math.MaxUint16 {
		return local{}, diagnostics.NewError(diagnostics.ErrG001, tok, "too many local variables")
	}
	l := local{slot: fc.next, typ: t}
	fc.next++
	return l, nil
}

func (fc *funcContext) lookup(sym *symbols.Symbol) (local, bool) {
	l, ok := fc.slots[sym]
	return l, ok
}

func (fc *funcContext) label() *classfile.Label {
	l := fc.code.NewLabel()
	fc.labels = append(fc.labels, l)
	return l
}

func (fc *funcContext) pushLoop(breakTo, continueTo *classfile.Label) {
	fc.loops = append(fc.loops, loopLabels{breakTo: breakTo, continueTo: continueTo})
}

func (fc *funcContext) popLoop() {
	fc.loops = fc.loops[:len(fc.loops)-1]
}

func (fc *funcContext) innermostLoop() (loopLabels, bool) {
	if len(fc.loops) == 0 {
		return loopLabels{}, false
	}
	return fc.loops[len(fc.loops)-1], true
}

func (l local) load(c *classfile.Code) {
	c.Load(kindOf(l.typ), l.slot)
}

func (l local) store(c *classfile.Code) {
	c.Store(kindOf(l.typ), l.slot)
}
