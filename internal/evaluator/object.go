package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

type ObjectType string

const (
	INTEGER_OBJ         = "INTEGER"
	BOOLEAN_OBJ         = "BOOLEAN"
	STRING_OBJ          = "STRING"
	UNIT_OBJ            = "UNIT"
	NULL_OBJ            = "NULL"
	ARRAY_OBJ           = "ARRAY"
	LIST_OBJ            = "LIST"
	FUNCTION_OBJ        = "FUNCTION"
	CLOSURE_OBJ         = "CLOSURE"
	ERROR_OBJ           = "ERROR"
	RETURN_VALUE_OBJ    = "RETURN_VALUE"
	BREAK_SIGNAL_OBJ    = "BREAK_SIGNAL"
	CONTINUE_SIGNAL_OBJ = "CONTINUE_SIGNAL"
)

// Object is a runtime value. Inspect renders it the way print shows it.
type Object interface {
	Type() ObjectType
	Inspect() string
}

type Integer struct {
	Value int32
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(int64(i.Value), 10) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Unit is the result of calling a function that returns nothing.
type Unit struct{}

func (u *Unit) Type() ObjectType { return UNIT_OBJ }
func (u *Unit) Inspect() string  { return "kotlin.Unit" }

// Null is the value of a reference variable read before its first
// assignment.
type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

// Array is a fixed-size mutable sequence; it is shared by reference.
type Array struct {
	Elem     typesystem.Scalar
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string  { return inspectElements(a.Elements) }

// List is a growable mutable sequence; it is shared by reference.
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string  { return inspectElements(l.Elements) }

func inspectElements(elements []Object) string {
	parts := make([]string, len(elements))
	for i, el := range elements {
		parts[i] = el.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Function is a top-level function used as a value.
type Function struct {
	Decl *ast.FunctionStatement
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return "fun " + f.Decl.Name.Value }

// Closure is a lambda together with the values it captured when it was
// created.
type Closure struct {
	Lambda   *ast.LambdaExpression
	Captured map[*symbols.Symbol]Object
}

func (c *Closure) Type() ObjectType { return CLOSURE_OBJ }
func (c *Closure) Inspect() string {
	return fmt.Sprintf("lambda/%d", len(c.Lambda.Parameters))
}

// Error is a runtime failure travelling up to the caller of Run.
type Error struct {
	Message    string
	Line       int
	Column     int
	StackTrace []StackFrame
}

// StackFrame is one active call when an error was raised.
type StackFrame struct {
	Name   string
	Line   int
	Column int
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string {
	var sb strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&sb, "ERROR at %d:%d: %s", e.Line, e.Column, e.Message)
	} else {
		sb.WriteString("ERROR: " + e.Message)
	}
	for i := len(e.StackTrace) - 1; i >= 0; i-- {
		f := e.StackTrace[i]
		fmt.Fprintf(&sb, "\n  at %s (%d:%d)", f.Name, f.Line, f.Column)
	}
	return sb.String()
}

// ReturnValue wraps a value that is being returned prematurely
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

type BreakSignal struct{}

func (bs *BreakSignal) Type() ObjectType { return BREAK_SIGNAL_OBJ }
func (bs *BreakSignal) Inspect() string  { return "break" }

type ContinueSignal struct{}

func (cs *ContinueSignal) Type() ObjectType { return CONTINUE_SIGNAL_OBJ }
func (cs *ContinueSignal) Inspect() string  { return "continue" }

var (
	UNIT     = &Unit{}
	NULL     = &Null{}
	TRUE     = &Boolean{Value: true}
	FALSE    = &Boolean{Value: false}
	BREAK    = &BreakSignal{}
	CONTINUE = &ContinueSignal{}
)

func nativeBoolToBooleanObject(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}
