package evaluator

import (
	"fmt"

	"github.com/funvibe/ktjvm/internal/token"
)

func newError(format string, a ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, a...)}
}

func newErrorAt(tok token.Token, format string, a ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, a...), Line: tok.Line, Column: tok.Column}
}

func isError(obj Object) bool {
	return obj != nil && obj.Type() == ERROR_OBJ
}

// isSignal reports whether obj interrupts the statements around it.
func isSignal(obj Object) bool {
	if obj == nil {
		return false
	}
	switch obj.Type() {
	case ERROR_OBJ, RETURN_VALUE_OBJ, BREAK_SIGNAL_OBJ, CONTINUE_SIGNAL_OBJ:
		return true
	}
	return false
}

func unwrapReturnValue(obj Object) Object {
	if returnValue, ok := obj.(*ReturnValue); ok {
		return returnValue.Value
	}
	return obj
}

func (e *Evaluator) pushCall(name string, tok token.Token) {
	e.CallStack = append(e.CallStack, StackFrame{Name: name, Line: tok.Line, Column: tok.Column})
}

func (e *Evaluator) popCall() {
	if len(e.CallStack) > 0 {
		e.CallStack = e.CallStack[:len(e.CallStack)-1]
	}
}

// withStack attaches the active calls to an error the first time it passes.
func (e *Evaluator) withStack(obj Object) Object {
	if err, ok := obj.(*Error); ok && err.StackTrace == nil && len(e.CallStack) > 0 {
		err.StackTrace = append([]StackFrame(nil), e.CallStack...)
	}
	return obj
}
