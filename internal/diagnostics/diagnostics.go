// Package diagnostics holds the error taxonomy shared by every compiler stage.
//
// Each stage fails fast with a single *DiagnosticError. The stage that raised
// it is exposed through errors.Is against ErrTokenization, ErrParse,
// ErrIllTyped and ErrCodeGen. Programs run by the reference interpreter fail
// with ErrRuntime.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/ktjvm/internal/token"
)

type Stage string

const (
	StageLexer     Stage = "lexer"
	StageParser    Stage = "parser"
	StageTypecheck Stage = "typecheck"
	StageCodegen   Stage = "codegen"
	StageRuntime   Stage = "runtime"
)

var (
	ErrTokenization = errors.New("tokenization error")
	ErrParse        = errors.New("parse error")
	ErrIllTyped     = errors.New("ill-typed program")
	ErrCodeGen      = errors.New("code generation error")
	ErrRuntime      = errors.New("runtime error")
)

type ErrorCode string

const (
	// Lexer
	ErrL001 ErrorCode = "L001" // illegal character
	ErrL002 ErrorCode = "L002" // unterminated block comment
	ErrL003 ErrorCode = "L003" // integer literal out of range

	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // unexpected end of input
	ErrP003 ErrorCode = "P003" // extra tokens at end
	ErrP004 ErrorCode = "P004" // empty collection literal
	ErrP005 ErrorCode = "P005" // duplicate parameter name
	ErrP006 ErrorCode = "P006" // malformed string interpolation
	ErrP007 ErrorCode = "P007" // invalid assignment target

	// Typechecker
	ErrT001 ErrorCode = "T001" // undeclared variable
	ErrT002 ErrorCode = "T002" // type mismatch
	ErrT003 ErrorCode = "T003" // redeclaration
	ErrT004 ErrorCode = "T004" // not indexable
	ErrT005 ErrorCode = "T005" // assignment to val
	ErrT006 ErrorCode = "T006" // cannot infer type
	ErrT007 ErrorCode = "T007" // wrong number of arguments
	ErrT008 ErrorCode = "T008" // unknown function
	ErrT009 ErrorCode = "T009" // return mismatch or missing return
	ErrT010 ErrorCode = "T010" // statement not allowed here
	ErrT011 ErrorCode = "T011" // value cannot be printed
	ErrT012 ErrorCode = "T012" // invalid range

	// Code generation
	ErrG001 ErrorCode = "G001" // unsupported construct
	ErrG002 ErrorCode = "G002" // internal consistency fault

	// Interpreter
	ErrR001 ErrorCode = "R001" // runtime error
)

// DiagnosticError is the single error type produced by the compiler core.
type DiagnosticError struct {
	Stage    Stage
	Code     ErrorCode
	Message  string
	Token    token.Token
	File     string
	Expected string // parser only
	Received string // parser only
}

func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{Stage: stageOf(code), Code: code, Token: tok, Message: msg}
}

func NewErrorf(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	return NewError(code, tok, fmt.Sprintf(format, args...))
}

// NewExpected builds a parser error from an expected/received pair.
func NewExpected(code ErrorCode, tok token.Token, expected, received string) *DiagnosticError {
	e := NewErrorf(code, tok, "expected %s, received %s", expected, received)
	e.Expected = expected
	e.Received = received
	return e
}

func stageOf(code ErrorCode) Stage {
	switch {
	case strings.HasPrefix(string(code), "L"):
		return StageLexer
	case strings.HasPrefix(string(code), "P"):
		return StageParser
	case strings.HasPrefix(string(code), "T"):
		return StageTypecheck
	case strings.HasPrefix(string(code), "R"):
		return StageRuntime
	default:
		return StageCodegen
	}
}

func (e *DiagnosticError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(":")
	}
	if e.Token.Line > 0 {
		sb.WriteString(fmt.Sprintf("%d:%d: ", e.Token.Line, e.Token.Column))
	} else if e.File != "" {
		sb.WriteString(" ")
	}
	sb.WriteString(fmt.Sprintf("%s [%s]: %s", e.Unwrap().Error(), e.Code, e.Message))
	return sb.String()
}

func (e *DiagnosticError) Unwrap() error {
	switch e.Stage {
	case StageLexer:
		return ErrTokenization
	case StageParser:
		return ErrParse
	case StageTypecheck:
		return ErrIllTyped
	case StageRuntime:
		return ErrRuntime
	default:
		return ErrCodeGen
	}
}

// IsInternalFault reports whether a code generation error means the
// typechecker accepted something it should have rejected.
func (e *DiagnosticError) IsInternalFault() bool {
	return e.Code == ErrG002
}

// As extracts a *DiagnosticError from err.
func As(err error) (*DiagnosticError, bool) {
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
