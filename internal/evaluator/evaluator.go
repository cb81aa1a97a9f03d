// Package evaluator is a reference interpreter for typechecked programs.
//
// It walks the tree directly and produces the same standard output as the
// generated class does under a JVM: 32-bit wrapping Int arithmetic,
// truncating division, by-value lambda captures and the JVM's textual form
// for printed values. The backend tests use it as the oracle for the
// bytecode generator.
package evaluator

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/token"
)

// maxCallDepth bounds recursion the way a JVM thread stack does.
const maxCallDepth = 4000

type Evaluator struct {
	Out     io.Writer
	Context context.Context

	CallStack []StackFrame

	info *analyzer.Info
}

// New returns an interpreter for a program checked into info, printing to
// os.Stdout.
func New(info *analyzer.Info) *Evaluator {
	return &Evaluator{Out: os.Stdout, Context: context.Background(), info: info}
}

// Run executes the program's top-level statements. A runtime failure is
// returned as an R001 diagnostic.
func (e *Evaluator) Run(prog *ast.Program) error {
	env := NewEnvironment()
	var result Object
	for _, s := range prog.Statements {
		if _, ok := s.(*ast.FunctionStatement); ok {
			continue
		}
		result = e.Eval(s, env)
		if isSignal(result) {
			break
		}
	}
	if err, ok := result.(*Error); ok {
		msg := err.Message
		for i := len(err.StackTrace) - 1; i >= 0; i-- {
			f := err.StackTrace[i]
			msg += fmt.Sprintf("\n\tat %s (%d:%d)", f.Name, f.Line, f.Column)
		}
		de := diagnostics.NewError(diagnostics.ErrR001, token.Token{Line: err.Line, Column: err.Column}, msg)
		de.File = prog.File
		return de
	}
	return nil
}

// Eval evaluates one statement or expression.
func (e *Evaluator) Eval(node ast.Node, env *Environment) Object {
	select {
	case <-e.Context.Done():
		return newError("execution cancelled: %v", e.Context.Err())
	default:
	}
	obj := e.evalCore(node, env)
	if err, ok := obj.(*Error); ok && err.Line == 0 {
		tok := node.GetToken()
		err.Line, err.Column = tok.Line, tok.Column
	}
	return obj
}

func (e *Evaluator) evalCore(node ast.Node, env *Environment) Object {
	switch node := node.(type) {
	// Statements
	case *ast.BlockStatement:
		return e.evalStatements(node.Statements, env)
	case *ast.VarDeclaration:
		return e.evalVarDeclaration(node, env)
	case *ast.AssignStatement:
		return e.evalAssign(node, env)
	case *ast.CompoundAssignStatement:
		return e.evalCompoundAssign(node, env)
	case *ast.SelfOpStatement:
		return e.Eval(node.Expression, env)
	case *ast.PrintStatement:
		return e.evalPrint(node, env)
	case *ast.IfStatement:
		return e.evalIf(node, env)
	case *ast.WhileStatement:
		return e.evalWhile(node, env)
	case *ast.ForStatement:
		return e.evalFor(node, env)
	case *ast.CallStatement:
		return e.Eval(node.Call, env)
	case *ast.ReturnStatement:
		return e.evalReturn(node, env)
	case *ast.BreakStatement:
		return BREAK
	case *ast.ContinueStatement:
		return CONTINUE
	case *ast.FunctionStatement:
		return newError("function '%s' is not at top level", node.Name.Value)

	// Expressions
	case *ast.IntegerLiteral:
		return &Integer{Value: node.Value}
	case *ast.BooleanLiteral:
		return nativeBoolToBooleanObject(node.Value)
	case *ast.StringLiteral:
		return e.evalString(node, env)
	case *ast.Identifier:
		return e.evalIdentifier(node, env)
	case *ast.ArithmeticExpression:
		return e.evalArithmetic(node, env)
	case *ast.ComparisonExpression:
		return e.evalComparison(node, env)
	case *ast.LogicalExpression:
		return e.evalLogical(node, env)
	case *ast.NotExpression:
		right := e.Eval(node.Right, env)
		if isError(right) {
			return right
		}
		b, ok := right.(*Boolean)
		if !ok {
			return newError("operator ! applied to %s", right.Type())
		}
		return nativeBoolToBooleanObject(!b.Value)
	case *ast.IncDecExpression:
		return e.evalIncDec(node, env)
	case *ast.IndexExpression:
		return e.evalIndex(node, env)
	case *ast.CollectionLiteral:
		return e.evalCollectionLiteral(node, env)
	case *ast.SizedConstructor:
		return e.evalSizedConstructor(node, env)
	case *ast.LambdaExpression:
		return e.evalLambda(node, env)
	case *ast.CallExpression:
		return e.evalCall(node, env)
	case *ast.RangeExpression:
		return newError("a range is only allowed in a for loop header")
	}
	return newError("cannot evaluate %T", node)
}

func (e *Evaluator) evalStatements(stmts []ast.Statement, env *Environment) Object {
	var result Object = UNIT
	for _, s := range stmts {
		result = e.Eval(s, env)
		if isSignal(result) {
			return result
		}
	}
	return result
}
