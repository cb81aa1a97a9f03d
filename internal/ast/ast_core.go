package ast

import (
	"github.com/funvibe/ktjvm/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
	GetToken() token.Token
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Target is something that can be assigned to or incremented: exactly one
// of *Identifier or *IndexExpression.
type Target interface {
	Expression
	targetNode()
}

// Visitor has one method per node kind. Adding a node kind breaks every
// visitor at compile time.
type Visitor interface {
	VisitProgram(*Program)

	VisitIntegerLiteral(*IntegerLiteral)
	VisitBooleanLiteral(*BooleanLiteral)
	VisitStringLiteral(*StringLiteral)
	VisitIdentifier(*Identifier)
	VisitArithmeticExpression(*ArithmeticExpression)
	VisitComparisonExpression(*ComparisonExpression)
	VisitLogicalExpression(*LogicalExpression)
	VisitNotExpression(*NotExpression)
	VisitIncDecExpression(*IncDecExpression)
	VisitIndexExpression(*IndexExpression)
	VisitCollectionLiteral(*CollectionLiteral)
	VisitSizedConstructor(*SizedConstructor)
	VisitLambdaExpression(*LambdaExpression)
	VisitCallExpression(*CallExpression)
	VisitRangeExpression(*RangeExpression)

	VisitVarDeclaration(*VarDeclaration)
	VisitAssignStatement(*AssignStatement)
	VisitCompoundAssignStatement(*CompoundAssignStatement)
	VisitSelfOpStatement(*SelfOpStatement)
	VisitPrintStatement(*PrintStatement)
	VisitIfStatement(*IfStatement)
	VisitWhileStatement(*WhileStatement)
	VisitForStatement(*ForStatement)
	VisitFunctionStatement(*FunctionStatement)
	VisitCallStatement(*CallStatement)
	VisitReturnStatement(*ReturnStatement)
	VisitBreakStatement(*BreakStatement)
	VisitContinueStatement(*ContinueStatement)
	VisitBlockStatement(*BlockStatement)
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string // Source file path
	Statements []Statement
}

func (p *Program) Accept(v Visitor) { v.VisitProgram(p) }
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}
func (p *Program) GetToken() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].GetToken()
	}
	return token.Token{}
}
