package ast

import (
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// VarDeclaration is var/val name [: Type] [= Value]. A declaration with a
// Value is the initializing assignment of the fresh variable.
type VarDeclaration struct {
	Token   token.Token // var or val
	Name    *Identifier
	Type    typesystem.Type // nil when omitted
	Mutable bool
	Value   Expression // nil when omitted
}

func (vd *VarDeclaration) Accept(v Visitor)      { v.VisitVarDeclaration(vd) }
func (vd *VarDeclaration) statementNode()        {}
func (vd *VarDeclaration) TokenLiteral() string  { return vd.Token.Lexeme }
func (vd *VarDeclaration) GetToken() token.Token { return vd.Token }

type AssignStatement struct {
	Token  token.Token // The '=' token
	Target Target
	Value  Expression
}

func (as *AssignStatement) Accept(v Visitor)      { v.VisitAssignStatement(as) }
func (as *AssignStatement) statementNode()        {}
func (as *AssignStatement) TokenLiteral() string  { return as.Token.Lexeme }
func (as *AssignStatement) GetToken() token.Token { return as.Token }

type CompoundAssignStatement struct {
	Token    token.Token
	Target   Target
	Operator string // += -= *= /=
	Value    Expression
}

func (cs *CompoundAssignStatement) Accept(v Visitor)      { v.VisitCompoundAssignStatement(cs) }
func (cs *CompoundAssignStatement) statementNode()        {}
func (cs *CompoundAssignStatement) TokenLiteral() string  { return cs.Token.Lexeme }
func (cs *CompoundAssignStatement) GetToken() token.Token { return cs.Token }

// BinaryOperator maps += to +, -= to - and so on.
func (cs *CompoundAssignStatement) BinaryOperator() string {
	return cs.Operator[:1]
}

// SelfOpStatement is an increment or decrement used as a statement.
type SelfOpStatement struct {
	Token      token.Token
	Expression *IncDecExpression
}

func (ss *SelfOpStatement) Accept(v Visitor)      { v.VisitSelfOpStatement(ss) }
func (ss *SelfOpStatement) statementNode()        {}
func (ss *SelfOpStatement) TokenLiteral() string  { return ss.Token.Lexeme }
func (ss *SelfOpStatement) GetToken() token.Token { return ss.Token }

// PrintStatement is print(e), println(e) or println().
type PrintStatement struct {
	Token   token.Token
	Newline bool
	Value   Expression // nil only for println()
}

func (ps *PrintStatement) Accept(v Visitor)      { v.VisitPrintStatement(ps) }
func (ps *PrintStatement) statementNode()        {}
func (ps *PrintStatement) TokenLiteral() string  { return ps.Token.Lexeme }
func (ps *PrintStatement) GetToken() token.Token { return ps.Token }

// IfStatement's Alternative is nil when there is no else branch. An else-if
// chain is an Alternative block holding a single IfStatement.
type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement
}

func (is *IfStatement) Accept(v Visitor)      { v.VisitIfStatement(is) }
func (is *IfStatement) statementNode()        {}
func (is *IfStatement) TokenLiteral() string  { return is.Token.Lexeme }
func (is *IfStatement) GetToken() token.Token { return is.Token }

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) Accept(v Visitor)      { v.VisitWhileStatement(ws) }
func (ws *WhileStatement) statementNode()        {}
func (ws *WhileStatement) TokenLiteral() string  { return ws.Token.Lexeme }
func (ws *WhileStatement) GetToken() token.Token { return ws.Token }

// ForStatement iterates either over a Range or over an Iterable collection;
// exactly one of them is set.
type ForStatement struct {
	Token    token.Token
	Variable *Identifier
	Range    *RangeExpression
	Iterable Expression
	Body     *BlockStatement
}

func (fs *ForStatement) Accept(v Visitor)      { v.VisitForStatement(fs) }
func (fs *ForStatement) statementNode()        {}
func (fs *ForStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *ForStatement) GetToken() token.Token { return fs.Token }

// FunctionStatement is fun name(params): ReturnType { body }. Every parameter
// carries a type; ReturnType defaults to Unit.
type FunctionStatement struct {
	Token      token.Token
	Name       *Identifier
	Parameters []*Parameter
	ReturnType typesystem.Type
	Body       *BlockStatement
}

func (fs *FunctionStatement) Accept(v Visitor)      { v.VisitFunctionStatement(fs) }
func (fs *FunctionStatement) statementNode()        {}
func (fs *FunctionStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *FunctionStatement) GetToken() token.Token { return fs.Token }

// Signature returns the function's type.
func (fs *FunctionStatement) Signature() typesystem.Func {
	params := make([]typesystem.Type, len(fs.Parameters))
	for i, p := range fs.Parameters {
		params[i] = p.Type
	}
	return typesystem.Func{Params: params, Return: fs.ReturnType}
}

type CallStatement struct {
	Token token.Token
	Call  *CallExpression
}

func (cs *CallStatement) Accept(v Visitor)      { v.VisitCallStatement(cs) }
func (cs *CallStatement) statementNode()        {}
func (cs *CallStatement) TokenLiteral() string  { return cs.Token.Lexeme }
func (cs *CallStatement) GetToken() token.Token { return cs.Token }

type ReturnStatement struct {
	Token token.Token
	Value Expression // nil for a bare return
}

func (rs *ReturnStatement) Accept(v Visitor)      { v.VisitReturnStatement(rs) }
func (rs *ReturnStatement) statementNode()        {}
func (rs *ReturnStatement) TokenLiteral() string  { return rs.Token.Lexeme }
func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) Accept(v Visitor)      { v.VisitBreakStatement(bs) }
func (bs *BreakStatement) statementNode()        {}
func (bs *BreakStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BreakStatement) GetToken() token.Token { return bs.Token }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) Accept(v Visitor)      { v.VisitContinueStatement(cs) }
func (cs *ContinueStatement) statementNode()        {}
func (cs *ContinueStatement) TokenLiteral() string  { return cs.Token.Lexeme }
func (cs *ContinueStatement) GetToken() token.Token { return cs.Token }

// BlockStatement represents a list of statements within curly braces.
type BlockStatement struct {
	Token       token.Token // {
	Statements  []Statement
	RBraceToken token.Token // }
}

func (bs *BlockStatement) Accept(v Visitor)      { v.VisitBlockStatement(bs) }
func (bs *BlockStatement) statementNode()        {}
func (bs *BlockStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BlockStatement) GetToken() token.Token { return bs.Token }
