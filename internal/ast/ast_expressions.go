package ast

import (
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

type IntegerLiteral struct {
	Token token.Token
	Value int32
}

func (il *IntegerLiteral) Accept(v Visitor)      { v.VisitIntegerLiteral(il) }
func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) Accept(v Visitor)      { v.VisitBooleanLiteral(bl) }
func (bl *BooleanLiteral) expressionNode()       {}
func (bl *BooleanLiteral) TokenLiteral() string  { return bl.Token.Lexeme }
func (bl *BooleanLiteral) GetToken() token.Token { return bl.Token }

// Interpolation is an expression spliced into a string literal at Offset,
// counted in runes of the literal with every interpolation span removed.
type Interpolation struct {
	Offset int
	Expr   Expression
}

// StringLiteral holds the literal text with interpolation spans removed.
// Interpolations are kept in source order, which is also the order they are
// applied in.
type StringLiteral struct {
	Token          token.Token
	Value          string
	Interpolations []Interpolation
}

func (sl *StringLiteral) Accept(v Visitor)      { v.VisitStringLiteral(sl) }
func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) Accept(v Visitor)      { v.VisitIdentifier(i) }
func (i *Identifier) expressionNode()       {}
func (i *Identifier) targetNode()           {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token { return i.Token }

// ArithmeticExpression covers + - (additive) and * / % (multiplicative).
type ArithmeticExpression struct {
	Token    token.Token // The operator token
	Operator string
	Left     Expression
	Right    Expression
}

func (ae *ArithmeticExpression) Accept(v Visitor)      { v.VisitArithmeticExpression(ae) }
func (ae *ArithmeticExpression) expressionNode()       {}
func (ae *ArithmeticExpression) TokenLiteral() string  { return ae.Token.Lexeme }
func (ae *ArithmeticExpression) GetToken() token.Token { return ae.Token }

type ComparisonExpression struct {
	Token    token.Token
	Operator string // < > <= >= == !=
	Left     Expression
	Right    Expression
}

func (ce *ComparisonExpression) Accept(v Visitor)      { v.VisitComparisonExpression(ce) }
func (ce *ComparisonExpression) expressionNode()       {}
func (ce *ComparisonExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *ComparisonExpression) GetToken() token.Token { return ce.Token }

type LogicalExpression struct {
	Token    token.Token
	Operator string // && ||
	Left     Expression
	Right    Expression
}

func (le *LogicalExpression) Accept(v Visitor)      { v.VisitLogicalExpression(le) }
func (le *LogicalExpression) expressionNode()       {}
func (le *LogicalExpression) TokenLiteral() string  { return le.Token.Lexeme }
func (le *LogicalExpression) GetToken() token.Token { return le.Token }

type NotExpression struct {
	Token token.Token // The '!' token
	Right Expression
}

func (ne *NotExpression) Accept(v Visitor)      { v.VisitNotExpression(ne) }
func (ne *NotExpression) expressionNode()       {}
func (ne *NotExpression) TokenLiteral() string  { return ne.Token.Lexeme }
func (ne *NotExpression) GetToken() token.Token { return ne.Token }

// IncDecExpression is ++x, --x, x++, x-- or the same on an indexed element.
// Its value is the new value when Prefix, the old one otherwise.
type IncDecExpression struct {
	Token    token.Token // The operator token
	Operator string      // ++ or --
	Prefix   bool
	Target   Target
}

func (ie *IncDecExpression) Accept(v Visitor)      { v.VisitIncDecExpression(ie) }
func (ie *IncDecExpression) expressionNode()       {}
func (ie *IncDecExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IncDecExpression) GetToken() token.Token { return ie.Token }

// IndexExpression represents arr[i] on a named array or list.
type IndexExpression struct {
	Token token.Token // The '[' token
	Left  *Identifier
	Index Expression
}

func (ie *IndexExpression) Accept(v Visitor)      { v.VisitIndexExpression(ie) }
func (ie *IndexExpression) expressionNode()       {}
func (ie *IndexExpression) targetNode()           {}
func (ie *IndexExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IndexExpression) GetToken() token.Token { return ie.Token }

type CollectionKind int

const (
	ArrayKind CollectionKind = iota
	MutableListKind
)

func (k CollectionKind) String() string {
	if k == MutableListKind {
		return "MutableList"
	}
	return "Array"
}

// CollectionLiteral is arrayOf(...) or mutableListOf(...), never empty.
type CollectionLiteral struct {
	Token    token.Token
	Kind     CollectionKind
	Elements []Expression
}

func (cl *CollectionLiteral) Accept(v Visitor)      { v.VisitCollectionLiteral(cl) }
func (cl *CollectionLiteral) expressionNode()       {}
func (cl *CollectionLiteral) TokenLiteral() string  { return cl.Token.Lexeme }
func (cl *CollectionLiteral) GetToken() token.Token { return cl.Token }

// SizedConstructor is Array(size, gen) or MutableList(size, gen); element i
// is gen(i).
type SizedConstructor struct {
	Token     token.Token
	Kind      CollectionKind
	Size      Expression
	Generator *LambdaExpression
}

func (sc *SizedConstructor) Accept(v Visitor)      { v.VisitSizedConstructor(sc) }
func (sc *SizedConstructor) expressionNode()       {}
func (sc *SizedConstructor) TokenLiteral() string  { return sc.Token.Lexeme }
func (sc *SizedConstructor) GetToken() token.Token { return sc.Token }

// Parameter is a function or lambda parameter. Type is nil for lambda
// parameters declared without one.
type Parameter struct {
	Token token.Token
	Name  *Identifier
	Type  typesystem.Type
}

type LambdaExpression struct {
	Token      token.Token // The '{' token
	Parameters []*Parameter
	Body       Expression
}

func (le *LambdaExpression) Accept(v Visitor)      { v.VisitLambdaExpression(le) }
func (le *LambdaExpression) expressionNode()       {}
func (le *LambdaExpression) TokenLiteral() string  { return le.Token.Lexeme }
func (le *LambdaExpression) GetToken() token.Token { return le.Token }

type CallExpression struct {
	Token     token.Token // The '(' token
	Function  *Identifier
	Arguments []Expression
}

func (ce *CallExpression) Accept(v Visitor)      { v.VisitCallExpression(ce) }
func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }

// RangeExpression is the inclusive range From..To, stepping by Step (nil
// means 1).
type RangeExpression struct {
	Token token.Token // The '..' token
	From  Expression
	To    Expression
	Step  Expression
}

func (re *RangeExpression) Accept(v Visitor)      { v.VisitRangeExpression(re) }
func (re *RangeExpression) expressionNode()       {}
func (re *RangeExpression) TokenLiteral() string  { return re.Token.Lexeme }
func (re *RangeExpression) GetToken() token.Token { return re.Token }
