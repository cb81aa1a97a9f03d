package prettyprinter

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/funvibe/ktjvm/internal/ast"
)

// --- Tree Printer (Output is an S-expression per statement) ---

// TreePrinter renders the structure of an AST. Positions are not part of the
// output, so two trees print the same exactly when they are structurally
// equal.
type TreePrinter struct {
	buf bytes.Buffer
}

func NewTreePrinter() *TreePrinter {
	return &TreePrinter{}
}

func (p *TreePrinter) String() string {
	return p.buf.String()
}

func (p *TreePrinter) write(s string) {
	p.buf.WriteString(s)
}

// node writes (head child child ...), where each child is a node, a string
// or nil (printed as _).
func (p *TreePrinter) node(head string, children ...interface{}) {
	p.write("(")
	p.write(head)
	for _, c := range children {
		p.write(" ")
		switch v := c.(type) {
		case nil:
			p.write("_")
		case string:
			p.write(v)
		case ast.Node:
			if isNilNode(v) {
				p.write("_")
			} else {
				v.Accept(p)
			}
		default:
			p.write(fmt.Sprint(v))
		}
	}
	p.write(")")
}

// isNilNode catches typed nil pointers stored in ast.Node interfaces.
func isNilNode(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.BlockStatement:
		return v == nil
	case *ast.RangeExpression:
		return v == nil
	case *ast.LambdaExpression:
		return v == nil
	}
	return false
}

func (p *TreePrinter) params(params []*ast.Parameter) string {
	var b bytes.Buffer
	b.WriteString("(")
	for i, param := range params {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(param.Name.Value)
		if param.Type != nil {
			b.WriteString(":" + param.Type.String())
		}
	}
	b.WriteString(")")
	return b.String()
}

func (p *TreePrinter) VisitProgram(n *ast.Program) {
	for i, stmt := range n.Statements {
		if i > 0 {
			p.write("\n")
		}
		stmt.Accept(p)
	}
}

func (p *TreePrinter) VisitIntegerLiteral(n *ast.IntegerLiteral) {
	p.write(strconv.Itoa(int(n.Value)))
}

func (p *TreePrinter) VisitBooleanLiteral(n *ast.BooleanLiteral) {
	p.write(strconv.FormatBool(n.Value))
}

func (p *TreePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	children := []interface{}{strconv.Quote(n.Value)}
	for _, in := range n.Interpolations {
		children = append(children, fmt.Sprintf("@%d", in.Offset), in.Expr)
	}
	p.node("str", children...)
}

func (p *TreePrinter) VisitIdentifier(n *ast.Identifier) {
	p.write(n.Value)
}

func (p *TreePrinter) VisitArithmeticExpression(n *ast.ArithmeticExpression) {
	p.node(n.Operator, n.Left, n.Right)
}

func (p *TreePrinter) VisitComparisonExpression(n *ast.ComparisonExpression) {
	p.node(n.Operator, n.Left, n.Right)
}

func (p *TreePrinter) VisitLogicalExpression(n *ast.LogicalExpression) {
	p.node(n.Operator, n.Left, n.Right)
}

func (p *TreePrinter) VisitNotExpression(n *ast.NotExpression) {
	p.node("!", n.Right)
}

func (p *TreePrinter) VisitIncDecExpression(n *ast.IncDecExpression) {
	if n.Prefix {
		p.node(n.Operator+"pre", n.Target)
	} else {
		p.node("post"+n.Operator, n.Target)
	}
}

func (p *TreePrinter) VisitIndexExpression(n *ast.IndexExpression) {
	p.node("index", n.Left, n.Index)
}

func (p *TreePrinter) VisitCollectionLiteral(n *ast.CollectionLiteral) {
	children := make([]interface{}, len(n.Elements))
	for i, e := range n.Elements {
		children[i] = e
	}
	if n.Kind == ast.MutableListKind {
		p.node("mutableListOf", children...)
	} else {
		p.node("arrayOf", children...)
	}
}

func (p *TreePrinter) VisitSizedConstructor(n *ast.SizedConstructor) {
	p.node(n.Kind.String(), n.Size, n.Generator)
}

func (p *TreePrinter) VisitLambdaExpression(n *ast.LambdaExpression) {
	p.node("lambda", p.params(n.Parameters), n.Body)
}

func (p *TreePrinter) VisitCallExpression(n *ast.CallExpression) {
	children := []interface{}{n.Function}
	for _, a := range n.Arguments {
		children = append(children, a)
	}
	p.node("call", children...)
}

func (p *TreePrinter) VisitRangeExpression(n *ast.RangeExpression) {
	if n.Step == nil {
		p.node("range", n.From, n.To)
		return
	}
	p.node("range", n.From, n.To, n.Step)
}

func (p *TreePrinter) VisitVarDeclaration(n *ast.VarDeclaration) {
	head := "val"
	if n.Mutable {
		head = "var"
	}
	typ := "_"
	if n.Type != nil {
		typ = n.Type.String()
	}
	var value interface{}
	if n.Value != nil {
		value = n.Value
	}
	p.node(head, n.Name, typ, value)
}

func (p *TreePrinter) VisitAssignStatement(n *ast.AssignStatement) {
	p.node("=", n.Target, n.Value)
}

func (p *TreePrinter) VisitCompoundAssignStatement(n *ast.CompoundAssignStatement) {
	p.node(n.Operator, n.Target, n.Value)
}

func (p *TreePrinter) VisitSelfOpStatement(n *ast.SelfOpStatement) {
	n.Expression.Accept(p)
}

func (p *TreePrinter) VisitPrintStatement(n *ast.PrintStatement) {
	head := "print"
	if n.Newline {
		head = "println"
	}
	if n.Value == nil {
		p.node(head)
		return
	}
	p.node(head, n.Value)
}

func (p *TreePrinter) VisitIfStatement(n *ast.IfStatement) {
	if n.Alternative == nil {
		p.node("if", n.Condition, n.Consequence)
		return
	}
	p.node("if", n.Condition, n.Consequence, n.Alternative)
}

func (p *TreePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	p.node("while", n.Condition, n.Body)
}

func (p *TreePrinter) VisitForStatement(n *ast.ForStatement) {
	if n.Range != nil {
		p.node("for", n.Variable, n.Range, n.Body)
		return
	}
	p.node("for", n.Variable, n.Iterable, n.Body)
}

func (p *TreePrinter) VisitFunctionStatement(n *ast.FunctionStatement) {
	p.node("fun", n.Name, p.params(n.Parameters), n.ReturnType.String(), n.Body)
}

func (p *TreePrinter) VisitCallStatement(n *ast.CallStatement) {
	n.Call.Accept(p)
}

func (p *TreePrinter) VisitReturnStatement(n *ast.ReturnStatement) {
	if n.Value == nil {
		p.node("return")
		return
	}
	p.node("return", n.Value)
}

func (p *TreePrinter) VisitBreakStatement(n *ast.BreakStatement) {
	p.node("break")
}

func (p *TreePrinter) VisitContinueStatement(n *ast.ContinueStatement) {
	p.node("continue")
}

func (p *TreePrinter) VisitBlockStatement(n *ast.BlockStatement) {
	children := make([]interface{}, len(n.Statements))
	for i, s := range n.Statements {
		children[i] = s
	}
	p.node("block", children...)
}

// Tree renders a node with a fresh TreePrinter.
func Tree(n ast.Node) string {
	p := NewTreePrinter()
	n.Accept(p)
	return p.String()
}
