package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"||": 1,
	"&&": 1,
	"==": 2,
	"!=": 2,
	"<":  2,
	">":  2,
	"<=": 2,
	">=": 2,
	"+":  3,
	"-":  3,
	"*":  4,
	"/":  4,
	"%":  4,
}

const unaryPrecedence = 5

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10
}

// CodePrinter renders an AST back to source text that parses to the same
// tree.
type CodePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

// printExpr prints an expression, adding parentheses only if needed. All
// binary tiers are left-associative and comparisons do not chain.
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	op, isBinary := binaryOperator(expr)
	if !isBinary {
		expr.Accept(p)
		return
	}
	prec := getPrecedence(op)
	needParens := prec < parentPrec || (prec == parentPrec && (isRight || prec == getPrecedence("==")))
	if needParens {
		p.write("(")
	}
	expr.Accept(p)
	if needParens {
		p.write(")")
	}
}

func binaryOperator(expr ast.Expression) (string, bool) {
	switch e := expr.(type) {
	case *ast.ArithmeticExpression:
		return e.Operator, true
	case *ast.ComparisonExpression:
		return e.Operator, true
	case *ast.LogicalExpression:
		return e.Operator, true
	}
	return "", false
}

func (p *CodePrinter) printBinary(op string, left, right ast.Expression) {
	prec := getPrecedence(op)
	p.printExpr(left, prec, false)
	p.write(" " + op + " ")
	p.printExpr(right, prec, true)
}

func (p *CodePrinter) printList(exps []ast.Expression) {
	for i, e := range exps {
		if i > 0 {
			p.write(", ")
		}
		e.Accept(p)
	}
}

func (p *CodePrinter) printParams(params []*ast.Parameter) {
	for i, param := range params {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name.Value)
		if param.Type != nil {
			p.write(": " + param.Type.String())
		}
	}
}

func (p *CodePrinter) VisitProgram(n *ast.Program) {
	for _, stmt := range n.Statements {
		stmt.Accept(p)
		p.write("\n")
	}
}

func (p *CodePrinter) VisitIntegerLiteral(n *ast.IntegerLiteral) {
	p.write(strconv.Itoa(int(n.Value)))
}

func (p *CodePrinter) VisitBooleanLiteral(n *ast.BooleanLiteral) {
	p.write(strconv.FormatBool(n.Value))
}

// VisitStringLiteral re-inserts every interpolation as a ${...} block at its
// offset.
func (p *CodePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	runes := []rune(n.Value)
	next := 0
	p.write("\"")
	for i := 0; i <= len(runes); i++ {
		for next < len(n.Interpolations) && n.Interpolations[next].Offset == i {
			p.write("${")
			n.Interpolations[next].Expr.Accept(p)
			p.write("}")
			next++
		}
		if i < len(runes) {
			p.write(escapeRune(runes[i]))
		}
	}
	p.write("\"")
}

func escapeRune(r rune) string {
	switch r {
	case '"':
		return `\"`
	case '\\':
		return `\\`
	case '\n':
		return `\n`
	case '\t':
		return `\t`
	case '$':
		return `\$`
	}
	return string(r)
}

func (p *CodePrinter) VisitIdentifier(n *ast.Identifier) {
	p.write(n.Value)
}

func (p *CodePrinter) VisitArithmeticExpression(n *ast.ArithmeticExpression) {
	p.printBinary(n.Operator, n.Left, n.Right)
}

func (p *CodePrinter) VisitComparisonExpression(n *ast.ComparisonExpression) {
	p.printBinary(n.Operator, n.Left, n.Right)
}

func (p *CodePrinter) VisitLogicalExpression(n *ast.LogicalExpression) {
	p.printBinary(n.Operator, n.Left, n.Right)
}

func (p *CodePrinter) VisitNotExpression(n *ast.NotExpression) {
	p.write("!")
	p.printExpr(n.Right, unaryPrecedence, false)
}

func (p *CodePrinter) VisitIncDecExpression(n *ast.IncDecExpression) {
	if n.Prefix {
		p.write(n.Operator)
		n.Target.Accept(p)
		return
	}
	n.Target.Accept(p)
	p.write(n.Operator)
}

func (p *CodePrinter) VisitIndexExpression(n *ast.IndexExpression) {
	p.write(n.Left.Value)
	p.write("[")
	n.Index.Accept(p)
	p.write("]")
}

func (p *CodePrinter) VisitCollectionLiteral(n *ast.CollectionLiteral) {
	if n.Kind == ast.MutableListKind {
		p.write("mutableListOf(")
	} else {
		p.write("arrayOf(")
	}
	p.printList(n.Elements)
	p.write(")")
}

func (p *CodePrinter) VisitSizedConstructor(n *ast.SizedConstructor) {
	p.write(n.Kind.String())
	p.write("(")
	n.Size.Accept(p)
	p.write(") ")
	n.Generator.Accept(p)
}

func (p *CodePrinter) VisitLambdaExpression(n *ast.LambdaExpression) {
	p.write("{ ")
	if len(n.Parameters) > 0 {
		p.printParams(n.Parameters)
		p.write(" ")
	}
	p.write("-> ")
	n.Body.Accept(p)
	p.write(" }")
}

func (p *CodePrinter) VisitCallExpression(n *ast.CallExpression) {
	p.write(n.Function.Value)
	p.write("(")
	p.printList(n.Arguments)
	p.write(")")
}

func (p *CodePrinter) VisitRangeExpression(n *ast.RangeExpression) {
	n.From.Accept(p)
	p.write("..")
	n.To.Accept(p)
	if n.Step != nil {
		p.write(" step ")
		n.Step.Accept(p)
	}
}

func (p *CodePrinter) VisitVarDeclaration(n *ast.VarDeclaration) {
	if n.Mutable {
		p.write("var ")
	} else {
		p.write("val ")
	}
	p.write(n.Name.Value)
	if n.Type != nil {
		p.write(": " + n.Type.String())
	}
	if n.Value != nil {
		p.write(" = ")
		n.Value.Accept(p)
	}
}

func (p *CodePrinter) VisitAssignStatement(n *ast.AssignStatement) {
	n.Target.Accept(p)
	p.write(" = ")
	n.Value.Accept(p)
}

func (p *CodePrinter) VisitCompoundAssignStatement(n *ast.CompoundAssignStatement) {
	n.Target.Accept(p)
	p.write(" " + n.Operator + " ")
	n.Value.Accept(p)
}

func (p *CodePrinter) VisitSelfOpStatement(n *ast.SelfOpStatement) {
	n.Expression.Accept(p)
}

func (p *CodePrinter) VisitPrintStatement(n *ast.PrintStatement) {
	if n.Newline {
		p.write("println(")
	} else {
		p.write("print(")
	}
	if n.Value != nil {
		n.Value.Accept(p)
	}
	p.write(")")
}

func (p *CodePrinter) VisitIfStatement(n *ast.IfStatement) {
	p.write("if (")
	n.Condition.Accept(p)
	p.write(") ")
	n.Consequence.Accept(p)
	if n.Alternative == nil {
		return
	}
	p.write(" else ")
	if elseIf := chainedIf(n.Alternative); elseIf != nil {
		elseIf.Accept(p)
		return
	}
	n.Alternative.Accept(p)
}

// chainedIf returns the if statement an else-if alternative wraps.
func chainedIf(block *ast.BlockStatement) *ast.IfStatement {
	if len(block.Statements) != 1 {
		return nil
	}
	nested, ok := block.Statements[0].(*ast.IfStatement)
	if !ok || block.Token != nested.Token {
		return nil
	}
	return nested
}

func (p *CodePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	p.write("while (")
	n.Condition.Accept(p)
	p.write(") ")
	n.Body.Accept(p)
}

func (p *CodePrinter) VisitForStatement(n *ast.ForStatement) {
	p.write("for (")
	p.write(n.Variable.Value)
	p.write(" in ")
	if n.Range != nil {
		n.Range.Accept(p)
	} else {
		n.Iterable.Accept(p)
	}
	p.write(") ")
	n.Body.Accept(p)
}

func (p *CodePrinter) VisitFunctionStatement(n *ast.FunctionStatement) {
	p.write("fun ")
	p.write(n.Name.Value)
	p.write("(")
	p.printParams(n.Parameters)
	p.write(")")
	if !typesystem.Equal(n.ReturnType, typesystem.Unit) {
		p.write(": " + n.ReturnType.String())
	}
	p.write(" ")
	n.Body.Accept(p)
}

func (p *CodePrinter) VisitCallStatement(n *ast.CallStatement) {
	n.Call.Accept(p)
}

func (p *CodePrinter) VisitReturnStatement(n *ast.ReturnStatement) {
	p.write("return")
	if n.Value != nil {
		p.write(" ")
		n.Value.Accept(p)
	}
}

func (p *CodePrinter) VisitBreakStatement(n *ast.BreakStatement) {
	p.write("break")
}

func (p *CodePrinter) VisitContinueStatement(n *ast.ContinueStatement) {
	p.write("continue")
}

func (p *CodePrinter) VisitBlockStatement(n *ast.BlockStatement) {
	if len(n.Statements) == 0 {
		p.write("{}")
		return
	}
	p.write("{\n")
	p.indent++
	for _, stmt := range n.Statements {
		p.writeIndent()
		stmt.Accept(p)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

// Format renders a program as source text.
func Format(prog *ast.Program) string {
	p := NewCodePrinter()
	prog.Accept(p)
	return strings.TrimRight(p.String(), "\n") + "\n"
}
