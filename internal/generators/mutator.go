package generators

import (
	"math/rand"

	"github.com/funvibe/ktjvm/internal/ast"
)

// Mutator applies random edits to a parsed program. Every edit keeps the
// tree syntactically valid but may make it ill-typed, which is the point:
// the typechecker has to either reject the result with a diagnostic or
// hand code generation something it can compile.
//
// Nodes are never shared between two places in the tree, so the mutated
// program is safe to typecheck.
type Mutator struct {
	rnd   *rand.Rand
	names []string
}

func NewMutator(seed int64) *Mutator {
	return &Mutator{rnd: rand.New(rand.NewSource(seed))}
}

// Mutate edits one randomly chosen top-level statement in place.
func (m *Mutator) Mutate(prog *ast.Program) {
	if len(prog.Statements) == 0 {
		return
	}
	m.names = m.names[:0]
	for _, s := range prog.Statements {
		switch s := s.(type) {
		case *ast.VarDeclaration:
			m.names = append(m.names, s.Name.Value)
		case *ast.FunctionStatement:
			m.names = append(m.names, s.Name.Value)
		}
	}
	if m.rnd.Float32() < 0.1 {
		prog.Statements = m.deleteOne(prog.Statements)
		return
	}
	m.mutateStatement(prog.Statements[m.rnd.Intn(len(prog.Statements))])
}

func (m *Mutator) deleteOne(stmts []ast.Statement) []ast.Statement {
	idx := m.rnd.Intn(len(stmts))
	return append(stmts[:idx:idx], stmts[idx+1:]...)
}

func (m *Mutator) mutateStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		if s.Value != nil {
			m.mutateExpression(s.Value)
		}
	case *ast.AssignStatement:
		if m.rnd.Float32() < 0.3 {
			m.mutateTarget(s.Target)
		} else {
			m.mutateExpression(s.Value)
		}
	case *ast.CompoundAssignStatement:
		if m.rnd.Float32() < 0.5 {
			s.Operator = m.pick("+=", "-=", "*=", "/=")
		} else {
			m.mutateExpression(s.Value)
		}
	case *ast.SelfOpStatement:
		m.mutateTarget(s.Expression.Target)
	case *ast.PrintStatement:
		if s.Value != nil {
			m.mutateExpression(s.Value)
		}
	case *ast.IfStatement:
		switch r := m.rnd.Float32(); {
		case r < 0.4:
			m.mutateExpression(s.Condition)
		case r < 0.7 || s.Alternative == nil:
			m.mutateBlock(s.Consequence)
		default:
			m.mutateBlock(s.Alternative)
		}
	case *ast.WhileStatement:
		if m.rnd.Float32() < 0.3 {
			m.mutateExpression(s.Condition)
		} else {
			m.mutateBlock(s.Body)
		}
	case *ast.ForStatement:
		switch r := m.rnd.Float32(); {
		case r < 0.3 && s.Range != nil:
			m.mutateRange(s.Range)
		case r < 0.3:
			m.mutateExpression(s.Iterable)
		default:
			m.mutateBlock(s.Body)
		}
	case *ast.FunctionStatement:
		m.mutateBlock(s.Body)
	case *ast.CallStatement:
		m.mutateExpression(s.Call)
	case *ast.ReturnStatement:
		if s.Value != nil {
			m.mutateExpression(s.Value)
		}
	case *ast.BlockStatement:
		m.mutateBlock(s)
	}
}

func (m *Mutator) mutateBlock(block *ast.BlockStatement) {
	if block == nil || len(block.Statements) == 0 {
		return
	}
	if m.rnd.Float32() < 0.1 {
		block.Statements = m.deleteOne(block.Statements)
		return
	}
	m.mutateStatement(block.Statements[m.rnd.Intn(len(block.Statements))])
}

func (m *Mutator) mutateRange(r *ast.RangeExpression) {
	switch x := m.rnd.Intn(3); {
	case x == 0:
		m.mutateExpression(r.From)
	case x == 1 || r.Step == nil:
		m.mutateExpression(r.To)
	default:
		m.mutateExpression(r.Step)
	}
}

func (m *Mutator) mutateTarget(t ast.Target) {
	switch t := t.(type) {
	case *ast.Identifier:
		m.rename(t)
	case *ast.IndexExpression:
		m.mutateExpression(t.Index)
	}
}

func (m *Mutator) rename(id *ast.Identifier) {
	if len(m.names) > 0 {
		id.Value = m.names[m.rnd.Intn(len(m.names))]
	}
}

func (m *Mutator) mutateExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.ArithmeticExpression:
		switch r := m.rnd.Float32(); {
		case r < 0.33:
			e.Operator = m.pick("+", "-", "*", "/", "%")
		case r < 0.66:
			m.mutateExpression(e.Left)
		default:
			m.mutateExpression(e.Right)
		}
	case *ast.ComparisonExpression:
		switch r := m.rnd.Float32(); {
		case r < 0.33:
			e.Operator = m.pick("<", ">", "<=", ">=", "==", "!=")
		case r < 0.66:
			m.mutateExpression(e.Left)
		default:
			m.mutateExpression(e.Right)
		}
	case *ast.LogicalExpression:
		switch r := m.rnd.Float32(); {
		case r < 0.33:
			e.Operator = m.pick("&&", "||")
		case r < 0.66:
			m.mutateExpression(e.Left)
		default:
			m.mutateExpression(e.Right)
		}
	case *ast.NotExpression:
		m.mutateExpression(e.Right)
	case *ast.IntegerLiteral:
		e.Value += int32(m.rnd.Intn(21) - 10)
	case *ast.BooleanLiteral:
		e.Value = !e.Value
	case *ast.StringLiteral:
		if len(e.Interpolations) > 0 && m.rnd.Float32() < 0.5 {
			m.mutateExpression(e.Interpolations[m.rnd.Intn(len(e.Interpolations))].Expr)
			return
		}
		if runes := []rune(e.Value); len(runes) > 0 {
			runes[m.rnd.Intn(len(runes))] = rune('a' + m.rnd.Intn(26))
			e.Value = string(runes)
		}
	case *ast.Identifier:
		m.rename(e)
	case *ast.IncDecExpression:
		m.mutateTarget(e.Target)
	case *ast.IndexExpression:
		if m.rnd.Float32() < 0.3 {
			m.rename(e.Left)
		} else {
			m.mutateExpression(e.Index)
		}
	case *ast.CollectionLiteral:
		if len(e.Elements) == 0 {
			return
		}
		m.mutateExpression(e.Elements[m.rnd.Intn(len(e.Elements))])
	case *ast.SizedConstructor:
		if m.rnd.Float32() < 0.5 {
			m.mutateExpression(e.Size)
		} else {
			m.mutateExpression(e.Generator.Body)
		}
	case *ast.LambdaExpression:
		m.mutateExpression(e.Body)
	case *ast.CallExpression:
		if len(e.Arguments) > 0 {
			m.mutateExpression(e.Arguments[m.rnd.Intn(len(e.Arguments))])
		}
	}
}

func (m *Mutator) pick(options ...string) string {
	return options[m.rnd.Intn(len(options))]
}
