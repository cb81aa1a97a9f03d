// Package generators produces random well-typed programs for the fuzz
// targets. A Generator draws its choices from a RandomSource, so the same
// seed or the same fuzzer input always yields the same program.
package generators

import (
	"fmt"
	"math/rand"
	"strings"
)

// RandomSource abstracts the source of randomness.
type RandomSource interface {
	Intn(n int) int
}

// RandSource wraps math/rand.
type RandSource struct {
	*rand.Rand
}

// ByteSource uses a byte slice as a source of randomness. Once the data is
// used up every choice is 0, which always picks the simplest production.
type ByteSource struct {
	data []byte
	pos  int
}

func (s *ByteSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	if s.pos >= len(s.data) {
		return 0
	}
	v := int(s.data[s.pos])
	s.pos++
	return v % n
}

const (
	MaxDepth      = 3
	MaxStatements = 6
)

type kind int

const (
	intVar kind = iota
	collectionVar
	lambdaVar
)

// variable is a name visible at the current point.
type variable struct {
	name     string
	kind     kind
	writable bool
}

// Generator generates random programs. Every name it declares is fresh, so
// no declaration can clash with another one.
type Generator struct {
	src   RandomSource
	depth int
	next  int

	scopes    [][]variable
	functions []function
	inLoop    int
}

type function struct {
	name   string
	params int
}

func New(seed int64) *Generator {
	return &Generator{src: &RandSource{rand.New(rand.NewSource(seed))}}
}

func NewFromData(data []byte) *Generator {
	return &Generator{src: &ByteSource{data: data}}
}

// Intn exposes the random source's Intn method.
func (g *Generator) Intn(n int) int {
	return g.src.Intn(n)
}

func (g *Generator) fresh(prefix string) string {
	name := fmt.Sprintf("%s%d", prefix, g.next)
	g.next++
	return name
}

func (g *Generator) push() { g.scopes = append(g.scopes, nil) }
func (g *Generator) pop()  { g.scopes = g.scopes[:len(g.scopes)-1] }

func (g *Generator) declare(name string, k kind, writable bool) {
	top := len(g.scopes) - 1
	g.scopes[top] = append(g.scopes[top], variable{name: name, kind: k, writable: writable})
}

func (g *Generator) visible(k kind, writableOnly bool) []string {
	var names []string
	for _, scope := range g.scopes {
		for _, v := range scope {
			if v.kind == k && (!writableOnly || v.writable) {
				names = append(names, v.name)
			}
		}
	}
	return names
}

// pick returns a random visible name of kind k, or "".
func (g *Generator) pick(k kind, writableOnly bool) string {
	names := g.visible(k, writableOnly)
	if len(names) == 0 {
		return ""
	}
	return names[g.src.Intn(len(names))]
}

// GenerateProgram returns a program made of a few functions followed by
// top-level statements.
func (g *Generator) GenerateProgram() string {
	var sb strings.Builder
	for i := g.src.Intn(3); i > 0; i-- {
		sb.WriteString(g.GenerateFunction())
		sb.WriteString("\n")
	}
	g.push()
	count := g.src.Intn(MaxStatements) + 1
	for i := 0; i < count; i++ {
		sb.WriteString(g.GenerateStatement())
		sb.WriteString("\n")
	}
	// every program prints something, so differential runs compare output
	if vars := g.visible(intVar, false); len(vars) > 0 {
		sb.WriteString(fmt.Sprintf("println(\"end %s=$%s\")\n", vars[0], vars[0]))
	} else {
		sb.WriteString("println(\"end\")\n")
	}
	g.pop()
	return sb.String()
}

// GenerateFunction returns a top-level function over Int parameters that
// ends in a return. Script variables are not visible inside it.
func (g *Generator) GenerateFunction() string {
	name := g.fresh("g")
	params := g.src.Intn(3)

	savedScopes := g.scopes
	g.scopes = nil
	g.push()
	names := make([]string, params)
	decls := make([]string, params)
	for i := range names {
		names[i] = g.fresh("p")
		decls[i] = names[i] + ": Int"
		g.declare(names[i], intVar, false)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("fun %s(%s): Int {\n", name, strings.Join(decls, ", ")))
	for i := g.src.Intn(3); i > 0; i-- {
		sb.WriteString(g.GenerateStatement())
		sb.WriteString("\n")
	}
	sb.WriteString("return " + g.GenerateInt() + "\n}")
	g.pop()
	g.scopes = savedScopes

	// declared after the body, so a function never calls itself
	g.functions = append(g.functions, function{name: name, params: params})
	return sb.String()
}

func (g *Generator) GenerateStatement() string {
	if g.depth >= MaxDepth {
		return g.GeneratePrint()
	}
	g.depth++
	defer func() { g.depth-- }()

	switch choice := g.src.Intn(14); {
	case choice < 3:
		return g.GenerateVarDecl()
	case choice < 5:
		return g.GenerateAssignment()
	case choice < 7:
		return g.GeneratePrint()
	case choice < 8:
		return g.GenerateIf()
	case choice < 9:
		return g.GenerateFor()
	case choice < 10:
		return g.GenerateWhile()
	case choice < 11:
		return g.GenerateArrayDecl()
	case choice < 12:
		return g.GenerateLambdaDecl()
	case choice < 13 && g.inLoop > 0:
		return fmt.Sprintf("if (%s) {\nbreak\n}", g.GenerateCondition())
	default:
		return g.GenerateVarDecl()
	}
}

func (g *Generator) GenerateVarDecl() string {
	kw, writable := "var", true
	if g.src.Intn(3) == 0 {
		kw, writable = "val", false
	}
	value := g.GenerateInt()
	name := g.fresh("v")
	g.declare(name, intVar, writable)
	return fmt.Sprintf("%s %s = %s", kw, name, value)
}

func (g *Generator) GenerateAssignment() string {
	if arr := g.pick(collectionVar, false); arr != "" && g.src.Intn(3) == 0 {
		op := []string{"=", "+=", "-=", "*="}[g.src.Intn(4)]
		return fmt.Sprintf("%s[%d] %s %s", arr, g.src.Intn(3), op, g.GenerateInt())
	}
	v := g.pick(intVar, true)
	if v == "" {
		return g.GenerateVarDecl()
	}
	switch g.src.Intn(4) {
	case 0:
		return v + "++"
	case 1:
		return fmt.Sprintf("%s %s %s", v, []string{"+=", "-=", "*="}[g.src.Intn(3)], g.GenerateInt())
	default:
		return fmt.Sprintf("%s = %s", v, g.GenerateInt())
	}
}

func (g *Generator) GeneratePrint() string {
	switch g.src.Intn(4) {
	case 0:
		if v := g.pick(intVar, false); v != "" {
			return fmt.Sprintf("println(\"%s is $%s, twice ${%s * 2}\")", v, v, v)
		}
	case 1:
		if arr := g.pick(collectionVar, false); arr != "" {
			return fmt.Sprintf("println(%s)", arr)
		}
	case 2:
		return fmt.Sprintf("println(%s)", g.GenerateCondition())
	}
	return fmt.Sprintf("println(%s)", g.GenerateInt())
}

func (g *Generator) block(loop bool) string {
	g.push()
	if loop {
		g.inLoop++
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for i := g.src.Intn(3) + 1; i > 0; i-- {
		sb.WriteString(g.GenerateStatement())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	if loop {
		g.inLoop--
	}
	g.pop()
	return sb.String()
}

func (g *Generator) GenerateIf() string {
	s := fmt.Sprintf("if (%s) %s", g.GenerateCondition(), g.block(false))
	switch g.src.Intn(3) {
	case 0:
		s += " else " + g.block(false)
	case 1:
		s += fmt.Sprintf(" else if (%s) %s", g.GenerateCondition(), g.block(false))
	}
	return s
}

// GenerateFor walks a short literal range; the loop variable is read-only.
func (g *Generator) GenerateFor() string {
	if arr := g.pick(collectionVar, false); arr != "" && g.src.Intn(3) == 0 {
		g.push()
		x := g.fresh("x")
		g.declare(x, intVar, false)
		body := g.block(true)
		g.pop()
		return fmt.Sprintf("for (%s in %s) %s", x, arr, body)
	}
	from := g.src.Intn(3)
	to := from + g.src.Intn(4)
	step := ""
	if g.src.Intn(3) == 0 {
		step = fmt.Sprintf(" step %d", g.src.Intn(3)+1)
	}
	g.push()
	i := g.fresh("i")
	g.declare(i, intVar, false)
	body := g.block(true)
	g.pop()
	return fmt.Sprintf("for (%s in %d..%d%s) %s", i, from, to, step, body)
}

// GenerateWhile counts a hidden variable up to a small bound. The counter
// is not writable by the body, so the loop always terminates.
func (g *Generator) GenerateWhile() string {
	w := g.fresh("w")
	g.declare(w, intVar, false)
	bound := g.src.Intn(4) + 1
	g.push()
	g.inLoop++
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("var %s = 0\nwhile (%s < %d) {\n%s++\n", w, w, bound, w))
	for i := g.src.Intn(2) + 1; i > 0; i-- {
		sb.WriteString(g.GenerateStatement())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	g.inLoop--
	g.pop()
	return sb.String()
}

func (g *Generator) GenerateArrayDecl() string {
	name := g.fresh("a")
	kind := "arrayOf"
	if g.src.Intn(2) == 0 {
		kind = "mutableListOf"
	}
	elems := []string{g.GenerateInt(), g.GenerateInt(), g.GenerateInt()}
	var decl string
	if g.src.Intn(3) == 0 {
		ctor := "Array"
		if kind == "mutableListOf" {
			ctor = "MutableList"
		}
		decl = fmt.Sprintf("val %s = %s(3) { k -> k * %s }", name, ctor, g.literal())
	} else {
		decl = fmt.Sprintf("val %s = %s(%s)", name, kind, strings.Join(elems, ", "))
	}
	g.declare(name, collectionVar, false)
	return decl
}

// GenerateLambdaDecl binds a one-parameter Int lambda that may capture the
// variables in scope.
func (g *Generator) GenerateLambdaDecl() string {
	name := g.fresh("f")
	param := g.fresh("q")
	g.push()
	g.declare(param, intVar, false)
	body := g.GenerateInt()
	g.pop()
	g.declare(name, lambdaVar, false)
	return fmt.Sprintf("val %s = { %s: Int -> %s }", name, param, body)
}

func (g *Generator) literal() string {
	return fmt.Sprint(g.src.Intn(100))
}

// GenerateInt returns an Int expression. Division and remainder only ever
// divide by a non-zero literal, and element reads stay within the three
// elements every generated collection has.
func (g *Generator) GenerateInt() string {
	return g.intExpr(0)
}

func (g *Generator) intExpr(depth int) string {
	if depth >= 3 {
		return g.atom()
	}
	switch g.src.Intn(9) {
	case 0, 1:
		op := []string{"+", "-", "*"}[g.src.Intn(3)]
		return fmt.Sprintf("%s %s %s", g.intExpr(depth+1), op, g.intExpr(depth+1))
	case 2:
		op := []string{"/", "%"}[g.src.Intn(2)]
		return fmt.Sprintf("(%s) %s %d", g.intExpr(depth+1), op, g.src.Intn(9)+1)
	case 3:
		return "(" + g.intExpr(depth+1) + ")"
	case 4:
		if len(g.functions) > 0 {
			fn := g.functions[g.src.Intn(len(g.functions))]
			args := make([]string, fn.params)
			for i := range args {
				args[i] = g.intExpr(depth + 1)
			}
			return fmt.Sprintf("%s(%s)", fn.name, strings.Join(args, ", "))
		}
	case 5:
		if f := g.pick(lambdaVar, false); f != "" {
			return fmt.Sprintf("%s(%s)", f, g.intExpr(depth+1))
		}
	case 6:
		if arr := g.pick(collectionVar, false); arr != "" {
			return fmt.Sprintf("%s[%d]", arr, g.src.Intn(3))
		}
	}
	return g.atom()
}

func (g *Generator) atom() string {
	if v := g.pick(intVar, false); v != "" && g.src.Intn(2) == 0 {
		return v
	}
	return g.literal()
}

// GenerateCondition returns a Boolean expression.
func (g *Generator) GenerateCondition() string {
	cmp := fmt.Sprintf("%s %s %s", g.atom(), []string{"<", "<=", ">", ">=", "==", "!="}[g.src.Intn(6)], g.atom())
	switch g.src.Intn(5) {
	case 0:
		return fmt.Sprintf("%s && %s", cmp, g.GenerateConditionAtom())
	case 1:
		return fmt.Sprintf("%s || %s", cmp, g.GenerateConditionAtom())
	case 2:
		return "!(" + cmp + ")"
	}
	return cmp
}

func (g *Generator) GenerateConditionAtom() string {
	switch g.src.Intn(3) {
	case 0:
		return []string{"true", "false"}[g.src.Intn(2)]
	case 1:
		return fmt.Sprintf("\"%s\" < \"%s\"", g.fresh("s"), g.fresh("t"))
	}
	return fmt.Sprintf("%s == %s", g.atom(), g.atom())
}
