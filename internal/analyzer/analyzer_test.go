package analyzer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/conformance"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/lexer"
	"github.com/funvibe/ktjvm/internal/parser"
	"github.com/funvibe/ktjvm/internal/pipeline"
	"github.com/funvibe/ktjvm/internal/symbols"
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

func runTypecheck(input string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(input)
	return pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{},
	).Run(ctx)
}

func check(t *testing.T, input string) (*ast.Program, *analyzer.Info) {
	t.Helper()
	ctx := runTypecheck(input)
	if ctx.Failed() {
		t.Fatalf("typecheck failed: %v\ninput: %s", ctx.Err(), input)
	}
	return ctx.AstRoot, ctx.TypeInfo.(*analyzer.Info)
}

func checkErr(t *testing.T, input string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	err := runTypecheck(input).Err()
	if err == nil {
		t.Fatalf("expected error %s, but got none\ninput: %s", code, input)
	}
	if !errors.Is(err, diagnostics.ErrIllTyped) {
		t.Fatalf("expected an ill-typed program error, got %v\ninput: %s", err, input)
	}
	de, _ := diagnostics.As(err)
	if de.Code != code {
		t.Fatalf("expected error %s, got %v\ninput: %s", code, err, input)
	}
	return de
}

func TestUndeclaredThenDeclared(t *testing.T) {
	de := checkErr(t, "var a = 0\na = x + 1", diagnostics.ErrT001)
	if !strings.Contains(de.Message, "undeclared variable 'x'") {
		t.Errorf("unexpected message %q", de.Message)
	}
	if de.Token.Line != 2 || de.Token.Column != 5 {
		t.Errorf("expected error at 2:5, got %d:%d", de.Token.Line, de.Token.Column)
	}

	check(t, "var x = 1\nvar a = 0\na = x + 1")
}

func TestOperandTypesInMessage(t *testing.T) {
	de := checkErr(t, "var x = true\nvar a = x + 1", diagnostics.ErrT002)
	if !strings.Contains(de.Message, "Boolean") || !strings.Contains(de.Message, "Int") {
		t.Errorf("message should name both operand types, got %q", de.Message)
	}
}

func TestConformance(t *testing.T) {
	tests, err := conformance.LoadAllTests()
	if err != nil {
		t.Fatalf("loading conformance suites: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("no conformance tests found")
	}
	for _, lt := range tests {
		lt := lt
		t.Run(lt.FullName(), func(t *testing.T) {
			if skip, reason := lt.Test.IsSkipped(); skip {
				t.Skip(reason)
			}
			err := runTypecheck(lt.Test.Source).Err()
			if lt.Test.Compiles() {
				if err != nil {
					t.Fatalf("expected program to typecheck, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %s, got none", lt.Test.Expect.Error)
			}
			de, ok := diagnostics.As(err)
			if !ok || string(de.Code) != lt.Test.Expect.Error {
				t.Fatalf("expected error %s, got %v", lt.Test.Expect.Error, err)
			}
			if !strings.Contains(de.Message, lt.Test.Expect.Contains) {
				t.Errorf("message %q does not contain %q", de.Message, lt.Test.Expect.Contains)
			}
		})
	}
}

func TestExpressionTypes(t *testing.T) {
	prog, info := check(t, `
val a = arrayOf(1, 2)
val l = mutableListOf("x")
val f = { x: Int -> x > 0 }
val b = f(a[0])
val s = "n = ${a[1] + 1}"
`)
	want := []typesystem.Type{
		typesystem.Array{Elem: typesystem.Int},
		typesystem.MutableList{Elem: typesystem.String},
		typesystem.Func{Params: []typesystem.Type{typesystem.Int}, Return: typesystem.Boolean},
		typesystem.Boolean,
		typesystem.String,
	}
	for i, s := range prog.Statements {
		decl := s.(*ast.VarDeclaration)
		got := info.TypeOf(decl.Value)
		if !typesystem.Equal(got, want[i]) {
			t.Errorf("%s: expected %s, got %v", decl.Name.Value, want[i], got)
		}
		sym := info.SymbolOf(decl.Name)
		if sym == nil || !typesystem.Equal(sym.Type, want[i]) {
			t.Errorf("%s: declaration not recorded with type %s", decl.Name.Value, want[i])
		}
	}
}

func TestResolvedIdentity(t *testing.T) {
	prog, info := check(t, `
var x = 1
if (true) {
    var x = "inner"
    println(x)
}
println(x)
`)
	outer := info.SymbolOf(prog.Statements[0].(*ast.VarDeclaration).Name)
	ifStmt := prog.Statements[1].(*ast.IfStatement)
	inner := info.SymbolOf(ifStmt.Consequence.Statements[0].(*ast.VarDeclaration).Name)
	innerUse := ifStmt.Consequence.Statements[1].(*ast.PrintStatement).Value.(*ast.Identifier)
	outerUse := prog.Statements[2].(*ast.PrintStatement).Value.(*ast.Identifier)

	if outer == inner {
		t.Fatal("shadowing declaration must be a distinct symbol")
	}
	if info.SymbolOf(innerUse) != inner {
		t.Error("inner use should resolve to the inner declaration")
	}
	if info.SymbolOf(outerUse) != outer {
		t.Error("outer use should resolve to the outer declaration")
	}
	if !typesystem.Equal(info.TypeOf(innerUse), typesystem.String) {
		t.Errorf("inner use should be String, got %v", info.TypeOf(innerUse))
	}
}

func TestFunctionSignatures(t *testing.T) {
	_, info := check(t, `
fun add(a: Int, b: Int): Int {
    return a + b
}
fun log(msg: String) {
    println(msg)
}
`)
	testCases := []struct {
		name string
		sig  string
	}{
		{"add", "(Int, Int) -> Int"},
		{"log", "(String) -> Unit"},
	}
	for _, tc := range testCases {
		sig, ok := info.Functions[tc.name]
		if !ok {
			t.Errorf("function %s not recorded", tc.name)
			continue
		}
		if sig.Type.String() != tc.sig {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.sig, sig.Type)
		}
		if sig.Symbol.Kind != symbols.FunctionSymbol {
			t.Errorf("%s: expected a function symbol, got %s", tc.name, sig.Symbol.Kind)
		}
	}
}

func TestLambdaCaptures(t *testing.T) {
	prog, info := check(t, `
val base = 100
val outer = { x: Int -> Array(2) { i -> base + x + i } }
`)
	outer := prog.Statements[1].(*ast.VarDeclaration).Value.(*ast.LambdaExpression)
	inner := outer.Body.(*ast.SizedConstructor).Generator

	names := func(syms []*symbols.Symbol) string {
		var parts []string
		for _, s := range syms {
			parts = append(parts, s.Name)
		}
		return strings.Join(parts, ",")
	}
	if got := names(info.Captures[outer]); got != "base" {
		t.Errorf("outer lambda captures: expected base, got %q", got)
	}
	if got := names(info.Captures[inner]); got != "base,x" {
		t.Errorf("inner lambda captures: expected base,x, got %q", got)
	}
}

func TestLambdaParameterInference(t *testing.T) {
	prog, info := check(t, `
fun apply(f: (Int) -> Int, v: Int): Int {
    return f(v)
}
println(apply({ x -> x * 2 }, 21))
`)
	call := prog.Statements[1].(*ast.PrintStatement).Value.(*ast.CallExpression)
	lambda := call.Arguments[0].(*ast.LambdaExpression)
	sym := info.SymbolOf(lambda.Parameters[0].Name)
	if sym == nil || !typesystem.Equal(sym.Type, typesystem.Int) {
		t.Fatalf("lambda parameter should be inferred as Int, got %v", sym)
	}
}

func TestTypecheckDoesNotMutate(t *testing.T) {
	ctx := pipeline.NewPipelineContext("var x = 1\nx = x + 2\nprintln(x)")
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if ctx.Failed() {
		t.Fatal(ctx.Err())
	}
	before := len(ctx.AstRoot.Statements)
	if _, err := analyzer.Typecheck(ctx.AstRoot); err != nil {
		t.Fatal(err)
	}
	if _, err := analyzer.Typecheck(ctx.AstRoot); err != nil {
		t.Fatalf("second typecheck of the same tree failed: %v", err)
	}
	if len(ctx.AstRoot.Statements) != before {
		t.Fatal("typecheck changed the program")
	}
}

// The parser never produces an empty collection literal, but a tree built
// by hand can. The element type then comes from the declared type or the
// literal is rejected.
func TestEmptyCollectionLiteral(t *testing.T) {
	tests := []struct {
		name     string
		declared typesystem.Type
		want     typesystem.Type
	}{
		{"untyped", nil, nil},
		{"typed_array", typesystem.Array{Elem: typesystem.Int}, typesystem.Array{Elem: typesystem.Int}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit := &ast.CollectionLiteral{
				Token: token.Token{Type: token.ARRAY_OF, Lexeme: "arrayOf", Line: 1, Column: 9},
				Kind:  ast.ArrayKind,
			}
			prog := &ast.Program{Statements: []ast.Statement{&ast.VarDeclaration{
				Token: token.Token{Type: token.VAL, Lexeme: "val", Line: 1, Column: 1},
				Name:  &ast.Identifier{Token: token.Token{Type: token.IDENT, Lexeme: "a", Line: 1, Column: 5}, Value: "a"},
				Type:  tt.declared,
				Value: lit,
			}}}
			info, err := analyzer.Typecheck(prog)
			if tt.want == nil {
				de, ok := diagnostics.As(err)
				if !ok || de.Code != diagnostics.ErrT006 {
					t.Fatalf("expected %s, got %v", diagnostics.ErrT006, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := info.Types[lit]; !typesystem.Equal(got, tt.want) {
				t.Errorf("literal typed %v, want %v", got, tt.want)
			}
		})
	}
}
