package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/lexer"
	"github.com/funvibe/ktjvm/internal/parser"
	"github.com/funvibe/ktjvm/internal/pipeline"
	"github.com/funvibe/ktjvm/internal/prettyprinter"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	ctx := pipeline.NewPipelineContext(input)
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if ctx.Failed() {
		t.Fatalf("parsing failed: %v\ninput: %s", ctx.Err(), input)
	}
	return ctx.AstRoot
}

func parseErr(input string) error {
	ctx := pipeline.NewPipelineContext(input)
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	return ctx.Err()
}

func expectError(t *testing.T, input string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	err := parseErr(input)
	if err == nil {
		t.Fatalf("expected error %s, but got none\ninput: %s", code, input)
	}
	if !errors.Is(err, diagnostics.ErrParse) {
		t.Fatalf("expected a parse error, got %v\ninput: %s", err, input)
	}
	de, _ := diagnostics.As(err)
	if de.Code != code {
		t.Fatalf("expected error %s, got %v\ninput: %s", code, err, input)
	}
	return de
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"additive_left_assoc", "a = 1 + 2 + 3", "(= a (+ (+ 1 2) 3))"},
		{"subtract_left_assoc", "a = 10 - 4 - 3", "(= a (- (- 10 4) 3))"},
		{"multiplicative_left_assoc", "a = 8 / 4 * 2 % 3", "(= a (% (* (/ 8 4) 2) 3))"},
		{"precedence", "a = 1 + 2 * 3 - 4", "(= a (- (+ 1 (* 2 3)) 4))"},
		{"parens", "a = (1 + 2) * 3", "(= a (* (+ 1 2) 3))"},
		{"comparison", "b = a + 1 < c * 2", "(= b (< (+ a 1) (* c 2)))"},
		{"logical_single_tier", "b = x && y || z && w", "(= b (&& (|| (&& x y) z) w))"},
		{"logical_over_comparison", "b = a < 1 || a >= 5", "(= b (|| (< a 1) (>= a 5)))"},
		{"not", "b = !x && !!y", "(= b (&& (! x) (! (! y))))"},
		{"negative_literal", "a = b - -1", "(= a (- b -1))"},
		{"var_typed", "var x: Int = 5", "(var x Int 5)"},
		{"val_inferred", "val s = \"hi\"", `(val s _ (str "hi"))`},
		{"var_no_init", "var x: Boolean", "(var x Boolean _)"},
		{"array_type", "var a: Array<String> = arrayOf(\"a\", \"b\")", `(var a Array<String> (arrayOf (str "a") (str "b")))`},
		{"list_type", "val l: MutableList<Int> = mutableListOf(1)", "(val l MutableList<Int> (mutableListOf 1))"},
		{"type_argument_before_assign", "var a: Array<Int>=arrayOf(1)", "(var a Array<Int> (arrayOf 1))"},
		{"func_type_argument_before_assign", "val f: (Int) -> MutableList<Any>={ x -> mutableListOf(x) }", "(val f (Int) -> MutableList<Any> (lambda (x) (mutableListOf x)))"},
		{"comparison_after_typed_decl", "val l: MutableList<Int>=mutableListOf(1)\nb = 2>=1", "(val l MutableList<Int> (mutableListOf 1))\n(= b (>= 2 1))"},
		{"func_type", "val f: (Int, Int) -> Boolean = { a: Int, b: Int -> a < b }", "(val f (Int, Int) -> Boolean (lambda (a:Int b:Int) (< a b)))"},
		{"lambda_untyped_param", "val f: (Int) -> Int = { x -> x * 2 }", "(val f (Int) -> Int (lambda (x) (* x 2)))"},
		{"lambda_no_params", "val f = { -> 1 }", "(val f _ (lambda () 1))"},
		{"compound", "x += 1; x -= 2; x *= 3; x /= 4", "(+= x 1)\n(-= x 2)\n(*= x 3)\n(/= x 4)"},
		{"index_assign", "a[i + 1] = 2", "(= (index a (+ i 1)) 2)"},
		{"index_compound", "a[0] += 5", "(+= (index a 0) 5)"},
		{"self_ops", "x++\n--x\na[0]--\n++a[1]", "(post++ x)\n(--pre x)\n(post-- (index a 0))\n(++pre (index a 1))"},
		{"incdec_in_expression", "y = x++ + ++z", "(= y (+ (post++ x) (++pre z)))"},
		{"index_read", "y = a[2] * 3", "(= y (* (index a 2) 3))"},
		{"print", "print(1)\nprintln(\"x\")\nprintln()", "(print 1)\n(println (str \"x\"))\n(println)"},
		{"if", "if (x > 1) { println(x) }", "(if (> x 1) (block (println x)))"},
		{"if_else", "if (b) { x = 1 } else { x = 2 }", "(if b (block (= x 1)) (block (= x 2)))"},
		{"if_else_newline", "if (b) {\n  x = 1\n}\nelse {\n  x = 2\n}", "(if b (block (= x 1)) (block (= x 2)))"},
		{"else_if", "if (a) { x = 1 } else if (b) { x = 2 } else { x = 3 }", "(if a (block (= x 1)) (block (if b (block (= x 2)) (block (= x 3)))))"},
		{"while", "while (i < 10) { i++ }", "(while (< i 10) (block (post++ i)))"},
		{"for_range", "for (i in 1..5 step 2) { println(i) }", "(for i (range 1 5 2) (block (println i)))"},
		{"for_range_no_step", "for (i in 0..n - 1) { }", "(for i (range 0 (- n 1)) (block))"},
		{"for_each", "for (x in xs) { print(x) }", "(for x xs (block (print x)))"},
		{"fun", "fun add(a: Int, b: Int): Int {\n  return a + b\n}", "(fun add (a:Int b:Int) Int (block (return (+ a b))))"},
		{"fun_unit_default", "fun hello() { println(\"hi\") }", `(fun hello () Unit (block (println (str "hi"))))`},
		{"fun_higher_order", "fun apply(f: (Int) -> Int, x: Int): Int { return f(x) }", "(fun apply (f:(Int) -> Int x:Int) Int (block (return (call f x))))"},
		{"return_bare", "fun f() { return }", "(fun f () Unit (block (return)))"},
		{"break_continue", "while (true) { break; continue }", "(while true (block (break) (continue)))"},
		{"call_statement", "f(1, x + 2)", "(call f 1 (+ x 2))"},
		{"call_expression_newlines", "y = f(\n  1,\n  2\n)", "(= y (call f 1 2))"},
		{"call_no_args", "y = g()", "(= y (call g))"},
		{"sized_constructor", "val a = Array(3, { i -> i * i })", "(val a _ (Array 3 (lambda (i) (* i i))))"},
		{"sized_constructor_trailing", "val l = MutableList(2) { i: Int -> \"x\" }", `(val l _ (MutableList 2 (lambda (i:Int) (str "x"))))`},
		{"separators_collapsed", "\n\n;x = 1;;\n\ny = 2\n\n", "(= x 1)\n(= y 2)"},
		{"block_statement", "{ x = 1 }", "(block (= x 1))"},
		{"newline_after_operator", "x = 1 +\n  2", "(= x (+ 1 2))"},
		{"empty_program", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prog := parse(t, tc.input)
			got := prettyprinter.Tree(prog)
			if got != tc.expected {
				t.Errorf("tree mismatch\ninput:    %s\nexpected: %s\ngot:      %s", tc.input, tc.expected, got)
			}
		})
	}
}

func TestInterpolation(t *testing.T) {
	prog := parse(t, `s = "a is ${a + b}, b is $b"`)
	lit := prog.Statements[0].(*ast.AssignStatement).Value.(*ast.StringLiteral)
	if lit.Value != "a is , b is " {
		t.Fatalf("reduced text wrong: %q", lit.Value)
	}
	if len(lit.Interpolations) != 2 {
		t.Fatalf("expected 2 interpolations, got %d", len(lit.Interpolations))
	}
	if lit.Interpolations[0].Offset != 5 || prettyprinter.Tree(lit.Interpolations[0].Expr) != "(+ a b)" {
		t.Errorf("first interpolation wrong: @%d %s", lit.Interpolations[0].Offset, prettyprinter.Tree(lit.Interpolations[0].Expr))
	}
	if lit.Interpolations[1].Offset != 12 || prettyprinter.Tree(lit.Interpolations[1].Expr) != "b" {
		t.Errorf("second interpolation wrong: @%d %s", lit.Interpolations[1].Offset, prettyprinter.Tree(lit.Interpolations[1].Expr))
	}

	// Substituting the values in insertion order reconstitutes the text.
	values := []string{"3", "2"}
	runes := []rune(lit.Value)
	var sb strings.Builder
	next := 0
	for i := 0; i <= len(runes); i++ {
		for next < len(lit.Interpolations) && lit.Interpolations[next].Offset == i {
			sb.WriteString(values[next])
			next++
		}
		if i < len(runes) {
			sb.WriteRune(runes[i])
		}
	}
	if sb.String() != "a is 3, b is 2" {
		t.Errorf("substitution gave %q", sb.String())
	}
}

func TestInterpolationForms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dollar_space_is_literal", `s = "cost $ 5"`, `(= s (str "cost $ 5"))`},
		{"dollar_at_end", `s = "end$"`, `(= s (str "end$"))`},
		{"dollar_digit", `s = "$5"`, `(= s (str "$5"))`},
		{"escaped_dollar", `s = "\$x"`, `(= s (str "$x"))`},
		{"duplicates_kept", `s = "$x$x"`, `(= s (str "" @0 x @0 x))`},
		{"same_span_twice", `s = "${x} and ${x}"`, `(= s (str " and " @0 x @5 x))`},
		{"bare_stops_at_non_ident", `s = "[$name]"`, `(= s (str "[]" @1 name))`},
		{"nested_braces", `s = "${f({ -> 1 })}"`, `(= s (str "" @0 (call f (lambda () 1))))`},
		{"unicode_offsets", `s = "ä$x ö"`, `(= s (str "ä ö" @1 x))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prettyprinter.Tree(parse(t, tt.input))
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  diagnostics.ErrorCode
	}{
		{"missing_interpolation_brace", `s = "${a + b"`, diagnostics.ErrP006},
		{"bad_interpolation_expr", `s = "${a +}"`, diagnostics.ErrP006},
		{"empty_interpolation", `s = "${}"`, diagnostics.ErrP006},
		{"empty_array_of", "a = arrayOf()", diagnostics.ErrP004},
		{"empty_mutable_list_of", "a = mutableListOf(\n)", diagnostics.ErrP004},
		{"extra_tokens_program", "x = 1 y = 2", diagnostics.ErrP003},
		{"extra_tokens_block", "if (a) { x = 1 y = 2 }", diagnostics.ErrP003},
		{"chained_comparison", "b = 1 < 2 < 3", diagnostics.ErrP003},
		{"duplicate_fun_params", "fun f(a: Int, a: Int) { }", diagnostics.ErrP005},
		{"duplicate_lambda_params", "val f = { a: Int, a: Int -> a }", diagnostics.ErrP005},
		{"unexpected_eof", "x = 1 +", diagnostics.ErrP002},
		{"missing_rbrace", "while (true) { x = 1", diagnostics.ErrP002},
		{"unexpected_token", "x = )", diagnostics.ErrP001},
		{"missing_param_type", "fun f(a) { }", diagnostics.ErrP001},
		{"bad_element_type", "var a: Array<Unit>", diagnostics.ErrP001},
		{"assign_to_literal", "1 = 2", diagnostics.ErrP001},
		{"if_without_braces", "if (a) x = 1", diagnostics.ErrP001},
		{"expression_statement", "x", diagnostics.ErrP002},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, tt.input, tt.code)
		})
	}
}

func TestParseErrorCarriesExpectedReceived(t *testing.T) {
	de := expectError(t, "x = )", diagnostics.ErrP001)
	if de.Expected != "expression" || de.Received != "')'" {
		t.Errorf("expected/received wrong: %q / %q", de.Expected, de.Received)
	}
	if de.Token.Line != 1 || de.Token.Column != 5 {
		t.Errorf("position wrong: %d:%d", de.Token.Line, de.Token.Column)
	}
}

func TestCheckpointRestore(t *testing.T) {
	// A trailing newline after an if block must not be swallowed by the
	// failed else lookahead: the following statement is still separated.
	prog := parse(t, "if (a) { x = 1 }\ny = 2")
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
}

func TestParseExpression(t *testing.T) {
	tokens, err := lexer.Tokenize("a * (b + 1)")
	if err != nil {
		t.Fatal(err)
	}
	exp, err := parser.ParseExpression(tokens)
	if err != nil {
		t.Fatal(err)
	}
	if got := prettyprinter.Tree(exp); got != "(* a (+ b 1))" {
		t.Errorf("got %s", got)
	}

	tokens, _ = lexer.Tokenize("a b")
	if _, err := parser.ParseExpression(tokens); err == nil {
		t.Errorf("expected trailing tokens to be rejected")
	}
}

func TestDeepNesting(t *testing.T) {
	input := "x = " + strings.Repeat("(", parser.MaxRecursionDepth+10) + "1" + strings.Repeat(")", parser.MaxRecursionDepth+10)
	if err := parseErr(input); err == nil {
		t.Errorf("expected nesting limit error")
	}
}
